package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPack(t *testing.T) {
	assert.NotNil(t, GetPack("spark"))
	assert.Nil(t, GetPack("unknown"))
}

func TestPackOrderCoversAllPacks(t *testing.T) {
	assert.Len(t, PackOrder, len(Packs))
	for _, id := range PackOrder {
		pack, ok := Packs[id]
		assert.True(t, ok, "ordered pack %s must exist", id)
		assert.Equal(t, id, pack.ID)
		assert.Positive(t, pack.Credits)
		assert.Positive(t, pack.PriceCents)
	}
}
