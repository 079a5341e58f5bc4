package credits

import (
	"testing"

	"github.com/Lemon-stack/budwrite-sub000/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredCredits(t *testing.T) {
	tests := []struct {
		name   string
		budget int
		want   int64
	}{
		{name: "smallest budget", budget: 1, want: 1},
		{name: "first tier boundary", budget: 500, want: 1},
		{name: "just above first tier", budget: 501, want: 2},
		{name: "default story budget", budget: 2000, want: 2},
		{name: "third tier", budget: 3500, want: 3},
		{name: "top tier boundary", budget: 10000, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RequiredCredits(tt.budget)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequiredCreditsRejectsInvalidBudgets(t *testing.T) {
	for _, budget := range []int{0, -1, MaxLengthBudget + 1} {
		_, err := RequiredCredits(budget)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}

func TestCostTiersAreOrdered(t *testing.T) {
	for i := 1; i < len(CostTiers); i++ {
		assert.Greater(t, CostTiers[i].MaxBudget, CostTiers[i-1].MaxBudget)
		assert.Greater(t, CostTiers[i].Credits, CostTiers[i-1].Credits)
	}
}
