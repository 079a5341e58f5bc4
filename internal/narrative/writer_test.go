package narrative

import (
	"context"
	"errors"
	"testing"

	"github.com/Lemon-stack/budwrite-sub000/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTextModel struct {
	calls      int
	lastPrompt string
	lastTokens int32
	response   string
	err        error
}

func (f *fakeTextModel) GenerateStory(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastTokens = maxTokens
	return f.response, f.err
}

func newTestWriter(t *testing.T, model *fakeTextModel) *Writer {
	t.Helper()
	w, err := NewGeminiWriter(nil, "test-model", withTextModel(model))
	require.NoError(t, err)
	return w
}

func TestGenerateNormalizesOutput(t *testing.T) {
	model := &fakeTextModel{response: "  The wind rose.  \n\n\n\nNobody spoke.\n"}
	w := newTestWriter(t, model)

	story, err := w.Generate(context.Background(), "a storm over the bay", "The Crossing", 2000)
	require.NoError(t, err)
	assert.Equal(t, "The wind rose.\n\nNobody spoke.", story)

	assert.Contains(t, model.lastPrompt, "The Crossing")
	assert.Contains(t, model.lastPrompt, "a storm over the bay")
	assert.Equal(t, int32(2000), model.lastTokens, "length budget bounds the model call")
}

func TestGenerateEmptyResponseIsUpstreamError(t *testing.T) {
	model := &fakeTextModel{response: "   \n  "}
	w := newTestWriter(t, model)

	_, err := w.Generate(context.Background(), "a storm over the bay", "The Crossing", 2000)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestGenerateModelFailureIsUpstreamError(t *testing.T) {
	upstream := errors.New("deadline exceeded")
	model := &fakeTextModel{err: upstream}
	w := newTestWriter(t, model)

	_, err := w.Generate(context.Background(), "a storm over the bay", "The Crossing", 2000)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.ErrorIs(t, err, upstream)
}

func TestGenerateRequiresTitleAndDescription(t *testing.T) {
	w := newTestWriter(t, &fakeTextModel{response: "text"})

	_, err := w.Generate(context.Background(), "desc", "  ", 2000)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = w.Generate(context.Background(), "", "Title", 2000)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "messy model output", in: "First line.  \r\n\r\n\r\n  Second line.\n\n\nThird line.  "},
		{name: "single paragraph", in: "Just one line."},
		{name: "already normalized", in: "One.\n\nTwo."},
		{name: "indented dialogue", in: "\t\"Go on,\" she said.\n   He did not.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := Normalize(tt.in)
			twice := Normalize(once)
			assert.Equal(t, once, twice)
		})
	}
}

func TestNormalizeCollapsesBlankLines(t *testing.T) {
	got := Normalize("a\n\n\n\nb\n \nc")
	assert.Equal(t, "a\n\nb\n\nc", got)
}
