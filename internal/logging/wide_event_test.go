package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageTransitions(t *testing.T) {
	event := NewWideEvent("story.create")
	ctx := WithContext(context.Background(), event)

	StartStage(ctx, "uploading")
	StartStage(ctx, "analyzing")

	assert.Equal(t, "completed", event.Stages["uploading"].Status)
	assert.Equal(t, "in_progress", event.Stages["analyzing"].Status)
}

func TestEnrichErrorMarksStageFailed(t *testing.T) {
	event := NewWideEvent("story.create")
	ctx := WithContext(context.Background(), event)

	StartStage(ctx, "analyzing")
	EnrichError(ctx, errors.New("model unavailable"), "analyzing")

	assert.Equal(t, "model unavailable", event.Error)
	assert.Equal(t, "analyzing", event.ErrorStage)
	assert.Equal(t, "failed", event.Stages["analyzing"].Status)
}

func TestEnrichWithoutEventIsNoop(t *testing.T) {
	ctx := context.Background()

	require.Nil(t, FromContext(ctx))
	StartStage(ctx, "uploading")
	EnrichError(ctx, errors.New("boom"), "uploading")
	Emit(ctx)
}

func TestTraceIDFromContext(t *testing.T) {
	event := NewWideEvent("story.create")
	ctx := WithContext(context.Background(), event)

	assert.Equal(t, event.TraceID, GetTraceID(ctx))
	assert.Empty(t, GetTraceID(context.Background()))
}
