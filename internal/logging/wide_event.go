// Package logging emits one wide, structured event per story-generation
// request, incrementally populated as the request moves through the
// workflow stages.
package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Lemon-stack/budwrite-sub000/internal/logger"
	"github.com/google/uuid"
)

type contextKey string

const (
	contextKeyWideEvent contextKey = "wide_event"
	contextKeyTraceID   contextKey = "trace_id"
)

// StageTiming records how long a single workflow stage ran and how it
// ended.
type StageTiming struct {
	startedAt  time.Time
	DurationMs int64  `json:"duration_ms"`
	Status     string `json:"status"`
}

// WideEvent captures the full lifecycle of one story-generation request.
type WideEvent struct {
	mu sync.Mutex

	TraceID   string    `json:"trace_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`

	HTTPMethod     string `json:"http_method,omitempty"`
	HTTPPath       string `json:"http_path,omitempty"`
	HTTPDurationMs int64  `json:"http_duration_ms,omitempty"`

	UserID    string `json:"user_id,omitempty"`
	UserEmail string `json:"user_email,omitempty"`

	StoryID        string `json:"story_id,omitempty"`
	Title          string `json:"title,omitempty"`
	LengthBudget   int    `json:"length_budget,omitempty"`
	CreditsCharged int64  `json:"credits_charged,omitempty"`

	Stages map[string]StageTiming `json:"stages,omitempty"`

	Error      string `json:"error,omitempty"`
	ErrorStage string `json:"error_stage,omitempty"`
}

func NewWideEvent(eventType string) *WideEvent {
	return &WideEvent{
		TraceID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
		Stages:    make(map[string]StageTiming),
	}
}

func WithContext(ctx context.Context, event *WideEvent) context.Context {
	ctx = context.WithValue(ctx, contextKeyWideEvent, event)
	ctx = context.WithValue(ctx, contextKeyTraceID, event.TraceID)
	return ctx
}

func FromContext(ctx context.Context) *WideEvent {
	if event, ok := ctx.Value(contextKeyWideEvent).(*WideEvent); ok {
		return event
	}
	return nil
}

func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(contextKeyTraceID).(string); ok {
		return traceID
	}
	return ""
}

func EnrichHTTP(ctx context.Context, method, path string) {
	if event := FromContext(ctx); event != nil {
		event.mu.Lock()
		defer event.mu.Unlock()
		event.HTTPMethod = method
		event.HTTPPath = path
	}
}

func EnrichUser(ctx context.Context, userID, email string) {
	if event := FromContext(ctx); event != nil {
		event.mu.Lock()
		defer event.mu.Unlock()
		event.UserID = userID
		event.UserEmail = email
	}
}

func EnrichRequest(ctx context.Context, title string, lengthBudget int) {
	if event := FromContext(ctx); event != nil {
		event.mu.Lock()
		defer event.mu.Unlock()
		event.Title = title
		event.LengthBudget = lengthBudget
	}
}

func EnrichStory(ctx context.Context, storyID string, creditsCharged int64) {
	if event := FromContext(ctx); event != nil {
		event.mu.Lock()
		defer event.mu.Unlock()
		event.StoryID = storyID
		event.CreditsCharged = creditsCharged
	}
}

// StartStage marks a stage as in progress; the previous in-progress
// stage, if any, is closed out as completed.
func StartStage(ctx context.Context, stage string) {
	event := FromContext(ctx)
	if event == nil {
		return
	}
	event.mu.Lock()
	defer event.mu.Unlock()

	now := time.Now()
	for name, timing := range event.Stages {
		if timing.Status == "in_progress" {
			timing.DurationMs = now.Sub(timing.startedAt).Milliseconds()
			timing.Status = "completed"
			event.Stages[name] = timing
		}
	}
	event.Stages[stage] = StageTiming{startedAt: now, Status: "in_progress"}
}

func EnrichError(ctx context.Context, err error, stage string) {
	event := FromContext(ctx)
	if event == nil || err == nil {
		return
	}
	event.mu.Lock()
	defer event.mu.Unlock()

	event.Error = err.Error()
	event.ErrorStage = stage
	if timing, ok := event.Stages[stage]; ok && timing.Status == "in_progress" {
		timing.DurationMs = time.Since(timing.startedAt).Milliseconds()
		timing.Status = "failed"
		event.Stages[stage] = timing
	}
}

// Emit writes the event as a single structured log line. Errors raise
// the level to ERROR.
func Emit(ctx context.Context) {
	event := FromContext(ctx)
	if event == nil {
		return
	}
	event.mu.Lock()
	defer event.mu.Unlock()

	event.HTTPDurationMs = time.Since(event.Timestamp).Milliseconds()

	now := time.Now()
	for name, timing := range event.Stages {
		if timing.Status == "in_progress" {
			timing.DurationMs = now.Sub(timing.startedAt).Milliseconds()
			timing.Status = "completed"
			event.Stages[name] = timing
		}
	}

	attrs := []slog.Attr{
		slog.String("trace_id", event.TraceID),
		slog.String("event_type", event.EventType),
		slog.Time("timestamp", event.Timestamp),
		slog.Int64("http_duration_ms", event.HTTPDurationMs),
	}

	if event.HTTPMethod != "" {
		attrs = append(attrs, slog.String("http_method", event.HTTPMethod))
	}
	if event.HTTPPath != "" {
		attrs = append(attrs, slog.String("http_path", event.HTTPPath))
	}
	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.UserEmail != "" {
		attrs = append(attrs, slog.String("user_email", event.UserEmail))
	}
	if event.StoryID != "" {
		attrs = append(attrs, slog.String("story_id", event.StoryID))
	}
	if event.Title != "" {
		attrs = append(attrs, slog.String("title", event.Title))
	}
	if event.LengthBudget != 0 {
		attrs = append(attrs, slog.Int("length_budget", event.LengthBudget))
	}
	if event.CreditsCharged != 0 {
		attrs = append(attrs, slog.Int64("credits_charged", event.CreditsCharged))
	}
	if len(event.Stages) > 0 {
		attrs = append(attrs, slog.Any("stages", event.Stages))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	if event.ErrorStage != "" {
		attrs = append(attrs, slog.String("error_stage", event.ErrorStage))
	}

	level := slog.LevelInfo
	if event.Error != "" {
		level = slog.LevelError
	}

	logger.Log.LogAttrs(ctx, level, "wide_event", attrs...)
}
