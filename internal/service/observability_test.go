package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogUseCaseObserver_Success(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf, slog.LevelInfo)

	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name:      "smart_query",
		RequestID: "req-1",
		Duration:  1500 * time.Millisecond,
		Success:   true,
		Fields:    map[string]any{"class": "Server"},
	})

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "use_case=smart_query")
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "duration_ms=1500")
	assert.Contains(t, out, "class=Server")
}

func TestLogUseCaseObserver_FailureLogsError(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf, slog.LevelInfo)

	obs.ObserveUseCase(context.Background(), UseCaseEvent{Name: "smart_query", Err: errors.New("boom")})

	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestLogUseCaseObserver_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf, slog.LevelWarn)

	obs.ObserveUseCase(context.Background(), UseCaseEvent{Name: "smart_query", Success: true})

	assert.Empty(t, buf.String())
}

func TestNewLogUseCaseObserver_NilWriterIsNoop(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil, slog.LevelInfo))
}
