package itop

import (
	"context"
	"io"
	"log/slog"
)

// CallEvent records metadata about a single REST call.
type CallEvent struct {
	Operation string
	Class     string
	LatencyMs int64
	Success   bool
	ErrorCode string
	Objects   int
}

// Observer receives events about REST calls for logging and metrics.
type Observer interface {
	OnCallComplete(ctx context.Context, event CallEvent)
}

// LogObserver writes call events through slog.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an Observer that logs events to w.
func NewLogObserver(w io.Writer) *LogObserver {
	return &LogObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *LogObserver) OnCallComplete(ctx context.Context, event CallEvent) {
	attrs := []any{
		"operation", event.Operation,
		"class", event.Class,
		"latency_ms", event.LatencyMs,
		"objects", event.Objects,
	}
	if !event.Success {
		o.logger.WarnContext(ctx, "itop_call", append(attrs, "status", "err:"+event.ErrorCode)...)
		return
	}
	o.logger.InfoContext(ctx, "itop_call", append(attrs, "status", "ok")...)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(context.Context, CallEvent) {}

// MultiObserver fans one event out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnCallComplete(ctx context.Context, event CallEvent) {
	for _, o := range m {
		if o != nil {
			o.OnCallComplete(ctx, event)
		}
	}
}
