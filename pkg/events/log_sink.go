package events

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogSink writes events through a structured logger. Failures are logged at
// error level, everything else at info.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, e Event) {
	attrs := []slog.Attr{
		slog.String("event", string(e.Type)),
		slog.Time("at", e.At),
	}
	if e.SubscriptionID != uuid.Nil {
		attrs = append(attrs, slog.String("subscription_id", e.SubscriptionID.String()))
	}
	if e.Module != "" {
		attrs = append(attrs, slog.String("tenant_id", e.TenantID.String()), slog.String("module", e.Module))
	}
	if e.From != "" || e.To != "" {
		attrs = append(attrs, slog.String("from", e.From), slog.String("to", e.To))
	}
	for k, v := range e.Stats {
		attrs = append(attrs, slog.Int(k, v))
	}

	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, "subscription event", attrs...)
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "subscription event", attrs...)
}
