package notify

import (
	"context"
	"log/slog"
)

// LogSink writes events to the structured log. It is always present so a
// deployment without webhook or Kafka still records hot leads.
type LogSink struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (l *LogSink) Name() string { return "log" }

func (l *LogSink) Send(ctx context.Context, e Event) error {
	l.logger.InfoContext(ctx, "notification",
		"channel", string(e.Channel),
		"type", e.Type,
		"summary", e.Summary,
		"request_id", e.RequestID,
	)
	return nil
}
