package audit

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

// LogRecorder writes mutations to a structured logger.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a recorder logging to logger (slog.Default if nil).
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger}
}

// RecordMutation logs m at info level.
func (r *LogRecorder) RecordMutation(ctx context.Context, m core.Mutation) error {
	r.logger.InfoContext(ctx, "audit",
		"action", string(m.Action),
		"severity", string(severityOf(m.Action)),
		"collection", m.Collection.String(),
		"record_id", m.RecordID,
		"position", m.Position,
		"ip", m.Metadata.IPAddress,
		"request_id", m.Metadata.RequestID,
	)
	return nil
}
