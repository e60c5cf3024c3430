package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/agendex"
)

// Ensure LoggingAIExtractor implements agendex.AIExtractor.
var _ agendex.AIExtractor = (*LoggingAIExtractor)(nil)

// LoggingAIExtractor wraps an AIExtractor with per-page logging. Model
// calls are the slowest and most expensive step of the pipeline, so each
// one is worth a log line.
type LoggingAIExtractor struct {
	next   agendex.AIExtractor
	logger *slog.Logger
}

// NewLoggingAIExtractor creates a new LoggingAIExtractor.
func NewLoggingAIExtractor(next agendex.AIExtractor, logger *slog.Logger) *LoggingAIExtractor {
	return &LoggingAIExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor, logging page URL, enabled
// field count and duration.
func (e *LoggingAIExtractor) Extract(ctx context.Context, page *agendex.PageContext, toggles []agendex.FieldToggle) (*agendex.EventFields, error) {
	begin := time.Now()
	enabled := 0
	for _, t := range toggles {
		if t.Enabled {
			enabled++
		}
	}

	fields, err := e.next.Extract(ctx, page, toggles)
	if err != nil {
		e.logger.Error("ai extract",
			"url", page.URL,
			"enabled_fields", enabled,
			"duration", time.Since(begin),
			"err", err,
		)
		return nil, err
	}
	e.logger.Info("ai extract",
		"url", page.URL,
		"enabled_fields", enabled,
		"empty", fields.IsZero(),
		"duration", time.Since(begin),
	)
	return fields, nil
}
