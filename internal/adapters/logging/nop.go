// Package logging provides ports.Logger implementations: a ConsoleLogger for
// text or JSON output and a NopLogger for quiet runs and tests.
package logging

import (
	"context"

	"github.com/felixgeelhaar/stepcheck/internal/ports"
)

// NopLogger discards everything.
type NopLogger struct {
	level ports.Level
}

// NewNopLogger creates a no-op logger.
func NewNopLogger() *NopLogger {
	return &NopLogger{level: ports.LevelInfo}
}

// Debug does nothing.
func (l *NopLogger) Debug(context.Context, string, ...ports.Field) {}

// Info does nothing.
func (l *NopLogger) Info(context.Context, string, ...ports.Field) {}

// Warn does nothing.
func (l *NopLogger) Warn(context.Context, string, ...ports.Field) {}

// Error does nothing.
func (l *NopLogger) Error(context.Context, string, ...ports.Field) {}

// With returns the receiver.
func (l *NopLogger) With(...ports.Field) ports.Logger { return l }

// Level returns the stored level.
func (l *NopLogger) Level() ports.Level { return l.level }

// SetLevel stores the level.
func (l *NopLogger) SetLevel(level ports.Level) { l.level = level }

var _ ports.Logger = (*NopLogger)(nil)
