package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/stepcheck/internal/ports"
)

var levelStyles = map[ports.Level]lipgloss.Style{
	ports.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	ports.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	ports.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	ports.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

// sink is shared between a ConsoleLogger and the loggers derived from it
// through With, so level changes and writes stay consistent.
type sink struct {
	mu    sync.Mutex
	out   io.Writer
	level ports.Level
}

// ConsoleLogger writes structured log lines as text or JSON.
type ConsoleLogger struct {
	sink     *sink
	fields   []ports.Field
	json     bool
	color    bool
	now      func() time.Time
	noTime   bool
	noLabels bool
}

// ConsoleLoggerOption configures a ConsoleLogger.
type ConsoleLoggerOption func(*ConsoleLogger)

// WithOutput sets the destination writer (default: os.Stderr).
func WithOutput(w io.Writer) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.sink.out = w }
}

// WithLevel sets the minimum level (default: Info).
func WithLevel(level ports.Level) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.sink.level = level }
}

// WithJSONFormat switches to one JSON object per line.
func WithJSONFormat(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.json = enabled }
}

// WithColor renders text level labels with terminal colours.
func WithColor(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.color = enabled }
}

// WithTimestamp toggles the timestamp prefix.
func WithTimestamp(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.noTime = !enabled }
}

// WithLevelLabel toggles the level label.
func WithLevelLabel(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.noLabels = !enabled }
}

// NewConsoleLogger creates a console logger.
func NewConsoleLogger(opts ...ConsoleLoggerOption) *ConsoleLogger {
	l := &ConsoleLogger{
		sink: &sink{out: os.Stderr, level: ports.LevelInfo},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Debug logs at debug level.
func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelDebug, msg, fields)
}

// Info logs at info level.
func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelInfo, msg, fields)
}

// Warn logs at warn level.
func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelWarn, msg, fields)
}

// Error logs at error level.
func (l *ConsoleLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelError, msg, fields)
}

// With returns a logger sharing the same output with extra fields.
func (l *ConsoleLogger) With(fields ...ports.Field) ports.Logger {
	child := *l
	child.fields = append(append([]ports.Field(nil), l.fields...), fields...)
	return &child
}

// Level returns the minimum level.
func (l *ConsoleLogger) Level() ports.Level {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// SetLevel changes the minimum level for this logger and every logger derived from it.
func (l *ConsoleLogger) SetLevel(level ports.Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

func (l *ConsoleLogger) log(_ context.Context, level ports.Level, msg string, fields []ports.Field) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if level < l.sink.level {
		return
	}

	all := make([]ports.Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	var line string
	if l.json {
		line = l.formatJSON(level, msg, all)
	} else {
		line = l.formatText(level, msg, all)
	}
	if line == "" {
		return
	}
	_, _ = fmt.Fprintln(l.sink.out, line)
}

func (l *ConsoleLogger) formatJSON(level ports.Level, msg string, fields []ports.Field) string {
	entry := make(map[string]any, len(fields)+3)
	if !l.noTime {
		entry["time"] = l.now().UTC().Format(time.RFC3339)
	}
	if !l.noLabels {
		entry["level"] = level.String()
	}
	entry["msg"] = msg
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			entry[f.Key] = err.Error()
			continue
		}
		entry[f.Key] = f.Value
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return ""
	}
	return string(data)
}

func (l *ConsoleLogger) formatText(level ports.Level, msg string, fields []ports.Field) string {
	var b strings.Builder
	if !l.noTime {
		b.WriteString(l.now().Format("15:04:05"))
		b.WriteByte(' ')
	}
	if !l.noLabels {
		label := "[" + level.String() + "]"
		if l.color {
			label = levelStyles[level].Render(label)
		}
		b.WriteString(label)
		b.WriteByte(' ')
	}
	b.WriteString(msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, quoteIfSpaced(f.Value))
	}
	return b.String()
}

func quoteIfSpaced(v any) any {
	if s, ok := v.(string); ok && strings.ContainsAny(s, " \t") {
		return fmt.Sprintf("%q", s)
	}
	return v
}

var _ ports.Logger = (*ConsoleLogger)(nil)
