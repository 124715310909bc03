package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"
)

// Logger wraps slog.Logger with additional features.
type Logger struct {
	*slog.Logger
	sanitizer *Sanitizer
	closer    io.Closer
}

// Config configures the logger.
type Config struct {
	Level     string
	Format    string // auto, text, json
	Output    io.Writer
	File      string // optional, overrides Output
	AddSource bool

	// Secrets are literal values redacted from every record.
	Secrets []string
}

// DefaultConfig returns the default logger configuration. Logs go to
// stderr so that report output on stdout stays clean.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "auto",
		Output:    os.Stderr,
		AddSource: false,
	}
}

// New creates a new logger.
func New(cfg Config) (*Logger, error) {
	var closer io.Closer
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cfg.Output = f
		closer = f
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	level := ParseLevel(cfg.Level)
	sanitizer := NewSanitizer()
	for _, secret := range cfg.Secrets {
		sanitizer.AddSecret(secret)
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(cfg.Output, opts)
	case "text":
		handler = slog.NewTextHandler(cfg.Output, opts)
	default: // auto
		if isTerminal(cfg.Output) {
			handler = NewPrettyHandler(cfg.Output, level)
		} else {
			handler = slog.NewJSONHandler(cfg.Output, opts)
		}
	}

	return &Logger{
		Logger:    slog.New(NewSanitizingHandler(handler, sanitizer)),
		sanitizer: sanitizer,
		closer:    closer,
	}, nil
}

// NewNop creates a no-op logger for testing.
func NewNop() *Logger {
	return &Logger{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		sanitizer: NewSanitizer(),
	}
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// WithRun returns a logger scoped to one pipeline run.
func (l *Logger) WithRun(runID string) *Logger {
	return l.With("run_id", runID)
}

// WithAgent returns a logger scoped to one agent role.
func (l *Logger) WithAgent(agent string) *Logger {
	return l.With("agent", agent)
}

// WithModel returns a logger scoped to one model tier.
func (l *Logger) WithModel(model string) *Logger {
	return l.With("model", model)
}

// With returns a logger with custom fields.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		sanitizer: l.sanitizer,
	}
}

// Sanitize sanitizes a string using the logger's sanitizer.
func (l *Logger) Sanitize(input string) string {
	return l.sanitizer.Sanitize(input)
}

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
