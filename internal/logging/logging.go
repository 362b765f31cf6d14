// Package logging provides the migration logger: console output plus a
// timestamped log file per invocation. Every record passes through the secret
// sanitizer at a single choke point, and concurrent writes are serialized so
// parallel pipelines never interleave partial lines.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/EPdacoder05/TF2S3-migration/internal/secrets"
)

// consoleHandler writes bare messages without timestamps or level prefixes.
type consoleHandler struct {
	writer  io.Writer
	verbose bool
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		return h.verbose
	}
	return true
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	_, err := fmt.Fprintln(h.writer, record.Message)
	return err
}

func (h *consoleHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *consoleHandler) WithGroup(_ string) slog.Handler      { return h }

// sanitizingHandler redacts secrets from the record message and serializes
// delivery to the wrapped handlers. It is the only path to persisted output;
// stage executors cannot bypass it.
type sanitizingHandler struct {
	mu        sync.Mutex
	sanitizer *secrets.Sanitizer
	handlers  []slog.Handler
}

func (h *sanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *sanitizingHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, h.sanitizer.Sanitize(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		if a.Value.Kind() == slog.KindString {
			a.Value = slog.StringValue(h.sanitizer.Sanitize(a.Value.String()))
		}
		clean.AddAttrs(a)
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, clean); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *sanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &sanitizingHandler{sanitizer: h.sanitizer, handlers: handlers}
}

func (h *sanitizingHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &sanitizingHandler{sanitizer: h.sanitizer, handlers: handlers}
}

// Logger wraps slog with the migration tool's console/file fan-out.
type Logger struct {
	logger    *slog.Logger
	logWriter io.WriteCloser
	logPath   string
}

// New creates a console-only logger. Debug messages show when verbose is set.
func New(verbose bool) *Logger {
	logger, _ := NewWithFile("", verbose)
	return logger
}

// NewWithFile creates a logger that also appends to a timestamped file under
// logDir. Rotation of old run logs is handled by lumberjack.
func NewWithFile(logDir string, verbose bool) (*Logger, error) {
	l := &Logger{}

	handlers := []slog.Handler{&consoleHandler{writer: os.Stdout, verbose: verbose}}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		l.logPath = filepath.Join(logDir, fmt.Sprintf("migration_%s.log", time.Now().Format("20060102_150405")))
		fileWriter := &lumberjack.Logger{
			Filename:   l.logPath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
		}
		l.logWriter = fileWriter

		handlers = append(handlers, slog.NewTextHandler(fileWriter, &slog.HandlerOptions{
			Level: slog.LevelDebug,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{Key: a.Key, Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000"))}
				}
				return a
			},
		}))
	}

	l.logger = slog.New(&sanitizingHandler{
		sanitizer: secrets.NewSanitizer(),
		handlers:  handlers,
	})
	return l, nil
}

// NewForWriter creates a logger that writes sanitized bare messages to w.
// Used by tests to capture output.
func NewForWriter(w io.Writer, verbose bool) *Logger {
	return &Logger{
		logger: slog.New(&sanitizingHandler{
			sanitizer: secrets.NewSanitizer(),
			handlers:  []slog.Handler{&consoleHandler{writer: w, verbose: verbose}},
		}),
	}
}

// LogPath returns the path of the file this logger writes to, if any.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Info writes an info message.
func (l *Logger) Info(format string, args ...any) {
	l.log(slog.LevelInfo, format, args...)
}

// Warn writes a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(slog.LevelWarn, "⚠️  "+format, args...)
}

// Error writes an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(slog.LevelError, "❌ "+format, args...)
}

// Debug writes a debug message, shown only in verbose mode.
func (l *Logger) Debug(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}

func (l *Logger) log(level slog.Level, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.logger.Log(context.Background(), level, msg)
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if l.logWriter != nil {
		return l.logWriter.Close()
	}
	return nil
}
