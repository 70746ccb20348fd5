// Package log provides structured JSON logging bound to a decode session.
//
// Every entry carries the session identity (session_id, scope and, when set,
// source). Call-site fields are written as top-level keys in sorted order.
package log

import (
	"io"
	"maps"
	"os"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/hessian/types"
)

// Logger is a session-scoped structured logger.
type Logger struct {
	zap *zap.Logger
}

// NewLogger creates a session logger writing to os.Stderr.
func NewLogger(meta *types.SessionMeta) *Logger {
	return NewLoggerWithWriter(meta, os.Stderr)
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// NewLoggerWithWriter creates a session logger writing JSON lines to w.
// Writers shared between sessions should be wrapped in zapcore.Lock.
func NewLoggerWithWriter(meta *types.SessionMeta, w io.Writer) *Logger {
	ws, ok := w.(zapcore.WriteSyncer)
	if !ok {
		ws = zapcore.AddSync(w)
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), ws, zapcore.DebugLevel)
	return &Logger{zap: zap.New(core).With(sessionFields(meta)...)}
}

// WithLevel returns a logger that drops entries below the named level
// (debug, info, warn, error). Unknown names leave the logger unchanged.
func (l *Logger) WithLevel(level string) *Logger {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return l
	}
	return &Logger{zap: l.zap.WithOptions(zap.IncreaseLevel(lvl))}
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:     "timestamp",
	LevelKey:    "level",
	MessageKey:  "message",
	EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
	EncodeLevel: zapcore.LowercaseLevelEncoder,
}

func sessionFields(meta *types.SessionMeta) []zap.Field {
	if meta == nil {
		return nil
	}
	fields := []zap.Field{
		zap.String("session_id", meta.SessionID),
		zap.String("scope", meta.Scope),
	}
	if meta.Source != "" {
		fields = append(fields, zap.String("source", meta.Source))
	}
	return fields
}

func zapFields(fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

// Debug logs at debug level.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zapFields(fields)...)
}

// Info logs at info level.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zapFields(fields)...)
}

// Warn logs at warn level.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zapFields(fields)...)
}

// Error logs at error level.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zapFields(fields)...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}
