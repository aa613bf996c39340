package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a leveled printf-style logger. Each level writes through its own
// sugared zap logger so call sites stay format-string based.
type Logger struct {
	base  *zap.Logger
	info  *zap.SugaredLogger
	warn  *zap.SugaredLogger
	error *zap.SugaredLogger
}

// New returns a production (JSON, info level) logger.
func New() *Logger {
	l, err := NewWithOptions("info", "json")
	if err != nil {
		return FromZap(zap.NewNop())
	}
	return l
}

// NewWithOptions builds a logger for the given level and format ("json" or "console").
func NewWithOptions(level, format string) (*Logger, error) {
	var zapConfig zap.Config
	if format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)

	base, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return FromZap(base), nil
}

// FromZap wraps an existing zap logger.
func FromZap(base *zap.Logger) *Logger {
	sugar := base.Sugar()
	return &Logger{
		base:  base,
		info:  sugar,
		warn:  sugar,
		error: sugar,
	}
}

// Nop discards everything. Used by tests.
func Nop() *Logger {
	return FromZap(zap.NewNop())
}

// With returns a child logger carrying an extra structured field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return FromZap(l.base.With(zap.Any(key, value)))
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.info.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.warn.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.error.Errorf(format, args...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.base.Sync()
}

// Zap exposes the underlying logger for libraries that take one.
func (l *Logger) Zap() *zap.Logger {
	return l.base
}
