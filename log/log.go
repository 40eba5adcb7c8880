package log

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	Level  = zapcore.Level
	Field  = zap.Field
	Option = zap.Option
)

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
	FatalLevel = zapcore.FatalLevel
)

var (
	WithCaller    = zap.WithCaller
	AddCallerSkip = zap.AddCallerSkip
	AddStacktrace = zap.AddStacktrace
)

var (
	String   = zap.String
	Int      = zap.Int
	Int32    = zap.Int32
	Int64    = zap.Int64
	Uint16   = zap.Uint16
	Uint32   = zap.Uint32
	Uint     = zap.Uint
	Uint8    = zap.Uint8
	Uint64   = zap.Uint64
	Float    = zap.Float64
	Float32  = zap.Float32
	Bool     = zap.Bool
	Any      = zap.Any
	Time     = zap.Time
	Duration = zap.Duration
	Strings  = zap.Strings
)

func ErrorField(err error) Field {
	return zap.Error(err)
}

// Logger wraps a zap logger together with the level it was created for.
type Logger struct {
	l     *zap.Logger
	level Level
}

func (l *Logger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

func (l *Logger) Debugw(msg string, keysAndValues ...any) {
	l.l.Sugar().Debugw(msg, keysAndValues...)
}

func (l *Logger) Fatalf(template string, args ...any) {
	l.l.Sugar().Fatalf(template, args...)
}

// Named returns a child logger. Names are joined by '.'
func (l *Logger) Named(name string) *Logger {
	return &Logger{l: l.l.Named(name), level: l.level}
}

func (l *Logger) WithOptions(opts ...Option) *Logger {
	return &Logger{l: l.l.WithOptions(opts...), level: l.level}
}

func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{l: l.l.With(fields...), level: l.level}
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) Enabled(lvl Level) bool {
	return l.l.Core().Enabled(lvl)
}

// Zap gives access to the underlying logger for libraries expecting one.
func (l *Logger) Zap() *zap.Logger {
	return l.l
}

func (l *Logger) Sync() error {
	return l.l.Sync()
}

type ctxKey struct{}

func AddToContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// GetFromContext returns the logger stored in ctx or the default logger
func GetFromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

var std = newNop()

func newNop() *Logger {
	return &Logger{l: zap.NewNop(), level: InfoLevel}
}

func Default() *Logger {
	return std
}

// ResetDefault replaces the package level logger.
// Not safe for concurrent use, call it during startup.
func ResetDefault(l *Logger) {
	std = l
}

func Debug(msg string, fields ...Field) { std.l.Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { std.l.Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { std.l.Warn(msg, fields...) }
func Error(msg string, fields ...Field) { std.l.Error(msg, fields...) }
func Fatal(msg string, fields ...Field) { std.l.Fatal(msg, fields...) }

func Debugw(msg string, keysAndValues ...any) { std.Debugw(msg, keysAndValues...) }
func Fatalf(template string, args ...any)     { std.Fatalf(template, args...) }

func Sync() error {
	return std.Sync()
}

func ParseLevel(text string) (Level, error) {
	return zapcore.ParseLevel(text)
}

// Since is a convenience field for elapsed time measurements.
func Since(start time.Time) Field {
	return zap.Duration("elapsed", time.Since(start))
}
