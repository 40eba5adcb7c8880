package log

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"moul.io/zapfilter"
)

// New creates a logger producing json output
func New(writer io.Writer, level Level, opts ...Option) *Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.AddSync(writer),
		level,
	)
	return &Logger{l: zap.New(core, opts...), level: level}
}

// DevLogger creates a logger producing human readable console output
func DevLogger(writer io.Writer, level Level, opts ...Option) *Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(writer),
		level,
	)
	return &Logger{l: zap.New(core, opts...), level: level}
}

// WithFilter applies zapfilter rules on top of the logger core.
func WithFilter(filter zapfilter.FilterFunc) Option {
	return zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapfilter.NewFilteringCore(c, filter)
	})
}

// FileWriter returns a size based rotating writer for the given file.
// sizeMB <= 0 uses lumberjack's default of 100MB.
func FileWriter(filename string, sizeMB, backups int) io.Writer {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    sizeMB,
		MaxBackups: backups,
		Compress:   true,
	}
}
