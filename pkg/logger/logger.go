// Package logger holds the process-wide zap logger. Packages log through
// the wrapper funcs; Init replaces the nop default once configuration is
// loaded.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is a nop until Init runs, so packages can log unconditionally.
var Log = zap.NewNop()

// wrapped skips the wrapper frame so caller fields point at the log site.
var wrapped = zap.NewNop()

func Init(level, format, outputPath string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	syncer, err := newSyncer(outputPath)
	if err != nil {
		return err
	}

	core := zapcore.NewCore(newEncoder(format), syncer, zapLevel)
	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	wrapped = Log.WithOptions(zap.AddCallerSkip(1))

	return nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func newSyncer(outputPath string) (zapcore.WriteSyncer, error) {
	if outputPath == "" || outputPath == "stdout" {
		return zapcore.AddSync(os.Stdout), nil
	}

	file, err := os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return zapcore.AddSync(file), nil
}

func GetLogger() *zap.Logger {
	return Log
}

// With returns a child logger scoped to the given fields, for call paths
// that tag every line with the same context.
func With(fields ...zap.Field) *zap.Logger {
	return Log.With(fields...)
}

func Info(msg string, fields ...zap.Field) {
	wrapped.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	wrapped.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	wrapped.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	wrapped.Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	wrapped.Fatal(msg, fields...)
}

func Sync() {
	Log.Sync()
}
