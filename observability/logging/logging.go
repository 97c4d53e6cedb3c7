package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how structured logs are emitted.
type Options struct {
	// Service is stamped on every log line.
	Service string
	// Env is the deployment environment (empty values are omitted).
	Env string
	// FilePath, when set, mirrors log output to a size-rotated file.
	FilePath string
	// MaxSizeMB bounds a single rotated log file. Zero picks 100 MB.
	MaxSizeMB int
	// MaxBackups bounds the number of rotated files kept on disk.
	MaxBackups int
	// Level is the minimum level emitted. Zero value means Info.
	Level slog.Leveler
}

// Setup installs a JSON slog logger writing to stdout and returns it.
func Setup(service, env string) *slog.Logger {
	return SetupWithOptions(Options{Service: service, Env: env})
}

// SetupWithOptions is Setup with explicit sink and level control. The
// returned logger is also installed as the slog default.
func SetupWithOptions(opts Options) *slog.Logger {
	handler := slog.NewJSONHandler(newSink(opts), &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: renameStandardAttrs,
	})
	logger := slog.New(handler.WithAttrs(baseAttrs(opts)))
	slog.SetDefault(logger)
	return logger
}

func newSink(opts Options) io.Writer {
	path := strings.TrimSpace(opts.FilePath)
	if path == "" {
		return os.Stdout
	}
	size := opts.MaxSizeMB
	if size <= 0 {
		size = 100
	}
	rotated := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    size,
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	}
	return io.MultiWriter(os.Stdout, rotated)
}

func baseAttrs(opts Options) []slog.Attr {
	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(opts.Service))}
	if env := strings.TrimSpace(opts.Env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	return attrs
}

// renameStandardAttrs maps slog's built-in keys onto the field names the log
// pipeline indexes on: "ts" for the timestamp and a lowercase "level".
func renameStandardAttrs(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
	case slog.LevelKey:
		return slog.String("level", strings.ToLower(attr.Value.String()))
	}
	return attr
}
