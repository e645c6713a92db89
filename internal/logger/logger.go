// Package logger wraps slog with the process-wide default used by every
// package. DEBUG=true switches the level.
package logger

import (
	"io"
	"log/slog"
	"os"
)

var Logger *slog.Logger

func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter lets tests capture or discard log output.
func InitWithWriter(w io.Writer) {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		level = slog.LevelDebug
	}

	Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(Logger)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
