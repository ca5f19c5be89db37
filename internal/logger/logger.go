// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger defines basic types for logging and helpers for carrying a
// structured logger through a [context.Context].
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Logf is the basic logger type: a printf-like func. Like [log.Printf], the
// format need not end in a newline. Logf functions must be safe for concurrent
// use.
type Logf func(format string, args ...any)

// Write implements the [io.Writer] interface.
func (f Logf) Write(p []byte) (n int, err error) {
	f("%s", p)
	return len(p), nil
}

// Logger is a structured logger with an adjustable level.
type Logger struct {
	Logger *slog.Logger
	Level  *slog.LevelVar
}

// New returns a [Logger] that writes to w and logs at [slog.LevelInfo]
// until the level is changed.
func New(w io.Writer) *Logger {
	level := new(slog.LevelVar)
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
		Level:  level,
	}
}

type ctxKey struct{}

// With returns a new context based on ctx that carries l.
func With(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

var defaultLogger = sync.OnceValue(func() *Logger { return New(os.Stderr) })

// Get returns the [Logger] carried by ctx, or a default one writing to
// standard error if ctx carries none.
func Get(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return defaultLogger()
}

// Debug logs at [slog.LevelDebug] using the [Logger] carried by ctx.
func Debug(ctx context.Context, msg string, args ...any) {
	Get(ctx).Logger.DebugContext(ctx, msg, args...)
}

// Info logs at [slog.LevelInfo] using the [Logger] carried by ctx.
func Info(ctx context.Context, msg string, args ...any) {
	Get(ctx).Logger.InfoContext(ctx, msg, args...)
}

// Warn logs at [slog.LevelWarn] using the [Logger] carried by ctx.
func Warn(ctx context.Context, msg string, args ...any) {
	Get(ctx).Logger.WarnContext(ctx, msg, args...)
}

// Error logs at [slog.LevelError] using the [Logger] carried by ctx.
func Error(ctx context.Context, msg string, args ...any) {
	Get(ctx).Logger.ErrorContext(ctx, msg, args...)
}
