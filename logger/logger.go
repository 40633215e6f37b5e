// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger provides a context-aware logger built on [slog].
//
// The [Logger] and attributes common to all messages of an operation, such
// as the ID of the HTTP request being handled, travel in a
// [context.Context]. The package-level functions log through them.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	attrsKey
)

// multiHandler fans out log records to multiple handlers.
type multiHandler struct {
	mu       sync.RWMutex
	handlers []slog.Handler
}

func (h *multiHandler) snapshot() []slog.Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handlers
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(h.snapshot(), func(hh slog.Handler) bool { return hh.Enabled(ctx, level) })
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, hh := range h.snapshot() {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *multiHandler) derive(f func(slog.Handler) slog.Handler) slog.Handler {
	hs := h.snapshot()
	derived := make([]slog.Handler, len(hs))
	for i, hh := range hs {
		derived[i] = f(hh)
	}
	return &multiHandler{handlers: derived}
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(hh slog.Handler) slog.Handler { return hh.WithAttrs(attrs) })
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(hh slog.Handler) slog.Handler { return hh.WithGroup(name) })
}

// Handlers are replaced, never modified in place, so snapshots stay valid.

func (h *multiHandler) attach(hh slog.Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers = append(slices.Clip(h.handlers), hh)
}

func (h *multiHandler) detach(hh slog.Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers = slices.DeleteFunc(slices.Clone(h.handlers), func(x slog.Handler) bool { return x == hh })
}

// Logger encapsulates an [slog.Logger] and allows attaching and detaching
// multiple [slog.Handler] at runtime.
//
// It also holds a [slog.LevelVar] that can be used to control the level of handlers that are created with it.
type Logger struct {
	*slog.Logger
	Level   *slog.LevelVar
	handler *multiHandler
}

// New creates a new Logger. The logger initially has no handlers.
// Its LevelVar is initialized to LevelInfo if level is nil.
func New(level *slog.LevelVar) *Logger {
	if level == nil {
		level = new(slog.LevelVar)
		level.Set(slog.LevelInfo)
	}
	mh := new(multiHandler)
	return &Logger{
		Logger:  slog.New(mh),
		Level:   level,
		handler: mh,
	}
}

// Attach attaches a handler to the logger.
func (l *Logger) Attach(h slog.Handler) { l.handler.attach(h) }

// Detach detaches a handler from the logger.
func (l *Logger) Detach(h slog.Handler) { l.handler.detach(h) }

// NewConsoleHandler returns a human-friendly [slog.Handler] that writes to w.
// Output is colored when color is true.
func NewConsoleHandler(w io.Writer, level slog.Leveler, color bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !color,
	})
}

// defaultLogger discards everything.
var defaultLogger = New(nil)

// Put returns a new context with the provided [Logger].
func Put(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// Get retrieves the [Logger] from the context.
//
// If the context has no [Logger], it returns a default [Logger] that discards all
// messages.
func Get(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// IsDefault returns true if l is the default [Logger].
func IsDefault(l *Logger) bool { return l == defaultLogger }

// LevelVar retrieves the [slog.LevelVar] associated with the [Logger] in the context.
func LevelVar(ctx context.Context) *slog.LevelVar { return Get(ctx).Level }

// With returns a new context whose messages logged with the package-level
// functions carry attrs in addition to those already in ctx.
func With(ctx context.Context, attrs ...slog.Attr) context.Context {
	return context.WithValue(ctx, attrsKey, slices.Concat(contextAttrs(ctx), attrs))
}

func contextAttrs(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(attrsKey).([]slog.Attr)
	return attrs
}

func log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := Get(ctx)
	if !l.Enabled(ctx, level) {
		return
	}
	if ca := contextAttrs(ctx); len(ca) > 0 {
		attrs = slices.Concat(ca, attrs)
	}
	l.LogAttrs(ctx, level, msg, attrs...)
}

// Debug logs a debug message.
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) { log(ctx, slog.LevelDebug, msg, attrs) }

// Info logs an info message.
func Info(ctx context.Context, msg string, attrs ...slog.Attr) { log(ctx, slog.LevelInfo, msg, attrs) }

// Warn logs a warning message.
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) { log(ctx, slog.LevelWarn, msg, attrs) }

// Error logs an error message.
func Error(ctx context.Context, msg string, attrs ...slog.Attr) { log(ctx, slog.LevelError, msg, attrs) }

// Logf is a printf-style logging function.
type Logf func(format string, args ...any)

// Write implements [io.Writer] so Logf can back a [log.Logger].
func (f Logf) Write(p []byte) (int, error) {
	f("%s", strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// LogfAt returns a [Logf] that logs formatted messages from ctx's [Logger]
// at the given level.
func LogfAt(ctx context.Context, level slog.Level) Logf {
	return func(format string, args ...any) {
		log(ctx, level, fmt.Sprintf(format, args...), nil)
	}
}
