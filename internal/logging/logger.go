// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package logging

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/csstats/csstats-extension/pkg/errutil"
)

// CodeLoggingFailure marks a fault raised by the logging sink itself.
const CodeLoggingFailure = "LOGGING_FAILURE"

// Logger is the diagnostic logger handed to the lifecycle adapter.
// Every record carries the source tag; no method ever panics or returns
// an error. A nil *Logger is valid and behaves like Discard().
type Logger struct {
	logger *slog.Logger
	source string
}

// Option configures a Logger.
type Option func(*safeHandler)

// WithFailureHook registers a callback for faults contained inside the sink.
// The callback runs under the same containment as the sink.
func WithFailureHook(fn func(error)) Option {
	return func(h *safeHandler) {
		h.onFailure = fn
	}
}

// New creates a Logger that tags every record with source and writes through h.
func New(source string, h slog.Handler, opts ...Option) *Logger {
	if h == nil {
		return Discard()
	}
	safe := &safeHandler{handler: h}
	for _, opt := range opts {
		opt(safe)
	}
	return &Logger{
		logger: slog.New(safe).With(slog.String("source", source)),
		source: source,
	}
}

// FromConfig returns New(source, h, opts...) when enabled and Discard()
// otherwise. Disabled logging keeps the host console untouched.
func FromConfig(enabled bool, source string, h slog.Handler, opts ...Option) *Logger {
	if !enabled {
		return Discard()
	}
	return New(source, h, opts...)
}

// Discard returns a Logger that emits nothing at any level.
func Discard() *Logger {
	return &Logger{logger: slog.New(slog.DiscardHandler)}
}

// Source returns the tag attached to every record.
func (l *Logger) Source() string {
	if l == nil {
		return ""
	}
	return l.source
}

// Slog returns a *slog.Logger that writes through the same contained,
// source-tagged path, for components that take a plain slog logger.
func (l *Logger) Slog() *slog.Logger {
	if l == nil || l.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.logger
}

// Enabled reports whether records at level would be emitted.
func (l *Logger) Enabled(ctx context.Context, level slog.Level) (enabled bool) {
	if l == nil || l.logger == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			enabled = false
		}
	}()
	return l.logger.Enabled(ctx, level)
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.logger == nil {
		return Discard()
	}
	return &Logger{logger: l.logger.With(args...), source: l.source}
}

// Info records a progress message.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

// Warn records a recoverable anomaly.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

// Error records a failure.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

// Fault records err at error severity, expanding oops code and context.
func (l *Logger) Fault(ctx context.Context, msg string, err error, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	defer func() { _ = recover() }()
	errutil.LogError(ctx, l.logger, msg, err, args...)
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	defer func() { _ = recover() }()
	l.logger.Log(ctx, level, msg, args...)
}

// safeHandler contains every fault of the wrapped handler.
type safeHandler struct {
	handler   slog.Handler
	onFailure func(error)
}

func (h *safeHandler) Enabled(ctx context.Context, level slog.Level) (enabled bool) {
	defer func() {
		if rec := recover(); rec != nil {
			h.report(oops.Code(CodeLoggingFailure).In("logging").Errorf("handler Enabled panicked: %v", rec))
			enabled = false
		}
	}()
	return h.handler.Enabled(ctx, level)
}

// Handle never returns an error; sink faults go to the failure hook.
func (h *safeHandler) Handle(ctx context.Context, r slog.Record) error {
	defer func() {
		if rec := recover(); rec != nil {
			h.report(oops.Code(CodeLoggingFailure).In("logging").Errorf("handler panicked: %v", rec))
		}
	}()
	if err := h.handler.Handle(ctx, r); err != nil {
		h.report(oops.Code(CodeLoggingFailure).In("logging").With("msg", r.Message).Wrap(err))
	}
	return nil
}

func (h *safeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &safeHandler{handler: h.handler.WithAttrs(attrs), onFailure: h.onFailure}
}

func (h *safeHandler) WithGroup(name string) slog.Handler {
	return &safeHandler{handler: h.handler.WithGroup(name), onFailure: h.onFailure}
}

func (h *safeHandler) report(err error) {
	if h.onFailure == nil {
		return
	}
	defer func() { _ = recover() }()
	h.onFailure(err)
}
