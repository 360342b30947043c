// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package logging

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// DefaultRingSize is the number of recent records a Ring keeps.
const DefaultRingSize = 10

// ringBuffer is the storage shared by a Ring and its derived handlers.
type ringBuffer struct {
	mu    sync.Mutex
	lines []string
	size  int
}

func (b *ringBuffer) push(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if over := len(b.lines) - b.size; over > 0 {
		b.lines = append(b.lines[:0], b.lines[over:]...)
	}
}

// Ring is a slog.Handler that keeps the most recent records as
// "[15:04:05] LEVEL message key=value" lines.
type Ring struct {
	buf    *ringBuffer
	level  slog.Leveler
	attrs  string
	groups []string
}

// NewRing creates a Ring holding at most size lines (DefaultRingSize if size <= 0).
func NewRing(size int, level slog.Leveler) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &Ring{buf: &ringBuffer{size: size}, level: level}
}

// Lines returns a copy of the retained lines, oldest first.
func (r *Ring) Lines() []string {
	r.buf.mu.Lock()
	defer r.buf.mu.Unlock()
	out := make([]string, len(r.buf.lines))
	copy(out, r.buf.lines)
	return out
}

// Clear drops every retained line.
func (r *Ring) Clear() {
	r.buf.mu.Lock()
	defer r.buf.mu.Unlock()
	r.buf.lines = r.buf.lines[:0]
}

// Enabled implements slog.Handler.
func (r *Ring) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.level.Level()
}

// Handle implements slog.Handler.
func (r *Ring) Handle(_ context.Context, rec slog.Record) error {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(rec.Time.Format("15:04:05"))
	sb.WriteString("] ")
	sb.WriteString(rec.Level.String())
	sb.WriteString(" ")
	sb.WriteString(rec.Message)

	sb.WriteString(r.attrs)
	prefix := strings.Join(r.groups, ".")
	rec.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, prefix, a)
		return true
	})

	r.buf.push(sb.String())
	return nil
}

// WithAttrs implements slog.Handler.
func (r *Ring) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	sb.WriteString(r.attrs)
	prefix := strings.Join(r.groups, ".")
	for _, a := range attrs {
		writeAttr(&sb, prefix, a)
	}
	next := *r
	next.attrs = sb.String()
	return &next
}

// WithGroup implements slog.Handler.
func (r *Ring) WithGroup(name string) slog.Handler {
	if name == "" {
		return r
	}
	next := *r
	next.groups = append(append([]string{}, r.groups...), name)
	return &next
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	sb.WriteString(" ")
	if prefix != "" {
		sb.WriteString(prefix)
		sb.WriteString(".")
	}
	sb.WriteString(a.Key)
	sb.WriteString("=")
	sb.WriteString(a.Value.Resolve().String())
}

// teeHandler fans each record out to several handlers.
type teeHandler []slog.Handler

// Tee returns a handler that forwards records to every handler in hs.
func Tee(hs ...slog.Handler) slog.Handler {
	return teeHandler(hs)
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
