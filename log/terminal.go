// Copyright 2026 The go-vyauma Authors
// This file is part of the go-vyauma library.
//
// The go-vyauma library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-vyauma library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-vyauma library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// TerminalHandler renders records as aligned single-line text:
//
//	INFO  [01-02|15:04:05] message            key=value key=value
//
// with the level tag colored when color output is enabled.
type TerminalHandler struct {
	mu    sync.Mutex
	out   io.Writer
	level slog.Level
	color bool
	attrs []slog.Attr
}

// NewTerminalHandler creates a terminal handler writing to out. When
// colored is false all output is plain text.
func NewTerminalHandler(out io.Writer, level slog.Level, colored bool) *TerminalHandler {
	return &TerminalHandler{out: out, level: level, color: colored}
}

// Enabled implements slog.Handler.
func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle implements slog.Handler.
func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.levelTag(r.Level))
	b.WriteString(" [")
	b.WriteString(r.Time.Format("01-02|15:04:05"))
	b.WriteString("] ")
	if len(r.Message) < 40 {
		b.WriteString(fmt.Sprintf("%-40s", r.Message))
	} else {
		b.WriteString(r.Message)
	}
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

// WithAttrs implements slog.Handler.
func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TerminalHandler{out: h.out, level: h.level, color: h.color, attrs: merged}
}

// WithGroup implements slog.Handler. Groups are flattened; the terminal
// format has no nesting.
func (h *TerminalHandler) WithGroup(string) slog.Handler { return h }

// levelTag renders the fixed-width level marker.
func (h *TerminalHandler) levelTag(level slog.Level) string {
	var tag string
	var c *color.Color
	switch {
	case level >= slog.LevelError:
		tag, c = "ERROR", color.New(color.FgRed)
	case level >= slog.LevelWarn:
		tag, c = "WARN ", color.New(color.FgYellow)
	case level >= slog.LevelInfo:
		tag, c = "INFO ", color.New(color.FgGreen)
	default:
		tag, c = "DEBUG", color.New(color.FgMagenta)
	}
	if h.color {
		return c.Sprint(tag)
	}
	return tag
}
