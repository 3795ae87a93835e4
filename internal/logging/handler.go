// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/fatih/color"
)

const timeLayout = "2006-01-02 15:04:05"

// palette colors a whole line by severity.
type palette struct {
	debug, info, warning, err, critical *color.Color
}

func newPalette() *palette {
	p := &palette{
		debug:    color.New(38, 21),
		info:     color.New(38, 5, 39),
		warning:  color.New(38, 5, 226),
		err:      color.New(38, 5, 196),
		critical: color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.debug, p.info, p.warning, p.err, p.critical} {
		c.EnableColor()
	}
	return p
}

func (p *palette) forLevel(l slog.Level) *color.Color {
	switch {
	case l < slog.LevelInfo:
		return p.debug
	case l < slog.LevelWarn:
		return p.info
	case l < slog.LevelError:
		return p.warning
	case l < LevelCritical:
		return p.err
	default:
		return p.critical
	}
}

// lineHandler writes one line per record:
//
//	2006-01-02 15:04:05 - name - LEVEL - message key=value ...
//
// A nil palette writes plain lines.
type lineHandler struct {
	mu      *sync.Mutex
	w       io.Writer
	name    string
	level   slog.Leveler
	palette *palette

	prefix string // rendered WithAttrs attributes
	group  string // dotted WithGroup path
}

func newLineHandler(w io.Writer, mu *sync.Mutex, name string, level slog.Leveler, p *palette) *lineHandler {
	return &lineHandler{
		mu:      mu,
		w:       w,
		name:    name,
		level:   level,
		palette: p,
	}
}

func (h *lineHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.WriteString(r.Time.Format(timeLayout))
	buf.WriteString(" - ")
	buf.WriteString(h.name)
	buf.WriteString(" - ")
	buf.WriteString(LevelName(r.Level))
	buf.WriteString(" - ")
	buf.WriteString(r.Message)
	buf.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&buf, h.group, a)
		return true
	})

	line := buf.String()
	if h.palette != nil {
		line = h.palette.forLevel(r.Level).Sprint(line)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var buf bytes.Buffer
	buf.WriteString(h.prefix)
	for _, a := range attrs {
		appendAttr(&buf, h.group, a)
	}
	h2 := *h
	h2.prefix = buf.String()
	return &h2
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h2.group == "" {
		h2.group = name
	} else {
		h2.group = h2.group + "." + name
	}
	return &h2
}

func appendAttr(buf *bytes.Buffer, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := a.Key
		if group != "" && sub != "" {
			sub = group + "." + sub
		} else if sub == "" {
			sub = group
		}
		for _, ga := range a.Value.Group() {
			appendAttr(buf, sub, ga)
		}
		return
	}

	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(quoteIfNeeded(a.Value.String()))
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '"' || r == '=' || r > '~' {
			return strconv.Quote(s)
		}
	}
	return s
}

var _ slog.Handler = (*lineHandler)(nil)
