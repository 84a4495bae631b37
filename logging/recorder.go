// seehuhn.de/go/stamp - place text and images on PDF pages
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Record is a log record captured by a [Recorder].
type Record struct {
	Level   slog.Level
	Message string

	// Attrs holds the record's attributes, rendered with [slog.Value.String].
	// Keys of attributes inside groups are joined with ".".
	Attrs map[string]string
}

// Recorder is a [slog.Handler] which keeps all records in memory.
// It is used in tests to check which warnings an operation produced.
type Recorder struct {
	Level slog.Leveler

	shared *recorderData
	attrs  []groupedAttr
	groups []string
}

// groupedAttr is an attribute added by WithAttrs, together with the
// group prefix which was active at that time.
type groupedAttr struct {
	prefix string
	attr   slog.Attr
}

type recorderData struct {
	mu      sync.Mutex
	records []Record
}

// NewRecorder returns an empty Recorder which accepts records of all levels.
func NewRecorder() *Recorder {
	return &Recorder{shared: &recorderData{}}
}

// Enabled implements [slog.Handler].
func (h *Recorder) Enabled(_ context.Context, level slog.Level) bool {
	if h.Level == nil {
		return true
	}
	return level >= h.Level.Level()
}

// Handle implements [slog.Handler].
func (h *Recorder) Handle(_ context.Context, r slog.Record) error {
	rec := Record{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]string),
	}
	for _, a := range h.attrs {
		addAttr(rec.Attrs, a.prefix, a.attr)
	}
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		addAttr(rec.Attrs, prefix, a)
		return true
	})

	h.shared.mu.Lock()
	h.shared.records = append(h.shared.records, rec)
	h.shared.mu.Unlock()
	return nil
}

func addAttr(m map[string]string, prefix string, a slog.Attr) {
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, sub := range v.Group() {
			addAttr(m, key, sub)
		}
		return
	}
	m[key] = v.String()
}

// WithAttrs implements [slog.Handler].
func (h *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := *h
	res.attrs = h.attrs[:len(h.attrs):len(h.attrs)]
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		res.attrs = append(res.attrs, groupedAttr{prefix: prefix, attr: a})
	}
	return &res
}

// WithGroup implements [slog.Handler].
func (h *Recorder) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	res := *h
	res.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &res
}

// Records returns a copy of all records captured so far.
func (h *Recorder) Records() []Record {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	res := make([]Record, len(h.shared.records))
	copy(res, h.shared.records)
	return res
}

// Count returns the number of captured records at the given level.
func (h *Recorder) Count(level slog.Level) int {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	n := 0
	for _, r := range h.shared.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

// Reset discards all captured records.
func (h *Recorder) Reset() {
	h.shared.mu.Lock()
	h.shared.records = nil
	h.shared.mu.Unlock()
}
