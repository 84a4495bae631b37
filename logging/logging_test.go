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
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultDiscards(t *testing.T) {
	old := Logger()
	defer SetLogger(old)

	SetLogger(nil)
	if Logger().Handler() != slog.DiscardHandler {
		t.Error("expected discard handler after SetLogger(nil)")
	}
}

func TestRecorder(t *testing.T) {
	old := Logger()
	defer SetLogger(old)

	rec := NewRecorder()
	SetLogger(slog.New(rec))

	l := Logger().With("page", 3).WithGroup("annotation")
	l.Warn("skipped", "id", "abc", "kind", "image")
	Logger().Info("done")

	got := rec.Records()
	want := []Record{
		{
			Level:   slog.LevelWarn,
			Message: "skipped",
			Attrs: map[string]string{
				"page":            "3",
				"annotation.id":   "abc",
				"annotation.kind": "image",
			},
		},
		{
			Level:   slog.LevelInfo,
			Message: "done",
			Attrs:   map[string]string{},
		},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("records mismatch (-want +got):\n%s", d)
	}

	if n := rec.Count(slog.LevelWarn); n != 1 {
		t.Errorf("expected 1 warning, got %d", n)
	}
	rec.Reset()
	if n := len(rec.Records()); n != 0 {
		t.Errorf("expected no records after Reset, got %d", n)
	}
}

func TestRecorderLevel(t *testing.T) {
	rec := NewRecorder()
	rec.Level = slog.LevelWarn
	l := slog.New(rec)
	l.Debug("hidden")
	l.Info("hidden")
	l.Error("shown")
	if n := len(rec.Records()); n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
}

func TestConcurrentSetLogger(t *testing.T) {
	old := Logger()
	defer SetLogger(old)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetLogger(slog.New(NewRecorder()))
			Logger().Debug("x")
		}()
	}
	wg.Wait()
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"", slog.LevelWarn, true},
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", 0, false},
	}
	for _, c := range cases {
		got, err := ParseLevel(c.in)
		if (err == nil) != c.ok {
			t.Errorf("ParseLevel(%q): unexpected error state %v", c.in, err)
			continue
		}
		if c.ok && got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
