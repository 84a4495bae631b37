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

package annotation

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

func TestScaleFontSize(t *testing.T) {
	cases := []struct {
		size0, w0, h0, w, h float64
		want                float64
	}{
		{12, 150, 50, 300, 50, 12}, // min(2, 1) = 1
		{12, 150, 50, 300, 100, 24},
		{12, 150, 50, 75, 50, 8},   // 6 is raised to the floor
		{12, 150, 50, 30, 20, 8},   // also floored
		{20, 100, 40, 110, 44, 22}, // scale 1.1
		{13, 100, 40, 105, 60, 14}, // 13.65 rounds up
		{12, 0, 0, 100, 100, 12},
	}
	for _, c := range cases {
		got := ScaleFontSize(c.size0, c.w0, c.h0, c.w, c.h)
		if got != c.want {
			t.Errorf("ScaleFontSize(%g, %g, %g, %g, %g) = %g, want %g",
				c.size0, c.w0, c.h0, c.w, c.h, got, c.want)
		}
	}
}

func TestFit(t *testing.T) {
	cases := []struct {
		nw, nh, bw, bh float64
		w, h           float64
	}{
		{300, 100, 150, 150, 150, 50},
		{100, 300, 150, 150, 50, 150},
		{200, 80, 200, 80, 200, 80},
		{50, 50, 200, 80, 80, 80},
		{0, 10, 150, 150, 150, 150},
	}
	for _, c := range cases {
		w, h := Fit(c.nw, c.nh, c.bw, c.bh)
		if math.Abs(w-c.w) > 1e-9 || math.Abs(h-c.h) > 1e-9 {
			t.Errorf("Fit(%g, %g, %g, %g) = %g×%g, want %g×%g",
				c.nw, c.nh, c.bw, c.bh, w, h, c.w, c.h)
		}
	}
}

func TestNewRaster(t *testing.T) {
	cases := []struct {
		kind   Kind
		nw, nh float64
		w, h   float64
	}{
		{Image, 300, 200, 150, 100},
		{Image, 100, 400, 37.5, 150},
		{Signature, 440, 200, 176, 80},
		{Signature, 1000, 100, 200, 20},
		{Image, 2000, 100, 400, 20}, // too flat, raised to the height floor
	}
	for _, c := range cases {
		r := &Raster{NaturalWidth: c.nw, NaturalHeight: c.nh}
		a, err := NewRaster(c.kind, 2, r)
		if err != nil {
			t.Fatal(err)
		}
		if a.Pos != DefaultPos || a.Page != 2 || a.Kind != c.kind || a.ID == "" {
			t.Errorf("unexpected placement: %+v", a)
		}
		if err := a.Validate(); err != nil {
			t.Errorf("%s %g×%g: %v", c.kind, c.nw, c.nh, err)
		}
		if math.Abs(a.Width/a.Height-r.Ratio()) > 1e-9 {
			t.Errorf("%s %g×%g: ratio %g, want %g", c.kind, c.nw, c.nh, a.Width/a.Height, r.Ratio())
		}
		if math.Abs(a.Width-c.w) > 1e-9 || math.Abs(a.Height-c.h) > 1e-9 {
			t.Errorf("%s %g×%g: got %g×%g, want %g×%g",
				c.kind, c.nw, c.nh, a.Width, a.Height, c.w, c.h)
		}
	}

	if _, err := NewRaster(Text, 0, &Raster{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("NewRaster(Text) error = %v", err)
	}
	if _, err := NewRaster(Image, 0, nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("NewRaster(nil raster) error = %v", err)
	}
}

func TestNewTextIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		a := NewText(0, "x", DefaultFont(), vec.Vec2{X: 5, Y: 5})
		if seen[a.ID] {
			t.Fatalf("duplicate id %q", a.ID)
		}
		seen[a.ID] = true
		if a.Width != MinWidth || a.Height != MinHeight {
			t.Fatalf("extent not raised to the floor: %g×%g", a.Width, a.Height)
		}
	}
}

func TestValidate(t *testing.T) {
	good := NewText(0, "hello", DefaultFont(), vec.Vec2{X: 40, Y: 20})
	if err := good.Validate(); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		mod  func(a *Annotation)
	}{
		{"no id", func(a *Annotation) { a.ID = "" }},
		{"narrow", func(a *Annotation) { a.Width = 29 }},
		{"short", func(a *Annotation) { a.Height = 19.5 }},
		{"nan width", func(a *Annotation) { a.Width = math.NaN() }},
		{"small font", func(a *Annotation) { a.Font.Size = 7 }},
		{"negative page", func(a *Annotation) { a.Page = -1 }},
		{"bad position", func(a *Annotation) { a.Pos.X = math.Inf(1) }},
		{"bad kind", func(a *Annotation) { a.Kind = 7 }},
		{"image without raster", func(a *Annotation) { a.Kind = Image }},
	}
	for _, c := range cases {
		a := good
		c.mod(&a)
		if err := a.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: Validate() = %v", c.name, err)
		}
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"#000000", Black, true},
		{"ff8000", Color{R: 255, G: 128}, true},
		{"#0078D7", Color{G: 0x78, B: 0xd7}, true},
		{"#fff", Color{}, false},
		{"zzzzzz", Color{}, false},
	}
	for _, c := range cases {
		got, err := ParseColor(c.in)
		if (err == nil) != c.ok || got != c.want {
			t.Errorf("ParseColor(%q) = %v, %v", c.in, got, err)
		}
		if c.ok && got.String() != "#"+lower(trimHash(c.in)) {
			t.Errorf("%v.String() = %q", got, got.String())
		}
	}
}

func trimHash(s string) string {
	if s != "" && s[0] == '#' {
		return s[1:]
	}
	return s
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func TestClampUIFontSize(t *testing.T) {
	cases := []struct{ in, out float64 }{
		{0, 12},
		{-5, 12},
		{math.NaN(), 12},
		{5, 8},
		{8, 8},
		{36, 36},
		{200, 200},
		{201, 72},
	}
	for _, c := range cases {
		if got := ClampUIFontSize(c.in); got != c.out {
			t.Errorf("ClampUIFontSize(%g) = %g, want %g", c.in, got, c.out)
		}
	}
}

func TestHandles(t *testing.T) {
	b := rect.Rect{LLx: 100, LLy: 100, URx: 250, URy: 150}
	got := HandleCenters(b)
	want := [NumHandles]vec.Vec2{
		{X: 96, Y: 96}, {X: 175, Y: 96}, {X: 254, Y: 96}, {X: 254, Y: 125},
		{X: 254, Y: 154}, {X: 175, Y: 154}, {X: 96, Y: 154}, {X: 96, Y: 125},
	}
	if d := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); d != "" {
		t.Errorf("handle centres (-want +got):\n%s", d)
	}

	for i, c := range want {
		if h := HandleAt(b, c.Add(vec.Vec2{X: 3, Y: -3})); h != Handle(i) {
			t.Errorf("HandleAt near handle %d = %d", i, h)
		}
	}
	if h := HandleAt(b, vec.Vec2{X: 175, Y: 125}); h != -1 {
		t.Errorf("HandleAt(centre) = %d", h)
	}

	del := DeleteButton(b)
	if del != (rect.Rect{LLx: 230, LLy: 80, URx: 246, URy: 96}) {
		t.Errorf("DeleteButton = %v", del)
	}
}

func TestHandleEdges(t *testing.T) {
	type edges struct{ L, R, T, B bool }
	want := [NumHandles]edges{
		{L: true, T: true},
		{T: true},
		{R: true, T: true},
		{R: true},
		{R: true, B: true},
		{B: true},
		{L: true, B: true},
		{L: true},
	}
	for h := Handle(0); h < NumHandles; h++ {
		got := edges{h.MovesLeft(), h.MovesRight(), h.MovesTop(), h.MovesBottom()}
		if got != want[h] {
			t.Errorf("handle %d: got %+v, want %+v", h, got, want[h])
		}
	}
	if Handle(8).Valid() || Handle(-1).Valid() {
		t.Error("out of range handles reported as valid")
	}
}
