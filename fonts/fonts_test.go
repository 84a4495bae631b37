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

package fonts

import (
	"errors"
	"math"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/charmap"
	"seehuhn.de/go/pdf/font/standard"
)

func TestStandard(t *testing.T) {
	cases := []struct {
		family string
		want   standard.Font
	}{
		{"Arial", standard.Helvetica},
		{"Helvetica", standard.Helvetica},
		{"Times", standard.TimesRoman},
		{"Courier", standard.Courier},
		{"Comic Sans", standard.Helvetica},
		{"", standard.Helvetica},
		{"times", standard.Helvetica},
	}
	for _, c := range cases {
		if got := Standard(c.family); got != c.want {
			t.Errorf("Standard(%q) = %q, want %q", c.family, got, c.want)
		}
	}
	for _, f := range Families() {
		if _, ok := families[f]; !ok {
			t.Errorf("family %q has no mapping", f)
		}
	}
}

func TestEncode(t *testing.T) {
	got, err := Encode("Año 2026 €")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{'A', 0xF1, 'o', ' ', '2', '0', '2', '6', ' ', 0x80}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Encode (-want +got):\n%s", d)
	}

	_, err = Encode("签名")
	if !errors.Is(err, ErrEncoding) {
		t.Errorf("Encode of CJK text: %v", err)
	}

	lossy := EncodeLossy(standard.Helvetica, "a签b")
	if d := cmp.Diff([]byte("a?b"), lossy); d != "" {
		t.Errorf("EncodeLossy (-want +got):\n%s", d)
	}
}

func TestCheck(t *testing.T) {
	got, err := Check(standard.TimesRoman, "Año\u00a02026 €")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Año 2026 €" {
		t.Errorf("Check = %q", got)
	}

	_, err = Check(standard.Helvetica, "签名")
	if !errors.Is(err, ErrEncoding) {
		t.Errorf("Check of CJK text: %v", err)
	}

	if got := Lossy(standard.Courier, "x签\u00a0y"); got != "x? y" {
		t.Errorf("Lossy = %q", got)
	}
}

// Every string accepted by Check must be drawn without a .notdef glyph.
func TestCheckMatchesLayout(t *testing.T) {
	var all []rune
	for c := 0x20; c <= 0xFF; c++ {
		if r := charmap.Windows1252.DecodeByte(byte(c)); r != utf8.RuneError {
			all = append(all, r)
		}
	}
	for _, f := range []standard.Font{standard.Helvetica, standard.TimesRoman, standard.Courier} {
		inst := Instance(f)
		if Instance(f) != inst {
			t.Fatalf("%s: instance not cached", f)
		}
		for _, r := range all {
			s, err := Check(f, string(r))
			if err != nil {
				if Lossy(f, string(r)) != "?" {
					t.Errorf("%s: %q rejected by Check but kept by Lossy", f, r)
				}
				continue
			}
			for _, g := range inst.Layout(nil, 10, s).Seq {
				if g.GID == 0 {
					t.Errorf("%s: %q accepted but has no glyph", f, r)
				}
			}
		}
	}
}

func TestMetrics(t *testing.T) {
	for _, f := range []standard.Font{standard.Helvetica, standard.TimesRoman, standard.Courier} {
		m, err := Load(f)
		if err != nil {
			t.Fatal(err)
		}
		if m.Ascent <= 0 || m.Descent >= 0 {
			t.Errorf("%s: ascent %g, descent %g", f, m.Ascent, m.Descent)
		}
		if m.Widths['a'] <= 0 || m.Widths[' '] <= 0 {
			t.Errorf("%s: missing widths", f)
		}
	}

	// all glyphs of Courier are 600 units wide
	ext, err := Measure("Courier", 10, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ext.X-18) > 1e-9 {
		t.Errorf("Courier width = %g, want 18", ext.X)
	}
	if ext.Y <= 0 || ext.Y > 15 {
		t.Errorf("Courier height = %g", ext.Y)
	}

	// measurement scales linearly with the font size
	a, _ := Measure("Arial", 12, "Firma")
	b, _ := Measure("Arial", 24, "Firma")
	if math.Abs(2*a.X-b.X) > 1e-9 || math.Abs(2*a.Y-b.Y) > 1e-9 {
		t.Errorf("measure not linear: %v %v", a, b)
	}
}

func TestLoadConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	res := make([]*Metrics, 8)
	for i := range res {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := Load(standard.TimesRoman)
			if err != nil {
				t.Error(err)
			}
			res[i] = m
		}(i)
	}
	wg.Wait()
	for _, m := range res[1:] {
		if m != res[0] {
			t.Fatal("metrics not cached")
		}
	}
}
