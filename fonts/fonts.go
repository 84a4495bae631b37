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

// Package fonts maps annotation font families to the standard PDF fonts
// and provides the text metrics needed to lay out text annotations.
//
// Only characters of the Windows-1252 character set can be shown.
package fonts

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/encoding/charmap"

	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/font/loader"
	"seehuhn.de/go/pdf/font/pdfenc"
	"seehuhn.de/go/pdf/font/standard"
	"seehuhn.de/go/pdf/font/type1"
	"seehuhn.de/go/postscript/afm"
)

// Fallback is the font used for unknown families, and for text which cannot
// be drawn with the requested font.
const Fallback = standard.Helvetica

// FallbackSize is the font size used when the requested size cannot be
// used.
const FallbackSize = 12

// ErrEncoding is returned when a string contains characters outside the
// WinAnsi character set.
var ErrEncoding = errors.New("character not in WinAnsiEncoding")

var families = map[string]standard.Font{
	"Arial":     standard.Helvetica,
	"Helvetica": standard.Helvetica,
	"Times":     standard.TimesRoman,
	"Courier":   standard.Courier,
}

// Families returns the font family names which have a dedicated output
// font, with the default family first.
func Families() []string {
	return []string{"Arial", "Helvetica", "Times", "Courier"}
}

// Standard returns the output font for a font family.
// Unknown families map to [Fallback].
func Standard(family string) standard.Font {
	if f, ok := families[family]; ok {
		return f
	}
	return Fallback
}

// Encode converts s to WinAnsiEncoding.
// If s contains characters which cannot be represented, an error wrapping
// [ErrEncoding] is returned.
func Encode(s string) ([]byte, error) {
	res := make([]byte, 0, len(s))
	for _, r := range s {
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrEncoding, r)
		}
		res = append(res, c)
	}
	return res, nil
}

// EncodeLossy converts s to WinAnsiEncoding, replacing all characters which
// cannot be shown using font f by a question mark.
func EncodeLossy(f standard.Font, s string) []byte {
	code, _ := Encode(Lossy(f, s))
	return code
}

// Check returns s in the form it is drawn using font f.  If s contains
// characters outside the WinAnsi character set, or characters for which f
// has no glyph, an error wrapping [ErrEncoding] is returned.
func Check(f standard.Font, s string) (string, error) {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return "", fmt.Errorf("%w: %q", ErrEncoding, r)
		}
	}
	seq := Instance(f).Layout(nil, 1, s)
	for _, g := range seq.Seq {
		if g.GID == 0 {
			return "", fmt.Errorf("%w: no glyph for %q in %s", ErrEncoding, g.Text, f)
		}
	}
	return s, nil
}

// Lossy returns s in the form it is drawn using font f, with all characters
// which cannot be shown replaced by a question mark.
func Lossy(f standard.Font, s string) string {
	inst := Instance(f)
	return strings.Map(func(r rune) rune {
		if r == '\u00a0' {
			// The standard fonts have no glyph for the non-breaking space.
			return ' '
		}
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return '?'
		}
		if seq := inst.Layout(nil, 1, string(r)); len(seq.Seq) != 1 || seq.Seq[0].GID == 0 {
			return '?'
		}
		return r
	}, s)
}

var instances = map[standard.Font]*type1.Instance{}

// Instance returns the font instance used to draw text in font f.  The
// instance is shared and must not be modified.
func Instance(f standard.Font) *type1.Instance {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	inst, ok := instances[f]
	if !ok {
		inst = f.New()
		instances[f] = inst
	}
	return inst
}

// Metrics holds the glyph widths of a standard font in WinAnsiEncoding.
// All values are in PDF glyph space units, i.e. 1/1000 of the font size.
type Metrics struct {
	Font    standard.Font
	Widths  [256]float64
	Ascent  float64
	Descent float64 // negative
}

var (
	metricsMu    sync.Mutex
	metricsCache = map[standard.Font]*Metrics{}
	fontLoader   *loader.FontLoader
)

// Load returns the metrics for one of the standard fonts.
// The result is cached and must not be modified.
func Load(f standard.Font) (*Metrics, error) {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	if m, ok := metricsCache[f]; ok {
		return m, nil
	}
	if fontLoader == nil {
		fontLoader = loader.NewFontLoader()
	}

	r, err := fontLoader.Open(string(f), loader.FontTypeAFM)
	if err != nil {
		return nil, fmt.Errorf("font %q: %w", f, err)
	}
	defer r.Close()
	info, err := afm.Read(r)
	if err != nil {
		return nil, fmt.Errorf("font %q: %w", f, err)
	}

	m := &Metrics{Font: f}
	for code, name := range pdfenc.WinAnsi.Encoding {
		if g, ok := info.Glyphs[name]; ok {
			m.Widths[code] = g.WidthX
		} else if g, ok := info.Glyphs["space"]; ok && code == 0xA0 {
			m.Widths[code] = g.WidthX
		}
	}

	// The AFM files do not record ascent and descent, so these are taken
	// from the glyph bounding boxes.
	m.Ascent, m.Descent = info.Ascent, info.Descent
	for _, name := range []string{"d", "bracketleft", "bar"} {
		if g, ok := info.Glyphs[name]; ok && g.BBox.URy > m.Ascent {
			m.Ascent = g.BBox.URy
		}
	}
	for _, name := range []string{"p", "bracketleft", "bar"} {
		if g, ok := info.Glyphs[name]; ok && g.BBox.LLy < m.Descent {
			m.Descent = g.BBox.LLy
		}
	}

	metricsCache[f] = m
	return m, nil
}

// Width returns the advance width of the encoded string, in units of the
// font size.
func (m *Metrics) Width(code []byte) float64 {
	w := 0.0
	for _, c := range code {
		w += m.Widths[c]
	}
	return w / 1000
}

// Extent returns the width and height of the encoded string at the given
// font size.  The height is the distance from the descender to the
// ascender.
func (m *Metrics) Extent(code []byte, size float64) vec.Vec2 {
	return vec.Vec2{
		X: m.Width(code) * size,
		Y: (m.Ascent - m.Descent) / 1000 * size,
	}
}

// Measure returns the size of text when it is drawn using the given font
// family and size.  Characters which cannot be encoded are measured as
// question marks.
func Measure(family string, size float64, text string) (vec.Vec2, error) {
	f := Standard(family)
	m, err := Load(f)
	if err != nil {
		return vec.Vec2{}, err
	}
	return m.Extent(EncodeLossy(f, text), size), nil
}
