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

// Package annotation implements the data model for objects placed on
// document pages: text, images and drawn signatures.
//
// All geometry is kept in page space, with the origin in the top-left
// corner of the page and y growing downwards.  The values do not depend on
// the zoom level at which the annotation was placed or edited.
package annotation

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/google/uuid"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Size limits, in page space units and points.
const (
	MinWidth        = 30
	MinHeight       = 20
	MinFontSize     = 8
	MaxFontSize     = 200
	DefaultFontSize = 12
)

// DefaultPos is where newly placed annotations appear.
var DefaultPos = vec.Vec2{X: 100, Y: 100}

// Boxes into which newly placed rasters are fitted.
var (
	ImageBox     = vec.Vec2{X: 150, Y: 150}
	SignatureBox = vec.Vec2{X: 200, Y: 80}
)

// ErrInvalid is returned (wrapped) when an annotation violates one of its
// invariants.
var ErrInvalid = errors.New("invalid annotation")

// Kind distinguishes the different types of annotations.
type Kind int

// These are the supported annotation kinds.
const (
	Text Kind = iota
	Image
	Signature
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Image:
		return "image"
	case Signature:
		return "signature"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// HasRaster reports whether annotations of this kind carry raster content.
func (k Kind) HasRaster() bool {
	return k == Image || k == Signature
}

// Color is an RGB colour with 8 bits per channel.
type Color struct {
	R, G, B uint8
}

// Black is the default text colour.
var Black = Color{}

// ParseColor parses colours of the form "#rrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Font describes how a text annotation is drawn.
//
// Family is a free-form name.  "Arial", "Helvetica", "Times" and "Courier"
// have dedicated output fonts, all other names use the fallback font.
type Font struct {
	Family string
	Size   float64
	Color  Color
}

// DefaultFont returns the font used for new text annotations.
func DefaultFont() Font {
	return Font{Family: "Arial", Size: DefaultFontSize, Color: Black}
}

// Raster is the image content of an Image or Signature annotation.
//
// Exactly one of Path, Data and Image is normally set.  The raster is
// treated as immutable once it has been attached to an annotation.
type Raster struct {
	Path  string      // file to read the image from
	Data  []byte      // encoded image (PNG, JPEG, ...)
	Image image.Image // decoded image

	// NaturalWidth and NaturalHeight give the pixel size of the image.
	// Their ratio is the baseline for aspect-locked resizing.
	NaturalWidth, NaturalHeight float64
}

// Ratio returns the aspect ratio width/height of the raster.
// If the natural height is not positive, 1 is returned.
func (r *Raster) Ratio() float64 {
	if r == nil || !(r.NaturalHeight > 0) || !(r.NaturalWidth > 0) {
		return 1
	}
	return r.NaturalWidth / r.NaturalHeight
}

// Annotation is one object placed on a page.
type Annotation struct {
	ID   string
	Kind Kind
	Page int

	// Pos is the top-left corner of the bounding box.
	Pos           vec.Vec2
	Width, Height float64

	Text   string
	Raster *Raster
	Font   Font

	Selected bool
}

// NewText creates a text annotation at the default position.
// The extent is the measured size of the rendered text; it is raised to the
// minimum annotation size where necessary.
func NewText(page int, text string, font Font, extent vec.Vec2) Annotation {
	a := Annotation{
		ID:   uuid.New().String(),
		Kind: Text,
		Page: page,
		Pos:  DefaultPos,
		Text: text,
		Font: font,
	}
	a.SetExtent(extent)
	return a
}

// NewRaster creates an image or signature annotation at the default
// position.  The raster is fitted into [ImageBox] or [SignatureBox],
// preserving its aspect ratio.
func NewRaster(kind Kind, page int, r *Raster) (Annotation, error) {
	if !kind.HasRaster() {
		return Annotation{}, fmt.Errorf("%w: kind %s has no raster", ErrInvalid, kind)
	}
	if r == nil {
		return Annotation{}, fmt.Errorf("%w: missing raster", ErrInvalid)
	}
	box := ImageBox
	if kind == Signature {
		box = SignatureBox
	}
	w, h := Fit(r.NaturalWidth, r.NaturalHeight, box.X, box.Y)
	w, h = raiseToFloor(w, h, r.Ratio())
	return Annotation{
		ID:     uuid.New().String(),
		Kind:   kind,
		Page:   page,
		Pos:    DefaultPos,
		Width:  w,
		Height: h,
		Raster: r,
		Font:   DefaultFont(),
	}, nil
}

// SetExtent sets the size of the annotation, raised to the size floors.
func (a *Annotation) SetExtent(extent vec.Vec2) {
	a.Width = math.Max(MinWidth, extent.X)
	a.Height = math.Max(MinHeight, extent.Y)
}

// Rect returns the bounding box in page space.
// Since page space has y pointing down, LLy is the top edge.
func (a *Annotation) Rect() rect.Rect {
	return rect.Rect{
		LLx: a.Pos.X,
		LLy: a.Pos.Y,
		URx: a.Pos.X + a.Width,
		URy: a.Pos.Y + a.Height,
	}
}

// Contains reports whether the page space point p lies inside the
// annotation's bounding box.
func (a *Annotation) Contains(p vec.Vec2) bool {
	return p.X >= a.Pos.X && p.X <= a.Pos.X+a.Width &&
		p.Y >= a.Pos.Y && p.Y <= a.Pos.Y+a.Height
}

// Validate checks the per-annotation invariants.
// The page index is only checked for being non-negative; the store
// checks the upper bound.
func (a *Annotation) Validate() error {
	switch {
	case a.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalid)
	case a.Kind != Text && !a.Kind.HasRaster():
		return fmt.Errorf("%w: unknown kind %d", ErrInvalid, int(a.Kind))
	case a.Page < 0:
		return fmt.Errorf("%w: negative page index %d", ErrInvalid, a.Page)
	case !(a.Width >= MinWidth):
		return fmt.Errorf("%w: width %g below %d", ErrInvalid, a.Width, MinWidth)
	case !(a.Height >= MinHeight):
		return fmt.Errorf("%w: height %g below %d", ErrInvalid, a.Height, MinHeight)
	case isBad(a.Pos.X) || isBad(a.Pos.Y):
		return fmt.Errorf("%w: position %v", ErrInvalid, a.Pos)
	}
	if a.Kind == Text {
		if !(a.Font.Size >= MinFontSize) || math.IsInf(a.Font.Size, 0) {
			return fmt.Errorf("%w: font size %g below %d", ErrInvalid, a.Font.Size, MinFontSize)
		}
	} else if a.Raster == nil {
		return fmt.Errorf("%w: %s without raster", ErrInvalid, a.Kind)
	}
	return nil
}

func isBad(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}

// Fit returns the largest size with aspect ratio nw:nh which fits into a
// box of size bw×bh.  If the natural size is degenerate, the box size is
// returned.
func Fit(nw, nh, bw, bh float64) (w, h float64) {
	if !(nw > 0) || !(nh > 0) {
		return bw, bh
	}
	scale := math.Min(bw/nw, bh/nh)
	return nw * scale, nh * scale
}

// raiseToFloor scales w×h up until both size floors hold, keeping the
// ratio w/h.
func raiseToFloor(w, h, ratio float64) (float64, float64) {
	if w < MinWidth {
		w = MinWidth
		h = w / ratio
	}
	if h < MinHeight {
		h = MinHeight
		w = h * ratio
	}
	return w, h
}

// ScaleFontSize returns the font size of a text box which has been resized
// from w0×h0 to w×h.  The size scales with the smaller of the two factors,
// is rounded to an integer and never drops below [MinFontSize].
func ScaleFontSize(size0, w0, h0, w, h float64) float64 {
	scale := 1.0
	if w0 > 0 && h0 > 0 {
		scale = math.Min(w/w0, h/h0)
	}
	return math.Max(MinFontSize, math.Round(size0*scale))
}

// ClampUIFontSize maps a font size entered by the user to an allowed value.
// Sizes below 1 are reset to the default size, sizes above [MaxFontSize]
// are replaced by 72, and the remaining sizes are raised to [MinFontSize].
func ClampUIFontSize(size float64) float64 {
	switch {
	case math.IsNaN(size) || size < 1:
		return DefaultFontSize
	case size > MaxFontSize:
		return 72
	}
	return math.Max(MinFontSize, size)
}
