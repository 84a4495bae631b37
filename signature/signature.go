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

// Package signature turns hand drawn strokes into a raster image for a
// signature annotation.
package signature

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/stamp/annotation"
	"seehuhn.de/go/stamp/raster"
)

// Size of the drawing area, and the width of the pen.
const (
	CanvasWidth  = 440
	CanvasHeight = 200
	PenWidth     = 3
)

// ErrEmpty is returned when a signature without any strokes is accepted.
var ErrEmpty = errors.New("signature is empty")

// Pad collects the strokes of a signature.
// Coordinates are pixels on the canvas, with the origin in the top-left
// corner.  Points outside the canvas are clipped when rendering.
type Pad struct {
	// Ink is the colour of the pen.  The zero value draws in black.
	Ink color.NRGBA

	strokes [][]vec.Vec2
}

// Begin starts a new stroke at p.
func (p *Pad) Begin(pt vec.Vec2) {
	p.strokes = append(p.strokes, []vec.Vec2{pt})
}

// Extend continues the current stroke to pt.
// If no stroke has been started, a new one is started at pt.
func (p *Pad) Extend(pt vec.Vec2) {
	if len(p.strokes) == 0 {
		p.Begin(pt)
		return
	}
	last := len(p.strokes) - 1
	p.strokes[last] = append(p.strokes[last], pt)
}

// Clear removes all strokes.
func (p *Pad) Clear() {
	p.strokes = nil
}

// Empty reports whether nothing has been drawn.
func (p *Pad) Empty() bool {
	return len(p.strokes) == 0
}

// Render draws the strokes onto a transparent canvas and returns the
// image cropped to the drawn content.
func (p *Pad) Render() (*image.NRGBA, error) {
	if p.Empty() {
		return nil, ErrEmpty
	}

	bounds := image.Rect(0, 0, CanvasWidth, CanvasHeight)
	mask := image.NewAlpha(bounds)
	z := vector.NewRasterizer(CanvasWidth, CanvasHeight)

	// Every segment and every joint is rasterised on its own and
	// composited onto the mask, so that overlapping pieces cannot cancel
	// out under the rasteriser's winding rule.
	fill := func(path func()) {
		z.Reset(CanvasWidth, CanvasHeight)
		path()
		z.Draw(mask, bounds, image.Opaque, image.Point{})
	}

	const r = PenWidth / 2.0
	for _, stroke := range p.strokes {
		for i, pt := range stroke {
			fill(func() { dot(z, pt, r) })
			if i == 0 {
				continue
			}
			prev := stroke[i-1]
			fill(func() { segment(z, prev, pt, r) })
		}
	}

	crop := opaqueBounds(mask)
	if crop.Empty() {
		return nil, ErrEmpty
	}

	ink := p.Ink
	ink.A = 0xFF
	res := image.NewNRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.DrawMask(res, res.Bounds(), image.NewUniform(ink), image.Point{}, mask, crop.Min, draw.Src)
	return res, nil
}

// Raster renders the signature and wraps it for use in a signature
// annotation.
func (p *Pad) Raster() (*annotation.Raster, error) {
	img, err := p.Render()
	if err != nil {
		return nil, err
	}
	return raster.FromImage(img)
}

func segment(z *vector.Rasterizer, a, b vec.Vec2, r float64) {
	d := b.Sub(a)
	l := math.Hypot(d.X, d.Y)
	if l == 0 {
		return
	}
	n := vec.Vec2{X: -d.Y / l * r, Y: d.X / l * r}
	moveTo(z, a.Add(n))
	lineTo(z, b.Add(n))
	lineTo(z, b.Sub(n))
	lineTo(z, a.Sub(n))
	z.ClosePath()
}

// dot adds a filled circle, approximated by a polygon.
func dot(z *vector.Rasterizer, c vec.Vec2, r float64) {
	const n = 12
	for i := 0; i < n; i++ {
		phi := 2 * math.Pi * float64(i) / n
		q := vec.Vec2{X: c.X + r*math.Cos(phi), Y: c.Y + r*math.Sin(phi)}
		if i == 0 {
			moveTo(z, q)
		} else {
			lineTo(z, q)
		}
	}
	z.ClosePath()
}

func moveTo(z *vector.Rasterizer, p vec.Vec2) {
	z.MoveTo(float32(p.X), float32(p.Y))
}

func lineTo(z *vector.Rasterizer, p vec.Vec2) {
	z.LineTo(float32(p.X), float32(p.Y))
}

// opaqueBounds returns the smallest rectangle containing all pixels of m
// with non-zero alpha.
func opaqueBounds(m *image.Alpha) image.Rectangle {
	b := m.Bounds()
	res := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if m.AlphaAt(x, y).A == 0 {
				continue
			}
			res = res.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return res
}
