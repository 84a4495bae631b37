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

// Package coord converts between page space and display space.
//
// Page space is the coordinate system of a document page, measured in the
// page's own units and independent of the on-screen zoom.  Display space is
// page space scaled by the zoom factor and shifted by the viewport offset.
// Both systems have their origin in the top-left corner with y growing
// downwards; the flip to the bottom-left origin of PDF user space happens
// only when an overlay is rendered.
package coord

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// Zoom limits.
const (
	MinZoom     = 0.5
	MaxZoom     = 3.0
	ZoomStep    = 0.2
	DefaultZoom = 1.0
)

// DefaultOffset is the margin between the viewport origin and a rendered
// page, used for the drop shadow around the page.
var DefaultOffset = vec.Vec2{X: 10, Y: 10}

// ClampZoom restricts zoom to the range [MinZoom, MaxZoom].
// NaN is mapped to DefaultZoom.
func ClampZoom(zoom float64) float64 {
	switch {
	case math.IsNaN(zoom):
		return DefaultZoom
	case zoom < MinZoom:
		return MinZoom
	case zoom > MaxZoom:
		return MaxZoom
	}
	return zoom
}

// ToDisplay maps a point from page space to display space.
func ToDisplay(p vec.Vec2, zoom float64, offset vec.Vec2) vec.Vec2 {
	zoom = ClampZoom(zoom)
	return vec.Vec2{
		X: p.X*zoom + offset.X,
		Y: p.Y*zoom + offset.Y,
	}
}

// ToPage maps a point from display space to page space.
// This is the inverse of [ToDisplay].
func ToPage(d vec.Vec2, zoom float64, offset vec.Vec2) vec.Vec2 {
	zoom = ClampZoom(zoom)
	return vec.Vec2{
		X: (d.X - offset.X) / zoom,
		Y: (d.Y - offset.Y) / zoom,
	}
}

// DeltaToPage converts a displacement measured in display space (for
// example the distance a pointer was dragged) into page space.
// The viewport offset cancels out for displacements.
func DeltaToPage(d vec.Vec2, zoom float64) vec.Vec2 {
	zoom = ClampZoom(zoom)
	return vec.Vec2{X: d.X / zoom, Y: d.Y / zoom}
}

// ZoomIn returns the next larger zoom level.
func ZoomIn(zoom float64) float64 {
	return ClampZoom(roundZoom(ClampZoom(zoom) + ZoomStep))
}

// ZoomOut returns the next smaller zoom level.
func ZoomOut(zoom float64) float64 {
	return ClampZoom(roundZoom(ClampZoom(zoom) - ZoomStep))
}

// ZoomReset returns the default zoom level.
func ZoomReset() float64 {
	return DefaultZoom
}

// roundZoom removes the rounding noise accumulated by repeated steps,
// so that five steps up from 1.0 give exactly 2.0.
func roundZoom(zoom float64) float64 {
	return math.Round(zoom*1e6) / 1e6
}

// Viewport describes how a page is shown on screen.
// The zero value is not useful; use [NewViewport].
type Viewport struct {
	Zoom   float64
	Offset vec.Vec2
}

// NewViewport returns a viewport with the default zoom and offset.
func NewViewport() Viewport {
	return Viewport{Zoom: DefaultZoom, Offset: DefaultOffset}
}

// ToDisplay maps a point from page space to display space.
func (v Viewport) ToDisplay(p vec.Vec2) vec.Vec2 {
	return ToDisplay(p, v.Zoom, v.Offset)
}

// ToPage maps a point from display space to page space.
func (v Viewport) ToPage(d vec.Vec2) vec.Vec2 {
	return ToPage(d, v.Zoom, v.Offset)
}

// DeltaToPage converts a display-space displacement into page space.
func (v Viewport) DeltaToPage(d vec.Vec2) vec.Vec2 {
	return DeltaToPage(d, v.Zoom)
}

// Matrix returns the transformation from page space to display space.
func (v Viewport) Matrix() matrix.Matrix {
	z := ClampZoom(v.Zoom)
	return matrix.Matrix{z, 0, 0, z, v.Offset.X, v.Offset.Y}
}
