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
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Handle identifies one of the eight resize handles around the selection
// frame, numbered clockwise from the top-left corner.
type Handle int

// The eight resize handles.
const (
	TopLeft Handle = iota
	Top
	TopRight
	Right
	BottomRight
	Bottom
	BottomLeft
	Left

	NumHandles = 8
)

// Valid reports whether h is one of the eight handles.
func (h Handle) Valid() bool {
	return h >= 0 && h < NumHandles
}

// MovesLeft reports whether dragging h moves the left edge.
func (h Handle) MovesLeft() bool {
	return h == TopLeft || h == BottomLeft || h == Left
}

// MovesRight reports whether dragging h moves the right edge.
func (h Handle) MovesRight() bool {
	return h == TopRight || h == Right || h == BottomRight
}

// MovesTop reports whether dragging h moves the top edge.
func (h Handle) MovesTop() bool {
	return h == TopLeft || h == Top || h == TopRight
}

// MovesBottom reports whether dragging h moves the bottom edge.
func (h Handle) MovesBottom() bool {
	return h == BottomRight || h == Bottom || h == BottomLeft
}

// Geometry of the selection decoration, in display units.
const (
	SelectionPad = 4
	HandleSize   = 8
	DeleteSize   = 16
)

// Frame returns the selection frame for a bounding box b, given in
// display space.
func Frame(b rect.Rect) rect.Rect {
	return rect.Rect{
		LLx: b.LLx - SelectionPad,
		LLy: b.LLy - SelectionPad,
		URx: b.URx + SelectionPad,
		URy: b.URy + SelectionPad,
	}
}

// HandleCenters returns the centres of the eight resize handles around the
// bounding box b, in the order of the [Handle] constants.  Corner handles
// sit on the corners of the selection frame, edge handles on the middle of
// the frame's edges.
func HandleCenters(b rect.Rect) [NumHandles]vec.Vec2 {
	f := Frame(b)
	mx := (b.LLx + b.URx) / 2
	my := (b.LLy + b.URy) / 2
	return [NumHandles]vec.Vec2{
		{X: f.LLx, Y: f.LLy},
		{X: mx, Y: f.LLy},
		{X: f.URx, Y: f.LLy},
		{X: f.URx, Y: my},
		{X: f.URx, Y: f.URy},
		{X: mx, Y: f.URy},
		{X: f.LLx, Y: f.URy},
		{X: f.LLx, Y: my},
	}
}

// HandleAt returns the handle whose square contains the display space
// point p, or -1 if there is none.
func HandleAt(b rect.Rect, p vec.Vec2) Handle {
	for i, c := range HandleCenters(b) {
		if abs(p.X-c.X) <= HandleSize/2 && abs(p.Y-c.Y) <= HandleSize/2 {
			return Handle(i)
		}
	}
	return -1
}

// DeleteButton returns the square of the delete button, which sits just
// above the top-right corner of the selection frame.
func DeleteButton(b rect.Rect) rect.Rect {
	x2 := b.URx - SelectionPad
	y1 := b.LLy - SelectionPad
	return rect.Rect{LLx: x2 - DeleteSize, LLy: y1 - DeleteSize, URx: x2, URy: y1}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
