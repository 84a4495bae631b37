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

// Package resize computes new bounding boxes for annotations which are
// resized by dragging one of their eight handles.
//
// A resize operation starts with [NewSession], which captures the state of
// the annotation when the drag begins.  Every pointer movement is then
// passed to [Apply], together with the total displacement since the start
// of the drag, and the resulting [Snapshot] is committed by the caller.
// All values are in page space.
package resize

import (
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/stamp/annotation"
)

// ErrInvalidHandle is returned when a handle index is outside 0..7.
var ErrInvalidHandle = errors.New("invalid resize handle")

// Snapshot is the part of an annotation which is changed by resizing.
type Snapshot struct {
	Pos           vec.Vec2
	Width, Height float64
	FontSize      float64
}

// Take captures the resizable state of a.
func Take(a *annotation.Annotation) Snapshot {
	return Snapshot{
		Pos:      a.Pos,
		Width:    a.Width,
		Height:   a.Height,
		FontSize: a.Font.Size,
	}
}

// ApplyTo writes the snapshot into a.  The font size is only changed
// for text annotations.
func (s Snapshot) ApplyTo(a *annotation.Annotation) {
	a.Pos = s.Pos
	a.Width = s.Width
	a.Height = s.Height
	if a.Kind == annotation.Text {
		a.Font.Size = s.FontSize
	}
}

// Session holds the state of one resize drag.
type Session struct {
	Handle annotation.Handle
	Start  Snapshot
	Kind   annotation.Kind

	// Ratio is the natural width/height ratio of the raster content.
	// It is only used when the aspect ratio is locked.
	Ratio float64

	// AspectLocked requests that image and signature annotations keep
	// their natural aspect ratio.  It has no effect for text.
	AspectLocked bool
}

// NewSession starts resizing annotation a using handle h.
func NewSession(a *annotation.Annotation, h annotation.Handle, aspectLocked bool) (Session, error) {
	if !h.Valid() {
		return Session{}, fmt.Errorf("%w: %d", ErrInvalidHandle, int(h))
	}
	s := Session{
		Handle:       h,
		Start:        Take(a),
		Kind:         a.Kind,
		Ratio:        1,
		AspectLocked: aspectLocked,
	}
	if a.Kind.HasRaster() {
		s.Ratio = a.Raster.Ratio()
	}
	return s, nil
}

// Apply returns the geometry which results from dragging the session's
// handle by delta, measured from the start of the drag.
func Apply(s Session, delta vec.Vec2) (Snapshot, error) {
	h := s.Handle
	if !h.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrInvalidHandle, int(h))
	}

	if math.IsNaN(delta.X) || math.IsInf(delta.X, 0) {
		delta.X = 0
	}
	if math.IsNaN(delta.Y) || math.IsInf(delta.Y, 0) {
		delta.Y = 0
	}

	start := s.Start
	res := start

	if s.AspectLocked && s.Kind.HasRaster() {
		ratio := s.Ratio
		if !(ratio > 0) || math.IsInf(ratio, 0) {
			ratio = 1
		}
		if h.MovesLeft() || h.MovesRight() {
			minW := math.Max(annotation.MinWidth, annotation.MinHeight*ratio)
			res.Width, res.Pos.X = resizeEdge(start.Width, start.Pos.X, delta.X, minW, h.MovesLeft())
			res.Height = res.Width / ratio
		} else {
			minH := math.Max(annotation.MinHeight, annotation.MinWidth/ratio)
			res.Height, res.Pos.Y = resizeEdge(start.Height, start.Pos.Y, delta.Y, minH, h.MovesTop())
			res.Width = res.Height * ratio
		}
		return res, nil
	}

	if h.MovesLeft() || h.MovesRight() {
		res.Width, res.Pos.X = resizeEdge(start.Width, start.Pos.X, delta.X, annotation.MinWidth, h.MovesLeft())
	}
	if h.MovesTop() || h.MovesBottom() {
		res.Height, res.Pos.Y = resizeEdge(start.Height, start.Pos.Y, delta.Y, annotation.MinHeight, h.MovesTop())
	}

	if s.Kind == annotation.Text {
		res.FontSize = annotation.ScaleFontSize(start.FontSize,
			start.Width, start.Height, res.Width, res.Height)
	}
	return res, nil
}

// resizeEdge moves one edge of the interval [pos, pos+size] by d.
// If leading is true, the edge at pos moves and the opposite edge stays
// fixed, otherwise the edge at pos+size moves.
func resizeEdge(size, pos, d, minSize float64, leading bool) (float64, float64) {
	if leading {
		newSize := math.Max(minSize, size-d)
		return newSize, pos + (size - newSize)
	}
	return math.Max(minSize, size+d), pos
}
