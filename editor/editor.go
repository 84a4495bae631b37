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

// Package editor implements an interactive editing session on top of the
// annotation store.
//
// The session is independent of any particular user interface.  Front
// ends report pointer events in display coordinates; the session maps
// them to page space, hit-tests annotations and the selection decoration,
// and performs drags, resizes and deletions.
package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/stamp/annotation"
	"seehuhn.de/go/stamp/coord"
	"seehuhn.de/go/stamp/dates"
	"seehuhn.de/go/stamp/export"
	"seehuhn.de/go/stamp/fonts"
	"seehuhn.de/go/stamp/logging"
	"seehuhn.de/go/stamp/pdfdoc"
	"seehuhn.de/go/stamp/resize"
	"seehuhn.de/go/stamp/store"
)

var (
	// ErrNothingSelected is returned by operations on the selected
	// annotation when no annotation is selected.
	ErrNothingSelected = errors.New("no annotation selected")

	// ErrNotText is returned when a text operation is applied to an image
	// or signature.
	ErrNotText = errors.New("selected annotation is not a text")

	// ErrCancelled is returned by [Session.Save] when the user declines
	// to save a document without annotations.
	ErrCancelled = errors.New("cancelled")

	// ErrEmptyText is returned when a text annotation would have no text.
	ErrEmptyText = errors.New("empty text")
)

// MeasureFunc returns the size of text drawn in the given font.
type MeasureFunc func(family string, size float64, text string) (vec.Vec2, error)

// Options are used to configure a new session.
type Options struct {
	Viewport   coord.Viewport
	Font       annotation.Font // font for new text annotations
	Locale     dates.Locale
	DateFormat string

	// Measure is used to size text boxes.  If nil, [fonts.Measure] is
	// used.
	Measure MeasureFunc
}

// Session is an editing session for one document.
// A Session is not safe for concurrent use, but exports started by
// [Session.Save] work on a snapshot and do not block further edits.
type Session struct {
	store   *store.Store
	view    coord.Viewport
	page    int
	font    annotation.Font
	locale  dates.Locale
	dateFmt string
	measure MeasureFunc

	drag *dragState

	resizing    *resize.Session
	resizeID    string
	resizeStart vec.Vec2
}

type dragState struct {
	id   string
	grab vec.Vec2 // pointer position relative to the top-left corner, in page space
}

// New starts a session for a document with the given number of pages.
func New(numPages int, opt *Options) *Session {
	if opt == nil {
		opt = &Options{}
	}
	s := &Session{
		store:   store.New(numPages),
		view:    opt.Viewport,
		font:    opt.Font,
		locale:  opt.Locale,
		dateFmt: opt.DateFormat,
		measure: opt.Measure,
	}
	if s.view.Zoom == 0 {
		s.view = coord.NewViewport()
	}
	s.view.Zoom = coord.ClampZoom(s.view.Zoom)
	if s.font.Family == "" {
		s.font = annotation.DefaultFont()
	}
	s.font.Size = annotation.ClampUIFontSize(s.font.Size)
	if _, ok := dates.Lookup(s.dateFmt); !ok {
		s.dateFmt = dates.DefaultFormat
	}
	if s.measure == nil {
		s.measure = fonts.Measure
	}
	return s
}

// Store returns the annotation store of the session.
func (s *Session) Store() *store.Store {
	return s.store
}

// NumPages returns the number of pages in the document.
func (s *Session) NumPages() int {
	return s.store.NumPages()
}

// Page returns the index of the active page.
func (s *Session) Page() int {
	return s.page
}

// SetPage makes page i the active page.
// Any running drag or resize is ended.
func (s *Session) SetPage(i int) error {
	if i < 0 || i >= s.store.NumPages() {
		return fmt.Errorf("page %d: %w", i+1, store.ErrPageRange)
	}
	if i != s.page {
		s.PointerUp()
		s.page = i
	}
	return nil
}

// FirstPage moves to the first page.
func (s *Session) FirstPage() { s.movePage(0) }

// LastPage moves to the last page.
func (s *Session) LastPage() { s.movePage(s.store.NumPages() - 1) }

// NextPage moves to the next page, if there is one.
func (s *Session) NextPage() { s.movePage(s.page + 1) }

// PrevPage moves to the previous page, if there is one.
func (s *Session) PrevPage() { s.movePage(s.page - 1) }

func (s *Session) movePage(i int) {
	if i < 0 || i >= s.store.NumPages() {
		return
	}
	s.SetPage(i)
}

// Viewport returns the current viewport.
func (s *Session) Viewport() coord.Viewport {
	return s.view
}

// Zoom returns the current zoom factor.
func (s *Session) Zoom() float64 {
	return s.view.Zoom
}

// ZoomIn increases the zoom factor by one step.
func (s *Session) ZoomIn() float64 {
	s.view.Zoom = coord.ZoomIn(s.view.Zoom)
	return s.view.Zoom
}

// ZoomOut decreases the zoom factor by one step.
func (s *Session) ZoomOut() float64 {
	s.view.Zoom = coord.ZoomOut(s.view.Zoom)
	return s.view.Zoom
}

// ZoomReset restores the default zoom factor.
func (s *Session) ZoomReset() float64 {
	s.view.Zoom = coord.ZoomReset()
	return s.view.Zoom
}

// Font returns the font used for new text annotations.
func (s *Session) Font() annotation.Font {
	return s.font
}

// AddText places a text annotation on the active page and selects it.
func (s *Session) AddText(text string) (annotation.Annotation, error) {
	if text == "" {
		return annotation.Annotation{}, ErrEmptyText
	}
	ext, err := s.measure(s.font.Family, s.font.Size, text)
	if err != nil {
		return annotation.Annotation{}, err
	}
	return s.place(annotation.NewText(s.page, text, s.font, ext))
}

// AddDate places the date t, formatted with the session's date format, as
// a text annotation on the active page.
func (s *Session) AddDate(t time.Time) (annotation.Annotation, error) {
	text, err := s.locale.Format(t, s.dateFmt)
	if err != nil {
		return annotation.Annotation{}, err
	}
	return s.AddText(text)
}

// SetDateFormat selects the format used by [Session.AddDate].
func (s *Session) SetDateFormat(name string) error {
	if _, ok := dates.Lookup(name); !ok {
		return fmt.Errorf("%w: %q", dates.ErrUnknownFormat, name)
	}
	s.dateFmt = name
	return nil
}

// DateFormat returns the name of the format used by [Session.AddDate].
func (s *Session) DateFormat() string {
	return s.dateFmt
}

// Locale returns the locale used for month and weekday names.
func (s *Session) Locale() dates.Locale {
	return s.locale
}

// AddImage places an image on the active page and selects it.
func (s *Session) AddImage(r *annotation.Raster) (annotation.Annotation, error) {
	a, err := annotation.NewRaster(annotation.Image, s.page, r)
	if err != nil {
		return a, err
	}
	return s.place(a)
}

// AddSignature places a drawn signature on the active page and selects it.
func (s *Session) AddSignature(r *annotation.Raster) (annotation.Annotation, error) {
	a, err := annotation.NewRaster(annotation.Signature, s.page, r)
	if err != nil {
		return a, err
	}
	return s.place(a)
}

func (s *Session) place(a annotation.Annotation) (annotation.Annotation, error) {
	a.Selected = true
	if err := s.store.Add(a); err != nil {
		return annotation.Annotation{}, err
	}
	logging.Logger().Debug("annotation placed",
		"id", a.ID, "kind", a.Kind, "page", a.Page)
	return a, nil
}

// Selected returns the selected annotation.
func (s *Session) Selected() (annotation.Annotation, bool) {
	return s.store.Selected()
}

// Select selects the annotation with the given id.
func (s *Session) Select(id string) error {
	return s.store.Select(id)
}

// DeleteSelected removes the selected annotation.
func (s *Session) DeleteSelected() (annotation.Annotation, error) {
	s.PointerUp()
	a, ok := s.store.RemoveSelected()
	if !ok {
		return a, ErrNothingSelected
	}
	logging.Logger().Debug("annotation deleted", "id", a.ID)
	return a, nil
}

// EditText replaces the text of the text annotation with the given id.
// The box is refitted to the new text.
func (s *Session) EditText(id, text string) (annotation.Annotation, error) {
	if text == "" {
		return annotation.Annotation{}, ErrEmptyText
	}
	a, err := s.store.Get(id)
	if err != nil {
		return a, err
	}
	if a.Kind != annotation.Text {
		return a, ErrNotText
	}
	a.Text = text
	return s.refit(a)
}

// SetFontSize sets the font size for new text annotations and for the
// selected text annotation, if any.  The size is clamped as for values
// entered by the user.
func (s *Session) SetFontSize(size float64) (float64, error) {
	size = annotation.ClampUIFontSize(size)
	s.font.Size = size
	return size, s.updateSelectedFont(func(f *annotation.Font) { f.Size = size })
}

// SetFontFamily sets the font family for new text annotations and for the
// selected text annotation, if any.
func (s *Session) SetFontFamily(family string) error {
	s.font.Family = family
	return s.updateSelectedFont(func(f *annotation.Font) { f.Family = family })
}

// SetColor sets the text colour for new text annotations and for the
// selected text annotation, if any.
func (s *Session) SetColor(c annotation.Color) error {
	s.font.Color = c
	return s.updateSelectedFont(func(f *annotation.Font) { f.Color = c })
}

func (s *Session) updateSelectedFont(fn func(f *annotation.Font)) error {
	a, ok := s.store.Selected()
	if !ok || a.Kind != annotation.Text {
		return nil
	}
	fn(&a.Font)
	_, err := s.refit(a)
	return err
}

// refit stores a with its box set to the measured extents of its text.
func (s *Session) refit(a annotation.Annotation) (annotation.Annotation, error) {
	ext, err := s.measure(a.Font.Family, a.Font.Size, a.Text)
	if err != nil {
		return a, err
	}
	return s.store.Update(a.ID, func(b *annotation.Annotation) {
		b.Text = a.Text
		b.Font = a.Font
		b.SetExtent(ext)
	})
}

// Action describes the effect of a pointer press.
type Action int

// These are the possible effects of [Session.PointerDown].
const (
	Deselected Action = iota
	Dragging
	Resizing
	Deleted
)

func (a Action) String() string {
	switch a {
	case Deselected:
		return "deselected"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// DisplayRect returns the bounding box of a in display space.
func (s *Session) DisplayRect(a *annotation.Annotation) rect.Rect {
	p := s.view.ToDisplay(a.Pos)
	z := s.view.Zoom
	return rect.Rect{LLx: p.X, LLy: p.Y, URx: p.X + a.Width*z, URy: p.Y + a.Height*z}
}

// Decoration describes the selection frame of the selected annotation, in
// display space.
type Decoration struct {
	ID      string
	Frame   rect.Rect
	Handles [annotation.NumHandles]vec.Vec2
	Delete  rect.Rect
}

// Decoration returns the selection decoration, if an annotation on the
// active page is selected.
func (s *Session) Decoration() (*Decoration, bool) {
	a, ok := s.store.Selected()
	if !ok || a.Page != s.page {
		return nil, false
	}
	b := s.DisplayRect(&a)
	return &Decoration{
		ID:      a.ID,
		Frame:   annotation.Frame(b),
		Handles: annotation.HandleCenters(b),
		Delete:  annotation.DeleteButton(b),
	}, true
}

// PointerDown handles a pointer press at the display space point p.
//
// Presses on the delete button or a resize handle of the selected
// annotation delete it or start a resize.  The resize keeps the aspect
// ratio of images and signatures if lockAspect is set.  Presses on an
// annotation select it and start a drag.  Presses elsewhere clear the
// selection.
func (s *Session) PointerDown(p vec.Vec2, lockAspect bool) (Action, error) {
	s.PointerUp()

	if dec, ok := s.Decoration(); ok {
		if contains(dec.Delete, p) {
			_, err := s.DeleteSelected()
			return Deleted, err
		}
		a, _ := s.store.Get(dec.ID)
		if h := annotation.HandleAt(s.DisplayRect(&a), p); h >= 0 {
			sess, err := resize.NewSession(&a, h, lockAspect)
			if err != nil {
				return Deselected, err
			}
			s.resizing = &sess
			s.resizeID = a.ID
			s.resizeStart = p
			return Resizing, nil
		}
	}

	q := s.view.ToPage(p)
	list := s.store.ForPage(s.page)
	for i := len(list) - 1; i >= 0; i-- {
		a := list[i]
		if !a.Contains(q) {
			continue
		}
		if err := s.store.Select(a.ID); err != nil {
			return Deselected, err
		}
		s.drag = &dragState{id: a.ID, grab: q.Sub(a.Pos)}
		return Dragging, nil
	}

	s.store.DeselectAll()
	return Deselected, nil
}

// PointerMove handles pointer motion to the display space point p while
// the pointer is pressed.
func (s *Session) PointerMove(p vec.Vec2) error {
	switch {
	case s.drag != nil:
		pos := s.view.ToPage(p).Sub(s.drag.grab)
		_, err := s.store.Update(s.drag.id, func(a *annotation.Annotation) {
			a.Pos = pos
		})
		return err

	case s.resizing != nil:
		delta := s.view.DeltaToPage(p.Sub(s.resizeStart))
		snap, err := resize.Apply(*s.resizing, delta)
		if err != nil {
			return err
		}
		_, err = s.store.Update(s.resizeID, snap.ApplyTo)
		return err
	}
	return nil
}

// PointerUp ends a drag or resize.
func (s *Session) PointerUp() {
	s.drag = nil
	s.resizing = nil
	s.resizeID = ""
}

func contains(r rect.Rect, p vec.Vec2) bool {
	return p.X >= r.LLx && p.X <= r.URx && p.Y >= r.LLy && p.Y <= r.URy
}

// SaveOptions control [Session.Save].
type SaveOptions struct {
	Export export.Options

	// Confirm is called when the document has no annotations.  The
	// export only proceeds if it returns true.  A nil function means
	// that unchanged copies are written without asking.
	Confirm func() bool
}

// Save exports the annotated document.  The export works on a snapshot of
// the annotations taken when Save is called.
func (s *Session) Save(ctx context.Context, src export.Source, sink export.Sink, opt *SaveOptions) (*export.Result, error) {
	if opt == nil {
		opt = &SaveOptions{}
	}
	snap := s.store.Snapshot()
	if snap.Len() == 0 && opt.Confirm != nil && !opt.Confirm() {
		return nil, ErrCancelled
	}
	return export.Run(ctx, src, snap, sink, &opt.Export)
}

// SaveFile exports the annotated document to the file fname.  If the export
// fails or is cancelled, fname is left untouched.
func (s *Session) SaveFile(ctx context.Context, doc *pdfdoc.Document, fname string, opt *SaveOptions) (*export.Result, error) {
	w, err := pdfdoc.Create(fname, doc, nil)
	if err != nil {
		return nil, err
	}
	res, err := s.Save(ctx, doc, w, opt)
	if err != nil {
		w.Abort()
		return res, err
	}
	return res, nil
}
