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

// Package pdfdoc reads the documents annotations are placed on, and writes
// the annotated copies.
package pdfdoc

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/stamp/overlay"
)

// Letter is the page size used when a page has no valid media box.
var Letter = &pdf.Rectangle{URx: 612, URy: 792}

// ErrPageRange is returned for page indices outside the document.
var ErrPageRange = errors.New("page index out of range")

// Options control how a document is opened.
type Options struct {
	// ReadPassword is called when the document is encrypted.  The argument
	// is the number of previous attempts.  Returning the empty string
	// aborts the attempt to open the file.
	ReadPassword func(try int) string
}

// Document is an input document.
// A Document is safe for concurrent use.
type Document struct {
	mu       sync.Mutex
	r        *pdf.Reader
	numPages int
}

// Open opens the PDF file with the given name.
func Open(fname string, opt *Options) (*Document, error) {
	r, err := pdf.Open(fname, readerOptions(opt))
	if err != nil {
		return nil, err
	}
	return newDocument(r)
}

// NewDocument reads a PDF document from data.
func NewDocument(data io.ReadSeeker, opt *Options) (*Document, error) {
	r, err := pdf.NewReader(data, readerOptions(opt))
	if err != nil {
		return nil, err
	}
	return newDocument(r)
}

func readerOptions(opt *Options) *pdf.ReaderOptions {
	if opt == nil || opt.ReadPassword == nil {
		return nil
	}
	return &pdf.ReaderOptions{
		ReadPassword: func(_ []byte, try int) string {
			return opt.ReadPassword(try)
		},
	}
}

func newDocument(r *pdf.Reader) (*Document, error) {
	n, err := pagetree.NumPages(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("cannot read page tree: %w", err)
	}
	return &Document{r: r, numPages: n}, nil
}

// Close closes the underlying file.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.r.Close()
}

// NumPages returns the number of pages in the document.
func (d *Document) NumPages() int {
	return d.numPages
}

// page returns the reference and the dictionary of page i, with inherited
// attributes filled in.  The caller must hold d.mu.
func (d *Document) page(i int) (pdf.Reference, pdf.Dict, error) {
	if i < 0 || i >= d.numPages {
		return 0, nil, fmt.Errorf("page %d: %w", i, ErrPageRange)
	}
	ref, dict, err := pagetree.GetPage(d.r, i)
	if err != nil {
		return 0, nil, fmt.Errorf("page %d: %w", i+1, err)
	}
	return ref, dict, nil
}

// PageInfo returns the geometry of page i.
func (d *Document) PageInfo(i int) (*overlay.PageInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, dict, err := d.page(i)
	if err != nil {
		return nil, err
	}

	box, err := pdf.GetRectangle(d.r, dict["MediaBox"])
	if err != nil || box == nil || box.URx <= box.LLx || box.URy <= box.LLy {
		box = Letter
	}
	info := &overlay.PageInfo{
		Width:  box.URx - box.LLx,
		Height: box.URy - box.LLy,
		Origin: vec.Vec2{X: box.LLx, Y: box.LLy},
	}
	return info, nil
}
