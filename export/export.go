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

// Package export merges annotations into the pages of a document.
//
// [Run] walks the pages of a [Source] document, renders the annotations of
// each page into an overlay and passes the overlays, in page order, to a
// [Sink] which writes the output document.  Overlays may be rendered
// concurrently, but the sink is only ever called from a single goroutine.
package export

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"seehuhn.de/go/stamp/annotation"
	"seehuhn.de/go/stamp/logging"
	"seehuhn.de/go/stamp/overlay"
)

// PageInfo describes the geometry of a page of the source document.
type PageInfo = overlay.PageInfo

// Source is the document the annotations are placed on.
type Source interface {
	NumPages() int
	PageInfo(page int) (*PageInfo, error)
}

// Sink receives the pages of the output document.
type Sink interface {
	// AppendPage adds a copy of source page i to the output, with the
	// overlay drawn on top.  Pages are appended in order.  If the overlay
	// is empty, the page is copied unchanged.
	AppendPage(i int, ov *overlay.Overlay) error

	// Close finishes the output document.
	Close() error
}

// Annotations gives access to the annotations of each page.
// This is implemented by [store.Snapshot].
type Annotations interface {
	ForPage(page int) []annotation.Annotation
}

// Options control an export.
type Options struct {
	// Workers is the number of pages rendered concurrently.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// Overlay controls how annotations are rendered.
	Overlay overlay.Options
}

// Result summarises an export.
type Result struct {
	Pages     int // pages written
	Drawn     int // annotations drawn
	Fallbacks int // text annotations drawn with the fallback font
	Skipped   int // annotations which could not be drawn
}

// PageError reports a failure which aborted the export at a given page.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page+1, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// ErrNoSource is returned when no source document is given.
var ErrNoSource = errors.New("no source document")

type job struct {
	page int
	out  chan pageResult
}

type pageResult struct {
	ov  *overlay.Overlay
	err error
}

// Run exports all pages of src to sink.  The sink is closed on success;
// if an error occurs, the sink is left open and the caller is expected to
// discard the output.
//
// Cancellation of ctx is checked between pages.
func Run(ctx context.Context, src Source, annots Annotations, sink Sink, opt *Options) (*Result, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	if opt == nil {
		opt = &Options{}
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	numPages := src.NumPages()
	if workers > numPages {
		workers = max(numPages, 1)
	}

	renderer := overlay.NewRenderer(&opt.Overlay)
	log := logging.Logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The queue holds the jobs in page order.  Its capacity bounds the
	// number of rendered pages waiting to be written.
	queue := make(chan job, 2*workers)
	work := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range work {
				ov, err := renderPage(renderer, src, annots, j.page)
				j.out <- pageResult{ov: ov, err: err}
			}
		}()
	}

	go func() {
		defer close(queue)
		defer close(work)
		for i := 0; i < numPages; i++ {
			j := job{page: i, out: make(chan pageResult, 1)}
			select {
			case queue <- j:
			case <-ctx.Done():
				return
			}
			select {
			case work <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	res := &Result{}
	var err error
	for j := range queue {
		if err = ctx.Err(); err != nil {
			break
		}
		var r pageResult
		select {
		case r = <-j.out:
		case <-ctx.Done():
			err = ctx.Err()
		}
		if err != nil {
			break
		}
		if r.err != nil {
			err = &PageError{Page: j.page, Err: r.err}
			break
		}
		if e := sink.AppendPage(j.page, r.ov); e != nil {
			err = &PageError{Page: j.page, Err: e}
			break
		}
		res.Pages++
		res.Drawn += r.ov.Drawn
		res.Fallbacks += r.ov.Fallbacks
		res.Skipped += r.ov.Skipped
	}
	cancel()
	// drain the queue so that the producer can exit
	for range queue {
	}
	wg.Wait()

	if err != nil {
		return res, err
	}
	if err := sink.Close(); err != nil {
		return res, err
	}
	log.Info("export finished",
		"pages", res.Pages, "drawn", res.Drawn,
		"fallbacks", res.Fallbacks, "skipped", res.Skipped)
	return res, nil
}

func renderPage(r *overlay.Renderer, src Source, annots Annotations, page int) (*overlay.Overlay, error) {
	var list []annotation.Annotation
	if annots != nil {
		list = annots.ForPage(page)
	}
	if len(list) == 0 {
		return &overlay.Overlay{Page: page}, nil
	}
	info, err := src.PageInfo(page)
	if err != nil {
		return nil, err
	}
	return r.Render(page, info, list)
}
