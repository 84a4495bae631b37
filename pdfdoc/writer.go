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

package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/pagetree"
	"seehuhn.de/go/pdf/pdfcopy"

	"seehuhn.de/go/stamp/logging"
	"seehuhn.de/go/stamp/overlay"
)

// Producer is recorded in the metadata of written documents.
const Producer = "seehuhn.de/go/stamp"

var errClosed = errors.New("writer is closed")

// WriterOptions control how the output document is written.
type WriterOptions struct {
	// Now is used for the modification date.  If nil, time.Now is used.
	Now func() time.Time
}

// Writer writes an annotated copy of a Document.
// Pages must be appended in order, each exactly once.
type Writer struct {
	doc    *Document
	out    *pdf.Writer
	rm     *pdf.ResourceManager
	tree   *pagetree.Writer
	copier *pdfcopy.Copier
	now    func() time.Time

	// pageRefs maps source page numbers to the references of the
	// corresponding output pages.
	pageRefs []pdf.Reference
	next     int

	res *resources

	// set by Create
	file    *os.File
	tmpName string
	target  string

	closed bool
}

// Create writes the output document to the file fname.  The data is written
// to a temporary file in the same directory, which replaces fname when the
// writer is closed.  Use [Writer.Abort] to discard the output.
func Create(fname string, doc *Document, opt *WriterOptions) (*Writer, error) {
	f, err := os.CreateTemp(filepath.Dir(fname), ".stamp-*.pdf")
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, doc, opt)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	w.file = f
	w.tmpName = f.Name()
	w.target = fname
	return w, nil
}

// NewWriter writes the output document to out.
func NewWriter(out io.Writer, doc *Document, opt *WriterOptions) (*Writer, error) {
	if opt == nil {
		opt = &WriterOptions{}
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	// Soft masks and XMP metadata need PDF 1.4.
	v := doc.r.GetMeta().Version
	if v < pdf.V1_4 {
		v = pdf.V1_4
	}
	pw, err := pdf.NewWriter(out, v, nil)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		doc:    doc,
		out:    pw,
		rm:     pdf.NewResourceManager(pw),
		copier: pdfcopy.NewCopier(pw, doc.r),
		now:    opt.Now,
		res:    newResources(),
	}
	if w.now == nil {
		w.now = time.Now
	}
	w.tree = pagetree.NewWriter(pw, w.rm)

	// Allocate all output pages up front, so that links between pages
	// are translated to the new page objects.
	w.pageRefs = make([]pdf.Reference, doc.numPages)
	for i := range w.pageRefs {
		ref, _, err := doc.page(i)
		if err != nil {
			return nil, err
		}
		w.pageRefs[i] = pw.Alloc()
		if ref != 0 {
			w.copier.Redirect(ref, w.pageRefs[i])
		}
	}
	return w, nil
}

// AppendPage appends a copy of source page i with the overlay drawn on top.
func (w *Writer) AppendPage(i int, ov *overlay.Overlay) error {
	if w.closed {
		return errClosed
	}
	if i != w.next {
		return fmt.Errorf("page %d appended out of order, expected %d", i+1, w.next+1)
	}

	w.doc.mu.Lock()
	defer w.doc.mu.Unlock()

	_, pageIn, err := w.doc.page(i)
	if err != nil {
		return err
	}
	delete(pageIn, "Parent")

	var contents, resources pdf.Object
	if !ov.IsEmpty() {
		contents, resources = pageIn["Contents"], pageIn["Resources"]
		delete(pageIn, "Contents")
		delete(pageIn, "Resources")
	}

	pageOut, err := w.copier.CopyDict(pageIn)
	if err != nil {
		return fmt.Errorf("page %d: %w", i+1, err)
	}

	if !ov.IsEmpty() {
		err = w.merge(pageOut, contents, resources, ov)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}

	err = w.tree.AppendPageDict(w.pageRefs[i], pageOut)
	if err != nil {
		return fmt.Errorf("page %d: %w", i+1, err)
	}
	w.next++
	return nil
}

// merge sets the content streams and resources of pageOut, so that the
// original content is drawn first, followed by the overlay.
func (w *Writer) merge(pageOut pdf.Dict, contents, resources pdf.Object, ov *overlay.Overlay) error {
	r := w.doc.r

	// The original content is enclosed in q ... Q, so that changes to the
	// graphics state do not leak into the overlay.
	var streams pdf.Array
	ref, err := w.writeStream([]byte("q\n"))
	if err != nil {
		return err
	}
	streams = append(streams, ref)

	orig, err := pdf.Resolve(r, contents)
	if err != nil {
		return err
	}
	switch orig := orig.(type) {
	case pdf.Array:
		for _, obj := range orig {
			ref, ok := obj.(pdf.Reference)
			if !ok {
				continue
			}
			copied, err := w.copier.CopyReference(ref)
			if err != nil {
				return err
			}
			streams = append(streams, copied)
		}
	case *pdf.Stream:
		if ref, ok := contents.(pdf.Reference); ok {
			copied, err := w.copier.CopyReference(ref)
			if err != nil {
				return err
			}
			streams = append(streams, copied)
		}
	}

	// Resources are copied into direct dictionaries, so that entries can
	// be added without affecting other pages which share the resources.
	res, err := pdf.GetDict(r, resources)
	if err != nil {
		return err
	}
	resIn := pdf.Dict{}
	for key, val := range res {
		if key != "Font" && key != "XObject" {
			resIn[key] = val
		}
	}
	fontIn, err := pdf.GetDict(r, res["Font"])
	if err != nil {
		return err
	}
	xObjIn, err := pdf.GetDict(r, res["XObject"])
	if err != nil {
		return err
	}
	resOut, err := w.copier.CopyDict(resIn)
	if err != nil {
		return err
	}
	fontOut, err := w.copier.CopyDict(fontIn)
	if err != nil {
		return err
	}
	xObjOut, err := w.copier.CopyDict(xObjIn)
	if err != nil {
		return err
	}

	// The overlay only adds fonts and XObjects.  Seeding the writer with the
	// existing dictionaries keeps the new names distinct from the old ones.
	buf := &bytes.Buffer{}
	buf.WriteString("Q\n")
	gw := graphics.NewWriter(buf, w.rm)
	gw.Resources.Font = fontOut
	gw.Resources.XObject = xObjOut
	err = ov.Draw(gw, w.res)
	if err != nil {
		return err
	}

	ref, err = w.writeStream(buf.Bytes())
	if err != nil {
		return err
	}
	streams = append(streams, ref)
	pageOut["Contents"] = streams

	if len(gw.Resources.Font) > 0 {
		resOut["Font"] = gw.Resources.Font
	}
	if len(gw.Resources.XObject) > 0 {
		resOut["XObject"] = gw.Resources.XObject
	}
	pageOut["Resources"] = resOut
	return nil
}

func (w *Writer) writeStream(data []byte) (pdf.Reference, error) {
	ref := w.out.Alloc()
	stm, err := w.out.OpenStream(ref, nil, pdf.FilterCompress{})
	if err != nil {
		return 0, err
	}
	_, err = stm.Write(data)
	if err != nil {
		return 0, err
	}
	err = stm.Close()
	if err != nil {
		return 0, err
	}
	return ref, nil
}

// Close finishes the output document.  For writers returned by [Create],
// the temporary file is moved into place.
func (w *Writer) Close() error {
	if w.closed {
		return errClosed
	}
	if w.next != w.doc.numPages {
		w.Abort()
		return fmt.Errorf("only %d of %d pages written", w.next, w.doc.numPages)
	}
	w.closed = true

	err := w.finish()
	if w.file != nil {
		if cErr := w.file.Close(); cErr != nil && !errors.Is(cErr, os.ErrClosed) && err == nil {
			err = cErr
		}
		if err != nil {
			os.Remove(w.tmpName)
			return err
		}
		return os.Rename(w.tmpName, w.target)
	}
	return err
}

func (w *Writer) finish() error {
	treeRef, err := w.tree.Close()
	if err != nil {
		return err
	}
	err = w.rm.Close()
	if err != nil {
		return err
	}

	w.doc.mu.Lock()
	defer w.doc.mu.Unlock()

	metaIn := w.doc.r.GetMeta()
	metaOut := w.out.GetMeta()
	metaOut.Catalog.Pages = treeRef
	if metaIn.Catalog.Outlines != 0 {
		ref, err := w.copier.CopyReference(metaIn.Catalog.Outlines)
		if err != nil {
			return err
		}
		metaOut.Catalog.Outlines = ref
	}
	metaOut.Catalog.PageMode = metaIn.Catalog.PageMode
	metaOut.Catalog.PageLayout = metaIn.Catalog.PageLayout
	metaOut.Catalog.Lang = metaIn.Catalog.Lang

	now := w.now()
	info := &pdf.Info{}
	if metaIn.Info != nil {
		*info = *metaIn.Info
	}
	info.Producer = Producer
	info.ModDate = now
	metaOut.Info = info

	ref, err := w.writeMetadata(metaIn.Catalog.Metadata, now)
	if err != nil {
		return err
	}
	metaOut.Catalog.Metadata = ref

	return w.out.Close()
}

// Abort discards the output.  For writers returned by [Create], the
// temporary file is removed and the target file is left untouched.
func (w *Writer) Abort() error {
	w.closed = true
	if w.file == nil {
		return nil
	}
	w.file.Close()
	err := os.Remove(w.tmpName)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		logging.Logger().Warn("cannot remove temporary file",
			"file", w.tmpName, "error", err)
	}
	return err
}
