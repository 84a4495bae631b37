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

// Package overlay lays out the annotations of one page, to be drawn on top
// of the original page content.
//
// Annotation geometry is given in page space, with the origin in the
// top-left corner of the page.  The overlay uses PDF user space, with the
// origin in the bottom-left corner of the media box.
package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/font/standard"

	"seehuhn.de/go/stamp/annotation"
	"seehuhn.de/go/stamp/fonts"
	"seehuhn.de/go/stamp/logging"
	"seehuhn.de/go/stamp/raster"
)

// PageInfo describes the geometry of a page in PDF user space.
type PageInfo struct {
	Width, Height float64

	// Origin is the lower-left corner of the media box.
	Origin vec.Vec2
}

// Text is a line of text drawn by an overlay.
type Text struct {
	Font  standard.Font
	Size  float64
	Color annotation.Color

	// Text only contains characters which Font can show.
	Text string

	// Pos is the start of the baseline, in PDF user space.
	Pos vec.Vec2
}

// Image is an image drawn by an overlay.
type Image struct {
	// Source identifies the raster the image was decoded from.  Images with
	// the same source can share one XObject in the output file.
	Source *annotation.Raster
	*raster.Image

	// Box is the area covered by the image, in PDF user space.
	Box rect.Rect
}

// An Item is either a [*Text] or an [*Image].
type Item interface {
	isItem()
}

func (*Text) isItem()  {}
func (*Image) isItem() {}

// Overlay is the laid out content for one page.
type Overlay struct {
	Page int

	// Items are drawn in order, so that later items cover earlier ones.
	Items []Item

	Drawn     int // annotations drawn
	Fallbacks int // text annotations drawn with the fallback font
	Skipped   int // annotations which could not be drawn
}

// IsEmpty reports whether the overlay draws nothing.
func (o *Overlay) IsEmpty() bool {
	return o == nil || len(o.Items) == 0
}

// Options control how annotations are rendered.
type Options struct {
	// Zoom is the zoom factor the annotation geometry is expressed in.
	// Annotation geometry is normally kept in page space, which corresponds
	// to the default value 1.
	Zoom float64

	// TextTopAligned places text so that the top of the text, rather than
	// the baseline, is at the annotation's position.  This matches the
	// placement of text in the editor view.
	TextTopAligned bool

	// Raster controls the decoding of images.
	Raster *raster.Options
}

// Renderer lays out overlays.  Decoded images are cached, so that an image
// used on several pages is only decoded once.
// A Renderer is safe for concurrent use.
type Renderer struct {
	opt Options

	mu     sync.Mutex
	images map[*annotation.Raster]*decoded
}

type decoded struct {
	once sync.Once
	img  *raster.Image
	err  error
}

// NewRenderer returns a new Renderer.
func NewRenderer(opt *Options) *Renderer {
	r := &Renderer{images: make(map[*annotation.Raster]*decoded)}
	if opt != nil {
		r.opt = *opt
	}
	if !(r.opt.Zoom > 0) || math.IsInf(r.opt.Zoom, 0) {
		r.opt.Zoom = 1
	}
	return r
}

var errBadSize = errors.New("font size is not positive")

// Render lays out the annotations of one page.  Annotations which cannot be
// drawn are logged and skipped.
func (r *Renderer) Render(page int, info *PageInfo, annots []annotation.Annotation) (*Overlay, error) {
	res := &Overlay{Page: page}
	if len(annots) == 0 {
		return res, nil
	}
	if info == nil {
		return nil, errors.New("missing page information")
	}

	p := &pageRenderer{Renderer: r, info: info, res: res}
	log := logging.Logger().With("page", page)
	for i := range annots {
		a := &annots[i]
		var item Item
		var err error
		switch {
		case a.Kind == annotation.Text:
			item, err = p.text(a, log)
		case a.Kind.HasRaster():
			item, err = p.image(a)
		default:
			err = fmt.Errorf("unknown annotation kind %d", int(a.Kind))
		}
		if err != nil {
			log.Warn("annotation skipped", "id", a.ID, "kind", a.Kind.String(), "error", err)
			res.Skipped++
			continue
		}
		res.Items = append(res.Items, item)
		res.Drawn++
	}
	return res, nil
}

type pageRenderer struct {
	*Renderer
	info *PageInfo
	res  *Overlay
}

// anchor returns the top-left corner of annotation a in PDF user space.
func (p *pageRenderer) anchor(a *annotation.Annotation) vec.Vec2 {
	z := p.opt.Zoom
	return vec.Vec2{
		X: p.info.Origin.X + a.Pos.X/z,
		Y: p.info.Origin.Y + p.info.Height - a.Pos.Y/z,
	}
}

func (p *pageRenderer) text(a *annotation.Annotation, log *slog.Logger) (*Text, error) {
	font := fonts.Standard(a.Font.Family)
	size := a.Font.Size / p.opt.Zoom
	s, err := prepareText(font, size, a.Text)
	fallback := err != nil
	if fallback {
		log.Warn("using fallback font", "id", a.ID, "font", string(font), "error", err)
		font, size = fonts.Fallback, fonts.FallbackSize
		s = fonts.Lossy(font, a.Text)
	}
	m, err := fonts.Load(font)
	if err != nil {
		return nil, err
	}
	if fallback {
		p.res.Fallbacks++
	}

	pos := p.anchor(a)
	if p.opt.TextTopAligned {
		pos.Y -= m.Ascent / 1000 * size
	}
	return &Text{
		Font:  font,
		Size:  size,
		Color: a.Font.Color,
		Text:  s,
		Pos:   pos,
	}, nil
}

// prepareText returns the text as it is drawn with the given font and
// size, and fails if this is not possible without loss.
func prepareText(font standard.Font, size float64, text string) (string, error) {
	if !(size > 0) || math.IsInf(size, 0) {
		return "", fmt.Errorf("%w: %g", errBadSize, size)
	}
	return fonts.Check(font, text)
}

func (p *pageRenderer) image(a *annotation.Annotation) (*Image, error) {
	img, err := p.decode(a.Raster)
	if err != nil {
		return nil, err
	}

	z := p.opt.Zoom
	b := img.Bounds()
	w, h := annotation.Fit(float64(b.Dx()), float64(b.Dy()), a.Width/z, a.Height/z)
	if !(w > 0) || !(h > 0) {
		return nil, fmt.Errorf("invalid image size %g×%g", w, h)
	}
	pos := p.anchor(a)
	return &Image{
		Source: a.Raster,
		Image:  img,
		Box:    rect.Rect{LLx: pos.X, LLy: pos.Y - h, URx: pos.X + w, URy: pos.Y},
	}, nil
}

func (r *Renderer) decode(src *annotation.Raster) (*raster.Image, error) {
	if src == nil {
		return nil, raster.ErrEmpty
	}
	r.mu.Lock()
	d := r.images[src]
	if d == nil {
		d = &decoded{}
		r.images[src] = d
	}
	r.mu.Unlock()

	d.once.Do(func() {
		d.img, d.err = raster.Decode(src, r.opt.Raster)
	})
	return d.img, d.err
}
