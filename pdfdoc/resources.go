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
	"image/jpeg"
	"time"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/font"
	"seehuhn.de/go/pdf/font/standard"
	"seehuhn.de/go/pdf/graphics"
	pdfimage "seehuhn.de/go/pdf/graphics/image"
	"seehuhn.de/go/xmp"

	"seehuhn.de/go/stamp/annotation"
	"seehuhn.de/go/stamp/fonts"
	"seehuhn.de/go/stamp/logging"
	"seehuhn.de/go/stamp/overlay"
)

// jpegQuality is used for images read from JPEG files.
const jpegQuality = 90

// resources supplies the fonts and images of the overlays written to one
// document.  The resource manager of the output writer makes sure that
// each font and image is embedded only once.
type resources struct {
	images map[*annotation.Raster]graphics.XObject
}

func newResources() *resources {
	return &resources{images: make(map[*annotation.Raster]graphics.XObject)}
}

// Font implements [overlay.Resources].
func (r *resources) Font(f standard.Font) font.Font {
	return fonts.Instance(f)
}

// Image implements [overlay.Resources].  Images decoded from the same raster
// share one XObject.
func (r *resources) Image(img *overlay.Image) (graphics.XObject, error) {
	if xo, ok := r.images[img.Source]; ok && img.Source != nil {
		return xo, nil
	}

	var xo pdfimage.Image
	if img.JPEG {
		var err error
		xo, err = pdfimage.JPEG(img.Image, &jpeg.Options{Quality: jpegQuality})
		if err != nil {
			return nil, err
		}
	} else {
		// PNG embedding is lossless and adds a soft mask for transparency.
		xo = &pdfimage.PNG{Data: img.Image}
	}

	if img.Source != nil {
		r.images[img.Source] = xo
	}
	return xo, nil
}

func (w *Writer) putStream(ref pdf.Reference, dict pdf.Dict, data []byte, filters ...pdf.Filter) error {
	stm, err := w.out.OpenStream(ref, dict, filters...)
	if err != nil {
		return err
	}
	_, err = stm.Write(data)
	if err != nil {
		return err
	}
	return stm.Close()
}

// basicSchema is the part of the XMP basic schema which is updated when a
// document is written.
type basicSchema struct {
	_            xmp.Namespace `xmp:"http://ns.adobe.com/xap/1.0/"`
	_            xmp.Prefix    `xmp:"xmp"`
	ModifyDate   xmp.Date
	MetadataDate xmp.Date
}

// pdfSchema is the part of the Adobe PDF schema which is updated when a
// document is written.
type pdfSchema struct {
	_        xmp.Namespace `xmp:"http://ns.adobe.com/pdf/1.3/"`
	_        xmp.Prefix    `xmp:"pdf"`
	Producer xmp.AgentName
}

// writeMetadata writes the XMP metadata of the output document.  Existing
// metadata of the source document is kept, with the modification date and
// the producer updated.
func (w *Writer) writeMetadata(orig pdf.Reference, now time.Time) (pdf.Reference, error) {
	packet := w.readMetadata(orig)
	if packet == nil {
		packet = xmp.NewPacket()
	}
	packet.Set(
		&basicSchema{ModifyDate: xmp.NewDate(now), MetadataDate: xmp.NewDate(now)},
		&pdfSchema{Producer: xmp.NewAgentName(Producer)},
	)

	buf := &bytes.Buffer{}
	err := packet.Write(buf, nil)
	if err != nil {
		return 0, err
	}

	ref := w.out.Alloc()
	dict := pdf.Dict{
		"Type":    pdf.Name("Metadata"),
		"Subtype": pdf.Name("XML"),
	}
	err = w.putStream(ref, dict, buf.Bytes())
	if err != nil {
		return 0, err
	}
	return ref, nil
}

// readMetadata reads the XMP metadata of the source document.  Broken
// metadata is logged and ignored.  The caller must hold w.doc.mu.
func (w *Writer) readMetadata(ref pdf.Reference) *xmp.Packet {
	if ref == 0 {
		return nil
	}
	r := w.doc.r
	stm, err := pdf.GetStream(r, ref)
	if err == nil && stm == nil {
		return nil
	}
	var packet *xmp.Packet
	if err == nil {
		body, e := pdf.DecodeStream(r, stm, 0)
		if e == nil {
			packet, e = xmp.Read(body)
		}
		err = e
	}
	if err != nil {
		logging.Logger().Warn("ignoring unreadable XMP metadata", "error", err)
		return nil
	}
	return packet
}
