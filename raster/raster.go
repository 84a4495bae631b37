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

// Package raster loads the image content of image and signature
// annotations.
//
// PNG, JPEG, GIF, BMP, TIFF and WebP files are supported.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register BMP decoding
	_ "golang.org/x/image/tiff" // register TIFF decoding
	_ "golang.org/x/image/webp" // register WebP decoding

	"seehuhn.de/go/stamp/annotation"
)

// ErrEmpty is returned for rasters without any image content.
var ErrEmpty = errors.New("raster has no image data")

// Open reads an image file and returns a raster which refers to it.
// The file is decoded completely, so that broken files are detected when
// the image is placed and not only when the document is exported.
func Open(path string) (*annotation.Raster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return &annotation.Raster{
		Path:          path,
		NaturalWidth:  float64(b.Dx()),
		NaturalHeight: float64(b.Dy()),
	}, nil
}

// FromData returns a raster for an encoded image held in memory.
func FromData(data []byte) (*annotation.Raster, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrEmpty
	}
	return &annotation.Raster{
		Data:          data,
		NaturalWidth:  float64(cfg.Width),
		NaturalHeight: float64(cfg.Height),
	}, nil
}

// FromImage returns a raster for a decoded image.
func FromImage(img image.Image) (*annotation.Raster, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmpty
	}
	b := img.Bounds()
	return &annotation.Raster{
		Image:         img,
		NaturalWidth:  float64(b.Dx()),
		NaturalHeight: float64(b.Dy()),
	}, nil
}

// Image is a decoded raster, scaled down to the size it is embedded at.
type Image struct {
	image.Image

	// JPEG is set if the image was read from a JPEG file.  Such images are
	// embedded using DCT compression again, unless lossless storage is
	// requested.
	JPEG bool
}

// Options control the decoding of rasters.
type Options struct {
	// MaxSide limits the width and height of decoded images.  Larger
	// images are downscaled.  Zero means no limit.
	MaxSide int

	// Lossless disables DCT compression for images read from JPEG files.
	Lossless bool
}

// DefaultMaxSide is the downscaling limit used when no options are given.
const DefaultMaxSide = 2048

// Decode returns the image content of r, downscaled to at most
// opt.MaxSide pixels in each direction.
func Decode(r *annotation.Raster, opt *Options) (*Image, error) {
	if opt == nil {
		opt = &Options{MaxSide: DefaultMaxSide}
	}
	if r == nil {
		return nil, ErrEmpty
	}

	res := &Image{Image: r.Image}
	data := r.Data
	if res.Image == nil && data == nil && r.Path != "" {
		var err error
		data, err = os.ReadFile(r.Path)
		if err != nil {
			return nil, err
		}
	}
	if res.Image == nil {
		if data == nil {
			return nil, ErrEmpty
		}
		decoded, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		res.Image = decoded
		res.JPEG = format == "jpeg" && !opt.Lossless
	}
	if res.Bounds().Empty() {
		return nil, ErrEmpty
	}

	res.Image = downscale(res.Image, opt.MaxSide)
	return res, nil
}

func downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}
	scale := float64(maxSide) / float64(max(w, h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
