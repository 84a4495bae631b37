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

package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"
)

func testImage(w, h int, alpha uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: alpha})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPNGWithAlpha(t *testing.T) {
	data := encodePNG(t, testImage(4, 3, 0x80))
	r, err := FromData(data)
	if err != nil {
		t.Fatal(err)
	}
	if r.NaturalWidth != 4 || r.NaturalHeight != 3 {
		t.Errorf("natural size %g×%g", r.NaturalWidth, r.NaturalHeight)
	}

	img, err := Decode(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 || img.JPEG {
		t.Errorf("unexpected image %v, jpeg=%t", b, img.JPEG)
	}
	b := img.Bounds()
	got := color.NRGBAModel.Convert(img.At(b.Min.X+2, b.Min.Y+1)).(color.NRGBA)
	want := color.NRGBA{R: 2, G: 1, B: 200, A: 0x80}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("pixel (-want +got):\n%s", d)
	}
}

func TestInMemoryImageUnchanged(t *testing.T) {
	src := testImage(5, 5, 0xFF)
	r, err := FromImage(src)
	if err != nil {
		t.Fatal(err)
	}
	img, err := Decode(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if img.Image != image.Image(src) {
		t.Error("small in-memory image was copied")
	}
	if img.JPEG {
		t.Error("in-memory image marked as JPEG")
	}
}

func TestJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for i := range src.Pix {
		src.Pix[i] = 0x7F
	}
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, src, nil); err != nil {
		t.Fatal(err)
	}

	r, err := FromData(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	img, err := Decode(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !img.JPEG {
		t.Error("JPEG file not recognised")
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("size %d×%d", b.Dx(), b.Dy())
	}

	img, err = Decode(r, &Options{Lossless: true})
	if err != nil {
		t.Fatal(err)
	}
	if img.JPEG {
		t.Error("JPEG compression used despite Lossless")
	}
}

func TestDownscale(t *testing.T) {
	r, _ := FromImage(testImage(400, 100, 0xFF))
	img, err := Decode(r, &Options{MaxSide: 100})
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 25 {
		t.Errorf("downscaled to %d×%d", b.Dx(), b.Dy())
	}
	// the ratio baseline is the original size
	if r.NaturalWidth != 400 {
		t.Errorf("natural width changed to %g", r.NaturalWidth)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "sig.bmp")
	buf := &bytes.Buffer{}
	if err := bmp.Encode(buf, testImage(7, 3, 0xFF)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(good, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Open(good)
	if err != nil {
		t.Fatal(err)
	}
	if r.Path != good || r.NaturalWidth != 7 || r.NaturalHeight != 3 {
		t.Errorf("unexpected raster %+v", r)
	}
	img, err := Decode(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 7 || b.Dy() != 3 {
		t.Errorf("decoded size %d×%d", b.Dx(), b.Dy())
	}

	bad := filepath.Join(dir, "broken.png")
	os.WriteFile(bad, []byte("not an image"), 0o644)
	if _, err := Open(bad); err == nil {
		t.Error("broken file accepted")
	}
	if _, err := Open(filepath.Join(dir, "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: %v", err)
	}
}

func TestEmpty(t *testing.T) {
	if _, err := FromImage(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("FromImage(nil) = %v", err)
	}
	if _, err := Decode(nil, nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Decode(nil) = %v", err)
	}
	if _, err := FromData([]byte{1, 2, 3}); err == nil {
		t.Error("garbage accepted")
	}
}
