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

package overlay

import (
	"bytes"
	"strings"
	"testing"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/font"
	"seehuhn.de/go/pdf/font/standard"
	"seehuhn.de/go/pdf/graphics"
	pdfimage "seehuhn.de/go/pdf/graphics/image"

	"seehuhn.de/go/stamp/annotation"
	"seehuhn.de/go/stamp/fonts"
)

type testResources struct {
	images map[*annotation.Raster]graphics.XObject
}

func (r *testResources) Font(f standard.Font) font.Font {
	return fonts.Instance(f)
}

func (r *testResources) Image(img *Image) (graphics.XObject, error) {
	xo, ok := r.images[img.Source]
	if !ok {
		xo = &pdfimage.PNG{Data: img.Image}
		r.images[img.Source] = xo
	}
	return xo, nil
}

func TestDraw(t *testing.T) {
	src := pngRaster(t, 200, 100)
	red := text(50, 700, "Hello", 12)
	red.Font.Color = annotation.Color{R: 255}
	annots := []annotation.Annotation{
		red,
		picture(50, 100, 100, 100, src),
		text(50, 650, "again", 12),
		picture(300, 100, 100, 100, src),
	}
	ov, err := NewRenderer(nil).Render(0, letter, annots)
	if err != nil {
		t.Fatal(err)
	}

	out, err := pdf.NewWriter(&bytes.Buffer{}, pdf.V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}
	rm := pdf.NewResourceManager(out)
	buf := &bytes.Buffer{}
	gw := graphics.NewWriter(buf, rm)
	res := &testResources{images: make(map[*annotation.Raster]graphics.XObject)}
	if err := ov.Draw(gw, res); err != nil {
		t.Fatal(err)
	}

	content := buf.String()
	for _, want := range []string{
		"1 0 0 rg\n",
		"/F1 12 Tf\n",
		"50 92 Td\n",
		"100 0 0 50 50 642 cm\n",
		"100 0 0 50 300 642 cm\n",
		"/X1 Do\n",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("content %q does not contain %q", content, want)
		}
	}
	if n := strings.Count(content, "BT\n"); n != 2 {
		t.Errorf("%d text objects", n)
	}
	if q, Q := strings.Count(content, "q\n"), strings.Count(content, "Q\n"); q != 4 || Q != 4 {
		t.Errorf("unbalanced graphics state: %d q, %d Q", q, Q)
	}

	// both texts share one font, both images share one XObject
	if len(gw.Resources.Font) != 1 || len(gw.Resources.XObject) != 1 {
		t.Errorf("resources %v", gw.Resources)
	}
}

// New resource names must not clash with the names the page already uses.
func TestDrawKeepsExistingNames(t *testing.T) {
	ov, err := NewRenderer(nil).Render(0, letter, []annotation.Annotation{
		text(0, 0, "a", 12),
		picture(0, 0, 50, 50, pngRaster(t, 10, 10)),
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := pdf.NewWriter(&bytes.Buffer{}, pdf.V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}
	gw := graphics.NewWriter(&bytes.Buffer{}, pdf.NewResourceManager(out))
	gw.Resources.Font = pdf.Dict{"F1": pdf.Reference(100), "F2": pdf.Reference(101)}
	gw.Resources.XObject = pdf.Dict{"X2": pdf.Reference(102)}
	err = ov.Draw(gw, &testResources{images: make(map[*annotation.Raster]graphics.XObject)})
	if err != nil {
		t.Fatal(err)
	}

	if len(gw.Resources.Font) != 3 || gw.Resources.Font["F1"] != pdf.Reference(100) || gw.Resources.Font["F2"] != pdf.Reference(101) {
		t.Errorf("fonts %v", gw.Resources.Font)
	}
	if len(gw.Resources.XObject) != 2 || gw.Resources.XObject["X2"] != pdf.Reference(102) {
		t.Errorf("XObjects %v", gw.Resources.XObject)
	}
}

func TestDrawNil(t *testing.T) {
	var ov *Overlay
	if err := ov.Draw(nil, nil); err != nil {
		t.Error(err)
	}
}
