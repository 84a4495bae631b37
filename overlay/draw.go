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
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf/font"
	"seehuhn.de/go/pdf/font/standard"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/graphics/color"
)

// Resources supplies the fonts and image XObjects an overlay is drawn with.
type Resources interface {
	Font(f standard.Font) font.Font
	Image(img *Image) (graphics.XObject, error)
}

// Draw writes the overlay to the content stream of gw.  Each item is
// enclosed in q ... Q, so that the graphics state is unchanged afterwards.
func (o *Overlay) Draw(gw *graphics.Writer, res Resources) error {
	if o == nil {
		return nil
	}
	for _, item := range o.Items {
		switch item := item.(type) {
		case *Text:
			drawText(gw, res, item)
		case *Image:
			xo, err := res.Image(item)
			if err != nil {
				return err
			}
			drawImage(gw, xo, item)
		default:
			return fmt.Errorf("unexpected overlay item %T", item)
		}
		if gw.Err != nil {
			return gw.Err
		}
	}
	return nil
}

func drawText(gw *graphics.Writer, res Resources, t *Text) {
	c := t.Color
	gw.PushGraphicsState()
	gw.SetFillColor(color.DeviceRGB(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255))
	gw.TextBegin()
	gw.TextSetFont(res.Font(t.Font), t.Size)
	gw.TextFirstLine(t.Pos.X, t.Pos.Y)
	gw.TextShow(t.Text)
	gw.TextEnd()
	gw.PopGraphicsState()
}

func drawImage(gw *graphics.Writer, xo graphics.XObject, img *Image) {
	b := img.Box
	gw.PushGraphicsState()
	gw.Transform(matrix.Matrix{b.Dx(), 0, 0, b.Dy(), b.LLx, b.LLy})
	gw.DrawXObject(xo)
	gw.PopGraphicsState()
}
