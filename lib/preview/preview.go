// Package preview renders a compiled section as a PNG strip chart: one
// row per fixture, one box per output effect, gap-fill ranges dimmed.
// Useful for eyeballing coverage and handler output before handing the
// section to a serializer.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"luxc/lib/curve"
	"luxc/lib/effect"
	"luxc/lib/fixture"
)

const (
	labelWidth    = 110
	rowHeight     = 26
	rowGap        = 4
	timelineWidth = 840
	margin        = 8
)

var (
	background = color.RGBA{24, 24, 28, 255}
	rowBase    = color.RGBA{40, 40, 46, 255}
	gapFill    = color.RGBA{70, 70, 76, 255}
	boxBorder  = color.RGBA{16, 16, 18, 255}
	labelColor = color.RGBA{220, 220, 220, 255}
)

// Render draws the timeline for every fixture in rig order. The
// evaluator resolves curve-valued dimmers for shading; it may be nil,
// in which case curve segments render at half intensity.
func Render(rig *fixture.Rig, effects []*effect.DmxEffect, section effect.Section, ev curve.Evaluator) (image.Image, error) {
	if err := section.Validate(); err != nil {
		return nil, err
	}

	height := 2*margin + len(rig.Fixtures)*(rowHeight+rowGap) - rowGap
	if len(rig.Fixtures) == 0 {
		height = 2 * margin
	}
	img := image.NewRGBA(image.Rect(0, 0, labelWidth+timelineWidth+2*margin, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	rowIndex := map[string]int{}
	for i, fx := range rig.Fixtures {
		rowIndex[fx.ID] = i
		y := margin + i*(rowHeight+rowGap)
		fillRect(img, labelWidth+margin, y, timelineWidth, rowHeight, rowBase)
		drawLabel(img, margin, y+rowHeight/2, fx.ID)
	}

	for _, e := range effects {
		i, ok := rowIndex[e.FixtureID]
		if !ok {
			return nil, fmt.Errorf("effect for unknown fixture %q", e.FixtureID)
		}
		x0 := timeToX(e.StartMS, section)
		x1 := timeToX(e.EndMS, section)
		if x1 <= x0 {
			x1 = x0 + 1
		}
		y := margin + i*(rowHeight+rowGap)

		var fill color.RGBA
		if e.Type == effect.TypeGapFill {
			fill = gapFill
		} else {
			fill = handlerColor(e, ev)
		}
		fillRect(img, x0, y, x1-x0, rowHeight, fill)
		fillRect(img, x0, y, 1, rowHeight, boxBorder)
		fillRect(img, x1-1, y, 1, rowHeight, boxBorder)
	}

	return img, nil
}

// WritePNG renders and encodes in one step.
func WritePNG(w io.Writer, rig *fixture.Rig, effects []*effect.DmxEffect, section effect.Section, ev curve.Evaluator) error {
	img, err := Render(rig, effects, section, ev)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func timeToX(t int64, section effect.Section) int {
	span := section.EndMS - section.StartMS
	return labelWidth + margin + int(int64(timelineWidth)*(t-section.StartMS)/span)
}

// handlerColor shades a handler-derived box by its dimmer level at the
// segment midpoint: dark amber when off, bright amber when full.
func handlerColor(e *effect.DmxEffect, ev curve.Evaluator) color.RGBA {
	level := 0.5
	if v, ok := e.Channels[fixture.Dimmer]; ok {
		switch v.Kind {
		case effect.Static:
			level = float64(v.Value) / 255
		case effect.Curve:
			if ev != nil {
				mid := (e.StartMS + e.EndMS) / 2
				raw, err := ev.Evaluate(*v.Spec, mid, curve.Span{StartMS: e.StartMS, EndMS: e.EndMS})
				if err == nil {
					raw = min(max(raw, float64(v.ClampMin)), float64(v.ClampMax))
					level = raw / 255
				}
			}
		}
	}
	scale := 0.25 + 0.75*level
	return color.RGBA{
		R: uint8(220 * scale),
		G: uint8(150 * scale),
		B: uint8(40 * scale),
		A: 255,
	}
}

func fillRect(img *image.RGBA, x, y, w, h int, c color.RGBA) {
	draw.Draw(img, image.Rect(x, y, x+w, y+h), &image.Uniform{c}, image.Point{}, draw.Src)
}

func drawLabel(img *image.RGBA, x, centerY int, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{labelColor},
		Face: face,
		Dot:  fixed.P(x, centerY+face.Metrics().Ascent.Ceil()/2),
	}
	d.DrawString(text)
}
