package caption

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	boxPaddingPx   = 16
	bottomSafeFrac = 0.08
	leftSafeFrac   = 0.07
)

var (
	textColor    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	shadowColor  = color.NRGBA{R: 0, G: 0, B: 0, A: 180}
	boxColor     = color.NRGBA{R: 0, G: 0, B: 0, A: 150}
)

// Rasterize draws the fitted lines into a transparent overlay sized to the
// full canvas: a left-aligned block anchored at the bottom-safe margin, each
// line over a semi-opaque box sized to the widest line, with outline and
// shadow for legibility over arbitrary backgrounds.
func Rasterize(layout Layout, canvasWidth, canvasHeight int) (*image.RGBA, error) {
	overlay := image.NewRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	if len(layout.Lines) == 0 {
		return overlay, nil
	}

	face, err := faceForSize(layout.FontSizePx)
	if err != nil {
		return nil, fmt.Errorf("rasterize caption: %w", err)
	}

	widest := 0
	for _, line := range layout.Lines {
		if w := measureWidth(line, layout.FontSizePx); w > widest {
			widest = w
		}
	}

	blockHeight := len(layout.Lines) * layout.LineHeightPx
	blockX := int(float64(canvasWidth) * leftSafeFrac)
	blockY := canvasHeight - int(float64(canvasHeight)*bottomSafeFrac) - blockHeight

	boxRect := image.Rect(
		blockX-boxPaddingPx,
		blockY-boxPaddingPx,
		blockX+widest+boxPaddingPx,
		blockY+blockHeight+boxPaddingPx,
	)
	draw.Draw(overlay, boxRect.Intersect(overlay.Bounds()), image.NewUniform(boxColor), image.Point{}, draw.Over)

	ascent := face.Metrics().Ascent.Ceil()
	for i, line := range layout.Lines {
		baselineY := blockY + i*layout.LineHeightPx + ascent
		drawLine(overlay, face, line, blockX, baselineY)
	}
	return overlay, nil
}

// drawLine renders one line with a drop shadow, a one-pixel outline, and the
// fill on top.
func drawLine(dst *image.RGBA, face font.Face, text string, x, y int) {
	drawText(dst, face, text, x+2, y+2, shadowColor)
	for _, off := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		drawText(dst, face, text, x+off[0], y+off[1], outlineColor)
	}
	drawText(dst, face, text, x, y, textColor)
}

func drawText(dst *image.RGBA, face font.Face, text string, x, y int, c color.NRGBA) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
