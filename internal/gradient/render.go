package gradient

import (
	"image"
	"image/color"
	"math"
	"strconv"
)

const maxVignetteDarkening = 0.35

// Render paints the gradient into an RGBA image of the given size: a linear
// gradient with three stops (color1, color2, color1) along the spec angle,
// with a radial vignette darkening 0 at the center to 35% at the edges.
func Render(spec Spec, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	r1, g1, b1 := parseHex(spec.Color1)
	r2, g2, b2 := parseHex(spec.Color2)

	rad := float64(spec.AngleDegrees) * math.Pi / 180
	dx, dy := math.Cos(rad), math.Sin(rad)

	// Projection range of the four corners onto the gradient axis.
	minP, maxP := math.Inf(1), math.Inf(-1)
	for _, cx := range []float64{0, float64(width - 1)} {
		for _, cy := range []float64{0, float64(height - 1)} {
			p := cx*dx + cy*dy
			minP = math.Min(minP, p)
			maxP = math.Max(maxP, p)
		}
	}
	span := maxP - minP
	if span == 0 {
		span = 1
	}

	cx, cy := float64(width)/2, float64(height)/2
	maxDist := math.Hypot(cx, cy)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := (float64(x)*dx + float64(y)*dy - minP) / span

			// Three stops: color1 at 0, color2 at 0.5, color1 at 1.
			var f float64
			if t < 0.5 {
				f = t * 2
			} else {
				f = (1 - t) * 2
			}
			r := lerp(r1, r2, f)
			g := lerp(g1, g2, f)
			b := lerp(b1, b2, f)

			dist := math.Hypot(float64(x)-cx, float64(y)-cy)
			v := 1 - maxVignetteDarkening*(dist/maxDist)

			img.SetRGBA(x, y, color.RGBA{
				R: uint8(clamp255(r * v)),
				G: uint8(clamp255(g * v)),
				B: uint8(clamp255(b * v)),
				A: 255,
			})
		}
	}
	return img
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func parseHex(hex string) (r, g, b float64) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0
	}
	rv, _ := strconv.ParseUint(hex[1:3], 16, 8)
	gv, _ := strconv.ParseUint(hex[3:5], 16, 8)
	bv, _ := strconv.ParseUint(hex[5:7], 16, 8)
	return float64(rv), float64(gv), float64(bv)
}
