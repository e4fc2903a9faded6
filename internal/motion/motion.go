package motion

import (
	"fmt"
	"math"
	"math/rand"
)

// ZoomDirection selects whether the virtual camera pushes in or pulls out.
type ZoomDirection int

const (
	ZoomIn ZoomDirection = iota
	ZoomOut
)

// PanDirection selects the axis and direction of the slow pan.
type PanDirection int

const (
	PanLeftRight PanDirection = iota
	PanRightLeft
	PanTopBottom
	PanBottomTop
)

const (
	zoomMin = 1.0
	zoomMax = 1.12

	panFractionDefault = 0.08
	panFractionNarrow  = 0.06
	panFractionTight   = 0.04

	aspectDriftNarrow = 0.2
	aspectDriftTight  = 0.5
)

// Params holds the planned pan/zoom animation for one scene.
type Params struct {
	Zoom        ZoomDirection
	Pan         PanDirection
	DurationSec float64
	ZoomStart   float64
	ZoomEnd     float64
	PanFraction float64
}

// Plan computes clamped animation parameters. The pan excursion shrinks as
// the source image aspect diverges from the output aspect, so letterboxed or
// heavily-cropped sources never pan content off-frame. seed makes direction
// choices reproducible for identical inputs.
func Plan(durationSec, imageAspect, targetAspect float64, seed int64) Params {
	rng := rand.New(rand.NewSource(seed))

	pan := panFractionDefault
	drift := math.Abs(imageAspect - targetAspect)
	if drift > aspectDriftTight {
		pan = panFractionTight
	} else if drift > aspectDriftNarrow {
		pan = panFractionNarrow
	}

	p := Params{
		Pan:         PanDirection(rng.Intn(4)),
		DurationSec: durationSec,
		PanFraction: pan,
	}
	if rng.Intn(2) == 0 {
		p.Zoom = ZoomIn
		p.ZoomStart, p.ZoomEnd = zoomMin, zoomMax
	} else {
		p.Zoom = ZoomOut
		p.ZoomStart, p.ZoomEnd = zoomMax, zoomMin
	}
	return p
}

// zoomAt interpolates the zoom factor at progress t in [0,1].
func (p Params) zoomAt(t float64) float64 {
	return p.ZoomStart + (p.ZoomEnd-p.ZoomStart)*t
}

// WindowAt returns the visible source window (x, y, w, h) at progress t in
// [0,1]. The window is clamped so it never samples outside the source bounds
// regardless of zoom and pan combination.
func (p Params) WindowAt(t float64, srcWidth, srcHeight float64) (x, y, w, h float64) {
	z := p.zoomAt(t)
	w = srcWidth / z
	h = srcHeight / z

	cx := (srcWidth - w) / 2
	cy := (srcHeight - h) / 2

	panX := p.PanFraction * srcWidth
	panY := p.PanFraction * srcHeight

	x, y = cx, cy
	switch p.Pan {
	case PanLeftRight:
		x = cx + (t-0.5)*panX
	case PanRightLeft:
		x = cx - (t-0.5)*panX
	case PanTopBottom:
		y = cy + (t-0.5)*panY
	case PanBottomTop:
		y = cy - (t-0.5)*panY
	}

	x = clamp(x, 0, srcWidth-w)
	y = clamp(y, 0, srcHeight-h)
	return x, y, w, h
}

// FilterExpr renders the zoompan filter for the planned motion, producing
// frames at the output size. The x/y expressions carry the same clamp as
// WindowAt so the encoder never samples beyond the input.
func (p Params) FilterExpr(fps, outWidth, outHeight int) string {
	frames := int(p.DurationSec * float64(fps))
	if frames < 1 {
		frames = 1
	}
	denom := frames - 1
	if denom < 1 {
		denom = 1
	}

	var zoomExpr string
	if p.Zoom == ZoomIn {
		step := (zoomMax - zoomMin) / float64(denom)
		zoomExpr = fmt.Sprintf("min(%.3f+%.6f*on,%.3f)", zoomMin, step, zoomMax)
	} else {
		step := (zoomMax - zoomMin) / float64(denom)
		zoomExpr = fmt.Sprintf("max(%.3f-%.6f*on,%.3f)", zoomMax, step, zoomMin)
	}

	centerX := "iw/2-(iw/zoom/2)"
	centerY := "ih/2-(ih/zoom/2)"
	xExpr, yExpr := centerX, centerY
	switch p.Pan {
	case PanLeftRight:
		xExpr = panExpr(centerX, "iw", p.PanFraction, denom, false)
	case PanRightLeft:
		xExpr = panExpr(centerX, "iw", p.PanFraction, denom, true)
	case PanTopBottom:
		yExpr = panExpr(centerY, "ih", p.PanFraction, denom, false)
	case PanBottomTop:
		yExpr = panExpr(centerY, "ih", p.PanFraction, denom, true)
	}

	return fmt.Sprintf("zoompan=z='%s':x='%s':y='%s':d=%d:s=%dx%d:fps=%d",
		zoomExpr, xExpr, yExpr, frames, outWidth, outHeight, fps)
}

// panExpr builds a clamped per-frame offset expression around the centered
// position, travelling panFraction of the source dimension over the clip.
func panExpr(center, dim string, fraction float64, denom int, reverse bool) string {
	sign := "+"
	if reverse {
		sign = "-"
	}
	return fmt.Sprintf("min(max(%s%s(on/%d-0.5)*%s*%.3f,0),%s-%s/zoom)",
		center, sign, denom, dim, fraction, dim, dim)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
