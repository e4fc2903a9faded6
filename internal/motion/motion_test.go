package motion

import (
	"math"
	"strings"
	"testing"
)

func TestPlanDeterministicForSeed(t *testing.T) {
	a := Plan(5, 16.0/9.0, 16.0/9.0, 42)
	b := Plan(5, 16.0/9.0, 16.0/9.0, 42)
	if a != b {
		t.Errorf("same seed produced different plans: %+v vs %+v", a, b)
	}
}

func TestPlanZoomRange(t *testing.T) {
	for seed := int64(0); seed < 16; seed++ {
		p := Plan(5, 1.5, 16.0/9.0, seed)
		lo := math.Min(p.ZoomStart, p.ZoomEnd)
		hi := math.Max(p.ZoomStart, p.ZoomEnd)
		if lo != zoomMin || hi != zoomMax {
			t.Errorf("seed %d: zoom range [%v,%v], want [%v,%v]", seed, lo, hi, zoomMin, zoomMax)
		}
	}
}

func TestPlanPanShrinksWithAspectDrift(t *testing.T) {
	target := 16.0 / 9.0
	matched := Plan(5, target, target, 1)
	narrow := Plan(5, target+0.3, target, 1)
	tight := Plan(5, target+0.7, target, 1)

	if matched.PanFraction != panFractionDefault {
		t.Errorf("matched aspect pan = %v, want %v", matched.PanFraction, panFractionDefault)
	}
	if narrow.PanFraction != panFractionNarrow {
		t.Errorf("drift 0.3 pan = %v, want %v", narrow.PanFraction, panFractionNarrow)
	}
	if tight.PanFraction != panFractionTight {
		t.Errorf("drift 0.7 pan = %v, want %v", tight.PanFraction, panFractionTight)
	}
}

func TestWindowStaysInsideSourceBounds(t *testing.T) {
	srcW, srcH := 2560.0, 1440.0
	for seed := int64(0); seed < 24; seed++ {
		p := Plan(5, srcW/srcH, 16.0/9.0, seed)
		for i := 0; i <= 100; i++ {
			t01 := float64(i) / 100
			x, y, w, h := p.WindowAt(t01, srcW, srcH)
			if x < 0 || y < 0 {
				t.Fatalf("seed %d t=%.2f: window origin (%v,%v) negative", seed, t01, x, y)
			}
			if x+w > srcW+1e-9 || y+h > srcH+1e-9 {
				t.Fatalf("seed %d t=%.2f: window (%v,%v,%v,%v) exceeds source %vx%v",
					seed, t01, x, y, w, h, srcW, srcH)
			}
			if w <= 0 || h <= 0 {
				t.Fatalf("seed %d t=%.2f: degenerate window %vx%v", seed, t01, w, h)
			}
		}
	}
}

func TestFilterExprShape(t *testing.T) {
	p := Plan(5, 16.0/9.0, 16.0/9.0, 7)
	expr := p.FilterExpr(30, 1280, 720)

	if !strings.HasPrefix(expr, "zoompan=") {
		t.Fatalf("expression does not start with zoompan: %s", expr)
	}
	for _, want := range []string{"d=150", "s=1280x720", "fps=30"} {
		if !strings.Contains(expr, want) {
			t.Errorf("expression missing %q: %s", want, expr)
		}
	}
}

func TestFilterExprShortDuration(t *testing.T) {
	p := Params{Zoom: ZoomIn, Pan: PanLeftRight, DurationSec: 0, ZoomStart: zoomMin, ZoomEnd: zoomMax, PanFraction: panFractionDefault}
	expr := p.FilterExpr(30, 640, 360)
	if !strings.Contains(expr, "d=1") {
		t.Errorf("zero duration should clamp to one frame: %s", expr)
	}
}
