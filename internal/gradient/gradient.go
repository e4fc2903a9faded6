package gradient

import (
	"fmt"
	"math"
)

// Spec describes one procedural gradient background.
type Spec struct {
	Color1       string
	Color2       string
	AngleDegrees int

	hue1, hue2 float64
	sat, light float64
}

// palette bounds one hue/saturation/lightness template.
type palette struct {
	name      string
	hueMin    float64
	hueSpan   float64
	satMin    float64
	satSpan   float64
	lightMin  float64
	lightSpan float64
}

// Three fixed templates cycled by scene index: warm, cool, green.
var palettes = []palette{
	{name: "warm", hueMin: 0, hueSpan: 60, satMin: 55, satSpan: 30, lightMin: 30, lightSpan: 25},
	{name: "cool", hueMin: 200, hueSpan: 60, satMin: 50, satSpan: 35, lightMin: 25, lightSpan: 25},
	{name: "green", hueMin: 90, hueSpan: 60, satMin: 45, satSpan: 30, lightMin: 25, lightSpan: 20},
}

// Six cinematic gradient angles.
var angles = []int{0, 45, 90, 135, 180, 225}

// StableHash is a 32-bit rolling hash over s, wrapped to signed 32-bit.
func StableHash(s string) int32 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	return h
}

// Generate derives a gradient deterministically from the project, scene index
// and seed text. If the result collides with the immediately preceding entry
// in history (same color pair), both hues are rotated by +15 degrees and the
// colors recomputed once; there are no further retries.
func Generate(projectID string, sceneIndex int, seedText string, history []Spec) Spec {
	bits := uint32(StableHash(fmt.Sprintf("%s-%d-%s", projectID, sceneIndex, seedText)))
	tmpl := palettes[((sceneIndex%3)+3)%3]

	hue1 := tmpl.hueMin + float64(bits&0xFF)/255.0*tmpl.hueSpan
	delta := 45.0 + float64((bits>>8)&0xFF)/255.0*90.0 // second hue 45-135 degrees away
	hue2 := math.Mod(hue1+delta, 360)
	sat := tmpl.satMin + float64((bits>>16)&0xF)/15.0*tmpl.satSpan
	light := tmpl.lightMin + float64((bits>>20)&0xF)/15.0*tmpl.lightSpan

	spec := Spec{
		AngleDegrees: angles[int((bits>>24)%uint32(len(angles)))],
		hue1:         hue1,
		hue2:         hue2,
		sat:          sat,
		light:        light,
	}
	spec.Color1 = hslToHex(hue1, sat, light)
	spec.Color2 = hslToHex(hue2, sat, light)

	if len(history) > 0 {
		prev := history[len(history)-1]
		if prev.Color1 == spec.Color1 && prev.Color2 == spec.Color2 {
			spec.hue1 = math.Mod(spec.hue1+15, 360)
			spec.hue2 = math.Mod(spec.hue2+15, 360)
			spec.Color1 = hslToHex(spec.hue1, sat, light)
			spec.Color2 = hslToHex(spec.hue2, sat, light)
		}
	}
	return spec
}

// hslToHex converts hue [0,360), saturation and lightness percentages to a
// "#rrggbb" string.
func hslToHex(h, s, l float64) string {
	s /= 100
	l /= 100

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return fmt.Sprintf("#%02x%02x%02x",
		int(math.Round((r+m)*255)),
		int(math.Round((g+m)*255)),
		int(math.Round((b+m)*255)))
}
