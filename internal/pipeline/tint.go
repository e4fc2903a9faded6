package pipeline

import (
	"strings"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/scene"
)

// Thematic keyword tints. A keyword match takes precedence over the
// per-kind tint so that "a romance under the stars" reads warm-pink even in
// a hook scene.
var themeTints = []struct {
	theme    string
	words    []string
	colorHex string
}{
	{"space", []string{"space", "galaxy", "stars", "cosmos", "planet", "nebula"}, "0x1a1a4d"},
	{"romance", []string{"romance", "love", "heart", "wedding", "kiss"}, "0x4d1a33"},
	{"mystery", []string{"mystery", "secret", "shadow", "hidden", "dark"}, "0x26264d"},
	{"nature", []string{"nature", "forest", "ocean", "mountain", "river", "garden"}, "0x1a4d26"},
}

var kindTints = map[scene.Kind]string{
	scene.Hook: "0x33261a",
	scene.Cta:  "0x1a3333",
}

// TintFor picks the flat tint color for a scene, or "" for no tint. Beat
// scenes without a thematic match stay untinted.
func TintFor(s scene.Scene) string {
	lower := strings.ToLower(s.Text)
	for _, kw := range s.Keywords {
		lower += " " + strings.ToLower(kw)
	}
	for _, t := range themeTints {
		for _, w := range t.words {
			if strings.Contains(lower, w) {
				return t.colorHex
			}
		}
	}
	return kindTints[s.Kind]
}
