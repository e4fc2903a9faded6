package caption

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

var (
	parseOnce   sync.Once
	captionSFNT *opentype.Font
	parseErr    error

	faceMu    sync.Mutex
	faceCache = make(map[int]font.Face)
)

// faceForSize returns a cached Go Bold face at the given pixel size.
func faceForSize(sizePx int) (font.Face, error) {
	parseOnce.Do(func() {
		captionSFNT, parseErr = opentype.Parse(gobold.TTF)
	})
	if parseErr != nil {
		return nil, fmt.Errorf("parse caption font: %w", parseErr)
	}

	faceMu.Lock()
	defer faceMu.Unlock()
	if f, ok := faceCache[sizePx]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(captionSFNT, &opentype.FaceOptions{
		Size:    float64(sizePx),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new caption face: %w", err)
	}
	faceCache[sizePx] = f
	return f, nil
}

// measureWidth returns the advance width of text in pixels at the given size.
func measureWidth(text string, sizePx int) int {
	face, err := faceForSize(sizePx)
	if err != nil {
		// Degenerate fallback: a rough per-glyph estimate keeps layout moving.
		return len(text) * sizePx * 6 / 10
	}
	return font.MeasureString(face, text).Ceil()
}
