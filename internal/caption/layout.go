package caption

import (
	"fmt"
	"strings"
)

// Layout is the fitted line set for one scene's caption.
type Layout struct {
	Lines        []string
	FontSizePx   int
	LineHeightPx int
	Truncated    bool
	Warnings     []string
}

const (
	lineHeightMultiplier = 1.3
	fontSizeStep         = 4
	minFontSizePx        = 18
	maxBlockHeightFrac   = 0.30
	safeAreaFrac         = 0.86 // width available to text, centered margins
	truncationMarker     = "…"
)

// MaxLines is the line cap for a frame aspect: 3 for landscape, 5 for portrait.
func MaxLines(width, height int) int {
	if width >= height {
		return 3
	}
	return 5
}

func initialFontSize(height int) int {
	if height >= 1080 {
		return 64
	}
	return 48
}

// SafeAreaWidth is the horizontal span captions may occupy.
func SafeAreaWidth(width int) int {
	return int(float64(width) * safeAreaFrac)
}

// DoLayout fits text into the target frame. Font size starts at a
// resolution-dependent value and shrinks in fixed steps until the wrapped
// block fits both the line cap and 30% of the frame height; at the minimum
// size the block is hard-truncated with a visible marker and a warning.
func DoLayout(text string, targetWidth, targetHeight int) Layout {
	safeWidth := SafeAreaWidth(targetWidth)
	maxLines := MaxLines(targetWidth, targetHeight)
	maxBlock := int(float64(targetHeight) * maxBlockHeightFrac)

	size := initialFontSize(targetHeight)
	var lines []string
	var warnings []string

	for {
		lines, warnings = wrap(text, size, safeWidth)
		blockHeight := len(lines) * lineHeight(size)
		if len(lines) <= maxLines && blockHeight <= maxBlock {
			return Layout{
				Lines:        lines,
				FontSizePx:   size,
				LineHeightPx: lineHeight(size),
				Warnings:     warnings,
			}
		}
		if size-fontSizeStep < minFontSizePx {
			break
		}
		size -= fontSizeStep
	}

	// Minimum size reached and still too tall: keep the first maxLines lines
	// and mark the cut.
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	if len(lines) > 0 {
		lines[len(lines)-1] = markTruncated(lines[len(lines)-1], size, safeWidth)
	}
	warnings = append(warnings, fmt.Sprintf("caption truncated to %d lines at minimum font size", maxLines))
	return Layout{
		Lines:        lines,
		FontSizePx:   size,
		LineHeightPx: lineHeight(size),
		Truncated:    true,
		Warnings:     warnings,
	}
}

func lineHeight(sizePx int) int {
	return int(float64(sizePx) * lineHeightMultiplier)
}

// markTruncated appends the truncation marker to line, dropping trailing words
// until the marked line fits the safe width. A single word that still overflows
// is left as-is; wrap already warned about it.
func markTruncated(line string, sizePx, safeWidth int) string {
	for {
		marked := line + truncationMarker
		if measureWidth(marked, sizePx) <= safeWidth {
			return marked
		}
		idx := strings.LastIndexByte(line, ' ')
		if idx < 0 {
			return marked
		}
		line = line[:idx]
	}
}

// wrap greedily word-wraps text at the given size, honoring explicit newlines
// as hard breaks. A single word wider than the safe area is placed on its own
// line unmodified, with a warning, rather than dropped.
func wrap(text string, sizePx, safeWidth int) (lines []string, warnings []string) {
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}
		current := ""
		for _, word := range words {
			if measureWidth(word, sizePx) > safeWidth {
				if current != "" {
					lines = append(lines, current)
					current = ""
				}
				lines = append(lines, word)
				warnings = append(warnings, fmt.Sprintf("word %q exceeds safe width at %dpx", word, sizePx))
				continue
			}
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if measureWidth(candidate, sizePx) <= safeWidth {
				current = candidate
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines, warnings
}
