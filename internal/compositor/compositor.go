package compositor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/ffmpeg"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/motion"
)

const tintOpacity = 0.15

// Segment is one scene's fully encoded clip, handed off to the Concatenator
// which consumes and deletes it.
type Segment struct {
	Path       string
	SceneIndex int
}

// Compositor builds the filter graph and encoder invocation for one scene:
// background, motion, optional tint and the caption overlay, encoded to the
// fixed output profile.
type Compositor struct {
	Runner ffmpeg.Runner
	Width  int
	Height int
	FPS    int
}

// Compose encodes one scene segment from a background image and a caption
// overlay image already written to disk. tintHex, when non-empty, layers a
// flat color at low opacity between the background and the caption. A build
// or validation failure here is fatal to the run; the orchestrator does not
// retry it.
func (c *Compositor) Compose(ctx context.Context, backgroundPath, overlayPath string, params motion.Params, tintHex string, durationSec float64, sceneIndex int, outPath string) (Segment, error) {
	graph := c.BuildFilterGraph(params, tintHex)

	args := []string{
		"-y",
		"-loop", "1", "-t", fmt.Sprintf("%.3f", durationSec), "-i", backgroundPath,
		"-loop", "1", "-t", fmt.Sprintf("%.3f", durationSec), "-i", overlayPath,
	}
	if tintHex != "" {
		args = append(args, "-f", "lavfi", "-i",
			fmt.Sprintf("color=%s@%.2f:size=%dx%d:duration=%.3f:rate=%d",
				tintHex, tintOpacity, c.Width, c.Height, durationSec, c.FPS))
	}
	args = append(args,
		"-filter_complex", graph,
		"-map", "[v]",
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-r", fmt.Sprintf("%d", c.FPS),
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "21",
		"-pix_fmt", "yuv420p",
		"-an",
		outPath,
	)

	log.Printf("encoding scene %d segment (%.1fs)", sceneIndex, durationSec)
	if _, err := c.Runner.Run(ctx, "ffmpeg", args...); err != nil {
		return Segment{}, fmt.Errorf("encode scene %d: %w", sceneIndex, err)
	}
	if err := ffmpeg.ValidateMP4(outPath); err != nil {
		return Segment{}, fmt.Errorf("validate scene %d segment: %w", sceneIndex, err)
	}
	return Segment{Path: outPath, SceneIndex: sceneIndex}, nil
}

// BuildFilterGraph assembles the declarative graph: oversample the background
// for smooth zoompan interpolation, apply motion, optionally blend the tint,
// then composite the caption overlay on top.
func (c *Compositor) BuildFilterGraph(params motion.Params, tintHex string) string {
	var filters []string

	filters = append(filters, fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,%s[bg]",
		c.Width*2, c.Height*2, c.Width*2, c.Height*2,
		params.FilterExpr(c.FPS, c.Width, c.Height)))

	current := "[bg]"
	if tintHex != "" {
		filters = append(filters, fmt.Sprintf("%s[2:v]overlay=0:0[tinted]", current))
		current = "[tinted]"
	}
	filters = append(filters, fmt.Sprintf("%s[1:v]overlay=0:0,format=yuv420p[v]", current))

	return strings.Join(filters, ";")
}
