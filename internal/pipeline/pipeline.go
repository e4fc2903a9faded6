package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/audio"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/background"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/caption"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/compositor"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/ffmpeg"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/gradient"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/motion"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/narration"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/scene"
)

// minSceneDurationSec applies when a scene reaches render time without a
// duration set.
const minSceneDurationSec = 5.0

// durationToleranceSec bounds the allowed drift between the planned run
// length and what the muxer actually wrote before a warning is raised.
const durationToleranceSec = 1.0

// Progress receives monotonically increasing (current, total) step counts:
// one step per scene, one for concatenation, one for the audio stage.
type Progress func(current, total int)

// SceneMetric is the per-scene diagnostic record. It never affects control
// flow.
type SceneMetric struct {
	SceneIndex       int              `json:"sceneIndex"`
	BackgroundSource string           `json:"backgroundSource"`
	SearchQueries    []string         `json:"searchQueries,omitempty"`
	TimingsMs        map[string]int64 `json:"timingsMs"`
	CaptionFontSize  int              `json:"captionFontSize"`
	Warnings         []string         `json:"warnings,omitempty"`
}

// Request is one render job.
type Request struct {
	ProjectID      string
	Scenes         []scene.Scene
	MusicTrackID   string
	MusicVolumePct float64
	NarrationPath  string // pre-uploaded narration audio, optional
	NarrationText  string // synthesized if no NarrationPath, optional
	OutputPath     string
}

// Result is the successful outcome of a run.
type Result struct {
	OutputPath  string
	DurationSec float64
	Metrics     []SceneMetric
	Warnings    []string
}

// Orchestrator sequences background resolution, caption rendering,
// per-scene composition, concatenation, and audio mixing. Scenes run
// strictly sequentially; the encoder shares one working directory per run.
type Orchestrator struct {
	Runner    ffmpeg.Runner
	Resolver  *background.Resolver
	Narration *narration.Client
	AssetsDir string
	WorkDir   string
	Width     int
	Height    int
	FPS       int
}

// Run executes the full pipeline for one request. Cancellation is polled at
// scene boundaries and before the concat and mix stages, and a stage failure
// under a cancelled context reports ErrCancelled rather than the stage error;
// on any exit path the run's temporary directory is removed.
func (o *Orchestrator) Run(ctx context.Context, req Request, progress Progress) (*Result, error) {
	if len(req.Scenes) == 0 {
		return nil, stageErr(-1, "validate", fmt.Errorf("no scenes"))
	}
	if req.ProjectID == "" {
		req.ProjectID = uuid.New().String()
	}

	tempDir := filepath.Join(o.WorkDir, "render-"+uuid.New().String())
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, stageErr(-1, "workspace", err)
	}
	defer os.RemoveAll(tempDir)

	total := len(req.Scenes) + 2
	report := func(current int) {
		if progress != nil {
			progress(current, total)
		}
	}

	// A cancelled context kills any in-flight encoder process, so a stage
	// error after cancellation is the cancellation, not a render failure.
	fail := func(sceneIndex int, stage string, err error) error {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		return stageErr(sceneIndex, stage, err)
	}

	comp := &compositor.Compositor{Runner: o.Runner, Width: o.Width, Height: o.Height, FPS: o.FPS}
	var (
		segments []compositor.Segment
		history  []gradient.Spec
		metrics  []SceneMetric
		warnings []string
		totalSec float64
	)

	for i, sc := range req.Scenes {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}

		metric := SceneMetric{SceneIndex: i, TimingsMs: map[string]int64{}}
		duration := sc.DurationSec
		if duration <= 0 {
			duration = minSceneDurationSec
		}

		start := time.Now()
		resolved := o.Resolver.Resolve(ctx, sc.Background, sc.Text, i, req.ProjectID, o.Width, o.Height, history)
		metric.TimingsMs["background"] = time.Since(start).Milliseconds()
		metric.BackgroundSource = resolved.Source
		metric.SearchQueries = resolved.Queries
		metric.Warnings = append(metric.Warnings, resolved.Reasons...)
		if resolved.Gradient != nil {
			history = append(history, *resolved.Gradient)
		}

		start = time.Now()
		layout := caption.DoLayout(sc.Text, o.Width, o.Height)
		metric.CaptionFontSize = layout.FontSizePx
		metric.Warnings = append(metric.Warnings, layout.Warnings...)
		overlay, err := caption.Rasterize(layout, o.Width, o.Height)
		if err != nil {
			return nil, fail(i, "caption", err)
		}
		metric.TimingsMs["caption"] = time.Since(start).Milliseconds()

		bgPath := filepath.Join(tempDir, fmt.Sprintf("bg-%03d.png", i))
		overlayPath := filepath.Join(tempDir, fmt.Sprintf("caption-%03d.png", i))
		if err := writePNG(bgPath, resolved.Image); err != nil {
			return nil, fail(i, "background write", err)
		}
		if err := writePNG(overlayPath, overlay); err != nil {
			return nil, fail(i, "caption write", err)
		}

		bounds := resolved.Image.Bounds()
		imageAspect := float64(bounds.Dx()) / float64(bounds.Dy())
		targetAspect := float64(o.Width) / float64(o.Height)
		seed := int64(gradient.StableHash(fmt.Sprintf("%s-%d-motion", req.ProjectID, i)))
		params := motion.Plan(duration, imageAspect, targetAspect, seed)

		start = time.Now()
		segPath := filepath.Join(tempDir, fmt.Sprintf("segment-%03d.mp4", i))
		seg, err := comp.Compose(ctx, bgPath, overlayPath, params, TintFor(sc), duration, i, segPath)
		if err != nil {
			return nil, fail(i, "compose", err)
		}
		metric.TimingsMs["encode"] = time.Since(start).Milliseconds()

		segments = append(segments, seg)
		metrics = append(metrics, metric)
		totalSec += duration
		report(i + 1)
	}

	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled
	}

	concatPath := filepath.Join(tempDir, "combined.mp4")
	concat := &compositor.Concatenator{Runner: o.Runner}
	concatWarnings, err := concat.Concat(ctx, segments, tempDir, concatPath)
	if err != nil {
		return nil, fail(-1, "concat", err)
	}
	warnings = append(warnings, concatWarnings...)
	report(len(req.Scenes) + 1)

	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled
	}

	finalPath, mixWarnings := o.mixStage(ctx, req, tempDir, concatPath, totalSec)
	warnings = append(warnings, mixWarnings...)
	report(total)

	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled
	}

	if err := ffmpeg.ValidateMP4(finalPath); err != nil {
		return nil, fail(-1, "final validation", err)
	}
	if probed, err := ffmpeg.ProbeDuration(ctx, o.Runner, finalPath); err != nil {
		warnings = append(warnings, fmt.Sprintf("output duration probe failed: %v", err))
	} else if math.Abs(probed-totalSec) > durationToleranceSec {
		warnings = append(warnings, fmt.Sprintf("output duration %.2fs differs from planned %.2fs", probed, totalSec))
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return nil, fail(-1, "output dir", err)
	}
	if err := moveFile(finalPath, req.OutputPath); err != nil {
		return nil, fail(-1, "deliver", err)
	}

	log.Printf("render complete: %s (%.1fs, %d scenes, %d warnings)", req.OutputPath, totalSec, len(req.Scenes), len(warnings))
	return &Result{
		OutputPath:  req.OutputPath,
		DurationSec: totalSec,
		Metrics:     metrics,
		Warnings:    warnings,
	}, nil
}

// mixStage resolves audio sources and mixes them in. Audio is best-effort:
// any failure degrades to the video-only file with a warning.
func (o *Orchestrator) mixStage(ctx context.Context, req Request, tempDir, videoPath string, totalSec float64) (string, []string) {
	var warnings []string

	musicPath := ""
	if track, ok := audio.FindTrack(req.MusicTrackID); ok {
		p := filepath.Join(o.AssetsDir, "music", track.Filename)
		if _, err := os.Stat(p); err != nil {
			warnings = append(warnings, fmt.Sprintf("music track %q missing on disk, skipping music", track.ID))
		} else {
			musicPath = p
		}
	}

	narrationPath := req.NarrationPath
	if narrationPath == "" && req.NarrationText != "" && o.Narration.Enabled() {
		p := filepath.Join(tempDir, "narration.mp3")
		if err := o.Narration.SynthesizeToFile(ctx, req.NarrationText, p); err != nil {
			warnings = append(warnings, fmt.Sprintf("narration synthesis failed: %v", err))
		} else {
			narrationPath = p
		}
	}

	plan := audio.NewPlan(totalSec, musicPath, narrationPath, req.MusicVolumePct)
	if !plan.HasAudio() {
		return videoPath, warnings
	}

	mixed := filepath.Join(tempDir, "final.mp4")
	mixer := &audio.Mixer{Runner: o.Runner}
	if err := mixer.Mix(ctx, videoPath, plan, mixed); err != nil {
		warnings = append(warnings, fmt.Sprintf("audio mix failed, emitting video-only output: %v", err))
		return videoPath, warnings
	}
	return mixed, warnings
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	return f.Close()
}

// moveFile renames when possible and falls back to a copy for cross-device
// output directories.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
