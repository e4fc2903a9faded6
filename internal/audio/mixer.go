package audio

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/ffmpeg"
)

const (
	fadeInSec  = 0.3
	fadeOutSec = 0.6

	// Fixed bed level when narration is also present; narration stays at
	// unity so the voice always sits on top.
	duckedMusicGain = 0.7

	limiterAttackMs  = 5.0
	limiterReleaseMs = 50.0
)

// VolumeToDb maps a 0-100 percent slider to decibels. Zero maps to a -60dB
// floor rather than -inf so the mixer expression stays finite.
func VolumeToDb(pct float64) float64 {
	if pct <= 0 {
		return -60
	}
	if pct >= 100 {
		return 0
	}
	return 20 * math.Log10(pct/100)
}

// DbToLinear converts decibels to linear gain.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// Plan holds the gain and fade envelope for one render, computed once from
// the total timeline duration and the user's audio configuration.
type Plan struct {
	MusicPath       string
	NarrationPath   string
	MusicGainLinear float64
	FadeInSec       float64
	FadeOutSec      float64
	FadeOutStartSec float64
	TotalSec        float64
}

// NewPlan builds the audio plan. musicPath or narrationPath may be empty.
func NewPlan(totalSec float64, musicPath, narrationPath string, musicVolumePct float64) Plan {
	return Plan{
		MusicPath:       musicPath,
		NarrationPath:   narrationPath,
		MusicGainLinear: DbToLinear(VolumeToDb(musicVolumePct)),
		FadeInSec:       fadeInSec,
		FadeOutSec:      fadeOutSec,
		FadeOutStartSec: math.Max(0, totalSec-fadeOutSec),
		TotalSec:        totalSec,
	}
}

// HasAudio reports whether the plan carries any audio source at all.
func (p Plan) HasAudio() bool {
	return p.MusicPath != "" || p.NarrationPath != ""
}

// Mixer merges music and narration into the concatenated video. The video
// stream is copied untouched; only the audio is encoded.
type Mixer struct {
	Runner ffmpeg.Runner
}

// Mix runs the encoder for whichever sources the plan carries. The caller
// treats a returned error as best-effort: the video-only file remains valid.
func (m *Mixer) Mix(ctx context.Context, videoPath string, plan Plan, outPath string) error {
	if !plan.HasAudio() {
		return fmt.Errorf("mix: no audio sources in plan")
	}

	args := []string{"-y", "-i", videoPath}
	var filter string

	switch {
	case plan.MusicPath != "" && plan.NarrationPath != "":
		args = append(args,
			"-stream_loop", "-1", "-i", plan.MusicPath,
			"-i", plan.NarrationPath,
		)
		filter = fmt.Sprintf(
			"[1:a]volume=%.3f,%s[music];[2:a]atrim=0:%.3f,volume=1.0[voice];[music][voice]amix=inputs=2:duration=first:dropout_transition=0,%s[a]",
			duckedMusicGain, plan.fadeChain(), plan.TotalSec, limiterChain())
	case plan.MusicPath != "":
		args = append(args, "-stream_loop", "-1", "-i", plan.MusicPath)
		filter = fmt.Sprintf("[1:a]volume=%.3f,%s[a]", plan.MusicGainLinear, plan.fadeChain())
	default:
		args = append(args, "-i", plan.NarrationPath)
		filter = fmt.Sprintf("[1:a]atrim=0:%.3f,%s[a]", plan.TotalSec, limiterChain())
	}

	args = append(args,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[a]",
		"-t", fmt.Sprintf("%.3f", plan.TotalSec),
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "128k",
		"-ar", "44100",
		"-ac", "2",
		"-shortest",
		"-movflags", "+faststart",
		outPath,
	)

	log.Printf("mixing audio (music=%t narration=%t, %.1fs)", plan.MusicPath != "", plan.NarrationPath != "", plan.TotalSec)
	if _, err := m.Runner.Run(ctx, "ffmpeg", args...); err != nil {
		return fmt.Errorf("audio mix: %w", err)
	}
	return ffmpeg.ValidateMP4(outPath)
}

func (p Plan) fadeChain() string {
	return fmt.Sprintf("afade=t=in:st=0:d=%.2f,afade=t=out:st=%.3f:d=%.2f",
		p.FadeInSec, p.FadeOutStartSec, p.FadeOutSec)
}

func limiterChain() string {
	return fmt.Sprintf("alimiter=limit=0.95:attack=%.0f:release=%.0f", limiterAttackMs, limiterReleaseMs)
}
