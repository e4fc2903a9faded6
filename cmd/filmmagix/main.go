package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/background"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/config"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/ffmpeg"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/narration"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/pipeline"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/scene"
)

func main() {
	var (
		prompt    = flag.String("prompt", "", "story prompt to turn into a video (required)")
		mode      = flag.String("background", "ai", "background mode: ai, gradient or upload")
		imagePath = flag.String("image", "", "image file for upload background mode")
		music     = flag.String("music", "none", "music track id, or none")
		volume    = flag.Float64("volume", 80, "music volume percent (1-100)")
		narrate   = flag.String("narration", "", "narration text (requires TTS configuration)")
		out       = flag.String("out", "output.mp4", "output video path")
	)
	flag.Parse()

	if *prompt == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := ffmpeg.ValidateInstalled(); err != nil {
		log.Fatalf("encoder toolchain missing: %v", err)
	}

	cfg := config.Load()

	var bgMode scene.BackgroundMode
	switch *mode {
	case "ai":
		bgMode = scene.ModeAi
	case "gradient":
		bgMode = scene.ModeGradient
	case "upload":
		bgMode = scene.ModeUpload
	default:
		log.Fatalf("unknown background mode %q", *mode)
	}

	scenes := scene.Split(*prompt, bgMode)
	if bgMode == scene.ModeUpload {
		if *imagePath == "" {
			log.Fatal("-image is required with -background upload")
		}
		imgBytes, err := os.ReadFile(*imagePath)
		if err != nil {
			log.Fatalf("read image: %v", err)
		}
		for i := range scenes {
			scenes[i].Background.UploadedImage = imgBytes
		}
	}

	orch := &pipeline.Orchestrator{
		Runner: ffmpeg.ExecRunner{},
		Resolver: &background.Resolver{
			Images:    background.NewImageClient(cfg.ImageGenURL),
			AiEnabled: cfg.AiEnabled,
		},
		Narration: narration.NewClient(cfg.TTSBaseURL, cfg.TTSAPIKey, cfg.TTSVoiceID),
		AssetsDir: cfg.AssetsDir,
		WorkDir:   cfg.WorkDir,
		Width:     cfg.VideoWidth,
		Height:    cfg.VideoHeight,
		FPS:       cfg.VideoFPS,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := orch.Run(ctx, pipeline.Request{
		Scenes:         scenes,
		MusicTrackID:   *music,
		MusicVolumePct: *volume,
		NarrationText:  *narrate,
		OutputPath:     *out,
	}, func(current, total int) {
		fmt.Printf("\rprogress: %d/%d", current, total)
	})
	fmt.Println()
	if err != nil {
		log.Fatalf("render failed: %v", err)
	}

	fmt.Printf("wrote %s (%.1fs, %d scenes)\n", result.OutputPath, result.DurationSec, len(result.Metrics))
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}
