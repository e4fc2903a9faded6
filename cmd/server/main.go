package main

import (
	"context"
	"log"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/background"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/config"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/ffmpeg"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/narration"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/pipeline"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/server"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/store"
)

func main() {
	cfg := config.Load()

	if err := ffmpeg.ValidateInstalled(); err != nil {
		log.Fatalf("encoder toolchain missing: %v", err)
	}

	var jobs store.Store
	if cfg.MongoURI != "" {
		mongoStore, err := store.NewMongoStore(context.Background(), cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("mongodb: %v", err)
		}
		defer mongoStore.Close(context.Background())
		jobs = mongoStore
		log.Println("using mongodb job store")
	} else {
		jobs = store.NewMemoryStore()
		log.Println("using in-memory job store")
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

	srv := server.New(cfg, jobs, orch)
	log.Fatal(srv.Start())
}
