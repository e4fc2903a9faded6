package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gorilla/mux"
	"golang.org/x/sync/semaphore"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/config"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/pipeline"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/store"
)

// Server exposes the render pipeline over HTTP. Concurrent renders are
// bounded by a weighted semaphore; each running job keeps a cancel func so
// DELETE can stop it cooperatively.
type Server struct {
	cfg          config.Config
	jobs         store.Store
	orchestrator *pipeline.Orchestrator

	renderSlots *semaphore.Weighted

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func New(cfg config.Config, jobs store.Store, orch *pipeline.Orchestrator) *Server {
	return &Server{
		cfg:          cfg,
		jobs:         jobs,
		orchestrator: orch,
		renderSlots:  semaphore.NewWeighted(cfg.MaxConcurrentRenders),
		cancels:      make(map[string]context.CancelFunc),
	}
}

// Router wires all endpoints.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/render", s.renderHandler).Methods("POST")
	r.HandleFunc("/api/jobs", s.listJobsHandler).Methods("GET")
	r.HandleFunc("/api/jobs/{jobId}", s.getJobHandler).Methods("GET")
	r.HandleFunc("/api/jobs/{jobId}", s.cancelJobHandler).Methods("DELETE")
	r.HandleFunc("/api/tracks", s.tracksHandler).Methods("GET")

	r.HandleFunc("/api/upload/image", s.uploadImageHandler).Methods("POST")
	r.HandleFunc("/api/upload/audio", s.uploadAudioHandler).Methods("POST")

	r.PathPrefix("/videos/").Handler(http.StripPrefix("/videos/",
		http.FileServer(http.Dir(s.cfg.OutputDir))))

	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	return r
}

// Start creates the working directories and blocks serving HTTP.
func (s *Server) Start() error {
	for _, dir := range []string{
		s.cfg.OutputDir,
		filepath.Join(s.cfg.AssetsDir, "images"),
		filepath.Join(s.cfg.AssetsDir, "audio"),
		filepath.Join(s.cfg.AssetsDir, "music"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	log.Printf("server listening on :%s", s.cfg.Port)
	return http.ListenAndServe(":"+s.cfg.Port, s.Router())
}

func (s *Server) trackCancel(jobID string, cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancels[jobID] = cancel
	s.mu.Unlock()
}

func (s *Server) dropCancel(jobID string) {
	s.mu.Lock()
	delete(s.cancels, jobID)
	s.mu.Unlock()
}

func (s *Server) cancelJob(jobID string) bool {
	s.mu.Lock()
	cancel, ok := s.cancels[jobID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}
