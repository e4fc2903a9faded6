package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/audio"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/ffmpeg"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/pipeline"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/scene"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/store"
)

const maxUploadBytes = 10 << 20

// RenderRequest is the POST /api/render body. ImageFile and NarrationFile
// reference filenames returned by the upload endpoints.
type RenderRequest struct {
	Prompt         string  `json:"prompt"`
	BackgroundMode string  `json:"backgroundMode"` // "ai", "gradient" or "upload"
	ImageFile      string  `json:"imageFile,omitempty"`
	MusicTrack     string  `json:"musicTrack,omitempty"`
	MusicVolume    float64 `json:"musicVolume,omitempty"`
	NarrationText  string  `json:"narrationText,omitempty"`
	NarrationFile  string  `json:"narrationFile,omitempty"`
}

type renderResponse struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	mode, err := s.parseMode(req.BackgroundMode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.MusicTrack != "" && req.MusicTrack != audio.NoneTrackID {
		if _, ok := audio.FindTrack(req.MusicTrack); !ok {
			http.Error(w, fmt.Sprintf("unknown music track %q", req.MusicTrack), http.StatusBadRequest)
			return
		}
	}
	if req.MusicVolume <= 0 || req.MusicVolume > 100 {
		req.MusicVolume = 80
	}

	scenes := scene.Split(req.Prompt, mode)
	if mode == scene.ModeUpload {
		imgBytes, err := s.readAsset("images", req.ImageFile)
		if err != nil {
			http.Error(w, "imageFile: "+err.Error(), http.StatusBadRequest)
			return
		}
		for i := range scenes {
			scenes[i].Background.UploadedImage = imgBytes
		}
	}

	narrationPath := ""
	if req.NarrationFile != "" {
		p, err := s.assetPath("audio", req.NarrationFile)
		if err != nil {
			http.Error(w, "narrationFile: "+err.Error(), http.StatusBadRequest)
			return
		}
		narrationPath = p
	}

	jobID := uuid.New().String()
	job := &store.Job{
		ID:     jobID,
		Prompt: req.Prompt,
		Status: store.StatusQueued,
		Total:  len(scenes) + 2,
	}
	if err := s.jobs.Create(r.Context(), job); err != nil {
		http.Error(w, "failed to create job", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.trackCancel(jobID, cancel)

	go s.runJob(ctx, cancel, jobID, pipeline.Request{
		ProjectID:      jobID,
		Scenes:         scenes,
		MusicTrackID:   req.MusicTrack,
		MusicVolumePct: req.MusicVolume,
		NarrationPath:  narrationPath,
		NarrationText:  req.NarrationText,
		OutputPath:     filepath.Join(s.cfg.OutputDir, jobID+".mp4"),
	})

	writeJSON(w, renderResponse{JobID: jobID, Status: store.StatusQueued, Message: "Render started"})
}

// runJob owns one render from queue to terminal status.
func (s *Server) runJob(ctx context.Context, cancel context.CancelFunc, jobID string, req pipeline.Request) {
	defer cancel()
	defer s.dropCancel(jobID)

	if err := s.renderSlots.Acquire(ctx, 1); err != nil {
		s.updateJob(jobID, map[string]interface{}{"status": store.StatusCancelled})
		return
	}
	defer s.renderSlots.Release(1)

	s.updateJob(jobID, map[string]interface{}{"status": store.StatusProcessing})

	progress := func(current, total int) {
		s.updateJob(jobID, map[string]interface{}{"progress": current, "total": total})
	}

	result, err := s.orchestrator.Run(ctx, req, progress)
	switch {
	case errors.Is(err, pipeline.ErrCancelled):
		s.updateJob(jobID, map[string]interface{}{"status": store.StatusCancelled})
	case err != nil:
		log.Printf("job %s failed: %v", jobID, err)
		s.updateJob(jobID, map[string]interface{}{
			"status":        store.StatusFailed,
			"error_message": err.Error(),
		})
	default:
		s.updateJob(jobID, map[string]interface{}{
			"status":       store.StatusCompleted,
			"output_path":  result.OutputPath,
			"duration_sec": result.DurationSec,
			"metrics":      result.Metrics,
			"warnings":     result.Warnings,
			"completed_at": time.Now(),
		})
	}
}

func (s *Server) updateJob(jobID string, fields map[string]interface{}) {
	if err := s.jobs.Update(context.Background(), jobID, fields); err != nil {
		log.Printf("failed to update job %s: %v", jobID, err)
	}
}

func (s *Server) getJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]
	job, err := s.jobs.Get(r.Context(), jobID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, job)
}

func (s *Server) listJobsHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.jobs.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list jobs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, jobs)
}

func (s *Server) cancelJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]
	job, err := s.jobs.Get(r.Context(), jobID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return
	}

	switch job.Status {
	case store.StatusQueued, store.StatusProcessing:
		s.cancelJob(jobID)
		writeJSON(w, map[string]string{"message": "Cancellation requested"})
	default:
		http.Error(w, "Job already finished", http.StatusConflict)
	}
}

func (s *Server) tracksHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, audio.Tracks())
}

func (s *Server) uploadImageHandler(w http.ResponseWriter, r *http.Request) {
	s.handleFileUpload(w, r, "images", "image/")
}

func (s *Server) uploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	s.handleFileUpload(w, r, "audio", "audio/")
}

// handleFileUpload stores a multipart upload after sniffing its MIME type.
// mimePrefix gates what the asset class accepts; size is capped before any
// bytes are read.
func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request, assetType, mimePrefix string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "File too large (10 MB limit)", http.StatusRequestEntityTooLarge)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error retrieving file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		http.Error(w, "Error reading file", http.StatusInternalServerError)
		return
	}
	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, mimePrefix) && !isOpaqueAudio(assetType, contentType) {
		http.Error(w, fmt.Sprintf("Invalid file type %s", contentType), http.StatusBadRequest)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "Error reading file", http.StatusInternalServerError)
		return
	}

	ext := strings.ToLower(filepath.Ext(handler.Filename))
	filename := fmt.Sprintf("%s_%s%s", uuid.New().String()[:8],
		strings.TrimSuffix(filepath.Base(handler.Filename), ext), ext)
	dstPath := filepath.Join(s.cfg.AssetsDir, assetType, filename)

	dst, err := os.Create(dstPath)
	if err != nil {
		http.Error(w, "Error creating file", http.StatusInternalServerError)
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		http.Error(w, "Error saving file", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"filename": filename,
		"type":     assetType,
	})
}

// isOpaqueAudio allows MP3 files whose first frame sniffs as
// application/octet-stream, which DetectContentType does for many encoders.
func isOpaqueAudio(assetType, contentType string) bool {
	return assetType == "audio" && contentType == "application/octet-stream"
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":           "healthy",
		"timestamp":        time.Now().Format(time.RFC3339),
		"ffmpeg_available": ffmpeg.ValidateInstalled() == nil,
	})
}

func (s *Server) parseMode(mode string) (scene.BackgroundMode, error) {
	switch strings.ToLower(mode) {
	case "", "ai":
		if s.cfg.AiEnabled {
			return scene.ModeAi, nil
		}
		return scene.ModeGradient, nil
	case "gradient":
		return scene.ModeGradient, nil
	case "upload":
		return scene.ModeUpload, nil
	default:
		return 0, fmt.Errorf("unknown background mode %q", mode)
	}
}

func (s *Server) assetPath(assetType, filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid filename")
	}
	p := filepath.Join(s.cfg.AssetsDir, assetType, filename)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("file not found")
	}
	return p, nil
}

func (s *Server) readAsset(assetType, filename string) ([]byte, error) {
	p, err := s.assetPath(assetType, filename)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
