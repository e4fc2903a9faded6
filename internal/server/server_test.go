package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/audio"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/background"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/config"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/pipeline"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/store"
)

type fakeEncoder struct{}

func (fakeEncoder) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	if name == "ffprobe" {
		return []byte("13.000000\n"), nil
	}
	out := args[len(args)-1]
	b := append([]byte{0, 0, 0, 0x20}, []byte("ftypisom")...)
	return nil, os.WriteFile(out, append(b, make([]byte, 2048)...), 0644)
}

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	cfg := config.Config{
		Port:                 "0",
		OutputDir:            t.TempDir(),
		AssetsDir:            t.TempDir(),
		WorkDir:              t.TempDir(),
		MaxConcurrentRenders: 2,
		VideoWidth:           320,
		VideoHeight:          180,
		VideoFPS:             30,
	}
	for _, sub := range []string{"images", "audio", "music"} {
		os.MkdirAll(cfg.AssetsDir+"/"+sub, 0755)
	}

	jobs := store.NewMemoryStore()
	orch := &pipeline.Orchestrator{
		Runner:    fakeEncoder{},
		Resolver:  &background.Resolver{},
		AssetsDir: cfg.AssetsDir,
		WorkDir:   cfg.WorkDir,
		Width:     cfg.VideoWidth,
		Height:    cfg.VideoHeight,
		FPS:       cfg.VideoFPS,
	}
	return New(cfg, jobs, orch), jobs
}

func waitForStatus(t *testing.T, jobs store.Store, id string, want ...string) *store.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		for _, w := range want {
			if job.Status == w {
				return job
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %v", id, want)
	return nil
}

func TestRenderEndpointCompletesJob(t *testing.T) {
	srv, jobs := newTestServer(t)
	router := srv.Router()

	body := `{"prompt": "A storm rolls in. The village prepares. Join them today!", "backgroundMode": "gradient"}`
	req := httptest.NewRequest("POST", "/api/render", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		JobID string `json:"jobId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	job := waitForStatus(t, jobs, resp.JobID, store.StatusCompleted, store.StatusFailed)
	if job.Status != store.StatusCompleted {
		t.Fatalf("job failed: %s", job.Error)
	}
	if job.DurationSec != 13 {
		t.Errorf("duration = %v, want 13", job.DurationSec)
	}
	if job.Progress != job.Total {
		t.Errorf("final progress %d/%d", job.Progress, job.Total)
	}

	// Status endpoint reflects the stored job.
	req = httptest.NewRequest("GET", "/api/jobs/"+resp.JobID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("job status endpoint returned %d", w.Code)
	}
}

func TestRenderEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"missing prompt", `{"backgroundMode": "gradient"}`},
		{"unknown mode", `{"prompt": "x y z", "backgroundMode": "hologram"}`},
		{"unknown track", `{"prompt": "x y z", "musicTrack": "nope"}`},
		{"upload without file", `{"prompt": "x y z", "backgroundMode": "upload"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/render", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status %d, want 400", w.Code)
			}
		})
	}
}

func TestJobNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest("GET", "/api/jobs/no-such-job", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", w.Code)
	}
}

func TestTracksEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest("GET", "/api/tracks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var tracks []audio.Track
	if err := json.Unmarshal(w.Body.Bytes(), &tracks); err != nil {
		t.Fatalf("decode tracks: %v", err)
	}
	if len(tracks) == 0 {
		t.Error("no tracks returned")
	}
}

func multipartFile(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadImageAcceptsPNG(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	var img bytes.Buffer
	png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	body, contentType := multipartFile(t, "file", "photo.png", img.Bytes())

	req := httptest.NewRequest("POST", "/api/upload/image", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["filename"] == "" {
		t.Error("upload returned no filename")
	}
}

func TestUploadImageRejectsNonImage(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	body, contentType := multipartFile(t, "file", "nope.png", []byte("plain text pretending to be a png"))
	req := httptest.NewRequest("POST", "/api/upload/image", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}

func TestCancelFinishedJobConflicts(t *testing.T) {
	srv, jobs := newTestServer(t)
	router := srv.Router()

	jobs.Create(context.Background(), &store.Job{ID: "done", Status: store.StatusCompleted})

	req := httptest.NewRequest("DELETE", "/api/jobs/done", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("status %d, want 409", w.Code)
	}
}
