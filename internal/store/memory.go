package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/pipeline"
)

// MemoryStore keeps jobs in a process-local map.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		cp := *job
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	applyFields(job, fields)
	job.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

// applyFields mirrors the $set document shape the Mongo store uses so both
// backends accept the same update maps.
func applyFields(job *Job, fields map[string]interface{}) {
	for key, val := range fields {
		switch key {
		case "status":
			if v, ok := val.(string); ok {
				job.Status = v
			}
		case "progress":
			if v, ok := val.(int); ok {
				job.Progress = v
			}
		case "total":
			if v, ok := val.(int); ok {
				job.Total = v
			}
		case "output_path":
			if v, ok := val.(string); ok {
				job.OutputPath = v
			}
		case "duration_sec":
			if v, ok := val.(float64); ok {
				job.DurationSec = v
			}
		case "error_message":
			if v, ok := val.(string); ok {
				job.Error = v
			}
		case "metrics":
			if v, ok := val.([]pipeline.SceneMetric); ok {
				job.Metrics = v
			}
		case "warnings":
			if v, ok := val.([]string); ok {
				job.Warnings = v
			}
		case "completed_at":
			if v, ok := val.(time.Time); ok {
				job.CompletedAt = &v
			}
		}
	}
}
