package store

import (
	"context"
	"errors"
	"time"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/pipeline"
)

var ErrNotFound = errors.New("job not found")

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Job is one render job's full lifecycle record.
type Job struct {
	ID          string                 `json:"id" bson:"_id"`
	Prompt      string                 `json:"prompt" bson:"prompt"`
	Status      string                 `json:"status" bson:"status"`
	Progress    int                    `json:"progress" bson:"progress"`
	Total       int                    `json:"total" bson:"total"`
	OutputPath  string                 `json:"outputPath,omitempty" bson:"output_path,omitempty"`
	DurationSec float64                `json:"durationSec,omitempty" bson:"duration_sec,omitempty"`
	Error       string                 `json:"error,omitempty" bson:"error_message,omitempty"`
	Metrics     []pipeline.SceneMetric `json:"metrics,omitempty" bson:"metrics,omitempty"`
	Warnings    []string               `json:"warnings,omitempty" bson:"warnings,omitempty"`
	CreatedAt   time.Time              `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time              `json:"updatedAt" bson:"updated_at"`
	CompletedAt *time.Time             `json:"completedAt,omitempty" bson:"completed_at,omitempty"`
}

// Store persists jobs. The in-memory implementation backs single-process
// deployments; Mongo is used when a URI is configured.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]*Job, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}
