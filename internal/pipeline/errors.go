package pipeline

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when a run stops at a cancellation checkpoint.
// Cancellation is a distinct outcome, not a render failure.
var ErrCancelled = errors.New("render cancelled")

// Error identifies which scene and stage a fatal failure came from.
type Error struct {
	SceneIndex int // -1 for run-level stages
	Stage      string
	Err        error
}

func (e *Error) Error() string {
	if e.SceneIndex < 0 {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("scene %d %s: %v", e.SceneIndex, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func stageErr(sceneIndex int, stage string, err error) error {
	return &Error{SceneIndex: sceneIndex, Stage: stage, Err: err}
}
