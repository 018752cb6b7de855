// Package job is the boundary layer around the transcription pipeline: queue
// transport, job state tracking, and retry. The pipeline itself is a pure
// transform; everything stateful lives here.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/audiopipe/pipeline"
	"github.com/skillsenselab/audiopipe/transcription"
)

// State is a job's position in its lifecycle:
// queued → in_progress → completed | failed.
type State string

const (
	StateQueued     State = "queued"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Job is one queued transcription request for a stored audio asset.
type Job struct {
	// ID identifies the job across queue and store.
	ID string `json:"id"`

	// StorageKey locates the source audio in object storage.
	StorageKey string `json:"storage_key"`

	// Options configures the transcription request.
	Options transcription.Options `json:"options"`

	// Attempt counts deliveries of this job, starting at 1.
	Attempt int `json:"attempt"`

	// EnqueuedAt is when the job was (re)queued.
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewJob creates a first-attempt job for the given storage key.
func NewJob(storageKey string, opts transcription.Options) Job {
	return Job{
		ID:         uuid.NewString(),
		StorageKey: storageKey,
		Options:    opts,
		Attempt:    1,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Record is the persisted view of a job that the status endpoint serves.
type Record struct {
	ID         string           `json:"id"`
	State      State            `json:"state"`
	StorageKey string           `json:"storage_key"`
	Attempts   int              `json:"attempts"`
	Result     *pipeline.Result `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
