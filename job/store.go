package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/skillsenselab/audiopipe/errors"
	"github.com/skillsenselab/audiopipe/pipeline"
	"github.com/skillsenselab/audiopipe/redis"
)

const (
	recordKeyPrefix = "audiopipe:job:"

	// recordTTL bounds how long finished job records stay queryable.
	recordTTL = 24 * time.Hour
)

// Store persists job records in Redis for the status endpoint.
type Store struct {
	client *redis.Client
}

// NewStore creates a record store on the given Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Create persists a fresh queued record for the job.
func (s *Store) Create(ctx context.Context, j Job) error {
	now := time.Now().UTC()
	return s.put(ctx, Record{
		ID:         j.ID,
		State:      StateQueued,
		StorageKey: j.StorageKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// Get returns the record for the given job ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Unwrap().Get(ctx, recordKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, apperrors.NotFound(id)
		}
		return nil, apperrors.Storage(fmt.Errorf("get job record: %w", err))
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("decode job record: %w", err))
	}
	return &rec, nil
}

// MarkInProgress transitions the record to in_progress and bumps the attempt
// counter.
func (s *Store) MarkInProgress(ctx context.Context, id string, attempt int) error {
	return s.update(ctx, id, func(rec *Record) {
		rec.State = StateInProgress
		rec.Attempts = attempt
	})
}

// MarkQueued transitions the record back to queued ahead of a retry.
func (s *Store) MarkQueued(ctx context.Context, id string, lastErr error) error {
	return s.update(ctx, id, func(rec *Record) {
		rec.State = StateQueued
		rec.Error = lastErr.Error()
	})
}

// MarkCompleted transitions the record to its terminal state and attaches
// the result. A result whose status is failed terminates the job as failed.
func (s *Store) MarkCompleted(ctx context.Context, id string, result *pipeline.Result) error {
	return s.update(ctx, id, func(rec *Record) {
		rec.Result = result
		rec.Error = ""
		if result.Status == pipeline.StatusFailed {
			rec.State = StateFailed
		} else {
			rec.State = StateCompleted
		}
	})
}

// MarkFailed terminates the record with an error and no result.
func (s *Store) MarkFailed(ctx context.Context, id string, jobErr error) error {
	return s.update(ctx, id, func(rec *Record) {
		rec.State = StateFailed
		rec.Error = jobErr.Error()
	})
}

func (s *Store) update(ctx context.Context, id string, mutate func(*Record)) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	mutate(rec)
	return s.put(ctx, *rec)
}

func (s *Store) put(ctx context.Context, rec Record) error {
	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("encode job record: %w", err))
	}
	if err := s.client.Unwrap().Set(ctx, recordKeyPrefix+rec.ID, data, recordTTL).Err(); err != nil {
		return apperrors.Storage(fmt.Errorf("put job record: %w", err))
	}
	return nil
}
