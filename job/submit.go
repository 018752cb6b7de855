package job

import (
	"context"

	"github.com/skillsenselab/audiopipe/logger"
)

// Submitter is the ingress side of the queue: it records and enqueues new
// jobs. Consuming them is the Dispatcher's side.
type Submitter struct {
	queue *Queue
	store *Store
	log   *logger.Logger
}

// NewSubmitter creates a submitter.
func NewSubmitter(queue *Queue, store *Store, log *logger.Logger) *Submitter {
	return &Submitter{
		queue: queue,
		store: store,
		log:   log.WithComponent("submitter"),
	}
}

// Submit records and enqueues a new job.
func (s *Submitter) Submit(ctx context.Context, j Job) error {
	if err := s.store.Create(ctx, j); err != nil {
		return err
	}
	if err := s.queue.Enqueue(ctx, j); err != nil {
		return err
	}
	s.log.Info("job submitted", logger.Fields(
		logger.FieldJobID, j.ID,
		"storage_key", j.StorageKey,
	))
	return nil
}
