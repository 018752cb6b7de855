package job

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/skillsenselab/audiopipe/errors"
	"github.com/skillsenselab/audiopipe/logger"
	"github.com/skillsenselab/audiopipe/pipeline"
)

// Handler runs one job attempt and returns the pipeline result.
type Handler func(ctx context.Context, j Job) (*pipeline.Result, error)

// Config tunes the dispatcher's worker pool and retry policy.
type Config struct {
	// Workers is the number of concurrent job consumers. Defaults to 4.
	Workers int `yaml:"workers" mapstructure:"workers"`

	// JobTimeout bounds one attempt end to end. Long-form multi-chunk audio
	// needs a generous bound. Defaults to 20m.
	JobTimeout time.Duration `yaml:"job_timeout" mapstructure:"job_timeout"`

	// RetryDelay is the fixed delay before a retryable job is requeued.
	// Defaults to 30s.
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`

	// MaxAttempts caps attempts for retryable non-timeout failures.
	// Defaults to 3.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`

	// MaxTimeoutAttempts caps attempts for provider timeouts, which get a
	// longer leash. Defaults to 5.
	MaxTimeoutAttempts int `yaml:"max_timeout_attempts" mapstructure:"max_timeout_attempts"`

	// DequeueTimeout is the blocking-pop timeout per poll. Defaults to 2s.
	DequeueTimeout time.Duration `yaml:"dequeue_timeout" mapstructure:"dequeue_timeout"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 20 * time.Minute
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.MaxTimeoutAttempts <= 0 {
		c.MaxTimeoutAttempts = 5
	}
	if c.DequeueTimeout <= 0 {
		c.DequeueTimeout = 2 * time.Second
	}
}

// Dispatcher consumes jobs from the queue, runs the handler with a per-job
// deadline, and owns the retry policy. This is the single retry point in the
// system: the pipeline and providers below never retry, so attempts cannot
// multiply across layers.
type Dispatcher struct {
	queue   *Queue
	store   *Store
	handler Handler
	cfg     Config
	log     *logger.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(queue *Queue, store *Store, handler Handler, cfg Config, log *logger.Logger) *Dispatcher {
	cfg.ApplyDefaults()
	return &Dispatcher{
		queue:   queue,
		store:   store,
		handler: handler,
		cfg:     cfg,
		log:     log.WithComponent("dispatcher"),
	}
}

// Run starts the worker pool and blocks until ctx is cancelled and all
// in-flight jobs have finished.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("dispatcher started", logger.Fields("workers", d.cfg.Workers))

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.worker(ctx)
		}()
	}
	d.wg.Wait()

	d.log.Info("dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := d.queue.MoveDue(ctx); err != nil && ctx.Err() == nil {
			d.log.Error("promote delayed jobs failed", logger.ErrorFields("move_due", err))
		}

		j, err := d.queue.Dequeue(ctx, d.cfg.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Error("dequeue failed", logger.ErrorFields("dequeue", err))
			continue
		}
		if j == nil {
			continue
		}

		d.process(ctx, *j)
	}
}

// process runs one attempt and settles the job's record.
func (d *Dispatcher) process(ctx context.Context, j Job) {
	log := d.log
	if err := d.store.MarkInProgress(ctx, j.ID, j.Attempt); err != nil {
		log.Error("mark in progress failed", logger.ErrorFields("mark_in_progress", err))
	}

	jobCtx, cancel := context.WithTimeout(ctx, d.cfg.JobTimeout)
	started := time.Now()
	result, err := d.handler(jobCtx, j)
	cancel()

	if err == nil {
		// An all-chunks-failed result is a value, not a returned error, but
		// it still enters the retry policy: a retryable failure class (all
		// timeouts get the longer cap) earns another attempt before the
		// record settles as failed.
		if cause := result.FailureError(); cause != nil && d.shouldRetry(j, cause) {
			d.scheduleRetry(ctx, j, cause)
			return
		}
		if storeErr := d.store.MarkCompleted(ctx, j.ID, result); storeErr != nil {
			log.Error("mark completed failed", logger.ErrorFields("mark_completed", storeErr))
		}
		log.Info("job finished", logger.Fields(
			logger.FieldJobID, j.ID,
			logger.FieldStatus, string(result.Status),
			logger.FieldDuration, time.Since(started).Milliseconds(),
		))
		return
	}

	if d.shouldRetry(j, err) {
		d.scheduleRetry(ctx, j, err)
		return
	}

	if storeErr := d.store.MarkFailed(ctx, j.ID, err); storeErr != nil {
		log.Error("mark failed failed", logger.ErrorFields("mark_failed", storeErr))
	}
	log.Error("job failed", logger.Fields(
		logger.FieldJobID, j.ID,
		"attempt", j.Attempt,
		logger.FieldError, err.Error(),
	))
}

// shouldRetry applies the retry policy: retryable errors get another attempt
// up to a per-class cap, with provider timeouts allowed more attempts.
func (d *Dispatcher) shouldRetry(j Job, err error) bool {
	if !apperrors.IsRetryable(err) {
		return false
	}
	limit := d.cfg.MaxAttempts
	if apperrors.CodeOf(err) == apperrors.ErrCodeProviderTimeout {
		limit = d.cfg.MaxTimeoutAttempts
	}
	return j.Attempt < limit
}

// scheduleRetry parks the next attempt in the delayed set. The parked job
// lives in Redis for the whole delay, so neither shutdown nor a crash can
// strand the record in queued with no job behind it.
func (d *Dispatcher) scheduleRetry(ctx context.Context, j Job, cause error) {
	if err := d.store.MarkQueued(ctx, j.ID, cause); err != nil {
		d.log.Error("mark queued failed", logger.ErrorFields("mark_queued", err))
	}

	retry := j
	retry.Attempt++
	retry.EnqueuedAt = time.Now().UTC()

	if err := d.queue.EnqueueDelayed(ctx, retry, d.cfg.RetryDelay); err != nil {
		d.log.Error("requeue failed", logger.ErrorFields("requeue", err))
		if storeErr := d.store.MarkFailed(ctx, j.ID, cause); storeErr != nil {
			d.log.Error("mark failed failed", logger.ErrorFields("mark_failed", storeErr))
		}
		return
	}

	d.log.Warn("job retry scheduled", logger.Fields(
		logger.FieldJobID, j.ID,
		"attempt", retry.Attempt,
		"delay_ms", d.cfg.RetryDelay.Milliseconds(),
		logger.FieldError, cause.Error(),
	))
}
