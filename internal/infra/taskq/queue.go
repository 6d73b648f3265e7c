package taskq

import (
	"context"
	"time"

	"docq/internal/domain"
	"docq/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Config struct {
	MaxConcurrentTasks int
	PollInterval       time.Duration
	MaxAttempts        int
	ProcessTimeout     time.Duration // 0 disables the per-task deadline
	RetryBaseBackoff   time.Duration
	RetryMaxBackoff    time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrentTasks: 3,
		PollInterval:       2 * time.Second,
		MaxAttempts:        3,
		ProcessTimeout:     10 * time.Minute,
		RetryBaseBackoff:   500 * time.Millisecond,
		RetryMaxBackoff:    30 * time.Second,
	}
}

var _ ports.Queue = (*Queue)(nil)

// Queue is the document processing task queue: an in-memory registry of
// tasks plus a polling scheduler that runs them against the batch
// processor under a concurrency bound.
type Queue struct {
	cfg  Config
	reg  *registry
	proc ports.BatchProcessor

	lc loopControl
}

func New(cfg Config, proc ports.BatchProcessor) *Queue {
	if cfg.MaxConcurrentTasks <= 0 {
		cfg.MaxConcurrentTasks = 3
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBaseBackoff <= 0 {
		cfg.RetryBaseBackoff = 500 * time.Millisecond
	}
	if cfg.RetryMaxBackoff < cfg.RetryBaseBackoff {
		cfg.RetryMaxBackoff = 30 * time.Second
	}

	return &Queue{cfg: cfg, reg: newRegistry(), proc: proc}
}

// AddTask registers a document for processing and wakes the scheduler if
// it is idle. Duplicate handling: a pending or retrying task for the
// same key is returned as-is; a processing one yields an empty id, since
// the in-flight run is not re-handed out.
func (q *Queue) AddTask(ctx context.Context, bucket, filename, filePath string) (string, error) {
	if filePath == "" {
		filePath = filename
	}

	t := &domain.Task{
		ID:          uuid.NewString(),
		Bucket:      bucket,
		Filename:    filename,
		FilePath:    filePath,
		Status:      domain.StatusPending,
		MaxAttempts: q.cfg.MaxAttempts,
		CreatedAt:   time.Now(),
	}

	existingID, existingStatus, inserted := q.reg.insertUnlessActive(t)
	if !inserted {
		log.Ctx(ctx).Info().
			Str("bucket", bucket).
			Str("filename", filename).
			Str("existing_id", existingID).
			Msgf("duplicate task skipped, existing status %s", existingStatus)
		if existingStatus == domain.StatusProcessing {
			return "", nil
		}
		return existingID, nil
	}

	log.Ctx(ctx).Info().
		Str("task_id", t.ID).
		Str("bucket", bucket).
		Str("filename", filename).
		Msg("task queued")

	q.StartProcessing()
	return t.ID, nil
}

func (q *Queue) GetTaskStatus(id string) (domain.TaskView, bool) {
	return q.reg.view(id)
}

func (q *Queue) GetQueueStatus() domain.QueueStatus {
	s := q.reg.counts()
	s.IsProcessing = q.lc.isRunning()
	return s
}

func (q *Queue) ClearCompletedTasks() domain.ClearResult {
	res := q.reg.removeTerminal()
	log.Info().Int("cleared", res.Cleared).Int("remaining", res.Remaining).Msg("cleared terminal tasks")
	return res
}
