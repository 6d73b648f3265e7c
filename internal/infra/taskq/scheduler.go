package taskq

import (
	"context"
	"sync"
	"time"

	"docq/internal/domain"
	"docq/pkg/backoff"

	"github.com/rs/zerolog/log"
)

// loopControl tracks the scheduler goroutine. At most one loop runs per
// queue; start and stop are idempotent.
type loopControl struct {
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func (lc *loopControl) isRunning() bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.running
}

// StartProcessing launches the scheduler loop if it is idle. Without a
// batch processor configured there is nothing to run tasks against, so
// queued tasks stay pending until one is wired in.
func (q *Queue) StartProcessing() {
	if q.proc == nil {
		log.Warn().Msg("no batch processor configured, queued tasks will not be picked up")
		return
	}

	q.lc.mu.Lock()
	if q.lc.running {
		q.lc.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	q.lc.running = true
	q.lc.cancel = cancel
	q.lc.done = done
	q.lc.mu.Unlock()

	go q.runLoop(ctx, done)
}

// StopProcessing cancels the scheduler and every in-flight worker, then
// waits for them to return. Tasks that were mid-processing keep their
// processing status; there is no recovery path for them.
func (q *Queue) StopProcessing() {
	q.lc.mu.Lock()
	if !q.lc.running {
		q.lc.mu.Unlock()
		return
	}
	cancel, done := q.lc.cancel, q.lc.done
	q.lc.mu.Unlock()

	cancel()
	<-done
}

func (q *Queue) runLoop(ctx context.Context, done chan struct{}) {
	defer func() {
		q.lc.mu.Lock()
		q.lc.running = false
		q.lc.mu.Unlock()
		close(done)

		// A task added between the final scan and the flag reset would
		// otherwise sit pending until the next AddTask. Re-check and
		// relaunch, unless we are stopping on cancellation.
		if ctx.Err() == nil && q.reg.hasActive() {
			q.StartProcessing()
		}
	}()

	log.Info().
		Dur("poll_interval", q.cfg.PollInterval).
		Int("max_concurrent", q.cfg.MaxConcurrentTasks).
		Msg("task scheduler started")

	ticker := time.NewTicker(q.cfg.PollInterval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	slots := make(chan struct{}, q.cfg.MaxConcurrentTasks)

	for {
		if !q.scan(ctx, &wg, slots) {
			break
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			log.Info().Msg("task scheduler stopped")
			return
		case <-ticker.C:
		}
	}

	wg.Wait()
	log.Info().Msg("task scheduler idle, queue drained")
}

// scan runs one loop iteration: claim a worker slot for each runnable
// task FIFO until the slots run out, then report whether any task is
// still active. A panic in the iteration body is logged and the loop
// carries on.
func (q *Queue) scan(ctx context.Context, wg *sync.WaitGroup, slots chan struct{}) (again bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("scheduler iteration panicked")
			again = true
		}
	}()

	for _, id := range q.reg.runnable(time.Now()) {
		select {
		case slots <- struct{}{}:
		default:
			// concurrency limit reached
			return true
		}
		if !q.reg.markProcessing(id, time.Now()) {
			<-slots
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer func() { <-slots }()
			q.runTask(ctx, id)
		}(id)
	}
	return q.reg.hasActive()
}

// runTask executes one task to a terminal or retry-pending outcome. The
// worker itself never re-runs anything; a retrying task re-enters
// through a later scan.
func (q *Queue) runTask(ctx context.Context, id string) {
	v, ok := q.reg.view(id)
	if !ok {
		return
	}

	logger := log.With().
		Str("task_id", id).
		Str("bucket", v.Bucket).
		Str("filename", v.Filename).
		Logger()
	logger.Info().Int("attempt", v.Attempts+1).Msg("processing document")

	pctx := ctx
	if q.cfg.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, q.cfg.ProcessTimeout)
		defer cancel()
	}

	res, err := q.proc.Process(pctx, []domain.BatchItem{{Bucket: v.Bucket, Filename: v.Filename}})
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn().Msg("task cancelled mid-processing")
			return
		}
		delay := backoff.ExponentialJitter(q.cfg.RetryBaseBackoff, q.cfg.RetryMaxBackoff, v.Attempts+1)
		status := q.reg.fail(id, err.Error(), time.Now().Add(delay), time.Now())
		if status == domain.StatusFailed {
			logger.Error().Err(err).Int("attempts", v.Attempts+1).Msg("task failed, retries exhausted")
		} else {
			logger.Warn().Err(err).Dur("retry_in", delay).Msg("task attempt failed, will retry")
		}
		return
	}

	q.reg.complete(id, res, time.Now())
	logger.Info().Msg("task completed")
}
