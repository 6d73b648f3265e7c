package taskq

import (
	"sort"
	"sync"
	"time"

	"docq/internal/domain"
)

// registry is the in-memory store owning every Task. All mutation happens
// under its lock through the methods below; callers only ever get copies
// back, so the single-writer-per-task discipline reduces to holding mu.
type registry struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
}

func newRegistry() *registry {
	return &registry{tasks: make(map[string]*domain.Task)}
}

// insertUnlessActive adds t if no active task exists for its
// (bucket, filename) key. When one does, it returns that task's id and
// status instead and leaves the store untouched.
func (r *registry) insertUnlessActive(t *domain.Task) (existingID string, existingStatus domain.TaskStatus, inserted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cur := range r.tasks {
		if cur.Bucket == t.Bucket && cur.Filename == t.Filename && cur.Status.Active() {
			return cur.ID, cur.Status, false
		}
	}
	r.tasks[t.ID] = t
	return "", "", true
}

func (r *registry) view(id string) (domain.TaskView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return domain.TaskView{}, false
	}
	return t.View(), true
}

// runnable lists the ids of tasks eligible for a worker: pending ones,
// plus retrying ones whose backoff delay has elapsed. FIFO by creation
// time.
func (r *registry) runnable(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*domain.Task
	for _, t := range r.tasks {
		switch t.Status {
		case domain.StatusPending:
			due = append(due, t)
		case domain.StatusRetrying:
			if !t.NextRetryAt.After(now) {
				due = append(due, t)
			}
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })

	ids := make([]string, len(due))
	for i, t := range due {
		ids[i] = t.ID
	}
	return ids
}

// markProcessing claims a task for a worker. Returns false if the task
// is gone or no longer claimable, which the caller treats as "skip".
func (r *registry) markProcessing(id string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || (t.Status != domain.StatusPending && t.Status != domain.StatusRetrying) {
		return false
	}
	t.Status = domain.StatusProcessing
	if t.StartedAt == nil {
		t.StartedAt = &now
	}
	return true
}

func (r *registry) complete(id string, result *domain.BatchResult, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return
	}
	t.Status = domain.StatusCompleted
	t.Result = result
	if t.CompletedAt == nil {
		t.CompletedAt = &now
	}
}

// fail records one failed attempt. The task goes to retrying with
// nextRetry as its earliest re-eligibility, or to failed once attempts
// reach the ceiling. The error message is retained either way.
func (r *registry) fail(id, msg string, nextRetry, now time.Time) domain.TaskStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return ""
	}
	t.Attempts++
	t.ErrorMessage = msg
	if t.Attempts < t.MaxAttempts {
		t.Status = domain.StatusRetrying
		t.NextRetryAt = nextRetry
	} else {
		t.Status = domain.StatusFailed
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
	}
	return t.Status
}

func (r *registry) hasActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tasks {
		if t.Status.Active() {
			return true
		}
	}
	return false
}

func (r *registry) counts() domain.QueueStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := domain.QueueStatus{Total: len(r.tasks)}
	for _, t := range r.tasks {
		switch t.Status {
		case domain.StatusPending:
			s.Pending++
		case domain.StatusProcessing:
			s.Processing++
		case domain.StatusRetrying:
			s.Retrying++
		case domain.StatusCompleted:
			s.Completed++
		case domain.StatusFailed:
			s.Failed++
		}
	}
	return s
}

// removeTerminal drops every completed and failed task. Active tasks are
// never touched.
func (r *registry) removeTerminal() domain.ClearResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res domain.ClearResult
	for id, t := range r.tasks {
		if t.Status.Terminal() {
			delete(r.tasks, id)
			res.Cleared++
		}
	}
	res.Remaining = len(r.tasks)
	return res
}
