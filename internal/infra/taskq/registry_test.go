package taskq

import (
	"testing"
	"time"

	"docq/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTask(id, bucket, filename string, status domain.TaskStatus, createdAt time.Time) *domain.Task {
	return &domain.Task{
		ID:          id,
		Bucket:      bucket,
		Filename:    filename,
		FilePath:    filename,
		Status:      status,
		MaxAttempts: 3,
		CreatedAt:   createdAt,
	}
}

func TestRegistryRunnableIsFIFO(t *testing.T) {
	r := newRegistry()
	base := time.Now()

	r.insertUnlessActive(makeTask("c", "b1", "f3", domain.StatusPending, base.Add(2*time.Second)))
	r.insertUnlessActive(makeTask("a", "b1", "f1", domain.StatusPending, base))
	r.insertUnlessActive(makeTask("b", "b1", "f2", domain.StatusPending, base.Add(time.Second)))

	assert.Equal(t, []string{"a", "b", "c"}, r.runnable(time.Now()))
}

func TestRegistryRunnableIncludesDueRetries(t *testing.T) {
	r := newRegistry()
	now := time.Now()

	due := makeTask("due", "b1", "f1", domain.StatusRetrying, now.Add(-2*time.Second))
	due.NextRetryAt = now.Add(-time.Second)
	notDue := makeTask("later", "b1", "f2", domain.StatusRetrying, now.Add(-2*time.Second))
	notDue.NextRetryAt = now.Add(time.Hour)
	r.insertUnlessActive(due)
	r.insertUnlessActive(notDue)
	r.insertUnlessActive(makeTask("fresh", "b1", "f3", domain.StatusPending, now))

	assert.Equal(t, []string{"due", "fresh"}, r.runnable(now))
}

func TestRegistryRejectsDuplicateActiveKey(t *testing.T) {
	r := newRegistry()
	now := time.Now()

	_, _, inserted := r.insertUnlessActive(makeTask("a", "b1", "f1", domain.StatusPending, now))
	require.True(t, inserted)

	id, status, inserted := r.insertUnlessActive(makeTask("b", "b1", "f1", domain.StatusPending, now))
	assert.False(t, inserted)
	assert.Equal(t, "a", id)
	assert.Equal(t, domain.StatusPending, status)

	// a different key is unaffected
	_, _, inserted = r.insertUnlessActive(makeTask("c", "b2", "f1", domain.StatusPending, now))
	assert.True(t, inserted)
}

func TestRegistryAllowsNewTaskAfterTerminal(t *testing.T) {
	r := newRegistry()
	now := time.Now()

	r.insertUnlessActive(makeTask("old", "b1", "f1", domain.StatusFailed, now.Add(-time.Minute)))
	_, _, inserted := r.insertUnlessActive(makeTask("new", "b1", "f1", domain.StatusPending, now))
	assert.True(t, inserted)
}

func TestRegistryMarkProcessingSetsStartedOnce(t *testing.T) {
	r := newRegistry()
	r.insertUnlessActive(makeTask("a", "b1", "f1", domain.StatusPending, time.Now()))

	started := time.Now()
	require.True(t, r.markProcessing("a", started))
	v, ok := r.view("a")
	require.True(t, ok)
	assert.Equal(t, domain.StatusProcessing, v.Status)
	require.NotNil(t, v.StartedAt)
	assert.Equal(t, started, *v.StartedAt)

	// already claimed
	assert.False(t, r.markProcessing("a", time.Now()))
	assert.False(t, r.markProcessing("missing", time.Now()))
}

func TestRegistryFailTransitions(t *testing.T) {
	r := newRegistry()
	r.insertUnlessActive(makeTask("a", "b1", "f1", domain.StatusProcessing, time.Now()))

	retryAt := time.Now().Add(time.Second)
	status := r.fail("a", "boom", retryAt, time.Now())
	assert.Equal(t, domain.StatusRetrying, status)

	status = r.fail("a", "boom again", retryAt, time.Now())
	assert.Equal(t, domain.StatusRetrying, status)

	status = r.fail("a", "final boom", retryAt, time.Now())
	assert.Equal(t, domain.StatusFailed, status)

	v, ok := r.view("a")
	require.True(t, ok)
	assert.Equal(t, 3, v.Attempts)
	assert.Equal(t, "final boom", v.ErrorMessage)
	assert.NotNil(t, v.CompletedAt)
}

func TestRegistryRemoveTerminalKeepsActive(t *testing.T) {
	r := newRegistry()
	now := time.Now()

	r.insertUnlessActive(makeTask("done", "b1", "f1", domain.StatusCompleted, now))
	r.insertUnlessActive(makeTask("dead", "b1", "f2", domain.StatusFailed, now))
	r.insertUnlessActive(makeTask("waiting", "b1", "f3", domain.StatusPending, now))
	r.insertUnlessActive(makeTask("running", "b1", "f4", domain.StatusProcessing, now))
	r.insertUnlessActive(makeTask("backing-off", "b1", "f5", domain.StatusRetrying, now))

	res := r.removeTerminal()
	assert.Equal(t, 2, res.Cleared)
	assert.Equal(t, 3, res.Remaining)

	for _, id := range []string{"waiting", "running", "backing-off"} {
		_, ok := r.view(id)
		assert.True(t, ok, id)
	}
}

func TestRegistryViewIsACopy(t *testing.T) {
	r := newRegistry()
	r.insertUnlessActive(makeTask("a", "b1", "f1", domain.StatusPending, time.Now()))
	r.complete("a", &domain.BatchResult{OverallStatus: "completed"}, time.Now())

	v, ok := r.view("a")
	require.True(t, ok)
	v.Result.OverallStatus = "tampered"
	*v.CompletedAt = time.Time{}

	fresh, _ := r.view("a")
	assert.Equal(t, "completed", fresh.Result.OverallStatus)
	assert.False(t, fresh.CompletedAt.IsZero())
}
