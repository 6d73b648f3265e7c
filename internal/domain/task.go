package domain

import "time"

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusRetrying   TaskStatus = "retrying"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Active reports whether the task still has a run ahead of it. Retrying
// counts: a retrying task re-enters processing on a later scan, so a
// duplicate admitted during its backoff window would run concurrently
// with the retry.
func (s TaskStatus) Active() bool {
	return s == StatusPending || s == StatusProcessing || s == StatusRetrying
}

func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task is one document to be processed. Instances are owned by the task
// registry; everything outside it sees TaskView copies only.
type Task struct {
	ID           string
	Bucket       string
	Filename     string
	FilePath     string
	Status       TaskStatus
	Attempts     int
	MaxAttempts  int
	ErrorMessage string
	Result       *BatchResult
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	NextRetryAt  time.Time
}

// View returns an immutable snapshot of the task.
func (t *Task) View() TaskView {
	v := TaskView{
		ID:           t.ID,
		Bucket:       t.Bucket,
		Filename:     t.Filename,
		FilePath:     t.FilePath,
		Status:       t.Status,
		Attempts:     t.Attempts,
		MaxAttempts:  t.MaxAttempts,
		ErrorMessage: t.ErrorMessage,
		CreatedAt:    t.CreatedAt,
	}
	if t.StartedAt != nil {
		at := *t.StartedAt
		v.StartedAt = &at
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		v.CompletedAt = &at
	}
	if t.Result != nil {
		res := *t.Result
		res.Results = append([]DocumentResult(nil), t.Result.Results...)
		v.Result = &res
	}
	return v
}

type TaskView struct {
	ID           string       `json:"task_id"`
	Bucket       string       `json:"bucket"`
	Filename     string       `json:"filename"`
	FilePath     string       `json:"file_path"`
	Status       TaskStatus   `json:"status"`
	Attempts     int          `json:"attempts"`
	MaxAttempts  int          `json:"max_attempts"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Result       *BatchResult `json:"result,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// BatchItem identifies one document handed to the batch processor.
type BatchItem struct {
	Bucket   string `json:"bucket"`
	Filename string `json:"filename"`
}

// BatchResult is the processor's summary for one batch.
type BatchResult struct {
	OverallStatus string           `json:"overall_status"`
	Results       []DocumentResult `json:"results,omitempty"`
}

type DocumentResult struct {
	Bucket   string `json:"bucket"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks,omitempty"`
	Error    string `json:"error,omitempty"`
}

// QueueStatus is a point-in-time aggregate over all known tasks.
type QueueStatus struct {
	IsProcessing bool `json:"is_processing"`
	Total        int  `json:"total"`
	Pending      int  `json:"pending_count"`
	Processing   int  `json:"processing_count"`
	Retrying     int  `json:"retrying_count"`
	Completed    int  `json:"completed_count"`
	Failed       int  `json:"failed_count"`
}

type ClearResult struct {
	Cleared   int `json:"cleared_count"`
	Remaining int `json:"remaining_count"`
}
