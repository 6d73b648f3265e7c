package ports

import (
	"context"

	"docq/internal/domain"
)

type Queue interface {
	// AddTask enqueues a document. A pending or retrying task for the same
	// (bucket, filename) returns that task's id; a processing one returns
	// an empty id. The call never blocks on the work itself.
	AddTask(ctx context.Context, bucket, filename, filePath string) (string, error)
	StartProcessing()
	StopProcessing()
	GetTaskStatus(id string) (domain.TaskView, bool)
	GetQueueStatus() domain.QueueStatus
	ClearCompletedTasks() domain.ClearResult
}

type BatchProcessor interface {
	// Process runs one batch of documents; a returned error marks every
	// item in the batch as failed for this attempt.
	Process(ctx context.Context, items []domain.BatchItem) (*domain.BatchResult, error)
}
