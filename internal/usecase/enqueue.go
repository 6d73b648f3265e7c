package usecase

import (
	"context"
	"errors"

	"docq/internal/ports"
)

type Enqueuer struct {
	Q ports.Queue
}

func (e Enqueuer) Enqueue(ctx context.Context, bucket, filename, filePath string) (string, error) {
	if bucket == "" || filename == "" {
		return "", errors.New("bucket and filename are required")
	}
	return e.Q.AddTask(ctx, bucket, filename, filePath)
}
