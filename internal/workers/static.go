package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/ShayCichocki/orchid/pkg/models"
)

// StaticWorker completes every task deterministically without any external
// service. Used by dry runs and tests.
type StaticWorker struct {
	// Delay is an optional artificial latency per task.
	Delay time.Duration
}

// ID implements worker.Worker.
func (w *StaticWorker) ID() string {
	return "static"
}

// Execute implements worker.Worker. It acknowledges the task description and
// honors context cancellation during the optional delay.
func (w *StaticWorker) Execute(ctx context.Context, description string, taskContext map[string]any) (*models.WorkerResult, error) {
	if w.Delay > 0 {
		select {
		case <-time.After(w.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	output := fmt.Sprintf("completed: %s", description)
	return &models.WorkerResult{
		Status: models.WorkerStatusCompleted,
		Output: output,
		Metadata: map[string]any{
			"worker": "static",
		},
	}, nil
}
