// Package worker defines the external worker contract consumed by the
// coordinator. A worker performs one subtask and returns a structured
// outcome; the coordinator never implements the work itself.
package worker

import (
	"context"

	"github.com/ShayCichocki/orchid/pkg/models"
)

// Worker executes a single subtask described in natural language.
//
// Implementations own any per-task timeout or retry policy. The coordinator
// treats a returned error exactly like a WorkerResult with status "error":
// the task transitions to Failed and sibling tasks keep running.
type Worker interface {
	// ID returns a stable identifier for this worker, used in results and events.
	ID() string

	// Execute performs the task and returns a structured outcome. The context
	// carries workflow-scoped values assembled by the orchestrator (analysis
	// domains, completed dependency outputs, caller-supplied context).
	Execute(ctx context.Context, description string, taskContext map[string]any) (*models.WorkerResult, error)
}
