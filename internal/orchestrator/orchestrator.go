package orchestrator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ShayCichocki/orchid/internal/aggregator"
	"github.com/ShayCichocki/orchid/internal/analyzer"
	"github.com/ShayCichocki/orchid/internal/bus"
	"github.com/ShayCichocki/orchid/internal/decompose"
	"github.com/ShayCichocki/orchid/internal/graph"
	"github.com/ShayCichocki/orchid/internal/planner"
	"github.com/ShayCichocki/orchid/internal/tracker"
	"github.com/ShayCichocki/orchid/pkg/models"
	"github.com/ShayCichocki/orchid/pkg/worker"
)

// ErrNoWorker indicates New was called without a worker implementation.
var ErrNoWorker = errors.New("orchestrator requires a worker")

// ErrWorkflowActive indicates ExecuteTask was called while a workflow is
// already planning or executing. The orchestrator runs one workflow at a
// time; run independent workflows on separate instances or sequentially.
var ErrWorkflowActive = errors.New("a workflow is already active")

// senderID identifies the orchestrator on the event bus.
const senderID = "orchestrator"

// Config contains construction options for the Orchestrator.
type Config struct {
	// Worker executes individual subtasks. Required.
	Worker worker.Worker
	// Sequential disables concurrent dispatch within parallel steps. The
	// plan's parallel groups still gate ordering either way.
	Sequential bool
	// MaxDepth bounds decomposition depth; zero selects the default.
	MaxDepth int
	// Templates overrides the decomposer's domain templates when non-nil.
	Templates map[string]decompose.Template
	// Logger receives debug output. Nil disables debug logging.
	Logger *DebugLogger
}

// Orchestrator coordinates a workflow end to end: analyze -> decompose ->
// graph -> plan -> dispatch -> aggregate. It owns one event bus, one task
// state tracker, and one result aggregator; no package-level singletons.
type Orchestrator struct {
	analyzer   *analyzer.Analyzer
	decomposer *decompose.Decomposer
	worker     worker.Worker
	events     *bus.Bus
	logger     *DebugLogger
	sequential bool
	maxDepth   int

	mu sync.Mutex
	// state is the workflow lifecycle: Idle -> Planning -> Executing ->
	// {Completed | Failed}. Terminal states persist until the next run.
	state      models.WorkflowState
	workflowID string
	tasks      *tracker.Tracker
	results    *aggregator.Aggregator
	graph      *graph.DependencyGraph
	plan       *planner.ExecutionPlan
}

// New creates an Orchestrator around the given worker.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Worker == nil {
		return nil, ErrNoWorker
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger()
	}

	events := bus.New()
	events.SetLogf(logger.Log)

	return &Orchestrator{
		analyzer:   analyzer.New(),
		decomposer: decompose.NewWithTemplates(cfg.Templates),
		worker:     cfg.Worker,
		events:     events,
		logger:     logger,
		sequential: cfg.Sequential,
		maxDepth:   cfg.MaxDepth,
		state:      models.WorkflowIdle,
		tasks:      tracker.New(),
		results:    aggregator.New(),
	}, nil
}

// Events returns the orchestrator's event bus so collaborators (progress
// UIs, audit trails) can subscribe before a workflow starts.
func (o *Orchestrator) Events() *bus.Bus {
	return o.events
}

// SetTemplates swaps the decomposer's template set. Used by the template
// file watcher; takes effect on the next workflow.
func (o *Orchestrator) SetTemplates(templates map[string]decompose.Template) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decomposer.SetTemplates(templates)
}

// State returns the current workflow state.
func (o *Orchestrator) State() models.WorkflowState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// WorkflowID returns the identifier of the current or most recent workflow.
func (o *Orchestrator) WorkflowID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.workflowID
}

// Plan returns the execution plan of the current or most recent workflow.
func (o *Orchestrator) Plan() *planner.ExecutionPlan {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.plan
}

// Close releases the event bus. The orchestrator must not be used afterward.
func (o *Orchestrator) Close() {
	o.events.Close()
}

// beginWorkflow transitions Idle (or a terminal state) to Planning and
// resets per-run state. Fails when a workflow is already active.
func (o *Orchestrator) beginWorkflow() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == models.WorkflowPlanning || o.state == models.WorkflowExecuting {
		return "", fmt.Errorf("state %s: %w", o.state, ErrWorkflowActive)
	}

	o.workflowID = uuid.NewString()
	o.state = models.WorkflowPlanning
	o.tasks = tracker.New()
	o.results = aggregator.New()
	o.graph = nil
	o.plan = nil
	return o.workflowID, nil
}

func (o *Orchestrator) setState(state models.WorkflowState) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
}

func (o *Orchestrator) snapshot() (*tracker.Tracker, *aggregator.Aggregator) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tasks, o.results
}
