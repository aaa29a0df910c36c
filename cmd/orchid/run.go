package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/orchid/internal/audit"
	"github.com/ShayCichocki/orchid/internal/config"
	"github.com/ShayCichocki/orchid/internal/orchestrator"
	"github.com/ShayCichocki/orchid/internal/tui"
	"github.com/ShayCichocki/orchid/internal/workers"
	"github.com/ShayCichocki/orchid/pkg/models"
	"github.com/ShayCichocki/orchid/pkg/worker"
)

var (
	runWorker     string
	runSequential bool
	runFormat     string
	runTUI        bool
	runTemplates  string
	runAuditDB    string
)

var runCmd = &cobra.Command{
	Use:   "run <task description>",
	Short: "Execute a task end to end",
	Long: `Run plans a workflow for the task description and dispatches every
subtask to the configured worker.

Examples:
  orchid run "Build a REST API with authentication"
  orchid run --worker static --tui "Deploy the service to staging"
  orchid run --format json "Research message queue options"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runWorker, "worker", "", "Worker backend: claude or static (default from config)")
	runCmd.Flags().BoolVar(&runSequential, "sequential", false, "Run parallel steps one task at a time")
	runCmd.Flags().StringVar(&runFormat, "format", "summary", "Result format: summary, detailed, or json")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show live progress in a TUI")
	runCmd.Flags().StringVar(&runTemplates, "templates", "", "Domain template YAML file")
	runCmd.Flags().StringVar(&runAuditDB, "audit-db", "", "SQLite audit trail path (default from config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	w, err := buildWorker(cfg)
	if err != nil {
		return err
	}

	templates, err := loadTemplatesFlag(runTemplates)
	if err != nil {
		return err
	}

	var logger *orchestrator.DebugLogger
	if cfg.Debug.LogPath != "" {
		logger, err = orchestrator.NewDebugLogger(cfg.Debug.LogPath)
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer logger.Close()
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Worker:     w,
		Sequential: runSequential || cfg.Worker.Sequential,
		MaxDepth:   cfg.Planner.MaxDepth,
		Templates:  templates,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer orch.Close()

	// Template hot-reload follows the configured file while the run lasts.
	if cfg.Templates.Path != "" && cfg.Templates.Watch {
		watcher, werr := config.WatchTemplates(cfg.Templates.Path, orch.SetTemplates, nil)
		if werr != nil {
			fmt.Fprintf(os.Stderr, "warning: template watch: %v\n", werr)
		} else {
			defer watcher.Close()
		}
	}

	store, err := openAuditStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		store.Attach(orch.Events())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := executeWorkflow(ctx, orch, description)
	if result != nil && store != nil {
		if err := store.RecordWorkflow(result); err != nil {
			fmt.Fprintf(os.Stderr, "warning: record workflow: %v\n", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	return printResult(orch, result)
}

// buildWorker selects the worker backend from the flag or config.
func buildWorker(cfg *config.Config) (worker.Worker, error) {
	kind := runWorker
	if kind == "" {
		kind = cfg.Worker.Kind
	}

	switch kind {
	case "static":
		return &workers.StaticWorker{}, nil
	case "claude", "":
		apiKey, err := config.GetAPIKey(cfg)
		if err != nil && !cfg.Anthropic.UseBedrock {
			return nil, err
		}
		return workers.NewClaude(workers.ClaudeConfig{
			APIKey:        apiKey,
			Model:         cfg.Anthropic.Model,
			MaxTokens:     cfg.Anthropic.MaxTokens,
			Timeout:       cfg.Worker.Timeout,
			UseBedrock:    cfg.Anthropic.UseBedrock,
			BedrockRegion: cfg.Anthropic.BedrockRegion,
		})
	default:
		return nil, fmt.Errorf("unknown worker %q (want claude or static)", kind)
	}
}

func openAuditStore(cfg *config.Config) (*audit.Store, error) {
	path := runAuditDB
	if path == "" {
		path = cfg.Audit.DBPath
	}
	if path == "" {
		return nil, nil
	}

	store, err := audit.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit trail: %w", err)
	}
	return store, nil
}

// executeWorkflow runs the workflow, optionally behind a live TUI.
func executeWorkflow(ctx context.Context, orch *orchestrator.Orchestrator, description string) (*models.WorkflowResult, error) {
	if !runTUI {
		return orch.ExecuteTask(ctx, description, nil)
	}

	p, _ := tui.NewProgram(description)
	tui.Attach(orch.Events(), p)

	var (
		result *models.WorkflowResult
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		result, runErr = orch.ExecuteTask(ctx, description, nil)
		p.Send(tui.WorkflowDoneMsg{Result: result})
		close(done)
	}()

	_, err := p.Run()
	tui.Detach(orch.Events())
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}

	select {
	case <-done:
		return result, runErr
	default:
		// Quit before the workflow settled; the result is not safe to read.
		return nil, fmt.Errorf("display closed before the workflow finished")
	}
}

func printResult(orch *orchestrator.Orchestrator, result *models.WorkflowResult) error {
	if runFormat == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	stateColor := color.New(color.FgGreen, color.Bold)
	if result.State != models.WorkflowCompleted {
		stateColor = color.New(color.FgRed, color.Bold)
	}

	stateColor.Printf("workflow %s\n", result.State)
	if result.Degraded {
		color.Yellow("degraded: some tasks failed or blocked")
	}
	fmt.Printf("steps: %d  estimated: %dm  elapsed: %s\n",
		result.TotalSteps, result.EstimatedMinutes,
		result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	if len(result.CriticalPath) > 0 {
		fmt.Printf("critical path: %s\n", strings.Join(result.CriticalPath, " -> "))
	}
	fmt.Println()

	format := orchestrator.ResultFormat(runFormat)
	rendered, err := orch.GetResults(nil, format)
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}
