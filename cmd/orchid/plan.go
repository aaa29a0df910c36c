package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/orchid/internal/analyzer"
	"github.com/ShayCichocki/orchid/internal/config"
	"github.com/ShayCichocki/orchid/internal/decompose"
	"github.com/ShayCichocki/orchid/internal/graph"
	"github.com/ShayCichocki/orchid/internal/planner"
	"github.com/ShayCichocki/orchid/pkg/models"
)

var (
	planJSON      bool
	planTemplates string
	planMaxDepth  int
)

var planCmd = &cobra.Command{
	Use:   "plan <task description>",
	Short: "Analyze and plan a task without executing it",
	Long: `Plan runs the full pipeline up to (but not including) execution:
analysis, decomposition, dependency graph, and execution plan.

Examples:
  orchid plan "Build a REST API with authentication"
  orchid plan --json "Deploy the service to staging"
  orchid plan --templates my-templates.yaml "Write the launch blog post"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Output the plan as JSON")
	planCmd.Flags().StringVar(&planTemplates, "templates", "", "Domain template YAML file")
	planCmd.Flags().IntVar(&planMaxDepth, "max-depth", 0, "Decomposition depth bound (0 = default)")
}

// planOutput is the JSON shape of a dry-run plan.
type planOutput struct {
	Description string                `json:"description"`
	Analysis    *models.TaskAnalysis  `json:"analysis"`
	Subtasks    []*models.SubTask     `json:"subtasks"`
	Plan        *planner.ExecutionPlan `json:"plan"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")

	templates, err := loadTemplatesFlag(planTemplates)
	if err != nil {
		return err
	}

	analysis := analyzer.New().Analyze(description)
	decomposition, err := decompose.NewWithTemplates(templates).Decompose(analysis, planMaxDepth)
	if err != nil {
		return fmt.Errorf("decompose: %w", err)
	}

	g, err := graph.Build(decomposition.Subtasks)
	if err != nil {
		return fmt.Errorf("build dependency graph: %w", err)
	}

	plan, err := planner.CreatePlan(g, decomposition.Subtasks)
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}

	if planJSON {
		out := planOutput{
			Description: description,
			Analysis:    analysis,
			Subtasks:    decomposition.Subtasks,
			Plan:        plan,
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printPlan(description, analysis, decomposition, plan)
	return nil
}

func printPlan(description string, analysis *models.TaskAnalysis, decomposition *decompose.Decomposition, plan *planner.ExecutionPlan) {
	header := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgWhite, color.Bold)
	dim := color.New(color.FgHiBlack)

	header.Println(description)
	fmt.Println()

	label.Print("complexity: ")
	complexityColor(analysis.Complexity).Println(string(analysis.Complexity))
	label.Print("domains:    ")
	fmt.Println(strings.Join(analysis.Domains, ", "))
	label.Print("estimate:   ")
	fmt.Printf("%d minutes across %d steps\n", plan.EstimatedDurationMinutes, plan.TotalSteps)
	if plan.CanParallelize {
		dim.Println("            (some steps run in parallel)")
	}
	fmt.Println()

	byID := make(map[string]*models.SubTask, len(decomposition.Subtasks))
	for _, task := range decomposition.Subtasks {
		byID[task.ID] = task
	}

	label.Println("steps:")
	for _, step := range plan.Steps {
		marker := " "
		if step.CanParallelize {
			marker = color.YellowString("∥")
		}
		fmt.Printf("  %d %s\n", step.StepNumber, marker)
		for _, taskID := range step.TaskIDs {
			task := byID[taskID]
			fmt.Printf("      %s  %s %s\n",
				color.CyanString(taskID),
				task.Description,
				dim.Sprintf("[%s]", task.Complexity))
		}
	}

	if len(plan.CriticalPath) > 0 {
		fmt.Println()
		label.Print("critical path: ")
		fmt.Println(strings.Join(plan.CriticalPath, " -> "))
	}
}

func complexityColor(c models.Complexity) *color.Color {
	switch c {
	case models.ComplexitySimple:
		return color.New(color.FgGreen)
	case models.ComplexityComplex:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

// loadTemplatesFlag resolves the template set for a command: an explicit flag
// wins, then the configured template file, then the built-ins.
func loadTemplatesFlag(flagPath string) (map[string]decompose.Template, error) {
	if flagPath != "" {
		return config.LoadTemplates(flagPath)
	}

	cfg, err := config.Load()
	if err != nil || cfg.Templates.Path == "" {
		return nil, nil
	}

	templates, err := config.LoadTemplates(cfg.Templates.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using built-in templates)\n", err)
		return nil, nil
	}
	return templates, nil
}
