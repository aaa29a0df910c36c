package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/orchid/internal/audit"
	"github.com/ShayCichocki/orchid/internal/config"
)

var (
	historyTask  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past workflows from the audit trail",
	Long: `History reads the SQLite audit trail written by 'orchid run' and
lists past workflow outcomes. With --task it shows the recorded event
messages for one task instead.

Examples:
  orchid history
  orchid history --task task-2 --limit 50`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyTask, "task", "", "Show messages for one task ID")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 100, "Maximum messages to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := runAuditDB
	if path == "" {
		if cfg, err := config.Load(); err == nil && cfg.Audit.DBPath != "" {
			path = cfg.Audit.DBPath
		} else {
			path = audit.DefaultPath()
		}
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no audit trail at %s (run with audit.db_path set)", path)
	}

	store, err := audit.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if historyTask != "" {
		return printTaskHistory(store, historyTask)
	}
	return printWorkflowHistory(store)
}

func printWorkflowHistory(store *audit.Store) error {
	workflows, err := store.Workflows()
	if err != nil {
		return err
	}
	if len(workflows) == 0 {
		fmt.Println("no recorded workflows")
		return nil
	}

	for _, wf := range workflows {
		stateColor := color.New(color.FgGreen)
		if wf.State != "completed" {
			stateColor = color.New(color.FgRed)
		}
		degraded := ""
		if wf.Degraded {
			degraded = color.YellowString(" degraded")
		}
		fmt.Printf("%s  %s  %s%s  steps=%d  estimated=%dm  progress=%.0f%%\n",
			wf.StartedAt.Local().Format("2006-01-02 15:04"),
			wf.ID[:8],
			stateColor.Sprint(wf.State),
			degraded,
			wf.TotalSteps,
			wf.EstimatedMinutes,
			wf.OverallProgress*100)
	}
	return nil
}

func printTaskHistory(store *audit.Store, taskID string) error {
	messages, err := store.Messages(taskID, historyLimit)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		fmt.Printf("no recorded messages for %s\n", taskID)
		return nil
	}

	for _, msg := range messages {
		fmt.Printf("%s  %-16s %s\n",
			msg.CreatedAt.Local().Format("15:04:05"),
			msg.Type,
			msg.Payload)
	}
	return nil
}
