// Package tui renders live workflow progress in the terminal. It subscribes
// to the orchestrator's event bus and mirrors task state as messages arrive.
package tui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/orchid/pkg/models"
)

// maxVisibleLogs caps the log lines shown under the task list.
const maxVisibleLogs = 12

// BusEventMsg wraps one event bus message for the TUI.
type BusEventMsg struct {
	Message models.Message
}

// WorkflowDoneMsg signals that the workflow has settled.
type WorkflowDoneMsg struct {
	Result *models.WorkflowResult
}

// taskRow is the TUI's view of one subtask.
type taskRow struct {
	id          string
	description string
	status      models.TaskStatus
	workerID    string
	err         string
}

// logEntry is one line in the event log.
type logEntry struct {
	timestamp time.Time
	line      string
}

// App is the bubbletea model for a workflow run.
type App struct {
	spinner spinner.Model
	tasks   []*taskRow
	logs    []logEntry
	width   int

	workflowDesc string
	done         bool
	result       *models.WorkflowResult
	quitting     bool
}

// New creates an App for a run described by desc.
func New(desc string) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return &App{
		spinner:      sp,
		workflowDesc: desc,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case BusEventMsg:
		a.handleBusEvent(msg.Message)

	case WorkflowDoneMsg:
		a.done = true
		a.result = msg.Result
	}

	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	var sections []string
	sections = append(sections, a.viewHeader())
	if len(a.tasks) > 0 {
		sections = append(sections, a.viewTasks())
	}
	if len(a.logs) > 0 {
		sections = append(sections, a.viewLogs())
	}
	sections = append(sections, a.viewFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (a *App) viewHeader() string {
	title := titleStyle.Render("orchid")
	desc := descStyle.Render(a.workflowDesc)
	if a.done {
		return fmt.Sprintf("%s  %s", title, desc)
	}
	return fmt.Sprintf("%s %s %s", title, a.spinner.View(), desc)
}

func (a *App) viewTasks() string {
	var lines []string
	for _, task := range a.tasks {
		marker := statusMarker(task.status)
		line := fmt.Sprintf("  %s %-10s %s", marker, task.id, truncate(task.description, 70))
		if task.err != "" {
			line += failDetailStyle.Render("  (" + task.err + ")")
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (a *App) viewLogs() string {
	start := 0
	if len(a.logs) > maxVisibleLogs {
		start = len(a.logs) - maxVisibleLogs
	}

	var lines []string
	for _, entry := range a.logs[start:] {
		lines = append(lines, logStyle.Render(fmt.Sprintf("  %s %s", entry.timestamp.Format("15:04:05"), entry.line)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (a *App) viewFooter() string {
	if !a.done {
		return footerStyle.Render("q to quit")
	}

	counts := a.statusCounts()
	summary := fmt.Sprintf("done: %d completed, %d failed, %d blocked",
		counts[models.TaskStatusCompleted], counts[models.TaskStatusFailed], counts[models.TaskStatusBlocked])
	if a.result != nil && a.result.Degraded {
		summary += " (degraded)"
	}
	return footerStyle.Render(summary + " | q to exit")
}

func (a *App) statusCounts() map[models.TaskStatus]int {
	counts := make(map[models.TaskStatus]int)
	for _, task := range a.tasks {
		counts[task.status]++
	}
	return counts
}

// handleBusEvent mirrors one bus message into the task table and log.
func (a *App) handleBusEvent(msg models.Message) {
	taskID, _ := msg.Payload["task_id"].(string)

	switch msg.Type {
	case models.MessageTaskAssigned:
		row := a.findOrCreateTask(taskID)
		row.status = models.TaskStatusAssigned
		if desc, ok := msg.Payload["description"].(string); ok {
			row.description = desc
		}
		if workerID, ok := msg.Payload["worker_id"].(string); ok {
			row.workerID = workerID
		}
		a.addLog(msg.Timestamp, fmt.Sprintf("%s assigned to %s", taskID, row.workerID))

	case models.MessageTaskStarted:
		row := a.findOrCreateTask(taskID)
		row.status = models.TaskStatusInProgress
		a.addLog(msg.Timestamp, fmt.Sprintf("%s started", taskID))

	case models.MessageTaskCompleted:
		row := a.findOrCreateTask(taskID)
		row.status = models.TaskStatusCompleted
		a.addLog(msg.Timestamp, fmt.Sprintf("%s completed", taskID))

	case models.MessageTaskFailed:
		row := a.findOrCreateTask(taskID)
		row.status = models.TaskStatusFailed
		if reason, ok := msg.Payload["error"].(string); ok {
			row.err = reason
		}
		a.addLog(msg.Timestamp, fmt.Sprintf("%s failed", taskID))

	case models.MessageSystemEvent:
		event, _ := msg.Payload["event"].(string)
		switch event {
		case "task_blocked":
			row := a.findOrCreateTask(taskID)
			row.status = models.TaskStatusBlocked
			a.addLog(msg.Timestamp, fmt.Sprintf("%s blocked on clarification", taskID))
		case "workflow_started":
			a.addLog(msg.Timestamp, fmt.Sprintf("workflow started: %v steps", msg.Payload["total_steps"]))
		case "workflow_completed", "workflow_failed":
			a.addLog(msg.Timestamp, event)
		}
	}
}

func (a *App) findOrCreateTask(id string) *taskRow {
	for _, task := range a.tasks {
		if task.id == id {
			return task
		}
	}
	row := &taskRow{id: id, status: models.TaskStatusPending}
	a.tasks = append(a.tasks, row)
	sort.SliceStable(a.tasks, func(i, j int) bool {
		return a.tasks[i].id < a.tasks[j].id
	})
	return row
}

func (a *App) addLog(ts time.Time, line string) {
	a.logs = append(a.logs, logEntry{timestamp: ts, line: line})
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// NewProgram creates a bubbletea program for the App. Messages are fed in
// through Send (see Attach).
func NewProgram(desc string) (*tea.Program, *App) {
	app := New(desc)
	p := tea.NewProgram(app)
	return p, app
}
