package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/orchid/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96E6A1")).
			Bold(true)

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#45B7D1"))

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	failDetailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	pendingMarker    = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Render("·")
	assignedMarker   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC857")).Render("○")
	inProgressMarker = lipgloss.NewStyle().Foreground(lipgloss.Color("#45B7D1")).Render("◐")
	completedMarker  = lipgloss.NewStyle().Foreground(lipgloss.Color("#96E6A1")).Render("✓")
	failedMarker     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Render("✗")
	blockedMarker    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8E53")).Render("?")
)

// statusMarker returns the one-character marker for a task status.
func statusMarker(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusAssigned:
		return assignedMarker
	case models.TaskStatusInProgress:
		return inProgressMarker
	case models.TaskStatusCompleted:
		return completedMarker
	case models.TaskStatusFailed:
		return failedMarker
	case models.TaskStatusBlocked:
		return blockedMarker
	default:
		return pendingMarker
	}
}
