package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/orchid/internal/bus"
	"github.com/ShayCichocki/orchid/pkg/models"
)

// subscriberID is the TUI's identity on the event bus.
const subscriberID = "tui"

// forwardedTypes are the message types the TUI mirrors.
var forwardedTypes = []models.MessageType{
	models.MessageTaskAssigned,
	models.MessageTaskStarted,
	models.MessageTaskProgress,
	models.MessageTaskCompleted,
	models.MessageTaskFailed,
	models.MessageSystemEvent,
}

// Attach subscribes the program to the event bus. Every forwarded message is
// sent into the bubbletea loop as a BusEventMsg. Call Detach before closing
// the program.
func Attach(b *bus.Bus, p *tea.Program) {
	for _, msgType := range forwardedTypes {
		b.Subscribe(msgType, subscriberID, func(msg models.Message) {
			p.Send(BusEventMsg{Message: msg})
		})
	}
}

// Detach removes the program's subscriptions from the bus.
func Detach(b *bus.Bus) {
	for _, msgType := range forwardedTypes {
		b.Unsubscribe(msgType, subscriberID)
	}
}
