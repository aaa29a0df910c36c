package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType represents the kind of message published on the event bus.
type MessageType string

const (
	// MessageTaskAssigned indicates a task has been assigned to a worker.
	MessageTaskAssigned MessageType = "task_assigned"
	// MessageTaskStarted indicates a worker has started a task.
	MessageTaskStarted MessageType = "task_started"
	// MessageTaskProgress carries a progress update for a running task.
	MessageTaskProgress MessageType = "task_progress"
	// MessageTaskCompleted indicates a task completed successfully.
	MessageTaskCompleted MessageType = "task_completed"
	// MessageTaskFailed indicates a task failed.
	MessageTaskFailed MessageType = "task_failed"
	// MessageAgentRequest is reserved for collaborator-to-collaborator requests.
	MessageAgentRequest MessageType = "agent_request"
	// MessageAgentResponse is reserved for collaborator-to-collaborator responses.
	MessageAgentResponse MessageType = "agent_response"
	// MessageSystemEvent carries workflow-level lifecycle notifications.
	MessageSystemEvent MessageType = "system_event"
)

// Message is an immutable event bus message. A message with an empty
// Recipient is broadcast to every subscriber of its type.
type Message struct {
	// ID is the unique message identifier.
	ID string `json:"id"`
	// Type is the kind of message.
	Type MessageType `json:"type"`
	// Sender identifies the component that published the message.
	Sender string `json:"sender"`
	// Recipient is the target subscriber ID, or empty for broadcast.
	Recipient string `json:"recipient,omitempty"`
	// Payload carries message-specific data.
	Payload map[string]any `json:"payload,omitempty"`
	// Timestamp is when the message was constructed.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage constructs a broadcast message with a fresh ID and timestamp.
func NewMessage(msgType MessageType, sender string, payload map[string]any) Message {
	return Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Sender:    sender,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewDirectMessage constructs a message addressed to a single subscriber.
func NewDirectMessage(msgType MessageType, sender, recipient string, payload map[string]any) Message {
	msg := NewMessage(msgType, sender, payload)
	msg.Recipient = recipient
	return msg
}
