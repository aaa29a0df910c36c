package workers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/orchid/pkg/models"
)

func TestParseWorkerResponse(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantStatus models.WorkerStatus
	}{
		{
			name:       "completed",
			text:       `{"status": "completed", "output": "the work"}`,
			wantStatus: models.WorkerStatusCompleted,
		},
		{
			name:       "completed with surrounding prose",
			text:       "Here is my result:\n{\"status\": \"completed\", \"output\": \"the work\"}\nDone.",
			wantStatus: models.WorkerStatusCompleted,
		},
		{
			name:       "clarification",
			text:       `{"status": "clarification_needed", "questions": ["which database?"]}`,
			wantStatus: models.WorkerStatusClarificationNeeded,
		},
		{
			name:       "error",
			text:       `{"status": "error", "message": "cannot comply"}`,
			wantStatus: models.WorkerStatusError,
		},
		{
			name:       "plain text falls back to completed",
			text:       "I just did the thing without JSON.",
			wantStatus: models.WorkerStatusCompleted,
		},
		{
			name:       "broken json falls back to completed",
			text:       `{"status": "completed", "output":`,
			wantStatus: models.WorkerStatusCompleted,
		},
		{
			name:       "unknown status treated as completed",
			text:       `{"status": "partial", "output": "half done"}`,
			wantStatus: models.WorkerStatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseWorkerResponse(tt.text)
			if result.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", result.Status, tt.wantStatus)
			}
		})
	}
}

func TestParseWorkerResponse_ClarificationDetails(t *testing.T) {
	result := parseWorkerResponse(`{"status": "clarification_needed", "questions": ["a?", "b?"]}`)
	if len(result.Questions) != 2 {
		t.Errorf("questions = %v, want 2", result.Questions)
	}

	// A clarification without questions still carries one so the tracker has
	// something to show.
	result = parseWorkerResponse(`{"status": "clarification_needed"}`)
	if len(result.Questions) != 1 {
		t.Errorf("questions = %v, want a placeholder entry", result.Questions)
	}
}

func TestParseWorkerResponse_PlainTextOutput(t *testing.T) {
	result := parseWorkerResponse("  some freeform answer  ")
	if result.Output != "some freeform answer" {
		t.Errorf("output = %q, want trimmed raw text", result.Output)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("Implement the parser", map[string]any{
		"task_id": "task-3",
		"domain":  "development",
	})

	if !strings.HasPrefix(prompt, "TASK:\nImplement the parser") {
		t.Errorf("prompt missing task header: %q", prompt)
	}
	// Context keys render in sorted order for deterministic prompts.
	domainIdx := strings.Index(prompt, "domain:")
	taskIdx := strings.Index(prompt, "task_id:")
	if domainIdx == -1 || taskIdx == -1 || domainIdx > taskIdx {
		t.Errorf("context keys missing or unsorted: %q", prompt)
	}
}

func TestBuildPrompt_NoContext(t *testing.T) {
	prompt := buildPrompt("Implement the parser", nil)
	if strings.Contains(prompt, "CONTEXT") {
		t.Errorf("empty context should not render a CONTEXT section: %q", prompt)
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock(anthropic.ModelClaudeSonnet4_20250514)
	if !strings.HasPrefix(string(got), "us.anthropic.") {
		t.Errorf("translated model = %s, want Bedrock inference profile", got)
	}

	// Unknown models pass through untouched.
	custom := anthropic.Model("my-custom-model")
	if got := translateModelForBedrock(custom); got != custom {
		t.Errorf("custom model = %s, want passthrough", got)
	}
}

func TestStaticWorker_Completes(t *testing.T) {
	w := &StaticWorker{}
	result, err := w.Execute(context.Background(), "write docs", nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Status != models.WorkerStatusCompleted {
		t.Errorf("status = %s, want completed", result.Status)
	}
	if !strings.Contains(result.Output.(string), "write docs") {
		t.Errorf("output = %v, want the description echoed", result.Output)
	}
}

func TestStaticWorker_HonorsCancellation(t *testing.T) {
	w := &StaticWorker{Delay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.Execute(ctx, "anything", nil); err == nil {
		t.Error("Execute() error = nil, want context error")
	}
}

func TestTokenTracker(t *testing.T) {
	tracker := &TokenTracker{}
	tracker.Add(100, 50)
	tracker.Add(10, 5)

	in, out := tracker.Total()
	if in != 110 || out != 55 {
		t.Errorf("Total() = %d, %d, want 110, 55", in, out)
	}
	if tracker.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", tracker.Calls())
	}
}
