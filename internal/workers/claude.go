package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/orchid/pkg/models"
)

// ClaudeConfig contains settings for the Claude worker.
type ClaudeConfig struct {
	// APIKey is the Anthropic API key. Empty falls back to ANTHROPIC_API_KEY.
	APIKey string
	// Model is the Claude model name. Empty selects the SDK default Sonnet.
	Model string
	// MaxTokens caps the response length. Zero selects 4096.
	MaxTokens int
	// Timeout bounds a single Execute call. Zero disables the bound.
	Timeout time.Duration
	// UseBedrock routes calls through AWS Bedrock instead of the direct API.
	UseBedrock bool
	// BedrockRegion is the AWS region for Bedrock.
	BedrockRegion string
	// AWSProfile is the optional AWS shared config profile.
	AWSProfile string
}

// ClaudeWorker executes subtasks against the Anthropic Messages API. One
// Execute call is one model turn; the worker reports clarification_needed
// when the model declines to proceed without answers.
type ClaudeWorker struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
	tracker   *TokenTracker
}

// NewClaude creates a Claude worker.
func NewClaude(cfg ClaudeConfig) (*ClaudeWorker, error) {
	client, model, err := newAnthropicClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("claude worker: %w", err)
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &ClaudeWorker{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		timeout:   cfg.Timeout,
		tracker:   &TokenTracker{},
	}, nil
}

// ID implements worker.Worker.
func (w *ClaudeWorker) ID() string {
	return "claude"
}

// Tracker returns the token tracker for this worker.
func (w *ClaudeWorker) Tracker() *TokenTracker {
	return w.tracker
}

const claudeSystemPrompt = `You are a task execution worker inside a workflow coordinator.
You receive one subtask at a time, with context from completed dependency tasks.
Do the work described and respond with ONLY a JSON object, no other text:

{"status": "completed", "output": "your work product as a string"}

If you genuinely cannot proceed without answers, respond instead with:

{"status": "clarification_needed", "questions": ["question 1", "question 2"]}

Never invent a third status.`

// Execute implements worker.Worker.
func (w *ClaudeWorker) Execute(ctx context.Context, description string, taskContext map[string]any) (*models.WorkerResult, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	resp, err := w.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     w.model,
		MaxTokens: w.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: claudeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(description, taskContext))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude worker: %w", err)
	}

	w.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}

	result := parseWorkerResponse(text.String())
	result.Metadata = map[string]any{
		"model":         string(w.model),
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	}
	return result, nil
}

// buildPrompt renders the task description plus its context map in a stable
// key order.
func buildPrompt(description string, taskContext map[string]any) string {
	var b strings.Builder
	b.WriteString("TASK:\n")
	b.WriteString(description)

	if len(taskContext) > 0 {
		keys := make([]string, 0, len(taskContext))
		for k := range taskContext {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n\nCONTEXT:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %v\n", k, taskContext[k])
		}
	}
	return b.String()
}

// parseWorkerResponse extracts the structured result from the model output.
// A response without parseable JSON is treated as a completed task whose
// output is the raw text; the coordinator never fails a task over formatting.
func parseWorkerResponse(text string) *models.WorkerResult {
	jsonStart := strings.Index(text, "{")
	jsonEnd := strings.LastIndex(text, "}")
	if jsonStart == -1 || jsonEnd <= jsonStart {
		return &models.WorkerResult{
			Status: models.WorkerStatusCompleted,
			Output: strings.TrimSpace(text),
		}
	}

	var parsed struct {
		Status    string   `json:"status"`
		Output    any      `json:"output"`
		Questions []string `json:"questions"`
		Message   string   `json:"message"`
	}
	if err := json.Unmarshal([]byte(text[jsonStart:jsonEnd+1]), &parsed); err != nil {
		return &models.WorkerResult{
			Status: models.WorkerStatusCompleted,
			Output: strings.TrimSpace(text),
		}
	}

	switch models.WorkerStatus(parsed.Status) {
	case models.WorkerStatusClarificationNeeded:
		questions := parsed.Questions
		if len(questions) == 0 {
			questions = []string{"worker requested clarification without questions"}
		}
		return &models.WorkerResult{
			Status:    models.WorkerStatusClarificationNeeded,
			Questions: questions,
		}
	case models.WorkerStatusError:
		return &models.WorkerResult{
			Status:  models.WorkerStatusError,
			Message: parsed.Message,
		}
	default:
		return &models.WorkerResult{
			Status: models.WorkerStatusCompleted,
			Output: parsed.Output,
		}
	}
}
