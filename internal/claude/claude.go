package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = anthropic.Model("claude-sonnet-4-6")

// TaskSummary is the minimal task info sent to Claude for dependency inference.
type TaskSummary struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Status         string  `json:"status,omitempty"`
	Priority       string  `json:"priority,omitempty"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
}

// ProposedEdge is a single inferred dependency: To cannot proceed until From
// reaches the point named by Type.
type ProposedEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// InferResult holds the full response from Claude.
type InferResult struct {
	Edges   []ProposedEdge `json:"edges"`
	Summary string         `json:"summary"`
}

type messageSender interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client wraps the Anthropic SDK for Claude API calls.
type Client struct {
	messages messageSender
	model    anthropic.Model
}

// NewClient creates a Claude client. apiKey defaults to ANTHROPIC_API_KEY env.
// model defaults to DefaultModel.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	m := DefaultModel
	if model != "" {
		m = anthropic.Model(model)
	}

	return &Client{messages: &inner.Messages, model: m}, nil
}

const inferDepsPrompt = `You are an expert project manager. Given a list of tasks from one project, infer dependency edges between them.

Rules:
- Only add a dependency when there is a strong causal reason (task "to" cannot proceed until task "from" has progressed).
- Prefer fewer edges. Do not add transitive or speculative dependencies.
- Do not create cycles.
- Only use task IDs from the provided list.
- A task cannot depend on itself.
- "type" is one of: finish-to-start (default), start-to-start, finish-to-finish, start-to-finish.

Return your answer as JSON with this exact structure:
{
  "edges": [
    {"from": "<task that must progress first>", "to": "<dependent task>", "type": "finish-to-start", "reason": "<short explanation>"}
  ],
  "summary": "<one paragraph summary of the dependency structure>"
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.

Here are the tasks:
`

// buildPrompt constructs the full prompt for dependency inference.
func buildPrompt(tasks []TaskSummary) (string, error) {
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tasks: %w", err)
	}
	return inferDepsPrompt + string(data), nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(4096),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// InferDeps calls the Claude API to propose task dependencies. The result is
// unscreened; see Screen.
func (c *Client) InferDeps(ctx context.Context, tasks []TaskSummary) (*InferResult, error) {
	prompt, err := buildPrompt(tasks)
	if err != nil {
		return nil, err
	}

	text, err := c.complete(ctx, "", prompt)
	if err != nil {
		return nil, err
	}
	text = stripJSONFences(text)

	var result InferResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parse claude response: %w\nraw: %s", err, text)
	}

	return &result, nil
}

const summarisePlanPrompt = `You are a technical project manager reviewing a schedule.

You will receive a Markdown plan: totals, the critical path, a suggested task sequence, waves of tasks that can start together, and any tasks at risk of missing their due date.

Produce a concise narrative covering:
- What drives the total duration.
- Where there is slack that could absorb delays.
- Which risks need attention first.

Keep it to a few short paragraphs. Do not repeat the plan verbatim.
`

// SummarisePlan sends a rendered plan report to Claude and returns a
// human-readable narrative of its critical path, slack and risks.
func (c *Client) SummarisePlan(ctx context.Context, report string) (string, error) {
	var userContent strings.Builder
	userContent.WriteString("## Plan\n\n")
	userContent.WriteString(report)

	text, err := c.complete(ctx, summarisePlanPrompt, userContent.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	// Remove ```json ... ``` or ``` ... ```
	if strings.HasPrefix(s, "```") {
		// Strip opening fence line
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		// Strip closing fence
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
