// Package ai talks to the wording/generation collaborator. It turns internal
// authoring labels into respondent-facing conversational wording and can
// draft a whole conversation from the author's context.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatform-server/internal/document"
	"chatform-server/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrGenerationFailed wraps any failure of the wording collaborator.
var ErrGenerationFailed = errors.New("AI wording generation failed")

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatform_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"operation", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatform_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// StepWordingRequest carries everything the collaborator needs to word one
// step: the authoring description, the journey around it, and the tone.
type StepWordingRequest struct {
	Description  string
	Tone         string
	Audience     string
	JourneyItems []string
	CurrentItem  string
}

// ConversationRequest asks for a full conversation draft.
type ConversationRequest struct {
	Context  string
	Tone     string
	Audience string
}

// Client is the wording collaborator interface.
type Client interface {
	// GenerateStepMessage words a single step conversationally.
	GenerateStepMessage(ctx context.Context, req StepWordingRequest) (string, error)
	// GenerateConversation drafts a full list of steps from the author's
	// context description.
	GenerateConversation(ctx context.Context, req ConversationRequest) ([]models.Step, error)
}

type openAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Compile-time check
var _ Client = (*openAIClient)(nil)

// NewOpenAIClient creates a Client backed by an OpenAI-compatible API.
// baseURL may be empty for the default endpoint.
func NewOpenAIClient(apiKey, baseURL, model string, logger *zap.Logger) Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger.Named("AIClient"),
	}
}

const stepWordingSystemPrompt = `You write the next message of a friendly conversational form.
Rewrite the given field description as a single short question or prompt addressed directly to the respondent.
Match the requested tone. Reply with the message text only, no quotes, no markup.`

func (c *openAIClient) GenerateStepMessage(ctx context.Context, req StepWordingRequest) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tone: %s\n", req.Tone)
	if req.Audience != "" {
		fmt.Fprintf(&sb, "Audience: %s\n", req.Audience)
	}
	if req.Description != "" {
		fmt.Fprintf(&sb, "Form purpose: %s\n", req.Description)
	}
	if len(req.JourneyItems) > 0 {
		fmt.Fprintf(&sb, "All fields in order: %s\n", strings.Join(req.JourneyItems, ", "))
	}
	fmt.Fprintf(&sb, "Field to ask for now: %s", req.CurrentItem)

	content, err := c.complete(ctx, "step_message", stepWordingSystemPrompt, sb.String(), false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

const conversationSystemPrompt = `You design conversational data-collection forms.
Given a description of what the form should collect, reply with a JSON object:
{"questions": [{"type": "...", "label": "...", "required": true, "options": ["..."]}]}
Allowed types: short_text, long_text, email, phone, number, date, single_choice, multiple_choice, yes_no, file_upload, statement, call_to_action.
Include "options" only for choice types. Keep labels short and internal; do not write respondent-facing wording.`

func (c *openAIClient) GenerateConversation(ctx context.Context, req ConversationRequest) ([]models.Step, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tone: %s\n", req.Tone)
	if req.Audience != "" {
		fmt.Fprintf(&sb, "Audience: %s\n", req.Audience)
	}
	fmt.Fprintf(&sb, "Form description: %s", req.Context)

	content, err := c.complete(ctx, "conversation", conversationSystemPrompt, sb.String(), true)
	if err != nil {
		return nil, err
	}
	return parseGeneratedSteps(content)
}

// complete performs one chat completion and records metrics for it.
func (c *openAIClient) complete(ctx context.Context, operation, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	start := time.Now()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	aiRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		aiRequestsTotal.WithLabelValues(operation, "error").Inc()
		c.logger.Error("AI request failed", zap.String("operation", operation), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		aiRequestsTotal.WithLabelValues(operation, "error").Inc()
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(operation, "success").Inc()
	return resp.Choices[0].Message.Content, nil
}

// parseGeneratedSteps converts the collaborator's JSON into model steps,
// skipping entries it cannot make sense of so a usable conversation always
// comes back.
func parseGeneratedSteps(content string) ([]models.Step, error) {
	var payload struct {
		Questions []struct {
			Type     string   `json:"type"`
			Label    string   `json:"label"`
			Required bool     `json:"required"`
			Options  []string `json:"options"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed conversation payload: %v", ErrGenerationFailed, err)
	}

	steps := make([]models.Step, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		stepType := models.StepType(q.Type)
		if !models.IsValidStepType(stepType) || q.Label == "" {
			continue
		}
		step := document.NewStep(stepType, q.Label)
		step.Required = q.Required
		if models.ChoiceStepType(stepType) {
			for _, label := range q.Options {
				if label == "" {
					continue
				}
				step.Options = append(step.Options, newOption(label))
			}
		}
		step.Order = len(steps)
		steps = append(steps, step)
	}
	return steps, nil
}
