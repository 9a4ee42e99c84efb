// Package llm asks a language model for a second opinion on low-confidence
// tickets. Suggestions are advisory: they ride along with the review-queue
// payload and never override the classifier.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/ticket"
	"github.com/ticket-triage/backend/pkg/circuitbreaker"
	"github.com/ticket-triage/backend/pkg/logger"
	"github.com/ticket-triage/backend/pkg/retry"
)

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

type CompletionResponse struct {
	Content string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CategorySuggestion is the model's advisory read of a ticket.
type CategorySuggestion struct {
	Category   ticket.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	Rationale  string          `json:"rationale"`
}

func NewClient(apiKey, model string, temperature float32, maxTokens, timeoutSec int) *Client {
	client := openai.NewClient(apiKey)

	if timeoutSec <= 0 {
		timeoutSec = 20
	}

	cb := circuitbreaker.NewCircuitBreaker("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("LLM assist client initialized", zap.String("model", model))

	return &Client{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(timeoutSec) * time.Second,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserPrompt,
		},
	}

	var result *CompletionResponse

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func(ctx context.Context) error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:       c.model,
					Messages:    messages,
					Temperature: temperature,
					MaxTokens:   maxTokens,
				},
			)

			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			logger.Debug("LLM completion generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			result = &CompletionResponse{
				Content: resp.Choices[0].Message.Content,
				Usage: Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				},
			}

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// SuggestCategory asks the model which category fits the ticket. The answer
// comes back as strict JSON and must name one of the five known categories.
func (c *Client) SuggestCategory(ctx context.Context, subject, description string) (*CategorySuggestion, error) {
	names := make([]string, 0, len(ticket.Categories()))
	for _, cat := range ticket.Categories() {
		names = append(names, string(cat))
	}

	systemPrompt := fmt.Sprintf(`You are a support ticket triage assistant. Classify the ticket into exactly one of these categories: %s.

Return JSON only:
{"category": "...", "confidence": 0.0, "rationale": "one sentence"}`,
		strings.Join(names, ", "))

	userPrompt := fmt.Sprintf("Subject: %s\n\nDescription: %s", subject, description)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.1,
		MaxTokens:    200,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}

	suggestion, err := parseCategorySuggestion(resp.Content)
	if err != nil {
		return nil, err
	}

	logger.Info("Assist suggestion received",
		zap.String("category", string(suggestion.Category)),
		zap.Float64("confidence", suggestion.Confidence),
	)

	return suggestion, nil
}

// SummarizeForAgent condenses a ticket into two sentences for the review
// queue, so an agent can scan flagged tickets quickly.
func (c *Client) SummarizeForAgent(ctx context.Context, subject, description string) (string, error) {
	systemPrompt := `You are a support ticket triage assistant. Summarize the ticket in at most two sentences for a human agent.
Focus on:
- What the customer is trying to do
- What is failing or being requested
- Any urgency signals

Be specific and factual.`

	userPrompt := fmt.Sprintf("Subject: %s\n\nDescription: %s", subject, description)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.3,
		MaxTokens:    150,
	})

	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}

	return strings.TrimSpace(resp.Content), nil
}

func parseCategorySuggestion(content string) (*CategorySuggestion, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var raw struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		Rationale  string  `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion %q: %w", content, err)
	}

	category, err := ticket.ParseCategory(raw.Category)
	if err != nil {
		return nil, fmt.Errorf("suggestion names %w", err)
	}

	return &CategorySuggestion{
		Category:   category,
		Confidence: raw.Confidence,
		Rationale:  raw.Rationale,
	}, nil
}
