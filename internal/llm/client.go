package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/pkg/circuitbreaker"
	"github.com/horizonbi/backend/pkg/logger"
	"github.com/horizonbi/backend/pkg/retry"
)

// Client wraps the chat-completion API behind a circuit breaker and retry
// policy. It is an optional collaborator: the insight layer treats a nil
// client as "narratives disabled" and falls back to templates.
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

func NewClient(apiKey, model string, temperature float32, maxTokens, timeoutSec int) *Client {
	client := openai.NewClient(apiKey)

	cb := circuitbreaker.New("llm", circuitbreaker.Config{
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

	if timeoutSec <= 0 {
		timeoutSec = 30
	}

	logger.Info("LLM client initialized", zap.String("model", model))

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
		return retry.Do(ctx, c.retryConfig, func() error {
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

// Narrate turns an insight context package into a short action-oriented
// narrative. It satisfies the insight.Narrator interface.
func (c *Client) Narrate(ctx context.Context, payload map[string]interface{}) (string, error) {
	systemPrompt := `You are a business-intelligence analyst. Given a detected risk or opportunity
for a company, write a concise 2-4 sentence narrative that explains:
- what the signal means for this specific company
- why it matters now
- the single most important next action

Be concrete and avoid generic advice.`

	contextJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal narrative context: %w", err)
	}

	userPrompt := fmt.Sprintf("Insight context:\n%s\n\nWrite the narrative.", string(contextJSON))

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.3,
		MaxTokens:    300,
	})

	if err != nil {
		return "", fmt.Errorf("failed to generate narrative: %w", err)
	}

	logger.Debug("Narrative generated", zap.Int("length", len(resp.Content)))

	return resp.Content, nil
}
