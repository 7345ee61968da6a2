package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blueridge/models"
	"blueridge/utils"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAICompleter walks the model list in order, trying each model a fixed
// number of times with a linear backoff.
type OpenAICompleter struct {
	client   chatClient
	models   []string
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration)
}

var DefaultOpenAIModels = []string{"gpt-4o-mini", "gpt-4o", "gpt-3.5-turbo"}

// NewOpenAIClient builds the SDK client; baseURL overrides the API root.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func NewOpenAICompleter(client chatClient, models []string, logger *zap.Logger) *OpenAICompleter {
	if len(models) == 0 {
		models = DefaultOpenAIModels
	}
	return &OpenAICompleter{
		client:   client,
		models:   models,
		attempts: 2,
		backoff:  150 * time.Millisecond,
		logger:   logger,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	messages := toOpenAIMessages(req.Turns)
	tools := toOpenAITools(req.Tools)

	var lastErr error
	for _, model := range c.models {
		for attempt := 0; attempt < c.attempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			started := time.Now()
			resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       model,
				Messages:    messages,
				Temperature: 0.2,
				Tools:       tools,
				ToolChoice:  "auto",
			})
			if err == nil && len(resp.Choices) == 0 {
				err = errors.New("empty choices")
			}
			status := "ok"
			if err != nil {
				status = "error"
			}
			utils.CompletionLatency.WithLabelValues("openai", model, status).Observe(time.Since(started).Seconds())

			if err != nil {
				lastErr = err
				c.logger.Warn("OpenAI completion failed",
					zap.String("model", model), zap.Int("attempt", attempt+1), zap.Error(err))
				c.sleep(ctx, c.backoff*time.Duration(attempt+1))
				continue
			}
			return fromOpenAIMessage(resp.Choices[0].Message, model), nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrNoCompletion, lastErr)
}

func toOpenAIMessages(turns []models.ConversationTurn) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		msg := openai.ChatCompletionMessage{Role: t.Role, Content: t.Content}
		switch t.Role {
		case models.RoleTool:
			msg.ToolCallID = t.ToolCallID
			msg.Name = t.Name
		case models.RoleAssistant:
			for _, tc := range t.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
		}
		out = append(out, msg)
	}
	return out
}

func toOpenAITools(specs []ToolSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	return out
}

func fromOpenAIMessage(msg openai.ChatCompletionMessage, model string) *Completion {
	c := &Completion{Content: msg.Content, Provider: "openai", Model: model}
	for _, tc := range msg.ToolCalls {
		args := json.RawMessage(tc.Function.Arguments)
		if !json.Valid(args) {
			args = json.RawMessage("{}")
		}
		c.ToolCalls = append(c.ToolCalls, models.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return c
}
