package ai

import (
	"context"
	"errors"

	"blueridge/models"
)

// ChatService answers one chat request from the booking widget.
type ChatService interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

// CompletionRequest is one round of model context plus the tool catalogue.
type CompletionRequest struct {
	Turns []models.ConversationTurn
	Tools []ToolSpec
}

// Completion is the model's reply: text, tool calls, or both.
type Completion struct {
	Content   string
	ToolCalls []models.ToolCall
	Provider  string
	Model     string
}

// Completer produces the next assistant turn.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

var ErrNoCompletion = errors.New("ai: no model produced a completion")
