package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blueridge/models"
	"blueridge/utils"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiCompleter is the last resort after the OpenAI models.
type GeminiCompleter struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

func NewGeminiCompleter(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiCompleter{client: client, modelName: modelName, logger: logger}, nil
}

func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}

func (g *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	system, history := toGeminiContents(req.Turns)
	if len(history) == 0 {
		return nil, errors.New("gemini: no conversation turns")
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0.2)
	model.SystemInstruction = system
	model.Tools = toGeminiTools(req.Tools)

	cs := model.StartChat()
	cs.History = history[:len(history)-1]
	last := history[len(history)-1]

	started := time.Now()
	resp, err := cs.SendMessage(ctx, last.Parts...)
	status := "ok"
	if err != nil {
		status = "error"
	}
	utils.CompletionLatency.WithLabelValues("gemini", g.modelName, status).Observe(time.Since(started).Seconds())
	if err != nil {
		g.logger.Warn("Gemini completion failed", zap.String("model", g.modelName), zap.Error(err))
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}
	return fromGeminiResponse(resp, g.modelName)
}

// toGeminiContents folds system turns into one instruction and maps the rest
// onto user/model contents. Tool turns become function responses.
func toGeminiContents(turns []models.ConversationTurn) (*genai.Content, []*genai.Content) {
	var sys []string
	var out []*genai.Content
	for _, t := range turns {
		switch t.Role {
		case models.RoleSystem:
			sys = append(sys, t.Content)
		case models.RoleUser:
			out = append(out, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(t.Content)}})
		case models.RoleAssistant:
			c := &genai.Content{Role: "model"}
			if t.Content != "" {
				c.Parts = append(c.Parts, genai.Text(t.Content))
			}
			for _, tc := range t.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal(tc.Arguments, &args)
				c.Parts = append(c.Parts, genai.FunctionCall{Name: tc.Name, Args: args})
			}
			if len(c.Parts) > 0 {
				out = append(out, c)
			}
		case models.RoleTool:
			var body map[string]any
			if err := json.Unmarshal([]byte(t.Content), &body); err != nil {
				body = map[string]any{"result": t.Content}
			}
			out = append(out, &genai.Content{Role: "user", Parts: []genai.Part{genai.FunctionResponse{Name: t.Name, Response: body}}})
		}
	}
	var system *genai.Content
	if len(sys) > 0 {
		system = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(sys, "\n\n"))}}
	}
	return system, out
}

func toGeminiTools(specs []ToolSpec) []*genai.Tool {
	if len(specs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, s := range specs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  toGeminiSchema(s.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func toGeminiSchema(d jsonschema.Definition) *genai.Schema {
	s := &genai.Schema{Description: d.Description, Required: d.Required}
	switch d.Type {
	case jsonschema.Object:
		s.Type = genai.TypeObject
	case jsonschema.Array:
		s.Type = genai.TypeArray
	case jsonschema.Integer:
		s.Type = genai.TypeInteger
	case jsonschema.Number:
		s.Type = genai.TypeNumber
	case jsonschema.Boolean:
		s.Type = genai.TypeBoolean
	default:
		s.Type = genai.TypeString
	}
	if len(d.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(d.Properties))
		for name, p := range d.Properties {
			s.Properties[name] = toGeminiSchema(p)
		}
	}
	if d.Items != nil {
		s.Items = toGeminiSchema(*d.Items)
	}
	return s
}

func fromGeminiResponse(resp *genai.GenerateContentResponse, model string) (*Completion, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini: empty response")
	}
	c := &Completion{Provider: "gemini", Model: model}
	var sb strings.Builder
	for i, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			sb.WriteString(string(p))
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil || p.Args == nil {
				args = []byte("{}")
			}
			c.ToolCalls = append(c.ToolCalls, models.ToolCall{
				ID:        "gemini-call-" + strconv.Itoa(i),
				Name:      p.Name,
				Arguments: args,
			})
		}
	}
	c.Content = sb.String()
	return c, nil
}
