package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/comigor/magic8ball-go/internal/config"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// GeminiClient adapts the Gemini API to the Client interface so the oracle
// does not care which provider is behind it.
type GeminiClient struct {
	models *genai.Models
}

// NewGeminiClient creates a Gemini backed Client.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{models: client.Models}, nil
}

// CreateChatCompletion maps system messages to the system instruction and
// the remaining turns to contents.
func (g *GeminiClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	contents, gcfg, err := toGenAI(req)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	resp, err := g.models.GenerateContent(ctx, req.Model, contents, gcfg)
	if err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("gemini generate: %w", err)
	}
	return fromGenAI(req.Model, resp), nil
}

func toGenAI(req openai.ChatCompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	gcfg := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		gcfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	var system []string
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case openai.ChatMessageRoleSystem:
			system = append(system, m.Content)
		case openai.ChatMessageRoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case openai.ChatMessageRoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			return nil, nil, fmt.Errorf("gemini: unsupported message role %q", m.Role)
		}
	}
	if len(contents) == 0 {
		return nil, nil, errors.New("gemini: request has no user content")
	}
	if len(system) > 0 {
		gcfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, gcfg, nil
}

func fromGenAI(model string, resp *genai.GenerateContentResponse) openai.ChatCompletionResponse {
	out := openai.ChatCompletionResponse{Model: model}
	if resp == nil {
		return out
	}
	if text := resp.Text(); text != "" {
		out.Choices = []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text},
		}}
	}
	return out
}
