// Package oracle answers questions with a single text-generation call.
package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/comigor/magic8ball-go/internal/llm"
	"github.com/comigor/magic8ball-go/internal/logger"
	"github.com/sashabaranov/go-openai"
)

// Silent is returned when the service replies without any text.
const Silent = "The spirits are silent..."

const defaultMaxTokens = 150

// Brain sends one question per call, with a fixed persona as the system turn.
// It does not retry; callers decide what a failure means.
type Brain struct {
	client    llm.Client
	model     string
	persona   string
	maxTokens int
	log       *slog.Logger
}

// Option configures a Brain.
type Option func(*Brain)

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(b *Brain) {
		if n > 0 {
			b.maxTokens = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Brain) { b.log = l }
}

// New creates a Brain. persona is the instruction text, see ResolvePersona.
func New(client llm.Client, model, persona string, opts ...Option) *Brain {
	b := &Brain{
		client:    client,
		model:     model,
		persona:   persona,
		maxTokens: defaultMaxTokens,
		log:       logger.L,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Persona returns the instruction text in use.
func (b *Brain) Persona() string { return b.persona }

// Ask returns the oracle's reply to question.
func (b *Brain) Ask(ctx context.Context, question string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if b.persona != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: b.persona})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("oracle completion: %w", err)
	}
	b.log.Debug("oracle response received", "model", resp.Model, "choices", len(resp.Choices))

	if len(resp.Choices) == 0 {
		return Silent, nil
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Silent, nil
	}
	return text, nil
}
