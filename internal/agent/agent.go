package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/comigor/magic8ball-go/internal/classify"
	"github.com/comigor/magic8ball-go/internal/format"
	"github.com/comigor/magic8ball-go/internal/logger"
	"github.com/comigor/magic8ball-go/internal/transport"
)

// Agent consumes the transport's inbound stream and answers each message.
// Messages are handled one at a time, in delivery order.
type Agent struct {
	client     transport.Client
	classifier classify.Classifier
	answerer   Answerer
	formatter  *format.Formatter
	log        *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger overrides logger.L.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.log = l }
}

// New creates a new agent.
func New(client transport.Client, classifier classify.Classifier, answerer Answerer, formatter *format.Formatter, opts ...Option) *Agent {
	a := &Agent{
		client:     client,
		classifier: classifier,
		answerer:   answerer,
		formatter:  formatter,
		log:        logger.L,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run processes messages until the stream ends or ctx is cancelled, which
// both return nil. A lost connection is returned as an error. Failures of
// individual messages are logged and never stop the loop.
func (a *Agent) Run(ctx context.Context) error {
	stream, err := a.client.Stream(ctx)
	if err != nil {
		return fmt.Errorf("open message stream: %w", err)
	}
	a.log.Info("agent listening", "inbox_id", a.client.InboxID(), "env", a.client.Env())

	for {
		msg, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || !transport.IsFatal(err) {
				a.log.Info("agent stopping", "reason", err)
				return nil
			}
			a.log.Error("message stream failed", "error", err)
			return fmt.Errorf("message stream: %w", err)
		}

		if err := a.handleSafe(ctx, msg); err != nil {
			if ctx.Err() != nil {
				a.log.Info("agent stopping", "reason", ctx.Err())
				return nil
			}
			a.log.Error("failed to handle message",
				"sender", msg.SenderID,
				"conversation", msg.ConversationID,
				"excerpt", logger.Excerpt(msg.Content),
				"error", err)
		}
	}
}

func (a *Agent) handleSafe(ctx context.Context, msg transport.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Debug("recovered panic", "stack", string(debug.Stack()))
			err = fmt.Errorf("panic while handling message %s: %v", msg.ID, r)
		}
	}()
	return a.Handle(ctx, msg)
}

// Handle answers a single message. Self-sent and non-text messages are
// skipped, as are messages whose conversation cannot be resolved.
func (a *Agent) Handle(ctx context.Context, msg transport.Message) error {
	a.log.Info("message received",
		"id", msg.ID,
		"sender", msg.SenderID,
		"content_type", msg.ContentType,
		"excerpt", logger.Excerpt(msg.Content))

	if msg.SenderID == a.client.InboxID() {
		a.log.Debug("skipping own message", "id", msg.ID)
		return nil
	}
	if !msg.IsText() {
		a.log.Debug("skipping non-text message", "id", msg.ID, "content_type", msg.ContentType)
		return nil
	}

	conv, err := a.client.Conversation(ctx, msg.SenderID)
	if errors.Is(err, transport.ErrConversationNotFound) {
		a.log.Info("conversation not found, dropping message", "sender", msg.SenderID, "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve conversation: %w", err)
	}

	history, err := conv.Messages(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	reply, err := a.respond(ctx, history, msg.Content)
	if err != nil {
		return err
	}

	if err := conv.SendText(ctx, reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	a.log.Info("reply sent", "conversation", conv.ID(), "excerpt", logger.Excerpt(reply))
	return nil
}
