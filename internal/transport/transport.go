// Package transport is the messaging substrate the agent talks through:
// identity, the local message store, inbound streaming and outbound sends.
package transport

import (
	"context"
	"errors"
	"time"
)

// ContentTypeText tags plain text messages. Anything else is ignored by the agent.
const ContentTypeText = "text"

var (
	// ErrConversationNotFound is returned when no conversation exists for a sender.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrStreamClosed marks an orderly end of the inbound stream.
	ErrStreamClosed = errors.New("stream closed")
)

// Message is a single message as stored by the transport. Messages are never mutated.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	ContentType    string
	SentAt         time.Time
}

// IsText reports whether the message carries plain text.
func (m Message) IsText() bool { return m.ContentType == ContentTypeText }

// Conversation is a thread with one counterparty. History is owned by the
// transport and read-only to callers.
type Conversation interface {
	ID() string
	Messages(ctx context.Context) ([]Message, error)
	SendText(ctx context.Context, text string) error
}

// Stream yields inbound messages in delivery order. Next returns
// ErrStreamClosed on an orderly end, ctx.Err() on cancellation and any other
// error when the underlying connection is lost.
type Stream interface {
	Next(ctx context.Context) (Message, error)
}

// Client is a connected transport session.
type Client interface {
	InboxID() string
	Env() string
	Stream(ctx context.Context) (Stream, error)
	Conversation(ctx context.Context, senderID string) (Conversation, error)
	Close() error
}

// DMConversationID is the conversation key for direct messages with peer.
func DMConversationID(peer string) string { return "dm:" + peer }

type sendFunc func(ctx context.Context, conversationID, peer, text string) (Message, error)

type dmConversation struct {
	id    string
	peer  string
	store *Store
	send  sendFunc
}

func (c *dmConversation) ID() string { return c.id }

func (c *dmConversation) Messages(ctx context.Context) ([]Message, error) {
	return c.store.History(ctx, c.id)
}

func (c *dmConversation) SendText(ctx context.Context, text string) error {
	_, err := c.send(ctx, c.id, c.peer, text)
	return err
}

func resolveDM(ctx context.Context, store *Store, senderID string, send sendFunc) (Conversation, error) {
	id := DMConversationID(senderID)
	ok, err := store.HasConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConversationNotFound
	}
	return &dmConversation{id: id, peer: senderID, store: store, send: send}, nil
}

// IsFatal reports whether a stream error means the connection is gone, as
// opposed to an orderly close or cancellation.
func IsFatal(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrStreamClosed) &&
		!errors.Is(err, context.Canceled)
}
