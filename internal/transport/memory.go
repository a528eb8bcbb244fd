package transport

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Client. Messages are injected with Deliver and
// replies are reported through the OnSend hook. It backs the local console
// and tests.
type Memory struct {
	inboxID string
	env     string
	store   *Store
	onSend  func(Message)
	sendErr func(text string) error

	inbound chan Message
	done    chan struct{}

	mu     sync.Mutex
	closed bool
	err    error
}

// MemoryOption configures a Memory client.
type MemoryOption func(*Memory)

// WithOnSend registers a hook called after each successful send.
func WithOnSend(fn func(Message)) MemoryOption {
	return func(m *Memory) { m.onSend = fn }
}

// WithSendError makes SendText fail when fn returns an error.
func WithSendError(fn func(text string) error) MemoryOption {
	return func(m *Memory) { m.sendErr = fn }
}

// NewMemory creates an in-memory client with the given identity over store.
func NewMemory(inboxID string, store *Store, opts ...MemoryOption) *Memory {
	m := &Memory{
		inboxID: inboxID,
		env:     "memory",
		store:   store,
		inbound: make(chan Message, 64),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) InboxID() string { return m.inboxID }
func (m *Memory) Env() string     { return m.env }

// Store exposes the backing message store.
func (m *Memory) Store() *Store { return m.store }

// Deliver stores a message from senderID and queues it on the stream.
func (m *Memory) Deliver(ctx context.Context, senderID, content, contentType string) (Message, error) {
	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: DMConversationID(senderID),
		SenderID:       senderID,
		Content:        content,
		ContentType:    contentType,
		SentAt:         time.Now().UTC(),
	}
	if err := m.store.Append(ctx, msg); err != nil {
		return Message{}, err
	}
	if err := m.enqueue(ctx, msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Inject queues msg as-is without storing it.
func (m *Memory) Inject(ctx context.Context, msg Message) error {
	return m.enqueue(ctx, msg)
}

func (m *Memory) enqueue(ctx context.Context, msg Message) error {
	select {
	case <-m.done:
		return ErrStreamClosed
	default:
	}
	select {
	case m.inbound <- msg:
		return nil
	case <-m.done:
		return ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fail ends the stream with err, as a lost connection would.
func (m *Memory) Fail(err error) {
	m.shutdown(err)
}

// Close ends the stream in an orderly way.
func (m *Memory) Close() error {
	m.shutdown(nil)
	return nil
}

func (m *Memory) shutdown(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.err = err
	close(m.done)
}

func (m *Memory) Stream(ctx context.Context) (Stream, error) {
	return &memoryStream{m: m}, nil
}

func (m *Memory) Conversation(ctx context.Context, senderID string) (Conversation, error) {
	return resolveDM(ctx, m.store, senderID, m.send)
}

func (m *Memory) send(ctx context.Context, conversationID, peer, text string) (Message, error) {
	if m.sendErr != nil {
		if err := m.sendErr(text); err != nil {
			return Message{}, err
		}
	}
	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       m.inboxID,
		Content:        text,
		ContentType:    ContentTypeText,
		SentAt:         time.Now().UTC(),
	}
	if err := m.store.Append(ctx, msg); err != nil {
		return Message{}, err
	}
	if m.onSend != nil {
		m.onSend(msg)
	}
	return msg, nil
}

type memoryStream struct {
	m *Memory
}

func (s *memoryStream) Next(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case msg := <-s.m.inbound:
		return msg, nil
	case <-s.m.done:
	}
	// messages queued before the close are still delivered
	select {
	case msg := <-s.m.inbound:
		return msg, nil
	default:
	}
	s.m.mu.Lock()
	err := s.m.err
	s.m.mu.Unlock()
	if err != nil {
		return Message{}, err
	}
	return Message{}, ErrStreamClosed
}

var _ Client = (*Memory)(nil)
