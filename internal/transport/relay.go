package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/comigor/magic8ball-go/internal/logger"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// Frame types on the relay wire.
const (
	FrameHello   = "hello"
	FrameMessage = "message"
	FrameSend    = "send"
	FrameError   = "error"
)

// Frame is the JSON envelope exchanged with the relay node.
type Frame struct {
	Type           string    `json:"type"`
	ID             string    `json:"id,omitempty"`
	InboxID        string    `json:"inbox_id,omitempty"`
	Env            string    `json:"env,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	SenderID       string    `json:"sender_id,omitempty"`
	To             string    `json:"to,omitempty"`
	Content        string    `json:"content,omitempty"`
	ContentType    string    `json:"content_type,omitempty"`
	SentAt         time.Time `json:"sent_at,omitzero"`
	Error          string    `json:"error,omitempty"`
}

// RelayOptions configures DialRelay.
type RelayOptions struct {
	URL     string
	Env     string
	InboxID string
	Store   *Store
	Logger  *slog.Logger
	Dialer  *websocket.Dialer
}

// Relay is a Client connected to a relay node over a websocket. Inbound
// messages are written to the store before they are handed to the stream.
type Relay struct {
	env     string
	inboxID string
	store   *Store
	log     *slog.Logger

	ws      *websocket.Conn
	writeMu sync.Mutex

	inbound chan Message
	cancel  context.CancelFunc
	done    chan struct{}
	err     error // set before done is closed
	closing chan struct{}
	once    sync.Once
}

// DialRelay connects, announces the inbox and starts the read and keepalive pumps.
func DialRelay(ctx context.Context, opts RelayOptions) (*Relay, error) {
	if opts.Store == nil {
		return nil, errors.New("relay: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.L
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	ws, _, err := dialer.DialContext(ctx, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", opts.URL, err)
	}

	r := &Relay{
		env:     opts.Env,
		inboxID: opts.InboxID,
		store:   opts.Store,
		log:     opts.Logger,
		ws:      ws,
		inbound: make(chan Message, 16),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	if err := r.writeFrame(Frame{Type: FrameHello, InboxID: r.inboxID, Env: r.env}); err != nil {
		ws.Close()
		return nil, fmt.Errorf("relay hello: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return r.readPump(gctx) })
	g.Go(func() error { return r.pingPump(gctx) })
	go func() {
		r.err = g.Wait()
		close(r.inbound)
		close(r.done)
	}()

	r.log.Info("connected to relay", "url", opts.URL, "env", r.env, "inbox_id", r.inboxID)
	return r, nil
}

func (r *Relay) InboxID() string { return r.inboxID }
func (r *Relay) Env() string     { return r.env }

func (r *Relay) readPump(ctx context.Context) error {
	defer r.ws.Close()
	r.ws.SetReadDeadline(time.Now().Add(pongWait))
	r.ws.SetPongHandler(func(string) error {
		return r.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		_, data, err := r.ws.ReadMessage()
		if err != nil {
			select {
			case <-r.closing:
				return nil
			default:
			}
			return fmt.Errorf("relay connection lost: %w", err)
		}
		r.ws.SetReadDeadline(time.Now().Add(pongWait))
		if err := json.Unmarshal(data, &frame); err != nil {
			r.log.Warn("relay sent malformed frame", "error", err)
			continue
		}

		switch frame.Type {
		case FrameMessage:
			msg := frameToMessage(frame)
			if err := r.store.Append(ctx, msg); err != nil {
				r.log.Error("failed to store inbound message", "id", msg.ID, "error", err)
				continue
			}
			select {
			case r.inbound <- msg:
			case <-ctx.Done():
				return nil
			}
		case FrameError:
			r.log.Warn("relay reported error", "error", frame.Error, "id", frame.ID)
		default:
			r.log.Debug("ignoring relay frame", "type", frame.Type)
		}
	}
}

func (r *Relay) pingPump(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.writeMu.Lock()
			err := r.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			r.writeMu.Unlock()
			if err != nil {
				select {
				case <-r.closing:
					return nil
				default:
				}
				// unblock the read pump
				r.ws.Close()
				return fmt.Errorf("relay ping: %w", err)
			}
		}
	}
}

func frameToMessage(f Frame) Message {
	sentAt := f.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}
	id := f.ID
	if id == "" {
		id = uuid.NewString()
	}
	return Message{
		ID:             id,
		ConversationID: DMConversationID(f.SenderID),
		SenderID:       f.SenderID,
		Content:        f.Content,
		ContentType:    f.ContentType,
		SentAt:         sentAt,
	}
}

func (r *Relay) writeFrame(f Frame) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return r.ws.WriteJSON(f)
}

// Stream returns the inbound stream. All callers share the same stream.
func (r *Relay) Stream(ctx context.Context) (Stream, error) {
	return &relayStream{r: r}, nil
}

func (r *Relay) Conversation(ctx context.Context, senderID string) (Conversation, error) {
	return resolveDM(ctx, r.store, senderID, r.send)
}

func (r *Relay) send(ctx context.Context, conversationID, peer, text string) (Message, error) {
	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       r.inboxID,
		Content:        text,
		ContentType:    ContentTypeText,
		SentAt:         time.Now().UTC(),
	}
	err := r.writeFrame(Frame{
		Type:           FrameSend,
		ID:             msg.ID,
		ConversationID: conversationID,
		To:             peer,
		Content:        text,
		ContentType:    ContentTypeText,
		SentAt:         msg.SentAt,
	})
	if err != nil {
		return Message{}, fmt.Errorf("relay send: %w", err)
	}
	if err := r.store.Append(ctx, msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Close stops the pumps and closes the connection. It does not wait for
// in-flight sends.
func (r *Relay) Close() error {
	r.once.Do(func() {
		close(r.closing)
		r.writeMu.Lock()
		_ = r.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		r.writeMu.Unlock()
		r.cancel()
		r.ws.Close()
	})
	<-r.done
	return nil
}

type relayStream struct {
	r *Relay
}

func (s *relayStream) Next(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case msg, ok := <-s.r.inbound:
		if ok {
			return msg, nil
		}
	}
	<-s.r.done
	if s.r.err != nil {
		return Message{}, s.r.err
	}
	return Message{}, ErrStreamClosed
}

var _ Client = (*Relay)(nil)
