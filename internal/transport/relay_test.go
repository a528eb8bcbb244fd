package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type relayServer struct {
	*httptest.Server
	hello chan Frame
	sends chan Frame
	conns chan *websocket.Conn
}

func newRelayServer(t *testing.T) *relayServer {
	t.Helper()
	rs := &relayServer{
		hello: make(chan Frame, 1),
		sends: make(chan Frame, 8),
		conns: make(chan *websocket.Conn, 1),
	}
	upgrader := websocket.Upgrader{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		var hello Frame
		if err := ws.ReadJSON(&hello); err != nil {
			ws.Close()
			return
		}
		rs.hello <- hello
		rs.conns <- ws
		for {
			var f Frame
			if err := ws.ReadJSON(&f); err != nil {
				return
			}
			rs.sends <- f
		}
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *relayServer) wsURL() string {
	return "ws" + strings.TrimPrefix(rs.URL, "http")
}

func dial(t *testing.T, rs *relayServer) (*Relay, *Store, *websocket.Conn) {
	t.Helper()
	store := newStore(t)
	r, err := DialRelay(context.Background(), RelayOptions{URL: rs.wsURL(), Env: "local", InboxID: "0xagent", Store: store})
	require.NoError(t, err)

	hello := <-rs.hello
	require.Equal(t, FrameHello, hello.Type)
	require.Equal(t, "0xagent", hello.InboxID)
	require.Equal(t, "local", hello.Env)
	return r, store, <-rs.conns
}

func TestRelay_ReceiveAndSend(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rs := newRelayServer(t)
	r, store, srv := dial(t, rs)
	defer r.Close()

	require.NoError(t, srv.WriteJSON(Frame{Type: FrameMessage, ID: "in-1", SenderID: "0xpeer", Content: "Will it rain?", ContentType: ContentTypeText}))

	stream, err := r.Stream(ctx)
	require.NoError(t, err)
	msg, err := stream.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "in-1", msg.ID)
	require.Equal(t, "dm:0xpeer", msg.ConversationID)
	require.Equal(t, "Will it rain?", msg.Content)

	stored, err := store.History(ctx, "dm:0xpeer")
	require.NoError(t, err)
	require.Len(t, stored, 1, "inbound messages are stored before they are yielded")

	conv, err := r.Conversation(ctx, "0xpeer")
	require.NoError(t, err)
	require.NoError(t, conv.SendText(ctx, "Outlook good."))

	select {
	case f := <-rs.sends:
		require.Equal(t, FrameSend, f.Type)
		require.Equal(t, "0xpeer", f.To)
		require.Equal(t, "dm:0xpeer", f.ConversationID)
		require.Equal(t, "Outlook good.", f.Content)
		require.NotEmpty(t, f.ID)
	case <-ctx.Done():
		t.Fatal("send frame not received")
	}

	h, err := conv.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, h, 2)
	require.Equal(t, "0xagent", h[1].SenderID)
}

func TestRelay_ConnectionLossIsFatal(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rs := newRelayServer(t)
	r, _, srv := dial(t, rs)
	defer r.Close()

	srv.Close()

	stream, _ := r.Stream(ctx)
	_, err := stream.Next(ctx)
	require.Error(t, err)
	require.True(t, IsFatal(err), "got %v", err)
}

func TestRelay_CloseIsOrderly(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rs := newRelayServer(t)
	r, _, _ := dial(t, rs)

	stream, _ := r.Stream(ctx)
	require.NoError(t, r.Close())
	_, err := stream.Next(ctx)
	require.ErrorIs(t, err, ErrStreamClosed)
}

func TestRelay_DialFailure(t *testing.T) {
	_, err := DialRelay(context.Background(), RelayOptions{URL: "ws://127.0.0.1:1/ws", Store: newStore(t)})
	require.Error(t, err)

	_, err = DialRelay(context.Background(), RelayOptions{URL: "ws://127.0.0.1:1/ws"})
	require.Error(t, err)
}
