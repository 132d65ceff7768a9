package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// relayStub accepts websocket connections and reports each one on the
// conns channel so tests can drive the server side directly.
type relayStub struct {
	server *httptest.Server
	conns  chan *websocket.Conn
	auth   chan string
}

func newRelayStub(t *testing.T) *relayStub {
	t.Helper()
	stub := &relayStub{
		conns: make(chan *websocket.Conn, 4),
		auth:  make(chan string, 4),
	}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.auth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		stub.conns <- conn
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *relayStub) url() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *relayStub) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		return conn
	case <-time.After(3 * time.Second):
		t.Fatal("no connection arrived")
		return nil
	}
}

func TestSendWhileDisconnected(t *testing.T) {
	c := NewChannel("ws://localhost:1/ws", "")
	defer c.Close()

	if c.Connected() {
		t.Fatal("channel reports connected before Run")
	}
	// Fire-and-forget: a send with no connection is dropped, not an error.
	if err := c.Send(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("send while disconnected: %v", err)
	}
}

func TestConnectAndReceive(t *testing.T) {
	stub := newRelayStub(t)

	c := NewChannel(stub.url(), "")
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	server := stub.accept(t)
	defer server.Close()

	if err := server.WriteMessage(websocket.TextMessage, []byte(`{"type":"room_state"}`)); err != nil {
		t.Fatalf("server write: %v", err)
	}

	select {
	case msg := <-c.Inbound():
		if string(msg) != `{"type":"room_state"}` {
			t.Errorf("inbound = %s", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no inbound message")
	}

	if err := c.Send(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	server.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := server.ReadMessage()
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	if string(data) != `{"type":"ping"}` {
		t.Errorf("server received %s", data)
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	stub := newRelayStub(t)

	connects := make(chan struct{}, 4)
	c := NewChannel(stub.url(), "")
	c.OnConnect = func() { connects <- struct{}{} }
	defer c.Close()

	var states []bool
	stateCh := make(chan bool, 8)
	c.OnStateChange = func(connected bool) { stateCh <- connected }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	first := stub.accept(t)
	<-connects
	first.Close()

	// The channel must dial again on its own after the drop.
	second := stub.accept(t)
	defer second.Close()

	select {
	case <-connects:
	case <-time.After(5 * time.Second):
		t.Fatal("OnConnect did not fire after reconnect")
	}

	for len(states) < 3 {
		select {
		case s := <-stateCh:
			states = append(states, s)
		case <-time.After(3 * time.Second):
			t.Fatalf("state transitions so far: %v", states)
		}
	}
	want := []bool{true, false, true}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("state transitions = %v, want %v", states, want)
		}
	}
}

func TestBearerTokenOnDial(t *testing.T) {
	stub := newRelayStub(t)

	c := NewChannel(stub.url(), "secret-token")
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	server := stub.accept(t)
	defer server.Close()

	select {
	case auth := <-stub.auth:
		if auth != "Bearer secret-token" {
			t.Errorf("Authorization = %q", auth)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no handshake recorded")
	}
}

func TestCloseStopsRun(t *testing.T) {
	stub := newRelayStub(t)

	c := NewChannel(stub.url(), "")

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	server := stub.accept(t)
	defer server.Close()

	c.Close()

	select {
	case err := <-done:
		if err != ErrClosed {
			t.Errorf("Run returned %v, want ErrClosed", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop after Close")
	}
}
