// Package transport provides the client side of the relay connection: a
// persistent, auto-reconnecting websocket channel.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alexredboyPRO/Synkim/pkg/log"
)

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 15 * time.Second
	writeWait      = 10 * time.Second
)

var ErrClosed = errors.New("channel closed")

// Channel maintains a websocket connection to the relay, reconnecting
// with capped exponential backoff. Sends are fire-and-forget: anything
// sent while disconnected is dropped, not queued — the periodic sync
// heartbeat is the recovery mechanism after a reconnect.
type Channel struct {
	url    string
	header http.Header
	dialer *websocket.Dialer

	connMu sync.Mutex
	conn   *websocket.Conn

	inbound chan []byte

	// OnConnect runs after every successful (re)connect, before the
	// read loop starts. The watcher re-joins its room here.
	OnConnect func()

	// OnStateChange reports connectivity transitions.
	OnStateChange func(connected bool)

	closed    chan struct{}
	closeOnce sync.Once
}

// NewChannel creates a channel for the given websocket URL. A bearer
// token, when set, is passed on the dial request.
func NewChannel(url, token string) *Channel {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &Channel{
		url:     url,
		header:  header,
		dialer:  websocket.DefaultDialer,
		inbound: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

// Run connects and keeps the channel alive until the context is
// cancelled or Close is called. It blocks; run it in its own goroutine
// or under an errgroup.
func (c *Channel) Run(ctx context.Context) error {
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return ErrClosed
		default:
		}

		conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
		if err != nil {
			l := log.L()
			l.Warn().Err(err).Str("url", c.url).Dur("retry_in", backoff).Msg("relay dial failed")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			case <-c.closed:
				return ErrClosed
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = initialBackoff
		c.setConn(conn)
		if c.OnStateChange != nil {
			c.OnStateChange(true)
		}
		if c.OnConnect != nil {
			c.OnConnect()
		}

		c.readLoop(conn)

		c.setConn(nil)
		if c.OnStateChange != nil {
			c.OnStateChange(false)
		}
	}
}

// readLoop drains the connection into the inbound channel until the
// connection dies.
func (c *Channel) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l := log.L()
				l.Warn().Err(err).Msg("relay connection lost")
			}
			return
		}

		select {
		case c.inbound <- message:
		case <-c.closed:
			return
		default:
			// Inbound backlog full; the next heartbeat re-syncs.
		}
	}
}

// Send marshals and writes a message. Returns nil and drops the message
// when disconnected; the next heartbeat re-syncs whatever was missed.
func (c *Channel) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		l := log.L()
		l.Debug().Msg("send dropped: relay disconnected")
		return nil
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Inbound delivers raw messages received from the relay.
func (c *Channel) Inbound() <-chan []byte {
	return c.inbound
}

// Connected reports whether the channel currently holds a live
// connection.
func (c *Channel) Connected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn != nil
}

// Close tears the channel down permanently.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.connMu.Unlock()
	})
	return nil
}

func (c *Channel) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}
