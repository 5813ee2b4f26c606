package client

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/lightswitch/switchboard/internal/protocol"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// ErrNotConnected is returned by Toggle while no session is open.
var ErrNotConnected = errors.New("not connected")

// WSClient manages the observer's session with the controller.
type WSClient struct {
	url string

	mu      sync.Mutex
	writeMu sync.Mutex // serialises conn writes (ping, toggle)
	conn    *websocket.Conn
	pingCtx context.CancelFunc
}

// NewWSClient creates a client that connects to the given WebSocket URL.
func NewWSClient(url string) *WSClient {
	return &WSClient{url: url}
}

// --- Bubble Tea messages ---

// WSConnectedMsg is sent when a session opens.
type WSConnectedMsg struct{}

// WSDisconnectedMsg is sent when the session ends.
type WSDisconnectedMsg struct{ Err error }

// WSSnapshotMsg delivers the full vector.
type WSSnapshotMsg struct{ Snapshot protocol.Snapshot }

// WSDeltaMsg delivers a single-line flip.
type WSDeltaMsg struct{ Delta protocol.Delta }

// WSBadFrameMsg reports a frame that could not be decoded.
type WSBadFrameMsg struct {
	Raw []byte
	Err error
}

// Listen returns a Bubble Tea command that dials until a session opens or
// ctx is cancelled. Failed dials back off exponentially.
func (c *WSClient) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			if ctx.Err() != nil {
				return nil
			}

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
			if err != nil {
				log.Printf("ws dial error: %v (retry in %v)", err, delay)
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil
				}
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			c.mu.Lock()
			if c.pingCtx != nil {
				c.pingCtx()
			}
			pingCtx, pingCancel := context.WithCancel(ctx)
			c.conn = conn
			c.pingCtx = pingCancel
			c.mu.Unlock()

			go c.pingLoop(pingCtx, conn)

			return WSConnectedMsg{}
		}
	}
}

// ReadLoop returns a Bubble Tea command that reads the next server message.
// It is re-issued after every message it delivers.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return WSDisconnectedMsg{Err: ErrNotConnected}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close()
			return WSDisconnectedMsg{Err: err}
		}

		u, err := protocol.DecodeUpdate(data)
		if err != nil {
			return WSBadFrameMsg{Raw: data, Err: err}
		}
		switch u := u.(type) {
		case protocol.Snapshot:
			return WSSnapshotMsg{Snapshot: u}
		case protocol.Delta:
			return WSDeltaMsg{Delta: u}
		}
		return WSBadFrameMsg{Raw: data}
	}
}

// pingLoop sends periodic pings on the given connection. It exits when the
// context is cancelled or the connection changes.
func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Toggle asks the controller to flip line index. The result, if any,
// arrives later as a delta.
func (c *WSClient) Toggle(index int) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	data, err := protocol.EncodeToggle(index)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Drop closes the current session. The pending ReadLoop then reports
// WSDisconnectedMsg and the next Listen opens a fresh session, which
// begins with a new snapshot.
func (c *WSClient) Drop() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	if c.pingCtx != nil {
		c.pingCtx()
		c.pingCtx = nil
	}
	c.mu.Unlock()
	if conn == nil {
		return
	}

	c.writeMu.Lock()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "resync"),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	conn.Close()
}

// Connected reports whether a session is open.
func (c *WSClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}
