package ws

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lightswitch/switchboard/internal/metrics"
	"github.com/lightswitch/switchboard/internal/output"
	"github.com/lightswitch/switchboard/internal/protocol"
	"github.com/lightswitch/switchboard/internal/state"
)

// ErrTooManyConnections is returned by AddClient when the connection limit
// is reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

// Snapshotter provides the authoritative vector and the version it
// reflects. *state.Store implements it.
type Snapshotter interface {
	Snapshot() (output.Vector, uint64)
}

// Options tunes the broadcaster. Zero values fall back to defaults.
type Options struct {
	MaxConnections int
	SendBuffer     int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	ResyncInterval time.Duration
	Metrics        *metrics.Metrics
}

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte

	// snapshotSeq is the version of the last snapshot queued to this
	// client. Guarded by b.mu.
	snapshotSeq uint64
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.b.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.b.RemoveClient(c)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.b.writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.b.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcaster tracks the active sessions. It sends each new session its
// snapshot and fans every published delta out to all of them.
//
// Admission holds mu exclusively while it captures the snapshot, queues it
// and registers the client. Delta fan-out holds mu shared. A delta is thus
// either wholly before an admission, in which case its change is already in
// the snapshot, or wholly after it, and deltas not newer than a client's
// snapshot are never queued to that client.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
	store   Snapshotter
	metrics *metrics.Metrics

	maxConns     int
	sendBuffer   int
	writeTimeout time.Duration
	pingInterval time.Duration

	resyncTicker *time.Ticker
	stop         chan struct{}
	stopOnce     sync.Once
}

func NewBroadcaster(store Snapshotter, opts Options) *Broadcaster {
	b := &Broadcaster{
		clients:      make(map[*client]bool),
		store:        store,
		metrics:      opts.Metrics,
		maxConns:     opts.MaxConnections,
		sendBuffer:   opts.SendBuffer,
		writeTimeout: opts.WriteTimeout,
		pingInterval: opts.PingInterval,
		stop:         make(chan struct{}),
	}
	if b.sendBuffer < 1 {
		b.sendBuffer = 64
	}
	if b.writeTimeout <= 0 {
		b.writeTimeout = 10 * time.Second
	}
	if b.pingInterval <= 0 {
		b.pingInterval = 30 * time.Second
	}

	if opts.ResyncInterval > 0 {
		b.resyncTicker = time.NewTicker(opts.ResyncInterval)
		go b.resyncLoop()
	}

	return b
}

// Full reports whether the connection limit has been reached.
func (b *Broadcaster) Full() bool {
	if b.maxConns <= 0 {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients) >= b.maxConns
}

// AddClient admits conn as an active session: its snapshot is queued ahead
// of any delta and its write pump is started.
func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	c := &client{
		conn: conn,
		b:    b,
		send: make(chan []byte, b.sendBuffer),
	}

	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}

	lines, seq := b.store.Snapshot()
	data, err := protocol.EncodeSnapshot(lines, seq)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	c.send <- data
	c.snapshotSeq = seq
	b.clients[c] = true
	b.mu.Unlock()

	b.metrics.Snapshot()
	b.metrics.SessionOpened()
	go c.writePump()
	return c, nil
}

// RemoveClient drops c from the broadcast set and closes its queue. It is
// safe to call more than once.
func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	_, ok := b.clients[c]
	if ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()

	if ok {
		b.metrics.SessionClosed()
	}
}

// PublishDelta queues the change to every active session whose snapshot
// predates it. Sessions whose queue is full are disconnected.
func (b *Broadcaster) PublishDelta(ch state.Change) {
	data, err := protocol.EncodeDelta(ch.Index, ch.Version)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		if ch.Version <= c.snapshotSeq {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	b.metrics.Delta()
	for _, c := range slow {
		// Client can't keep up, disconnect it
		log.Printf("ws client too slow, disconnecting")
		b.metrics.Dropped(metrics.DropSlowClient)
		b.RemoveClient(c)
	}
}

// Resync queues a fresh snapshot to every active session.
func (b *Broadcaster) Resync() {
	var slow []*client
	b.mu.Lock()
	lines, seq := b.store.Snapshot()
	data, err := protocol.EncodeSnapshot(lines, seq)
	if err != nil {
		b.mu.Unlock()
		log.Printf("resync marshal error: %v", err)
		return
	}
	for c := range b.clients {
		select {
		case c.send <- data:
			c.snapshotSeq = seq
			b.metrics.Snapshot()
		default:
			slow = append(slow, c)
		}
	}
	b.mu.Unlock()

	for _, c := range slow {
		b.metrics.Dropped(metrics.DropSlowClient)
		b.RemoveClient(c)
	}
}

func (b *Broadcaster) resyncLoop() {
	for {
		select {
		case <-b.resyncTicker.C:
			b.Resync()
		case <-b.stop:
			return
		}
	}
}

// Stop halts periodic resync and closes every session.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		if b.resyncTicker != nil {
			b.resyncTicker.Stop()
		}

		b.mu.Lock()
		clients := make([]*client, 0, len(b.clients))
		for c := range b.clients {
			clients = append(clients, c)
		}
		b.mu.Unlock()

		for _, c := range clients {
			b.RemoveClient(c)
		}
	})
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
