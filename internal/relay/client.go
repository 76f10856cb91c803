package relay

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

const (
	// defaultSendBuffer is the number of frames that can be queued per
	// connection before sends are dropped.
	defaultSendBuffer = 16

	// writeTimeout is the max time to wait for a single write to complete.
	writeTimeout = 5 * time.Second

	// idleCheckInterval is how often the idle reaper runs.
	idleCheckInterval = 30 * time.Second
)

// Client is one live websocket connection. The transport owns the
// underlying conn; participant identity lives in the registry.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	id   string
}

// NewClient wraps an accepted websocket connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn, id: newClientID()}
}

func newClientID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// connEntry holds per-connection metadata alongside the cancel function.
type connEntry struct {
	cancel      context.CancelFunc
	connectedAt time.Time
	lastActive  time.Time
}

// ConnManager tracks all live connections and provides lifecycle
// management: per-connection buffered send queues drained by a write
// pump, connection limits, idle reaping, and graceful shutdown. A send
// failure on one connection never blocks or aborts the others.
type ConnManager struct {
	mu       sync.Mutex
	clients  map[*Client]*connEntry
	closed   bool
	maxConns int
	idleTTL  time.Duration
	sendBuf  int
	stopIdle context.CancelFunc
}

// ConnManagerOption configures a ConnManager.
type ConnManagerOption func(*ConnManager)

// WithMaxConns sets the maximum number of concurrent connections.
// When the limit is reached, new connections are rejected.
// A value of 0 means unlimited (default).
func WithMaxConns(n int) ConnManagerOption {
	return func(cm *ConnManager) {
		cm.maxConns = n
	}
}

// WithIdleTimeout sets how long a connection can be idle before it is
// automatically closed. A value of 0 disables idle reaping (default).
func WithIdleTimeout(d time.Duration) ConnManagerOption {
	return func(cm *ConnManager) {
		cm.idleTTL = d
	}
}

// WithSendBuffer sets the per-connection outbound queue size.
func WithSendBuffer(n int) ConnManagerOption {
	return func(cm *ConnManager) {
		if n > 0 {
			cm.sendBuf = n
		}
	}
}

// NewConnManager creates a connection manager with optional configuration.
func NewConnManager(opts ...ConnManagerOption) *ConnManager {
	cm := &ConnManager{
		clients: make(map[*Client]*connEntry),
		sendBuf: defaultSendBuffer,
	}
	for _, opt := range opts {
		opt(cm)
	}
	if cm.idleTTL > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		cm.stopIdle = cancel
		go cm.idleReapLoop(ctx)
	}
	return cm
}

// Add registers a client and starts its write pump. The returned
// context is cancelled when the client is removed or the manager shuts
// down. Callers should select on ctx.Done() in their read loop.
// Returns a cancelled context if the manager is closed or at capacity.
func (cm *ConnManager) Add(c *Client) context.Context {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.closed {
		c.conn.Close(websocket.StatusGoingAway, "server shutting down")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	if cm.maxConns > 0 && len(cm.clients) >= cm.maxConns {
		log.Printf("relay: rejecting connection %s, server at capacity", c.id)
		c.conn.Close(websocket.StatusTryAgainLater, "server at capacity")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	now := time.Now()
	c.send = make(chan []byte, cm.sendBuf)
	ctx, cancel := context.WithCancel(context.Background())
	cm.clients[c] = &connEntry{
		cancel:      cancel,
		connectedAt: now,
		lastActive:  now,
	}

	go cm.writePump(ctx, c)

	return ctx
}

// Remove stops a client's write pump and cleans it up. Idempotent.
func (cm *ConnManager) Remove(c *Client) {
	cm.mu.Lock()
	entry, ok := cm.clients[c]
	if ok {
		delete(cm.clients, c)
	}
	cm.mu.Unlock()

	// The send channel is left open: a broadcast may have snapshotted
	// this client before removal, and Send must stay safe to call. The
	// write pump exits via the cancelled context.
	if ok {
		entry.cancel()
	}
}

// Send queues a frame for delivery to the client. Returns false if the
// client's buffer is full (slow consumer) or the client has been removed.
func (cm *ConnManager) Send(c *Client, data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		log.Printf("relay: send buffer full for connection %s, dropping frame", c.id)
		return false
	}
}

// TouchActivity updates the last-active timestamp for a client.
// Call this when a client sends a frame to prevent idle reaping.
func (cm *ConnManager) TouchActivity(c *Client) {
	cm.mu.Lock()
	if entry, ok := cm.clients[c]; ok {
		entry.lastActive = time.Now()
	}
	cm.mu.Unlock()
}

// Count returns the number of live connections.
func (cm *ConnManager) Count() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.clients)
}

// Clients returns a snapshot of all live connections. Fan-out loops
// iterate the snapshot so registry mutation never races the iteration.
func (cm *ConnManager) Clients() []*Client {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	result := make([]*Client, 0, len(cm.clients))
	for c := range cm.clients {
		result = append(result, c)
	}
	return result
}

// Shutdown gracefully closes all connections. It cancels every write
// pump and closes each websocket with StatusGoingAway.
func (cm *ConnManager) Shutdown() {
	cm.mu.Lock()
	cm.closed = true
	clients := make(map[*Client]*connEntry, len(cm.clients))
	for c, entry := range cm.clients {
		clients[c] = entry
	}
	cm.clients = make(map[*Client]*connEntry)
	cm.mu.Unlock()

	if cm.stopIdle != nil {
		cm.stopIdle()
	}

	for c, entry := range clients {
		entry.cancel()
		c.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// idleReapLoop periodically checks for and closes idle connections.
func (cm *ConnManager) idleReapLoop(ctx context.Context) {
	ticker := time.NewTicker(idleCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cm.reapIdle()
		}
	}
}

// reapIdle closes connections that have been idle longer than idleTTL.
func (cm *ConnManager) reapIdle() {
	cm.mu.Lock()
	now := time.Now()
	stale := make(map[*Client]*connEntry)
	for c, entry := range cm.clients {
		if now.Sub(entry.lastActive) > cm.idleTTL {
			stale[c] = entry
			delete(cm.clients, c)
		}
	}
	cm.mu.Unlock()

	for c, entry := range stale {
		entry.cancel()
		c.conn.Close(websocket.StatusPolicyViolation, "idle timeout")
		log.Printf("relay: reaped idle connection %s", c.id)
	}
}

// writePump drains the client's send channel, writing each frame to the
// websocket. It exits when ctx is cancelled or a write fails.
func (cm *ConnManager) writePump(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Printf("relay: write to connection %s failed: %v", c.id, err)
				return
			}
		}
	}
}
