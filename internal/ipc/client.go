package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// Connection timing constants, grounded verbatim on
// original_source/crates/hotki-server/src/client.rs's
// STARTUP_POLL_TIMEOUT_MS/CONNECT_TIMEOUT_SECS/CONNECT_MAX_ATTEMPTS/
// CONNECT_RETRY_DELAY_MS.
const (
	startupPollTimeout  = 1000 * time.Millisecond
	connectTimeout      = 5 * time.Second
	connectMaxAttempts  = 5
	connectRetryDelay   = 200 * time.Millisecond
	startupPollMinDelay = 10 * time.Millisecond
	startupPollMaxDelay = 100 * time.Millisecond
)

// EventHandler is called for every server-to-client event-stream
// envelope (HudUpdate, Notify, Log, ...) received outside a request's
// reply.
type EventHandler func(Envelope)

// Client implements spec.md §6's client side: connect (optionally
// retrying against a server that was just spawned and may not be
// listening yet), issue requests and await their correlated reply, and
// receive the unsolicited event stream.
//
// Grounded on original_source/crates/hotki-server/src/client.rs's
// Client::try_connect_with_retries: a fast startup poll window (for a
// server this process just spawned) followed by a bounded, fixed-delay
// retry loop, each attempt itself bounded by an overall connect timeout.
type Client struct {
	SocketPath string
	// JustSpawned indicates the caller spawned the server process and
	// should try the fast startup poll window before falling back to the
	// standard retry loop, matching client.rs's self.server.is_some()
	// check.
	JustSpawned bool
	OnEvent     EventHandler

	conn *Conn

	mu           sync.Mutex
	pending      map[string]chan Envelope
	lastCloseErr error
}

// NewClient constructs a disconnected Client.
func NewClient(socketPath string, justSpawned bool, onEvent EventHandler) *Client {
	return &Client{
		SocketPath:  socketPath,
		JustSpawned: justSpawned,
		OnEvent:     onEvent,
		pending:     make(map[string]chan Envelope),
	}
}

// Connect dials the server, using the startup-poll-then-retry sequence
// client.rs implements.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.tryConnectWithRetries(ctx)
	if err != nil {
		return err
	}
	c.conn = conn
	go c.readLoop()
	return nil
}

func (c *Client) tryConnectWithRetries(ctx context.Context) (*Conn, error) {
	var lastErr error

	if c.JustSpawned {
		deadline := time.Now().Add(startupPollTimeout)
		delay := startupPollMinDelay
		for time.Now().Before(deadline) {
			conn, err := c.tryConnectOnce(ctx)
			if err == nil {
				return conn, nil
			}
			lastErr = err
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if delay < startupPollMaxDelay {
				delay += startupPollMinDelay
			}
		}
	}

	for attempt := 1; attempt <= connectMaxAttempts; attempt++ {
		conn, err := c.tryConnectOnce(ctx)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if attempt < connectMaxAttempts {
			select {
			case <-time.After(connectRetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if lastErr == nil {
		lastErr = errors.New("ipc: failed to connect after all retry attempts")
	}
	return nil, lastErr
}

func (c *Client) tryConnectOnce(ctx context.Context) (*Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	var d net.Dialer
	nc, err := d.DialContext(dialCtx, "unix", c.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("ipc: connecting to %s: %w", c.SocketPath, err)
	}
	return newConn(nc), nil
}

// readLoop dispatches every inbound envelope: KindReply goes to the
// pending request it correlates with by ID, anything else goes to
// OnEvent.
func (c *Client) readLoop() {
	for {
		env, err := c.conn.Recv()
		if err != nil {
			c.failAllPending(wrapRecvErr(err))
			return
		}
		if env.Kind == KindReply {
			c.deliverReply(env)
			continue
		}
		if c.OnEvent != nil {
			c.OnEvent(env)
		}
	}
}

func (c *Client) deliverReply(env Envelope) {
	c.mu.Lock()
	ch, ok := c.pending[env.ID]
	if ok {
		delete(c.pending, env.ID)
	}
	c.mu.Unlock()
	if ok {
		ch <- env
	}
}

// failAllPending closes every in-flight request's reply channel,
// recording err as the reason Request reports back to its caller.
func (c *Client) failAllPending(err error) {
	c.mu.Lock()
	c.lastCloseErr = err
	pending := c.pending
	c.pending = make(map[string]chan Envelope)
	c.mu.Unlock()
	for _, ch := range pending {
		close(ch)
	}
}

// Request sends kind/payload and blocks for its correlated reply,
// decoding a successful Reply.Result into result (which may be nil).
func (c *Client) Request(ctx context.Context, kind Kind, payload any, result any) error {
	if c.conn == nil {
		return errors.New("ipc: not connected")
	}
	id := newID()
	env, err := newEnvelope(id, kind, payload)
	if err != nil {
		return err
	}

	ch := make(chan Envelope, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.conn.Send(env); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return err
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			c.mu.Lock()
			cause := c.lastCloseErr
			c.mu.Unlock()
			if cause == nil {
				cause = errors.New("connection closed while awaiting reply")
			}
			return &errClosed{cause: cause}
		}
		var r Reply
		if err := decodePayload(reply, &r); err != nil {
			return err
		}
		if !r.OK {
			return errors.New(r.Error)
		}
		if result != nil && len(r.Result) > 0 {
			return json.Unmarshal(r.Result, result)
		}
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ctx.Err()
	}
}

// Shutdown requests a graceful server shutdown.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.Request(ctx, KindShutdown, nil, nil)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
