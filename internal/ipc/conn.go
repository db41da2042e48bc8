package ipc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
)

// Conn is one framed connection: concurrent Send calls are serialized.
// Conn has no reader goroutine of its own; whichever owns it (Client or
// Server.serveConn) calls Recv from a single read loop.
type Conn struct {
	nc net.Conn

	writeMu sync.Mutex
}

// newConn wraps an already-established net.Conn.
func newConn(nc net.Conn) *Conn {
	return &Conn{nc: nc}
}

// Send frames and writes env, safe for concurrent use.
func (c *Conn) Send(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeFrame(c.nc, env)
}

// Recv blocks for the next framed Envelope. Only one goroutine may call
// Recv on a given Conn at a time; callers run it from a single reader
// loop.
func (c *Conn) Recv() (Envelope, error) {
	return readFrame(c.nc)
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// newID allocates a request correlation id (smoketest_bridge.rs's
// BridgeCommandId serves the same purpose with a monotonic counter; a
// uuid avoids needing a shared counter across independently-constructed
// requesters).
func newID() string {
	return uuid.NewString()
}

// errClosed wraps a connection-closed condition so callers can treat it
// as the "normal on shutdown" case spec.md §7 calls out, rather than a
// genuine transport failure.
type errClosed struct{ cause error }

func (e *errClosed) Error() string { return fmt.Sprintf("ipc: connection closed: %v", e.cause) }
func (e *errClosed) Unwrap() error { return e.cause }

func wrapRecvErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return &errClosed{cause: err}
	}
	return err
}
