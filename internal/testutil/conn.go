// Package testutil provides the in-memory transport and scripted fake
// daemon used to exercise service clients without a running GNUnet
// installation.
package testutil

import (
	"io"
	"net"
	"sync"
	"time"
)

// Conn is the client half of an in-memory connection. It adds the
// read-shutdown surface of *net.UnixConn on top of net.Pipe: CloseRead
// unblocks a pending Read and makes it (and all later reads) report EOF,
// which is how the dispatch loop observes cancellation.
type Conn struct {
	net.Conn
	mu         sync.Mutex
	readClosed bool
}

func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	closed := c.readClosed
	c.mu.Unlock()
	if closed {
		return 0, io.EOF
	}
	n, err := c.Conn.Read(p)
	if err != nil {
		c.mu.Lock()
		closed = c.readClosed
		c.mu.Unlock()
		if closed {
			return n, io.EOF
		}
	}
	return n, err
}

// CloseRead shuts down the read direction.
func (c *Conn) CloseRead() error {
	c.mu.Lock()
	c.readClosed = true
	c.mu.Unlock()
	// A deadline in the past kicks any reader currently blocked on the
	// pipe; the readClosed flag turns the deadline error into EOF.
	return c.Conn.SetReadDeadline(time.Unix(1, 0))
}

// ServicePair returns a connected client transport and the raw conn a
// scripted fake daemon drives the other end with.
func ServicePair() (*Conn, net.Conn) {
	client, daemon := net.Pipe()
	return &Conn{Conn: client}, daemon
}
