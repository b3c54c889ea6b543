package testutil

import (
	"bytes"
	"net"
	"testing"

	"github.com/danmuck/gnunet/wire"
)

// Daemon scripts the service side of a connection. Tests drive it from
// its own goroutine: Expect asserts the next inbound frame, Send pushes
// a reply, Close hangs up so the client sees EOF.
type Daemon struct {
	T    *testing.T
	Conn net.Conn
}

func NewDaemon(t *testing.T, conn net.Conn) *Daemon {
	return &Daemon{T: t, Conn: conn}
}

// Expect reads one frame and fails the test unless it carries the given
// message type. Returns a cursor over the frame's payload.
func (d *Daemon) Expect(msgType uint16) *bytes.Reader {
	d.T.Helper()
	got, payload, err := wire.ReadFrame(d.Conn)
	if err != nil {
		d.T.Fatalf("daemon: read frame: %v", err)
	}
	if got != msgType {
		d.T.Fatalf("daemon: message type = %d, want %d", got, msgType)
	}
	return payload
}

// Send writes one frame with the given type and payload.
func (d *Daemon) Send(msgType uint16, payload []byte) {
	d.T.Helper()
	msg := wire.NewMessage(msgType, uint16(wire.HeaderLen+len(payload)))
	if _, err := msg.Write(payload); err != nil {
		d.T.Fatalf("daemon: build frame: %v", err)
	}
	if _, err := d.Conn.Write(msg.Bytes()); err != nil {
		d.T.Fatalf("daemon: send frame: %v", err)
	}
}

// Close hangs up the daemon side.
func (d *Daemon) Close() {
	d.Conn.Close()
}
