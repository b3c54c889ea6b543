package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/danmuck/gnunet/config"
	"github.com/danmuck/gnunet/wire"
)

// ErrNotConfigured reports that the configuration has no UNIXPATH entry
// for the requested service.
var ErrNotConfigured = errors.New("service: no UNIXPATH configured")

// Transport is the connection surface the substrate needs. *net.UnixConn
// satisfies it; tests substitute an in-memory pipe.
type Transport interface {
	io.Reader
	io.Writer
	Close() error
	// CloseRead shuts down the read direction, unblocking a pending Read.
	CloseRead() error
}

// Reader owns the read half of a service connection. Closing it shuts
// down the read direction of the shared transport, which unblocks any
// goroutine blocked in ReadMessage.
type Reader struct {
	conn Transport
}

// Writer owns the write half of a service connection. It may be shared by
// multiple goroutines: every frame goes out in a single write call under
// the writer's lock, so concurrent senders never interleave frame bytes.
type Writer struct {
	mu   sync.Mutex
	conn Transport
}

// Connect opens the unix-socket session for the named service. The socket
// path comes from the "[name]" section's UNIXPATH key in cfg. Both
// returned halves reference the same socket.
func Connect(cfg *config.Cfg, name string) (*Reader, *Writer, error) {
	path, err := cfg.Filename(name, "UNIXPATH")
	if err != nil {
		return nil, nil, fmt.Errorf("%w for service %q: %v", ErrNotConfigured, name, err)
	}
	conn, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, nil, fmt.Errorf("service: connect %q: %w", name, err)
	}
	r, w := NewPair(conn)
	return r, w, nil
}

// NewPair splits an established transport into its read and write halves.
func NewPair(conn Transport) (*Reader, *Writer) {
	return &Reader{conn: conn}, &Writer{conn: conn}
}

// ReadMessage blocks until one complete frame arrives and returns its
// message type and a cursor over the payload.
func (r *Reader) ReadMessage() (uint16, *bytes.Reader, error) {
	return wire.ReadFrame(r.conn)
}

// Close shuts down the read direction of the transport.
func (r *Reader) Close() error {
	return r.conn.CloseRead()
}

// NewMessage starts an outgoing frame with the given message type and
// declared total length. Call Send on the result to transmit it.
func (w *Writer) NewMessage(msgType uint16, length uint16) *MessageWriter {
	return &MessageWriter{writer: w, builder: wire.NewMessage(msgType, length)}
}

// Close closes the underlying transport entirely.
func (w *Writer) Close() error {
	return w.conn.Close()
}

// MessageWriter accumulates one outgoing frame for a Writer. It buffers
// the header and payload, then Send transmits the whole frame atomically.
type MessageWriter struct {
	writer  *Writer
	builder *wire.MessageBuilder
}

// Write appends raw payload bytes.
func (m *MessageWriter) Write(p []byte) (int, error) {
	return m.builder.Write(p)
}

// WriteUint16 appends a big-endian u16.
func (m *MessageWriter) WriteUint16(v uint16) { m.builder.WriteUint16(v) }

// WriteUint32 appends a big-endian u32.
func (m *MessageWriter) WriteUint32(v uint32) { m.builder.WriteUint32(v) }

// WriteUint64 appends a big-endian u64.
func (m *MessageWriter) WriteUint64(v uint64) { m.builder.WriteUint64(v) }

// WriteInt16 appends a big-endian i16.
func (m *MessageWriter) WriteInt16(v int16) { m.builder.WriteInt16(v) }

// WriteInt32 appends a big-endian i32.
func (m *MessageWriter) WriteInt32(v int32) { m.builder.WriteInt32(v) }

// WriteCString appends a NUL-terminated string.
func (m *MessageWriter) WriteCString(s string) { m.builder.WriteCString(s) }

// Send transmits the completed frame in a single write under the writer's
// lock. Panics if the buffered bytes do not match the declared length;
// that is a bug in the calling service code.
func (m *MessageWriter) Send() error {
	frame := m.builder.Bytes()
	m.writer.mu.Lock()
	defer m.writer.mu.Unlock()
	if _, err := m.writer.conn.Write(frame); err != nil {
		return fmt.Errorf("service: send frame: %w", err)
	}
	return nil
}
