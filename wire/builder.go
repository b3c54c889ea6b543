package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MessageBuilder accumulates one outgoing frame. It is created with the
// frame's declared total length up front; Bytes panics if the buffered
// bytes do not match that declaration, since a mismatch is a bug in the
// calling service code, not a runtime fault.
type MessageBuilder struct {
	length uint16
	buf    bytes.Buffer
}

// NewMessage starts a frame with the given message type and declared total
// length (header included, so length >= 4). Panics on a declared length
// below the header size.
func NewMessage(msgType uint16, length uint16) *MessageBuilder {
	if length < HeaderLen {
		panic(fmt.Sprintf("wire: declared message length %d below header size", length))
	}
	b := &MessageBuilder{length: length}
	b.buf.Grow(int(length))
	var head [HeaderLen]byte
	binary.BigEndian.PutUint16(head[0:2], length)
	binary.BigEndian.PutUint16(head[2:4], msgType)
	b.buf.Write(head[:])
	return b
}

// Write appends raw payload bytes. It never fails; the error return
// satisfies io.Writer.
func (b *MessageBuilder) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

// WriteUint16 appends a big-endian u16.
func (b *MessageBuilder) WriteUint16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	b.buf.Write(buf[:])
}

// WriteUint32 appends a big-endian u32.
func (b *MessageBuilder) WriteUint32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	b.buf.Write(buf[:])
}

// WriteUint64 appends a big-endian u64.
func (b *MessageBuilder) WriteUint64(v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	b.buf.Write(buf[:])
}

// WriteInt16 appends a big-endian i16.
func (b *MessageBuilder) WriteInt16(v int16) {
	b.WriteUint16(uint16(v))
}

// WriteInt32 appends a big-endian i32.
func (b *MessageBuilder) WriteInt32(v int32) {
	b.WriteUint32(uint32(v))
}

// WriteCString appends s followed by a NUL terminator.
func (b *MessageBuilder) WriteCString(s string) {
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
}

// Bytes returns the completed frame. Panics if the buffered size differs
// from the declared length.
func (b *MessageBuilder) Bytes() []byte {
	if b.buf.Len() != int(b.length) {
		panic(fmt.Sprintf("wire: message declared %d bytes but buffered %d", b.length, b.buf.Len()))
	}
	return b.buf.Bytes()
}
