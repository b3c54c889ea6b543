// Package wire implements the framing shared by every GNUnet IPC protocol.
//
// Every message on a service socket is a 4-byte header followed by the
// payload:
//
//	offset 0: u16 total length, big-endian, header included
//	offset 2: u16 message type
//	offset 4: payload
//
// The message type is an opaque tag; its interpretation belongs to the
// individual service, not this package.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// HeaderLen is the size of the frame header. A frame declaring a total
// length below this is malformed, not an empty message.
const HeaderLen = 4

var (
	// ErrDisconnected reports that the stream ended mid-frame. It is kept
	// distinct from other I/O errors because it usually means the remote
	// service closed the connection cleanly.
	ErrDisconnected = errors.New("wire: service disconnected")

	// ErrNoTerminator reports a fixed-length string missing its trailing NUL.
	ErrNoTerminator = errors.New("wire: string not NUL-terminated")
)

// ShortMessageError reports a frame whose declared total length is below
// the 4-byte header minimum.
type ShortMessageError struct {
	Len uint16
}

func (e *ShortMessageError) Error() string {
	return fmt.Sprintf("wire: message too short: declared length %d", e.Len)
}

// InvalidStringError reports an embedded string that is not valid UTF-8.
type InvalidStringError struct {
	Raw []byte
}

func (e *InvalidStringError) Error() string {
	return fmt.Sprintf("wire: string contains invalid utf-8: %q", e.Raw)
}

// InteriorNulError reports a NUL byte inside a fixed-length string.
type InteriorNulError struct {
	Pos int
}

func (e *InteriorNulError) Error() string {
	return fmt.Sprintf("wire: interior NUL byte at position %d", e.Pos)
}

// ReadFrame reads one frame from r and returns its message type and a
// cursor over the payload.
func ReadFrame(r io.Reader) (uint16, *bytes.Reader, error) {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, nil, mapEOF(err)
	}
	length := binary.BigEndian.Uint16(head[:])
	if length < HeaderLen {
		return 0, nil, &ShortMessageError{Len: length}
	}
	rest := make([]byte, length-2)
	if _, err := io.ReadFull(r, rest); err != nil {
		return 0, nil, mapEOF(err)
	}
	msgType := binary.BigEndian.Uint16(rest[:2])
	return msgType, bytes.NewReader(rest[2:]), nil
}

func mapEOF(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrDisconnected
	}
	return err
}

// ReadUint16 reads a big-endian u16, mapping end-of-stream to
// ErrDisconnected.
func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, mapEOF(err)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// ReadUint32 reads a big-endian u32, mapping end-of-stream to
// ErrDisconnected.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, mapEOF(err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadUint64 reads a big-endian u64, mapping end-of-stream to
// ErrDisconnected.
func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, mapEOF(err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// ReadExact reads exactly n bytes, mapping end-of-stream to
// ErrDisconnected.
func ReadExact(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, mapEOF(err)
	}
	return buf, nil
}

// ReadCString reads bytes up to and including a NUL terminator and returns
// the string before it.
func ReadCString(r io.Reader) (string, error) {
	var v []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", mapEOF(err)
		}
		if b[0] == 0 {
			break
		}
		v = append(v, b[0])
	}
	if !utf8.Valid(v) {
		return "", &InvalidStringError{Raw: v}
	}
	return string(v), nil
}

// ReadCStringWithLen reads a string of exactly n bytes followed by its NUL
// terminator. Interior NULs and a missing terminator are protocol errors.
func ReadCStringWithLen(r io.Reader, n int) (string, error) {
	v, err := ReadExact(r, n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(v, 0); i >= 0 {
		return "", &InteriorNulError{Pos: i}
	}
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return "", mapEOF(err)
	}
	if b[0] != 0 {
		return "", ErrNoTerminator
	}
	if !utf8.Valid(v) {
		return "", &InvalidStringError{Raw: v}
	}
	return string(v), nil
}
