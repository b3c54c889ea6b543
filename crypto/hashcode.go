package crypto

import (
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"
)

// HashCodeLen is the size of a HashCode in bytes.
const HashCodeLen = 64

// HashCode is the 512-bit hash GNUnet identifies content and peers by.
// Word-based operations (Distance, XorCmp, Add, Sub) treat the bytes as
// sixteen little-endian u32 words, matching the daemons' in-memory
// layout.
type HashCode [HashCodeLen]byte

// Sum computes the SHA-512 hash of buf.
func Sum(buf []byte) HashCode {
	return HashCode(sha512.Sum512(buf))
}

func (h *HashCode) word(i int) uint32 {
	return binary.LittleEndian.Uint32(h[i*4:])
}

func (h *HashCode) setWord(i int, v uint32) {
	binary.LittleEndian.PutUint32(h[i*4:], v)
}

// Bit returns the idx'th bit. Panics if idx >= 512.
func (h *HashCode) Bit(idx uint) bool {
	if idx >= 512 {
		panic("crypto: hashcode bit index out of range")
	}
	return h[idx>>3]&(1<<(idx&7)) != 0
}

// Distance estimates how far apart two hashes are in the daemons'
// routing metric. Only the second word participates.
func (h *HashCode) Distance(other *HashCode) uint32 {
	a, b := h.word(1), other.word(1)
	x1 := (a - b) >> 16
	x2 := (b - a) >> 16
	return x1 * x2
}

// MatchingPrefixLen counts the leading bits two hashes share; identical
// hashes return 512.
func (h *HashCode) MatchingPrefixLen(other *HashCode) uint {
	for i := uint(0); i < 512; i++ {
		if h.Bit(i) != other.Bit(i) {
			return i
		}
	}
	return 512
}

// XorCmp orders h0 and h1 by their XOR distance from h (the Kademlia
// metric): -1 when h0 is closer, 1 when h1 is, 0 when equidistant.
// The comparison runs from the most significant word down.
func (h *HashCode) XorCmp(h0, h1 *HashCode) int {
	for i := 15; i >= 0; i-- {
		d0 := h0.word(i) ^ h.word(i)
		d1 := h1.word(i) ^ h.word(i)
		switch {
		case d0 < d1:
			return -1
		case d0 > d1:
			return 1
		}
	}
	return 0
}

// Xor returns the word-wise XOR of two hashes.
func (h *HashCode) Xor(other *HashCode) HashCode {
	var out HashCode
	for i := 0; i < 16; i++ {
		out.setWord(i, h.word(i)^other.word(i))
	}
	return out
}

// Add returns the word-wise wrapping sum of two hashes.
func (h *HashCode) Add(other *HashCode) HashCode {
	var out HashCode
	for i := 0; i < 16; i++ {
		out.setWord(i, h.word(i)+other.word(i))
	}
	return out
}

// Sub returns the word-wise wrapping difference of two hashes.
func (h *HashCode) Sub(other *HashCode) HashCode {
	var out HashCode
	for i := 0; i < 16; i++ {
		out.setWord(i, h.word(i)-other.word(i))
	}
	return out
}

// String renders the hash in Crockford base32, 103 characters.
func (h HashCode) String() string {
	return CrockfordEncode(h[:])
}

// ParseHashCode decodes the Crockford base32 form produced by String.
func ParseHashCode(s string) (HashCode, error) {
	var h HashCode
	if err := CrockfordDecode(s, h[:]); err != nil {
		return HashCode{}, fmt.Errorf("crypto: parse hashcode: %w", err)
	}
	return h, nil
}

// Serialize writes the raw 64 bytes.
func (h *HashCode) Serialize(w io.Writer) error {
	_, err := w.Write(h[:])
	return err
}

// DeserializeHashCode reads the raw 64 bytes.
func DeserializeHashCode(r io.Reader) (HashCode, error) {
	var h HashCode
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return HashCode{}, err
	}
	return h, nil
}
