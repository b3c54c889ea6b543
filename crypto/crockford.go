// Package crypto holds the data types GNUnet protocols put on the wire:
// SHA-512 hash codes, 256-bit ECDSA keys, peer identities, and the
// Crockford base32 text encoding the daemons print them in.
package crypto

import (
	"errors"
	"fmt"
	"strings"
)

const encodeChars = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// ErrCrockfordTrailingBits reports nonzero bits past the logical end of
// the decoded data.
var ErrCrockfordTrailingBits = errors.New("crypto: trailing bits in crockford encoding")

// CrockfordSizeError reports an encoded string whose length does not
// correspond to the target buffer.
type CrockfordSizeError struct {
	EncodedLen int
	TargetLen  int
}

func (e *CrockfordSizeError) Error() string {
	return fmt.Sprintf("crypto: %d chars of crockford data do not decode into %d bytes",
		e.EncodedLen, e.TargetLen)
}

// CrockfordCharError reports a character outside the Crockford alphabet.
type CrockfordCharError struct {
	Char rune
}

func (e *CrockfordCharError) Error() string {
	return fmt.Sprintf("crypto: invalid crockford base32 character %q", e.Char)
}

// CrockfordEncode encodes buf as Crockford base32, the textual form
// GNUnet uses for hashes and keys.
func CrockfordEncode(buf []byte) string {
	var out strings.Builder
	out.Grow((len(buf)*8 + 4) / 5)
	shift := 3
	var next byte
	for _, b := range buf {
		for shift >= 0 {
			next |= (b >> shift) & 0x1f
			out.WriteByte(encodeChars[next])
			next = 0
			shift -= 5
		}
		next |= (b << uint(-shift)) & 0x1f
		shift += 8
	}
	if shift > 3 {
		out.WriteByte(encodeChars[next])
	}
	return out.String()
}

// crockfordDigit folds the permissive input alphabet: O reads as 0,
// I and L as 1, U as V.
func crockfordDigit(c rune) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return byte(c - '0'), true
	case c == 'O' || c == 'o':
		return 0, true
	case c == 'I' || c == 'i' || c == 'L' || c == 'l':
		return 1, true
	case c == 'U' || c == 'u':
		return 27, true
	case c >= 'a' && c <= 'z':
		c -= 'a' - 'A'
		fallthrough
	case c >= 'A' && c <= 'Z':
		idx := strings.IndexByte(encodeChars, byte(c))
		if idx < 0 {
			return 0, false
		}
		return byte(idx), true
	default:
		return 0, false
	}
}

// CrockfordDecode decodes enc into dec, which must be exactly the
// decoded size implied by len(enc).
func CrockfordDecode(enc string, dec []byte) error {
	if len(enc)*5/8 != len(dec) {
		return &CrockfordSizeError{EncodedLen: len(enc), TargetLen: len(dec)}
	}
	for i := range dec {
		dec[i] = 0
	}
	shift := 3
	dp := 0
	for _, c := range enc {
		d, ok := crockfordDigit(c)
		if !ok {
			return &CrockfordCharError{Char: c}
		}
		if shift < 0 {
			dec[dp] |= d >> uint(-shift)
			dp++
			shift += 8
			if dp == len(dec) {
				if d<<uint(shift) != 0 {
					return ErrCrockfordTrailingBits
				}
				return nil
			}
		}
		dec[dp] |= d << uint(shift)
		shift -= 5
	}
	return nil
}
