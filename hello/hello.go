// Package hello decodes HELLO messages, the daemons' advertisement of a
// peer's identity and reachability.
package hello

import (
	"fmt"
	"io"

	"github.com/danmuck/gnunet/crypto"
	"github.com/danmuck/gnunet/wire"
)

// Hello is a peer advertisement.
type Hello struct {
	// FriendOnly marks the peer as friend-to-friend only; such hellos
	// must not be gossiped onward.
	FriendOnly bool

	// ID identifies the advertised peer.
	ID crypto.PeerIdentity
}

// Deserialize reads a hello payload: a u32 friend-only flag followed by
// the peer identity.
func Deserialize(r io.Reader) (Hello, error) {
	friendOnly, err := wire.ReadUint32(r)
	if err != nil {
		return Hello{}, fmt.Errorf("hello: read friend-only flag: %w", err)
	}
	id, err := crypto.DeserializePeerIdentity(r)
	if err != nil {
		return Hello{}, fmt.Errorf("hello: read peer identity: %w", err)
	}
	return Hello{FriendOnly: friendOnly != 0, ID: id}, nil
}

func (h Hello) String() string {
	return fmt.Sprintf("hello from %s", h.ID)
}
