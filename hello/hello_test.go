package hello

import (
	"bytes"
	"testing"

	"github.com/danmuck/gnunet/crypto"
)

func TestDeserialize(t *testing.T) {
	var id crypto.PeerIdentity
	id[0] = 0xaa
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 1})
	buf.Write(id[:])

	h, err := Deserialize(&buf)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !h.FriendOnly {
		t.Fatal("friend-only flag lost")
	}
	if h.ID != id {
		t.Fatalf("id = %v", h.ID)
	}
}

func TestDeserializeShort(t *testing.T) {
	if _, err := Deserialize(bytes.NewReader([]byte{0, 0})); err == nil {
		t.Fatal("short hello should fail")
	}
}
