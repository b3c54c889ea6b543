package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/danmuck/gnunet/crypto"
	"github.com/danmuck/gnunet/internal/testutil"
	"github.com/danmuck/gnunet/internal/testutil/testlog"
	"github.com/danmuck/gnunet/service"
)

func helloBytes(friendOnly uint32, id crypto.PeerIdentity) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, friendOnly)
	buf.Write(id[:])
	return buf.Bytes()
}

func TestStartExchangeReturnsOwnHello(t *testing.T) {
	testlog.Start(t)
	conn, daemonConn := testutil.ServicePair()
	daemon := testutil.NewDaemon(t, daemonConn)
	reader, writer := service.NewPair(conn)

	var id crypto.PeerIdentity
	id[0] = 0x42

	go func() {
		payload := daemon.Expect(msgTypeStart)
		// u32 options plus an all-zero peer identity.
		if payload.Len() != 4+crypto.KeyLen {
			t.Errorf("start payload length = %d", payload.Len())
		}
		daemon.Send(msgTypeHello, helloBytes(1, id))
	}()

	h, err := startExchange(reader, writer)
	if err != nil {
		t.Fatalf("startExchange: %v", err)
	}
	if h.ID != id {
		t.Fatalf("hello id = %v", h.ID)
	}
	if !h.FriendOnly {
		t.Fatal("friend-only flag lost")
	}
}

func TestStartExchangeRejectsNonHello(t *testing.T) {
	testlog.Start(t)
	conn, daemonConn := testutil.ServicePair()
	daemon := testutil.NewDaemon(t, daemonConn)
	reader, writer := service.NewPair(conn)

	go func() {
		daemon.Expect(msgTypeStart)
		daemon.Send(999, nil)
	}()

	var nonHello *NonHelloMessageError
	if _, err := startExchange(reader, writer); !errors.As(err, &nonHello) {
		t.Fatalf("startExchange: %v", err)
	}
}
