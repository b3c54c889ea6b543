package peerinfo

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

func infoBytes(reserved uint32, id crypto.PeerIdentity) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, reserved)
	buf.Write(id[:])
	return buf.Bytes()
}

func testPeer(fill byte) crypto.PeerIdentity {
	var p crypto.PeerIdentity
	for i := range p {
		p[i] = fill
	}
	return p
}

func startListing(t *testing.T) (*Peers, *testutil.Daemon) {
	t.Helper()
	conn, daemonConn := testutil.ServicePair()
	daemon := testutil.NewDaemon(t, daemonConn)
	reader, writer := service.NewPair(conn)

	started := make(chan *Peers, 1)
	go func() {
		it, err := listAll(reader, writer)
		if err != nil {
			t.Errorf("listAll: %v", err)
			started <- nil
			return
		}
		started <- it
	}()

	payload := daemon.Expect(msgTypeGetAll)
	var reserved uint32
	binary.Read(payload, binary.BigEndian, &reserved)
	if reserved != 0 {
		t.Fatalf("request reserved field = %d", reserved)
	}
	it := <-started
	if it == nil {
		t.FailNow()
	}
	t.Cleanup(func() { it.Close() })
	return it, daemon
}

func TestIterateListsAllPeers(t *testing.T) {
	testlog.Start(t)
	it, daemon := startListing(t)

	want := []crypto.PeerIdentity{testPeer(1), testPeer(2), testPeer(3)}
	go func() {
		for _, id := range want {
			daemon.Send(msgTypeInfo, infoBytes(0, id))
		}
		daemon.Send(msgTypeInfoEnd, nil)
	}()

	var got []crypto.PeerIdentity
	for it.Next() {
		got = append(got, it.Identity())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("listed %d peers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("peer %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestIterateEmptyListing(t *testing.T) {
	testlog.Start(t)
	it, daemon := startListing(t)

	go daemon.Send(msgTypeInfoEnd, nil)

	if it.Next() {
		t.Fatal("Next on empty listing")
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
}

func TestIterateRejectsNonzeroReserved(t *testing.T) {
	testlog.Start(t)
	it, daemon := startListing(t)

	go daemon.Send(msgTypeInfo, infoBytes(1, testPeer(1)))

	if it.Next() {
		t.Fatal("Next should fail on malformed info")
	}
	if !errors.Is(it.Err(), ErrInvalidResponse) {
		t.Fatalf("Err: %v", it.Err())
	}
}

func TestIterateRejectsUnexpectedType(t *testing.T) {
	testlog.Start(t)
	it, daemon := startListing(t)

	go daemon.Send(999, nil)

	if it.Next() {
		t.Fatal("Next should fail on unexpected message type")
	}
	var unexpected *UnexpectedMessageTypeError
	if !errors.As(it.Err(), &unexpected) {
		t.Fatalf("Err: %v", it.Err())
	}
}

func TestIterateReportsHangup(t *testing.T) {
	testlog.Start(t)
	it, daemon := startListing(t)

	go func() {
		daemon.Send(msgTypeInfo, infoBytes(0, testPeer(5)))
		daemon.Close()
	}()

	if !it.Next() {
		t.Fatalf("first Next failed: %v", it.Err())
	}
	if it.Next() {
		t.Fatal("Next after hangup")
	}
	if it.Err() == nil {
		t.Fatal("hangup should surface as an error, not end-of-listing")
	}
}
