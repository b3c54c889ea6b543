package gns

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/gnunet/crypto"
	"github.com/danmuck/gnunet/internal/testutil"
	"github.com/danmuck/gnunet/internal/testutil/testlog"
	"github.com/danmuck/gnunet/service"
)

func testClient(t *testing.T) (*Client, *testutil.Daemon) {
	t.Helper()
	conn, daemonConn := testutil.ServicePair()
	reader, writer := service.NewPair(conn)
	client := newClient(reader, writer)
	t.Cleanup(func() { client.Close() })
	return client, testutil.NewDaemon(t, daemonConn)
}

func recordBytes(t RecordType, data []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint64(12345))
	binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	binary.Write(&buf, binary.BigEndian, uint32(t))
	binary.Write(&buf, binary.BigEndian, uint32(0))
	buf.Write(data)
	return buf.Bytes()
}

func resultBytes(id uint32, records ...[]byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, id)
	binary.Write(&buf, binary.BigEndian, uint32(len(records)))
	for _, rec := range records {
		buf.Write(rec)
	}
	return buf.Bytes()
}

// readLookup consumes one lookup request and returns its id and name.
func readLookup(t *testing.T, daemon *testutil.Daemon) (uint32, string) {
	t.Helper()
	payload := daemon.Expect(500)
	var id uint32
	if err := binary.Read(payload, binary.BigEndian, &id); err != nil {
		t.Fatalf("read lookup id: %v", err)
	}
	rest := make([]byte, payload.Len())
	payload.Read(rest)
	// zone (32) + options (2) + shorten flag (2) + type (4) + shorten key
	// (32), then the NUL-terminated name.
	if len(rest) < 72+1 {
		t.Fatalf("lookup payload too short: %d", len(rest))
	}
	name := rest[72:]
	if name[len(name)-1] != 0 {
		t.Fatalf("lookup name not NUL-terminated")
	}
	return id, string(name[:len(name)-1])
}

func TestLookupDeliversRecord(t *testing.T) {
	testlog.Start(t)
	client, daemon := testClient(t)

	go func() {
		id, name := readLookup(t, daemon)
		if name != "www.gnu" {
			t.Errorf("lookup name = %q", name)
		}
		daemon.Send(501, resultBytes(id, recordBytes(A, []byte{192, 0, 2, 1})))
	}()

	var zone crypto.EcdsaPublicKey
	handle, err := client.Lookup("www.gnu", zone, A, OptionsDefault, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	rec, err := handle.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if rec.Type != A {
		t.Fatalf("record type = %v", rec.Type)
	}
	if rec.String() != "A: 192.0.2.1" {
		t.Fatalf("record = %q", rec.String())
	}
}

func TestLookupCorrelatesConcurrentRequests(t *testing.T) {
	testlog.Start(t)
	client, daemon := testClient(t)

	replies := make(chan struct{})
	go func() {
		idA, _ := readLookup(t, daemon)
		idB, _ := readLookup(t, daemon)
		// Answer in reverse order; each handle must still get its own
		// result.
		daemon.Send(501, resultBytes(idB, recordBytes(TXT, []byte("second"))))
		daemon.Send(501, resultBytes(idA, recordBytes(TXT, []byte("first"))))
		close(replies)
	}()

	var zone crypto.EcdsaPublicKey
	ha, err := client.Lookup("first.gnu", zone, TXT, OptionsDefault, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	hb, err := client.Lookup("second.gnu", zone, TXT, OptionsDefault, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	<-replies

	recA, err := ha.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	recB, err := hb.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(recA.Data) != "first" || string(recB.Data) != "second" {
		t.Fatalf("misdelivered: a=%q b=%q", recA.Data, recB.Data)
	}
}

func TestLookupMultipleRecordsPerResult(t *testing.T) {
	testlog.Start(t)
	client, daemon := testClient(t)

	go func() {
		id, _ := readLookup(t, daemon)
		daemon.Send(501, resultBytes(id,
			recordBytes(TXT, []byte("one")),
			recordBytes(TXT, []byte("two")),
		))
	}()

	var zone crypto.EcdsaPublicKey
	handle, err := client.Lookup("multi.gnu", zone, TXT, OptionsDefault, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	for _, want := range []string{"one", "two"} {
		rec, err := handle.Recv()
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if string(rec.Data) != want {
			t.Fatalf("record data = %q, want %q", rec.Data, want)
		}
	}
}

func TestLookupNameTooLong(t *testing.T) {
	testlog.Start(t)
	client, _ := testClient(t)

	long := make([]byte, maxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	var zone crypto.EcdsaPublicKey
	var tooLong *NameTooLongError
	if _, err := client.Lookup(string(long), zone, A, OptionsDefault, nil); !errors.As(err, &tooLong) {
		t.Fatalf("Lookup: %v", err)
	}
}

func TestLookupConnectionLost(t *testing.T) {
	testlog.Start(t)
	client, daemon := testClient(t)

	go func() {
		readLookup(t, daemon)
		daemon.Close()
	}()

	var zone crypto.EcdsaPublicKey
	handle, err := client.Lookup("gone.gnu", zone, A, OptionsDefault, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := handle.Recv(); !errors.Is(err, ErrConnectionLost) {
			t.Errorf("Recv after hangup: %v", err)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Recv did not observe the hangup")
	}
}

func TestParseRecordType(t *testing.T) {
	rt, err := ParseRecordType("AAAA")
	if err != nil || rt != AAAA {
		t.Fatalf("ParseRecordType = %v, %v", rt, err)
	}
	var unknown *UnknownRecordTypeError
	if _, err := ParseRecordType("BOGUS"); !errors.As(err, &unknown) {
		t.Fatalf("ParseRecordType: %v", err)
	}
}

func TestRecordString(t *testing.T) {
	rec := Record{Type: AAAA, Data: bytes.Repeat([]byte{0}, 15)}
	rec.Data = append(rec.Data, 1)
	if got := rec.String(); got != "AAAA: ::1" {
		t.Fatalf("AAAA record = %q", got)
	}
	rec = Record{Type: TXT, Data: []byte("hello")}
	if got := rec.String(); got != "TXT: hello" {
		t.Fatalf("TXT record = %q", got)
	}
}
