package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/danmuck/gnunet/internal/testutil"
	"github.com/danmuck/gnunet/internal/testutil/testlog"
)

func waitDone(t *testing.T, loop *ReadLoop) {
	t.Helper()
	select {
	case <-loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop did not exit")
	}
}

func TestLoopDeliversFrames(t *testing.T) {
	testlog.Start(t)
	client, daemonConn := testutil.ServicePair()
	daemon := testutil.NewDaemon(t, daemonConn)
	reader, _ := NewPair(client)

	type frame struct {
		msgType uint16
		payload []byte
	}
	frames := make(chan frame, 4)
	loop := reader.SpawnHandlerLoop(func(msgType uint16, payload *bytes.Reader) LoopResult {
		body := make([]byte, payload.Len())
		payload.Read(body)
		frames <- frame{msgType: msgType, payload: body}
		return LoopContinue
	})
	defer loop.Close()

	daemon.Send(42, []byte{0xde, 0xad})
	daemon.Send(43, nil)

	got := <-frames
	if got.msgType != 42 || !bytes.Equal(got.payload, []byte{0xde, 0xad}) {
		t.Fatalf("first frame = %d %x", got.msgType, got.payload)
	}
	got = <-frames
	if got.msgType != 43 || len(got.payload) != 0 {
		t.Fatalf("second frame = %d %x", got.msgType, got.payload)
	}
}

func TestLoopExitsOnClose(t *testing.T) {
	testlog.Start(t)
	client, _ := testutil.ServicePair()
	reader, _ := NewPair(client)

	loop := reader.SpawnHandlerLoop(func(uint16, *bytes.Reader) LoopResult {
		return LoopContinue
	})
	if err := loop.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	waitDone(t, loop)
}

func TestLoopExitsOnHangup(t *testing.T) {
	testlog.Start(t)
	client, daemonConn := testutil.ServicePair()
	reader, _ := NewPair(client)

	loop := reader.SpawnHandlerLoop(func(uint16, *bytes.Reader) LoopResult {
		return LoopContinue
	})
	daemonConn.Close()
	waitDone(t, loop)
}

func TestLoopExitsOnHandlerRequest(t *testing.T) {
	testlog.Start(t)
	client, daemonConn := testutil.ServicePair()
	daemon := testutil.NewDaemon(t, daemonConn)
	reader, _ := NewPair(client)

	loop := reader.SpawnHandlerLoop(func(uint16, *bytes.Reader) LoopResult {
		return LoopShutdown
	})
	go daemon.Send(7, nil)
	waitDone(t, loop)
}

func TestWriterSendsWholeFrame(t *testing.T) {
	testlog.Start(t)
	client, daemonConn := testutil.ServicePair()
	daemon := testutil.NewDaemon(t, daemonConn)
	_, writer := NewPair(client)

	errc := make(chan error, 1)
	go func() {
		msg := writer.NewMessage(500, 12)
		msg.WriteUint32(1)
		msg.WriteUint32(2)
		errc <- msg.Send()
	}()

	payload := daemon.Expect(500)
	if payload.Len() != 8 {
		t.Fatalf("payload length = %d", payload.Len())
	}
	if err := <-errc; err != nil {
		t.Fatalf("Send: %v", err)
	}
}
