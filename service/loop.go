package service

import (
	"bytes"

	"github.com/rs/zerolog/log"
)

// LoopResult tells the dispatch loop what to do after a handler call.
type LoopResult int

const (
	// LoopContinue keeps the loop reading.
	LoopContinue LoopResult = iota
	// LoopReconnect exits the loop. No reconnection is attempted; the
	// signal is kept distinct from LoopShutdown so retry logic can be
	// added behind it without changing handler code.
	LoopReconnect
	// LoopShutdown exits the loop cleanly.
	LoopShutdown
)

// MessageHandler processes one inbound frame. It runs on the loop
// goroutine, so it must not block on the connection it serves.
type MessageHandler func(msgType uint16, payload *bytes.Reader) LoopResult

// ReadLoop is the background goroutine spawned by SpawnHandlerLoop. It
// holds its own reference to the transport solely so Close can shut down
// the read direction: a read error is the only way to interrupt the
// loop's blocking read, so the goroutine is never leaked past the loop's
// lifetime.
type ReadLoop struct {
	conn Transport
	done chan struct{}
}

// SpawnHandlerLoop moves the Reader into a background goroutine that
// decodes frames and hands each to handler. A read error (disconnect,
// malformed frame) exits the loop the same way LoopReconnect does.
func (r *Reader) SpawnHandlerLoop(handler MessageHandler) *ReadLoop {
	loop := &ReadLoop{conn: r.conn, done: make(chan struct{})}
	go func() {
		defer close(loop.done)
		for {
			msgType, payload, err := r.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("dispatch loop read failed, exiting")
				return
			}
			switch handler(msgType, payload) {
			case LoopContinue:
			case LoopReconnect:
				log.Debug().Uint16("type", msgType).Msg("handler requested reconnect, exiting loop")
				return
			case LoopShutdown:
				return
			}
		}
	}()
	return loop
}

// Done is closed once the loop goroutine has exited.
func (l *ReadLoop) Done() <-chan struct{} {
	return l.done
}

// Close forces the loop to exit by shutting down the transport's read
// direction, then waits for the goroutine to finish.
func (l *ReadLoop) Close() error {
	err := l.conn.CloseRead()
	<-l.done
	return err
}
