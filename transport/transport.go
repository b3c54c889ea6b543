// Package transport is the client for the transport service. It only
// implements the initial exchange, which yields this node's own HELLO.
package transport

import (
	"fmt"

	"github.com/danmuck/gnunet/config"
	"github.com/danmuck/gnunet/crypto"
	"github.com/danmuck/gnunet/hello"
	"github.com/danmuck/gnunet/service"
	"github.com/danmuck/gnunet/wire"
)

const (
	msgTypeStart uint16 = 360
	msgTypeHello uint16 = 17
)

// NonHelloMessageError reports that the service opened with something
// other than a HELLO.
type NonHelloMessageError struct {
	Type uint16
}

func (e *NonHelloMessageError) Error() string {
	return fmt.Sprintf("transport: expected a HELLO from the service, got message type %d", e.Type)
}

// SelfHello connects to the transport service and returns this node's
// own HELLO, the first message the service sends after START.
func SelfHello(cfg *config.Cfg) (hello.Hello, error) {
	reader, writer, err := service.Connect(cfg, "transport")
	if err != nil {
		return hello.Hello{}, err
	}
	defer writer.Close()
	return startExchange(reader, writer)
}

func startExchange(reader *service.Reader, writer *service.Writer) (hello.Hello, error) {
	msg := writer.NewMessage(msgTypeStart, wire.HeaderLen+4+crypto.KeyLen)
	msg.WriteUint32(0)
	msg.Write(make([]byte, crypto.KeyLen))
	if err := msg.Send(); err != nil {
		return hello.Hello{}, err
	}

	msgType, payload, err := reader.ReadMessage()
	if err != nil {
		return hello.Hello{}, fmt.Errorf("transport: read hello: %w", err)
	}
	if msgType != msgTypeHello {
		return hello.Hello{}, &NonHelloMessageError{Type: msgType}
	}
	return hello.Deserialize(payload)
}
