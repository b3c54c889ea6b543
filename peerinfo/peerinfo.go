// Package peerinfo is the client for the peerinfo service, which tracks
// the peers this node knows about.
package peerinfo

import (
	"errors"
	"fmt"

	"github.com/danmuck/gnunet/config"
	"github.com/danmuck/gnunet/crypto"
	"github.com/danmuck/gnunet/service"
	"github.com/danmuck/gnunet/transport"
	"github.com/danmuck/gnunet/wire"
)

const (
	msgTypeGetAll  uint16 = 331
	msgTypeInfo    uint16 = 332
	msgTypeInfoEnd uint16 = 333
)

// ErrInvalidResponse reports an incoherent reply from the service.
var ErrInvalidResponse = errors.New("peerinfo: incoherent response from service")

// UnexpectedMessageTypeError reports a message type that does not belong
// in the listing exchange.
type UnexpectedMessageTypeError struct {
	Type uint16
}

func (e *UnexpectedMessageTypeError) Error() string {
	return fmt.Sprintf("peerinfo: unexpected message type %d from service", e.Type)
}

// IteratePeers asks the peerinfo service for every known peer and
// returns an iterator over the replies.
func IteratePeers(cfg *config.Cfg) (*Peers, error) {
	reader, writer, err := service.Connect(cfg, "peerinfo")
	if err != nil {
		return nil, err
	}
	it, err := listAll(reader, writer)
	if err != nil {
		writer.Close()
		return nil, err
	}
	return it, nil
}

func listAll(reader *service.Reader, writer *service.Writer) (*Peers, error) {
	msg := writer.NewMessage(msgTypeGetAll, wire.HeaderLen+4)
	msg.WriteUint32(0)
	if err := msg.Send(); err != nil {
		return nil, err
	}
	return &Peers{reader: reader, writer: writer}, nil
}

// Peers iterates over a peer listing. Usage follows the scanner
// pattern: Next, Identity, then Err once Next returns false.
type Peers struct {
	reader  *service.Reader
	writer  *service.Writer
	current crypto.PeerIdentity
	err     error
	done    bool
}

// Next advances to the next peer. It returns false at the end of the
// listing or on error; Err distinguishes the two.
func (p *Peers) Next() bool {
	if p.done || p.err != nil {
		return false
	}
	msgType, payload, err := p.reader.ReadMessage()
	if err != nil {
		p.err = fmt.Errorf("peerinfo: read listing: %w", err)
		return false
	}
	switch msgType {
	case msgTypeInfo:
		reserved, err := wire.ReadUint32(payload)
		if err != nil {
			p.err = fmt.Errorf("peerinfo: read info: %w", err)
			return false
		}
		if reserved != 0 {
			p.err = ErrInvalidResponse
			return false
		}
		id, err := crypto.DeserializePeerIdentity(payload)
		if err != nil {
			p.err = fmt.Errorf("peerinfo: read peer identity: %w", err)
			return false
		}
		p.current = id
		return true
	case msgTypeInfoEnd:
		p.done = true
		return false
	default:
		p.err = &UnexpectedMessageTypeError{Type: msgType}
		return false
	}
}

// Identity returns the peer Next advanced to.
func (p *Peers) Identity() crypto.PeerIdentity {
	return p.current
}

// Err returns the error that stopped iteration, if any.
func (p *Peers) Err() error {
	return p.err
}

// Close tears down the connection. The iterator is unusable afterwards.
func (p *Peers) Close() error {
	return p.writer.Close()
}

// SelfID returns this node's own peer identity, learned from the
// transport service.
func SelfID(cfg *config.Cfg) (crypto.PeerIdentity, error) {
	h, err := transport.SelfHello(cfg)
	if err != nil {
		return crypto.PeerIdentity{}, err
	}
	return h.ID, nil
}
