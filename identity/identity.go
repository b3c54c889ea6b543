// Package identity is the client for the identity service, which manages
// the user's egos (named public/private key pairs).
package identity

import (
	"errors"
	"fmt"

	"github.com/danmuck/gnunet/config"
	"github.com/danmuck/gnunet/crypto"
	"github.com/danmuck/gnunet/service"
	"github.com/danmuck/gnunet/wire"
)

const (
	msgTypeStart      uint16 = 624
	msgTypeResultCode uint16 = 625
	msgTypeUpdate     uint16 = 626
	msgTypeGetDefault uint16 = 627
	msgTypeSetDefault uint16 = 628
)

var (
	// ErrInvalidResponse reports an incoherent reply from the service.
	ErrInvalidResponse = errors.New("identity: incoherent response from service")
)

// UnexpectedMessageTypeError reports a message type that does not belong
// in the current exchange.
type UnexpectedMessageTypeError struct {
	Type uint16
}

func (e *UnexpectedMessageTypeError) Error() string {
	return fmt.Sprintf("identity: unexpected message type %d from service", e.Type)
}

// NameTooLongError reports a service name too long for the request
// frame.
type NameTooLongError struct {
	Name string
}

func (e *NameTooLongError) Error() string {
	return fmt.Sprintf("identity: name %q is too long", e.Name)
}

// ServiceResponseError carries an error message the service itself
// returned.
type ServiceResponseError struct {
	Code    uint32
	Message string
}

func (e *ServiceResponseError) Error() string {
	return fmt.Sprintf("identity: service error %d: %q", e.Code, e.Message)
}

// Ego is one identity: a key pair, its name, and the hash of the public
// key the service indexes it by.
type Ego struct {
	key  crypto.EcdsaPrivateKey
	name string
	id   crypto.HashCode
}

// AnonymousEgo returns the global anonymous ego. Its name is empty.
func AnonymousEgo() Ego {
	key := crypto.AnonymousPrivateKey()
	pub := key.Public()
	return Ego{key: key, id: pub.Hash()}
}

// PublicKey returns the ego's public key.
func (e *Ego) PublicKey() crypto.EcdsaPublicKey {
	return e.key.Public()
}

// PrivateKey returns the ego's private key.
func (e *Ego) PrivateKey() crypto.EcdsaPrivateKey {
	return e.key
}

// Name returns the ego's name; empty for the anonymous ego.
func (e *Ego) Name() string {
	return e.name
}

// ID returns the hash of the ego's public key.
func (e *Ego) ID() crypto.HashCode {
	return e.id
}

func (e Ego) String() string {
	name := e.name
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("%s (%s)", name, e.id)
}

// Service is a handle to the identity service. The initial exchange
// snapshots every known ego; the connection then serves queries
// synchronously.
type Service struct {
	reader *service.Reader
	writer *service.Writer
	egos   map[crypto.HashCode]Ego
}

// Connect opens a session with the identity service and reads the
// initial ego list.
func Connect(cfg *config.Cfg) (*Service, error) {
	reader, writer, err := service.Connect(cfg, "identity")
	if err != nil {
		return nil, err
	}
	svc, err := start(reader, writer)
	if err != nil {
		writer.Close()
		return nil, err
	}
	return svc, nil
}

func start(reader *service.Reader, writer *service.Writer) (*Service, error) {
	if err := writer.NewMessage(msgTypeStart, wire.HeaderLen).Send(); err != nil {
		return nil, err
	}

	egos := make(map[crypto.HashCode]Ego)
	for {
		msgType, payload, err := reader.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("identity: read ego list: %w", err)
		}
		if msgType != msgTypeUpdate {
			return nil, &UnexpectedMessageTypeError{Type: msgType}
		}
		if _, err := wire.ReadUint16(payload); err != nil { // name length
			return nil, fmt.Errorf("identity: read ego update: %w", err)
		}
		eol, err := wire.ReadUint16(payload)
		if err != nil {
			return nil, fmt.Errorf("identity: read ego update: %w", err)
		}
		if eol != 0 {
			break
		}
		key, err := crypto.DeserializeEcdsaPrivateKey(payload)
		if err != nil {
			return nil, fmt.Errorf("identity: read ego key: %w", err)
		}
		name, err := wire.ReadCString(payload)
		if err != nil {
			return nil, fmt.Errorf("identity: read ego name: %w", err)
		}
		pub := key.Public()
		id := pub.Hash()
		egos[id] = Ego{key: key, name: name, id: id}
	}
	return &Service{reader: reader, writer: writer, egos: egos}, nil
}

// Egos returns the snapshot of egos taken at connect time, keyed by the
// hash of their public keys.
func (s *Service) Egos() map[crypto.HashCode]Ego {
	return s.egos
}

// GetDefaultEgo asks which ego is the default for the named subsystem
// (e.g. "gns-master").
func (s *Service) GetDefaultEgo(name string) (Ego, error) {
	length := 8 + len(name) + 1
	if length > 0xffff {
		return Ego{}, &NameTooLongError{Name: name}
	}

	msg := s.writer.NewMessage(msgTypeGetDefault, uint16(length))
	msg.WriteUint16(uint16(len(name) + 1))
	msg.WriteUint16(0)
	msg.WriteCString(name)
	if err := msg.Send(); err != nil {
		return Ego{}, err
	}

	msgType, payload, err := s.reader.ReadMessage()
	if err != nil {
		return Ego{}, fmt.Errorf("identity: read reply: %w", err)
	}
	switch msgType {
	case msgTypeResultCode:
		code, err := wire.ReadUint32(payload)
		if err != nil {
			return Ego{}, fmt.Errorf("identity: read result code: %w", err)
		}
		message, err := wire.ReadCString(payload)
		if err != nil {
			return Ego{}, fmt.Errorf("identity: read error message: %w", err)
		}
		return Ego{}, &ServiceResponseError{Code: code, Message: message}

	case msgTypeSetDefault:
		replyNameLen, err := wire.ReadUint16(payload)
		if err != nil {
			return Ego{}, fmt.Errorf("identity: read reply: %w", err)
		}
		if replyNameLen == 0 {
			return Ego{}, ErrInvalidResponse
		}
		zero, err := wire.ReadUint16(payload)
		if err != nil {
			return Ego{}, fmt.Errorf("identity: read reply: %w", err)
		}
		if zero != 0 {
			return Ego{}, ErrInvalidResponse
		}
		key, err := crypto.DeserializeEcdsaPrivateKey(payload)
		if err != nil {
			return Ego{}, fmt.Errorf("identity: read reply key: %w", err)
		}
		replyName, err := wire.ReadCStringWithLen(payload, int(replyNameLen)-1)
		if err != nil {
			return Ego{}, fmt.Errorf("identity: read reply name: %w", err)
		}
		if replyName != name {
			return Ego{}, ErrInvalidResponse
		}
		pub := key.Public()
		ego, ok := s.egos[pub.Hash()]
		if !ok {
			return Ego{}, ErrInvalidResponse
		}
		return ego, nil

	default:
		return Ego{}, &UnexpectedMessageTypeError{Type: msgType}
	}
}

// Close tears down the session.
func (s *Service) Close() error {
	return s.writer.Close()
}

// GetDefaultEgo connects, queries the default ego for the named
// subsystem, and disconnects.
func GetDefaultEgo(cfg *config.Cfg, name string) (Ego, error) {
	svc, err := Connect(cfg)
	if err != nil {
		return Ego{}, err
	}
	defer svc.Close()
	return svc.GetDefaultEgo(name)
}
