// Package gns is the client for the GNU Name System resolver service.
package gns

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/gnunet/config"
	"github.com/danmuck/gnunet/crypto"
	"github.com/danmuck/gnunet/identity"
	"github.com/danmuck/gnunet/service"
	"github.com/danmuck/gnunet/wire"
)

const (
	msgTypeLookup       uint16 = 500
	msgTypeLookupResult uint16 = 501

	// maxNameLength is the longest name the resolver accepts.
	maxNameLength = 253
)

// LocalOptions controls how far a lookup may travel.
type LocalOptions int16

const (
	// OptionsDefault looks in the local cache, then in the DHT.
	OptionsDefault LocalOptions = 0
	// OptionsNoDHT keeps the request to the local cache.
	OptionsNoDHT LocalOptions = 1
	// OptionsLocalMaster answers domains under the master zone from the
	// cache only; everything else may go to the DHT.
	OptionsLocalMaster LocalOptions = 2
)

// ErrConnectionLost reports that the service connection died before a
// (further) result arrived.
var ErrConnectionLost = errors.New("gns: connection to service lost")

// NameTooLongError reports a name exceeding the resolver's limit.
type NameTooLongError struct {
	Name string
}

func (e *NameTooLongError) Error() string {
	return fmt.Sprintf("gns: name %q is too long to look up", e.Name)
}

// Client is a handle to the GNS resolver service. It may issue many
// concurrent lookups over its one connection.
type Client struct {
	writer *service.Writer
	loop   *service.ReadLoop
	reg    *service.Registry[Record]
}

// Connect opens a session with the GNS service named in cfg.
func Connect(cfg *config.Cfg) (*Client, error) {
	reader, writer, err := service.Connect(cfg, "gns")
	if err != nil {
		return nil, err
	}
	return newClient(reader, writer), nil
}

func newClient(reader *service.Reader, writer *service.Writer) *Client {
	reg := service.NewRegistry[Record](0)
	loop := reader.SpawnHandlerLoop(func(msgType uint16, payload *bytes.Reader) service.LoopResult {
		reg.Drain()
		if msgType != msgTypeLookupResult {
			log.Debug().Uint16("type", msgType).Msg("gns: unexpected message type")
			return service.LoopReconnect
		}
		id, err := wire.ReadUint32(payload)
		if err != nil {
			return service.LoopReconnect
		}
		count, err := wire.ReadUint32(payload)
		if err != nil {
			return service.LoopReconnect
		}
		for i := uint32(0); i < count; i++ {
			rec, err := DeserializeRecord(payload)
			if err != nil {
				log.Debug().Err(err).Msg("gns: malformed record in result")
				return service.LoopReconnect
			}
			reg.Deliver(id, rec)
		}
		return service.LoopContinue
	})
	// Pending lookups observe a dead connection as their handle closing.
	go func() {
		<-loop.Done()
		reg.Close()
	}()
	return &Client{writer: writer, loop: loop, reg: reg}
}

// Lookup resolves name in the given zone and returns immediately with a
// handle the results arrive on. A non-nil shorten key asks the service
// to add the result to that shorten zone.
func (c *Client) Lookup(name string, zone crypto.EcdsaPublicKey, recordType RecordType,
	options LocalOptions, shorten *crypto.EcdsaPrivateKey) (*LookupHandle, error) {

	if len(name) > maxNameLength {
		return nil, &NameTooLongError{Name: name}
	}

	// The registration must be queued before the request frame leaves,
	// otherwise the reply could arrive for an id nobody listens on yet.
	id, handle := c.reg.Issue()

	msg := c.writer.NewMessage(msgTypeLookup, uint16(80+len(name)+1))
	msg.WriteUint32(id)
	msg.Write(zone[:])
	msg.WriteInt16(int16(options))
	if shorten != nil {
		msg.WriteInt16(1)
	} else {
		msg.WriteInt16(0)
	}
	msg.WriteInt32(int32(recordType))
	if shorten != nil {
		msg.Write(shorten[:])
	} else {
		msg.Write(make([]byte, crypto.KeyLen))
	}
	msg.WriteCString(name)
	if err := msg.Send(); err != nil {
		return nil, err
	}
	return &LookupHandle{h: handle}, nil
}

// Close tears down the session. Outstanding handles report
// ErrConnectionLost.
func (c *Client) Close() error {
	err := c.loop.Close()
	if cerr := c.writer.Close(); err == nil {
		err = cerr
	}
	return err
}

// LookupHandle receives the results of one lookup. Recv may be called
// repeatedly; lookups can yield multiple records.
type LookupHandle struct {
	h *service.Handle[Record]
}

// Recv blocks until the next record arrives.
func (h *LookupHandle) Recv() (Record, error) {
	rec, ok := h.h.Recv()
	if !ok {
		return Record{}, ErrConnectionLost
	}
	return rec, nil
}

// Lookup connects, resolves one record in the given zone, and
// disconnects. Programs doing many lookups should hold a Client instead.
func Lookup(cfg *config.Cfg, name string, zone crypto.EcdsaPublicKey, recordType RecordType,
	options LocalOptions, shorten *crypto.EcdsaPrivateKey) (Record, error) {

	client, err := Connect(cfg)
	if err != nil {
		return Record{}, err
	}
	defer client.Close()
	handle, err := client.Lookup(name, zone, recordType, options, shorten)
	if err != nil {
		return Record{}, err
	}
	return handle.Recv()
}

// LookupInMaster resolves one record in the default master zone,
// fetching the gns-master ego from the identity service first. Names
// directly under "gnu" stay local; everything else may hit the DHT.
func LookupInMaster(cfg *config.Cfg, name string, recordType RecordType,
	shorten *crypto.EcdsaPrivateKey) (Record, error) {

	ego, err := identity.GetDefaultEgo(cfg, "gns-master")
	if err != nil {
		return Record{}, fmt.Errorf("gns: fetch gns-master ego: %w", err)
	}
	options := OptionsLocalMaster
	if labels := strings.Split(name, "."); len(labels) == 2 && labels[1] == "gnu" {
		options = OptionsNoDHT
	}
	return Lookup(cfg, name, ego.PublicKey(), recordType, options, shorten)
}
