package gns

import (
	"encoding/hex"
	"fmt"
	"io"
	"net"

	"github.com/danmuck/gnunet/crypto"
	"github.com/danmuck/gnunet/wire"
)

// RecordType numbers a GNS record type. The values below 65536 are
// legacy DNS types reused by GNS; the rest are GNS-specific.
type RecordType uint32

const (
	// A stores a 32-bit IPv4 address.
	A RecordType = 1
	// NS delegates a DNS zone to authoritative name servers.
	NS RecordType = 2
	// CNAME aliases one name to another.
	CNAME RecordType = 5
	// SOA carries authoritative information about a DNS zone.
	SOA RecordType = 6
	// PTR points to a canonical name.
	PTR RecordType = 12
	// MX maps a domain to its mail transfer agents.
	MX RecordType = 15
	// TXT stores free-form text data.
	TXT RecordType = 16
	// AAAA stores a 128-bit IPv6 address.
	AAAA RecordType = 28
	// TLSA is a DANE certificate association.
	TLSA RecordType = 52

	// PKEY delegates to another user's zone under a petname.
	PKEY RecordType = 65536
	// NICK gives a zone a name.
	NICK RecordType = 65537
	// LEHO is a legacy hostname record.
	LEHO RecordType = 65538
	// VPN is a virtual public network record.
	VPN RecordType = 65539
	// GNS2DNS delegates authority to a legacy DNS zone.
	GNS2DNS RecordType = 65540
)

var recordTypeNames = map[RecordType]string{
	A:       "A",
	NS:      "NS",
	CNAME:   "CNAME",
	SOA:     "SOA",
	PTR:     "PTR",
	MX:      "MX",
	TXT:     "TXT",
	AAAA:    "AAAA",
	TLSA:    "TLSA",
	PKEY:    "PKEY",
	NICK:    "NICK",
	LEHO:    "LEHO",
	VPN:     "VPN",
	GNS2DNS: "GNS2DNS",
}

func (t RecordType) String() string {
	if name, ok := recordTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("RecordType(%d)", uint32(t))
}

// UnknownRecordTypeError reports a record type name outside the known
// vocabulary.
type UnknownRecordTypeError struct {
	Name string
}

func (e *UnknownRecordTypeError) Error() string {
	return fmt.Sprintf("gns: unknown record type %q", e.Name)
}

// ParseRecordType parses the textual names accepted on the command line
// ("A", "AAAA", "PKEY", ...).
func ParseRecordType(s string) (RecordType, error) {
	for t, name := range recordTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, &UnknownRecordTypeError{Name: s}
}

// Record is one resource record from a lookup result.
type Record struct {
	// ExpirationTime is the absolute expiry in microseconds since the
	// epoch, as the service reports it.
	ExpirationTime uint64
	Type           RecordType
	Flags          uint32
	Data           []byte
}

// DeserializeRecord reads one record: u64 expiration, u32 data size,
// u32 type, u32 flags, then the data bytes.
func DeserializeRecord(r io.Reader) (Record, error) {
	expiration, err := wire.ReadUint64(r)
	if err != nil {
		return Record{}, fmt.Errorf("gns: read record expiration: %w", err)
	}
	dataSize, err := wire.ReadUint32(r)
	if err != nil {
		return Record{}, fmt.Errorf("gns: read record data size: %w", err)
	}
	recordType, err := wire.ReadUint32(r)
	if err != nil {
		return Record{}, fmt.Errorf("gns: read record type: %w", err)
	}
	flags, err := wire.ReadUint32(r)
	if err != nil {
		return Record{}, fmt.Errorf("gns: read record flags: %w", err)
	}
	data, err := wire.ReadExact(r, int(dataSize))
	if err != nil {
		return Record{}, fmt.Errorf("gns: read record data: %w", err)
	}
	return Record{
		ExpirationTime: expiration,
		Type:           RecordType(recordType),
		Flags:          flags,
		Data:           data,
	}, nil
}

// String renders the record the way the gnunet-gns tool prints it: the
// type name and a best-effort decoding of the value.
func (rec Record) String() string {
	return fmt.Sprintf("%s: %s", rec.Type, rec.value())
}

func (rec Record) value() string {
	switch rec.Type {
	case A:
		if len(rec.Data) == net.IPv4len {
			return net.IP(rec.Data).String()
		}
	case AAAA:
		if len(rec.Data) == net.IPv6len {
			return net.IP(rec.Data).String()
		}
	case PKEY:
		if len(rec.Data) == crypto.KeyLen {
			return crypto.CrockfordEncode(rec.Data)
		}
	case CNAME, PTR, NS, TXT, NICK, LEHO, GNS2DNS:
		return string(rec.Data)
	}
	return hex.EncodeToString(rec.Data)
}
