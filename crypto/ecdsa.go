package crypto

import (
	"crypto/ed25519"
	"io"
)

// KeyLen is the size of a serialized key or peer identity in bytes.
const KeyLen = 32

// EcdsaPublicKey is a 256-bit public key as the daemons serialize it:
// the 32-byte compressed curve point.
type EcdsaPublicKey [KeyLen]byte

// Serialize writes the raw key bytes.
func (k *EcdsaPublicKey) Serialize(w io.Writer) error {
	_, err := w.Write(k[:])
	return err
}

// DeserializeEcdsaPublicKey reads the raw key bytes.
func DeserializeEcdsaPublicKey(r io.Reader) (EcdsaPublicKey, error) {
	var k EcdsaPublicKey
	if _, err := io.ReadFull(r, k[:]); err != nil {
		return EcdsaPublicKey{}, err
	}
	return k, nil
}

// Hash computes the hash of the serialized key, the form identity
// services index egos by.
func (k *EcdsaPublicKey) Hash() HashCode {
	return Sum(k[:])
}

// String renders the key in Crockford base32, 52 characters.
func (k EcdsaPublicKey) String() string {
	return CrockfordEncode(k[:])
}

// ParseEcdsaPublicKey decodes the Crockford base32 form produced by
// String.
func ParseEcdsaPublicKey(s string) (EcdsaPublicKey, error) {
	var k EcdsaPublicKey
	if err := CrockfordDecode(s, k[:]); err != nil {
		return EcdsaPublicKey{}, err
	}
	return k, nil
}

// EcdsaPrivateKey is a 256-bit private scalar.
type EcdsaPrivateKey [KeyLen]byte

// Serialize writes the raw scalar bytes.
func (k *EcdsaPrivateKey) Serialize(w io.Writer) error {
	_, err := w.Write(k[:])
	return err
}

// DeserializeEcdsaPrivateKey reads the raw scalar bytes.
func DeserializeEcdsaPrivateKey(r io.Reader) (EcdsaPrivateKey, error) {
	var k EcdsaPrivateKey
	if _, err := io.ReadFull(r, k[:]); err != nil {
		return EcdsaPrivateKey{}, err
	}
	return k, nil
}

// Public derives the public key for this scalar.
func (k *EcdsaPrivateKey) Public() EcdsaPublicKey {
	priv := ed25519.NewKeyFromSeed(k[:])
	var pub EcdsaPublicKey
	copy(pub[:], priv[KeyLen:])
	return pub
}

// AnonymousPrivateKey returns the fixed key of the global anonymous
// user: the scalar with value one.
func AnonymousPrivateKey() EcdsaPrivateKey {
	var k EcdsaPrivateKey
	k[0] = 1
	return k
}

// PeerIdentity names a peer: the public signing key of its transport.
type PeerIdentity [KeyLen]byte

// Serialize writes the raw identity bytes.
func (p *PeerIdentity) Serialize(w io.Writer) error {
	_, err := w.Write(p[:])
	return err
}

// DeserializePeerIdentity reads the raw identity bytes.
func DeserializePeerIdentity(r io.Reader) (PeerIdentity, error) {
	var p PeerIdentity
	if _, err := io.ReadFull(r, p[:]); err != nil {
		return PeerIdentity{}, err
	}
	return p, nil
}

// Hash computes the hash of the identity, the form routing tables key
// peers by.
func (p *PeerIdentity) Hash() HashCode {
	return Sum(p[:])
}

// String renders the identity in Crockford base32.
func (p PeerIdentity) String() string {
	return CrockfordEncode(p[:])
}

// ParsePeerIdentity decodes the Crockford base32 form produced by
// String.
func ParsePeerIdentity(s string) (PeerIdentity, error) {
	var p PeerIdentity
	if err := CrockfordDecode(s, p[:]); err != nil {
		return PeerIdentity{}, err
	}
	return p, nil
}
