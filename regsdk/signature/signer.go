package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
)

const (
	// PublicKeySize is the size of a public key in bytes.
	PublicKeySize = ed25519.PublicKeySize

	// SignatureSize is the size of a raw signature in bytes.
	SignatureSize = ed25519.SignatureSize
)

var (
	ErrMalformedPublicKey = errors.New("signature: malformed public key")
	ErrInvalidSignature   = errors.New("signature: verification failed")
)

// PublicKey is an ed25519 public key.
type PublicKey [PublicKeySize]byte

// RawSignature is an ed25519 signature over a prepared signer message.
type RawSignature [SignatureSize]byte

// Equal reports whether two public keys are the same key.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk == other
}

// Verify checks the signature over the given context and message.
func (pk PublicKey) Verify(context Context, message []byte, sig RawSignature) bool {
	return ed25519.Verify(pk[:], PrepareSignerMessage(context, message), sig[:])
}

// Signer signs prepared messages under a fixed key pair.
type Signer interface {
	// Public returns the signer's public key.
	Public() PublicKey

	// ContextSign signs the message bound to the given context.
	ContextSign(context Context, message []byte) (RawSignature, error)
}

// MemorySigner is an in-memory ed25519 signer. Keys live in process memory
// only, so it is suitable for tests and ephemeral identities, not for
// long-lived validator keys.
type MemorySigner struct {
	privateKey ed25519.PrivateKey
}

// NewMemorySigner generates a new signer from the given entropy source.
// A nil source falls back to crypto/rand.
func NewMemorySigner(rng io.Reader) (*MemorySigner, error) {
	if rng == nil {
		rng = rand.Reader
	}

	_, priv, err := ed25519.GenerateKey(rng)
	if err != nil {
		return nil, err
	}

	return &MemorySigner{privateKey: priv}, nil
}

func (s *MemorySigner) Public() PublicKey {
	var pk PublicKey
	copy(pk[:], s.privateKey.Public().(ed25519.PublicKey))

	return pk
}

func (s *MemorySigner) ContextSign(context Context, message []byte) (RawSignature, error) {
	var sig RawSignature
	copy(sig[:], ed25519.Sign(s.privateKey, PrepareSignerMessage(context, message)))

	return sig, nil
}
