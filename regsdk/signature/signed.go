package signature

import (
	"github.com/fxamacker/cbor/v2"
)

// Signature is a public key and a signature it produced over some context
// and message.
type Signature struct {
	PublicKey PublicKey    `cbor:"1,keyasint" json:"public_key"`
	Signature RawSignature `cbor:"2,keyasint" json:"signature"`
}

// Sign produces a Signature over the given context and message.
func Sign(signer Signer, context Context, message []byte) (*Signature, error) {
	rawSig, err := signer.ContextSign(context, message)
	if err != nil {
		return nil, err
	}

	return &Signature{PublicKey: signer.Public(), Signature: rawSig}, nil
}

// Verify checks the signature over the given context and message.
func (s *Signature) Verify(context Context, message []byte) bool {
	return s.PublicKey.Verify(context, message, s.Signature)
}

// Signed is a CBOR blob together with the signature covering it.
type Signed struct {
	Blob      []byte    `cbor:"1,keyasint" json:"untrusted_raw_value"`
	Signature Signature `cbor:"2,keyasint" json:"signature"`
}

// SignSigned serializes src to CBOR and wraps it in a Signed envelope.
func SignSigned(signer Signer, context Context, src any) (*Signed, error) {
	blob, err := cbor.Marshal(src)
	if err != nil {
		return nil, err
	}

	sig, err := Sign(signer, context, blob)
	if err != nil {
		return nil, err
	}

	return &Signed{Blob: blob, Signature: *sig}, nil
}

// Open verifies the envelope's signature under the given context and, on
// success, deserializes the blob into dst.
func (s *Signed) Open(context Context, dst any) error {
	if !s.Signature.Verify(context, s.Blob) {
		return ErrInvalidSignature
	}

	return cbor.Unmarshal(s.Blob, dst)
}
