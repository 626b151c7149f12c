// Package transaction defines the transaction envelope submitted to the
// consensus layer and the gas accounting vocabulary used to meter it.
package transaction

import (
	"crypto/sha256"
	"errors"

	"github.com/fxamacker/cbor/v2"

	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
)

// SignatureContext is the signature context used for signing transactions.
var SignatureContext = signature.NewContext("oasis-core/consensus: tx")

var (
	ErrEmptyMethod     = errors.New("transaction: empty method")
	ErrMalformedMethod = errors.New("transaction: malformed method")
	ErrInvalidNonce    = errors.New("transaction: invalid nonce")
)

// Transaction is an unsigned consensus transaction.
type Transaction struct {
	// Nonce orders the signer's transactions and prevents replay.
	Nonce uint64 `cbor:"1,keyasint" json:"nonce"`
	// Fee is the optional fee offered for processing.
	Fee *Fee `cbor:"2,keyasint,omitempty" json:"fee,omitempty"`

	Method MethodName      `cbor:"3,keyasint" json:"method"`
	Body   cbor.RawMessage `cbor:"4,keyasint,omitempty" json:"body,omitempty"`
}

// NewTransaction builds a transaction for the given method, serializing the
// body to CBOR.
func NewTransaction(nonce uint64, fee *Fee, method MethodName, body any) (*Transaction, error) {
	var (
		rawBody cbor.RawMessage
		err     error
	)

	if body != nil {
		rawBody, err = cbor.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	return &Transaction{
		Nonce:  nonce,
		Fee:    fee,
		Method: method,
		Body:   rawBody,
	}, nil
}

// SanityCheck performs basic structural validation.
func (t *Transaction) SanityCheck() error {
	return t.Method.SanityCheck()
}

// Hash returns the hash of the CBOR-serialized transaction.
func (t *Transaction) Hash() ([32]byte, error) {
	raw, err := cbor.Marshal(t)
	if err != nil {
		return [32]byte{}, err
	}

	return sha256.Sum256(raw), nil
}

// SignedTransaction is a transaction together with the signature covering it.
type SignedTransaction struct {
	signature.Signed
}

// Hash returns the hash of the signed envelope.
func (st *SignedTransaction) Hash() ([32]byte, error) {
	raw, err := cbor.Marshal(st.Signed)
	if err != nil {
		return [32]byte{}, err
	}

	return sha256.Sum256(raw), nil
}

// Marshal serializes the signed transaction to CBOR.
func (st SignedTransaction) Marshal() ([]byte, error) {
	return cbor.Marshal(st.Signed)
}

// Unmarshal deserializes the signed transaction from CBOR.
func (st *SignedTransaction) Unmarshal(data []byte) error {
	return cbor.Unmarshal(data, &st.Signed)
}

// Open verifies the transaction signature and deserializes the transaction.
func (st *SignedTransaction) Open(tx *Transaction) error {
	return st.Signed.Open(SignatureContext, tx)
}

// Sign signs the transaction under the transaction signature context.
func Sign(signer signature.Signer, tx *Transaction) (*SignedTransaction, error) {
	if err := tx.SanityCheck(); err != nil {
		return nil, err
	}

	signed, err := signature.SignSigned(signer, SignatureContext, tx)
	if err != nil {
		return nil, err
	}

	return &SignedTransaction{Signed: *signed}, nil
}
