// Package signature provides domain-separated signing primitives.
//
// Every signed payload is bound to a Context string that identifies the
// purpose of the signature. The context is mixed into the message digest
// before signing, so a signature produced for one context can never verify
// under another. Context strings are part of the wire contract and must
// match other implementations of the protocol byte for byte.
package signature

import (
	"crypto/sha512"
	"fmt"
	"sync"
)

// MaxContextLength is the maximum length of a signature context in bytes.
const MaxContextLength = 64

// Context is a domain-separation tag for signed payloads.
type Context string

var (
	contextsMu sync.Mutex
	contexts   = make(map[Context]struct{})
)

// NewContext creates and registers a new signature context. Registering the
// same context string twice panics: each signing domain must have exactly one
// owner. Aliases of an existing domain reuse the returned Context value
// instead of registering a second one.
func NewContext(rawContext string) Context {
	if len(rawContext) == 0 || len(rawContext) > MaxContextLength {
		panic(fmt.Sprintf("signature: malformed context: '%s'", rawContext))
	}

	ctx := Context(rawContext)

	contextsMu.Lock()
	defer contextsMu.Unlock()

	if _, ok := contexts[ctx]; ok {
		panic(fmt.Sprintf("signature: context already registered: '%s'", rawContext))
	}

	contexts[ctx] = struct{}{}

	return ctx
}

// PrepareSignerMessage returns the digest that is actually signed: the
// SHA-512/256 hash of the context concatenated with the message.
func PrepareSignerMessage(context Context, message []byte) []byte {
	h := sha512.New512_256()
	_, _ = h.Write([]byte(context))
	_, _ = h.Write(message)

	return h.Sum(nil)
}
