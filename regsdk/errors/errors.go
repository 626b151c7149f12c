// Package errors implements the coded error registry shared by all protocol
// modules. Every protocol-level failure condition is a (module, code) pair
// registered exactly once; codes are part of the wire contract and must never
// be renumbered or reused for a different condition.
package errors

import (
	"errors"
	"fmt"
	"sync"
)

// UnknownModule is the module name reported for errors that carry no code.
const UnknownModule = "unknown"

// CodeNoError is reserved for "no error" and can never be registered.
const CodeNoError = uint32(0)

type codedError struct {
	module string
	code   uint32
	msg    string
}

func (e *codedError) Error() string {
	return e.msg
}

var (
	registryMu sync.RWMutex
	registered = make(map[string]*codedError)
)

func key(module string, code uint32) string {
	return fmt.Sprintf("%s-%d", module, code)
}

// New registers a new error with the given module, code and message and
// returns it. Codes are assigned once per module; registering the same
// (module, code) twice, or code zero, panics at init time.
func New(module string, code uint32, msg string) error {
	if code == CodeNoError {
		panic(fmt.Sprintf("errors: code 0 is reserved (module: %s)", module))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	k := key(module, code)
	if _, ok := registered[k]; ok {
		panic(fmt.Sprintf("errors: already registered: %s", k))
	}

	e := &codedError{module: module, code: code, msg: msg}
	registered[k] = e

	return e
}

// Code returns the module and code of the given error, unwrapping as needed.
// Errors that were not created by New report (UnknownModule, 0).
func Code(err error) (string, uint32) {
	var ce *codedError
	if !errors.As(err, &ce) {
		return UnknownModule, CodeNoError
	}

	return ce.module, ce.code
}

// FromCode returns the registered error for the given module and code, or nil
// if no such error has been registered.
func FromCode(module string, code uint32) error {
	registryMu.RLock()
	defer registryMu.RUnlock()

	e, ok := registered[key(module, code)]
	if !ok {
		return nil
	}

	return e
}
