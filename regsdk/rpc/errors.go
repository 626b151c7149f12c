package rpc

import "errors"

var (
	ErrMethodNotFound        = errors.New("method not found")
	ErrRequiresExactly1Param = errors.New("method requires exactly 1 parameter")
	ErrParamMustBeString     = errors.New("parameter must be a string")
	ErrInvalidIDFormat       = errors.New("invalid identifier format")
	ErrInvalidTransaction    = errors.New("invalid transaction envelope")
	ErrMethodMismatch        = errors.New("transaction method does not match endpoint")
	ErrInsufficientGas       = errors.New("transaction fee gas below operation cost")
)

// JSON-RPC 2.0 reserved error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)
