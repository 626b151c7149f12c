package rpc

import (
	"context"
	"sync/atomic"

	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/rs/zerolog"

	"github.com/0xAtelerix/registry-sdk/regsdk/submitqueue"
)

// JSONRPCRequest is a standard JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      any    `json:"id"`
}

// JSONRPCResponse is a standard JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id"`
}

// Error is a JSON-RPC error. Module and Code carry the protocol error
// registry coordinates when the failure maps to a registered condition.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Module  string `json:"module,omitempty"`
}

// Server serves the registry method table over JSON-RPC and applies accepted
// registrations to the local registry view.
type Server struct {
	registryDB    kv.RwDB
	queue         *submitqueue.Queue
	logger        *zerolog.Logger
	epoch         atomic.Uint64
	customMethods map[string]func(context.Context, []any) (any, error)
}
