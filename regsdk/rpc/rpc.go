// Package rpc exposes the registry method table over JSON-RPC 2.0 and
// provides the matching HTTP client. Transaction methods verify the signed
// envelope, run the registry argument checks and apply accepted
// registrations to the local registry view.
package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	sdkerrors "github.com/0xAtelerix/registry-sdk/regsdk/errors"
	"github.com/0xAtelerix/registry-sdk/regsdk/registry"
	"github.com/0xAtelerix/registry-sdk/regsdk/submitqueue"
)

// DefaultPort is the default JSON-RPC listen port.
const DefaultPort = "8546"

// NewServer creates a registry JSON-RPC server over the given registry state
// database and submission queue.
func NewServer(registryDB kv.RwDB, queue *submitqueue.Queue) *Server {
	return &Server{
		registryDB:    registryDB,
		queue:         queue,
		logger:        &log.Logger,
		customMethods: make(map[string]func(context.Context, []any) (any, error)),
	}
}

// WithLogger overrides the server logger.
func (s *Server) WithLogger(logger *zerolog.Logger) *Server {
	s.logger = logger

	return s
}

// SetEpoch updates the epoch used for expiry and unfreeze checks.
func (s *Server) SetEpoch(epoch uint64) {
	s.epoch.Store(epoch)
}

// CurrentEpoch returns the epoch used for expiry and unfreeze checks.
func (s *Server) CurrentEpoch() uint64 {
	return s.epoch.Load()
}

// AddCustomMethod registers an additional JSON-RPC method.
func (s *Server) AddCustomMethod(
	method string,
	handler func(context.Context, []any) (any, error),
) {
	s.customMethods[method] = handler
}

// StartHTTPServer starts the HTTP JSON-RPC server on the given port.
func (s *Server) StartHTTPServer(port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", s.handleRPC)

	port = strings.TrimPrefix(port, ":")
	if port == "" {
		port = DefaultPort
	}

	s.logger.Info().
		Str("addr", ":"+port).
		Strs("methods", methodNames()).
		Msg("Starting registry RPC server")

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

func methodNames() []string {
	names := make([]string, 0, len(registry.Methods))
	for _, m := range registry.Methods {
		names = append(names, string(m))
	}

	return names
}

// handleRPC handles a single JSON-RPC request.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorCode(w, codeParseError, "Parse error", req.ID)

		return
	}

	if req.JSONRPC != "2.0" {
		s.writeErrorCode(w, codeInvalidRequest, "Invalid Request", req.ID)

		return
	}

	result, err := s.handleMethod(r.Context(), req.Method, req.Params)
	if err != nil {
		s.writeError(w, err, req.ID)

		return
	}

	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      req.ID,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// handleMethod routes a method call to its handler.
func (s *Server) handleMethod(ctx context.Context, method string, params []any) (any, error) {
	switch method {
	case string(registry.MethodRegisterEntity):
		return s.registerEntity(ctx, params)
	case string(registry.MethodDeregisterEntity):
		return s.deregisterEntity(ctx, params)
	case string(registry.MethodRegisterNode):
		return s.registerNode(ctx, params)
	case string(registry.MethodUnfreezeNode):
		return s.unfreezeNode(ctx, params)
	case string(registry.MethodRegisterRuntime):
		return s.registerRuntime(ctx, params)
	case "sendTransaction":
		return s.sendTransaction(ctx, params)
	case "getPendingTransactions":
		return s.getPendingTransactions(ctx, params)
	case "getEntity":
		return s.getEntity(ctx, params)
	case "getNode":
		return s.getNode(ctx, params)
	case "getNodeStatus":
		return s.getNodeStatus(ctx, params)
	case "getRuntime":
		return s.getRuntime(ctx, params)
	case "getEpoch":
		return s.CurrentEpoch(), nil
	default:
		if handler, exists := s.customMethods[method]; exists {
			return handler(ctx, params)
		}

		return nil, ErrMethodNotFound
	}
}

// writeError maps protocol errors onto the JSON-RPC error object, carrying
// the module error-code pair when one is attached.
func (s *Server) writeError(w http.ResponseWriter, err error, id any) {
	module, code := sdkerrors.Code(err)

	rpcErr := &Error{
		Code:    codeInternalError,
		Message: err.Error(),
	}

	if errors.Is(err, ErrMethodNotFound) {
		rpcErr.Code = codeMethodNotFound
	}

	if module != sdkerrors.UnknownModule {
		rpcErr.Code = int(code)
		rpcErr.Module = module
	}

	s.writeRPCError(w, rpcErr, id)
}

func (s *Server) writeErrorCode(w http.ResponseWriter, code int, message string, id any) {
	s.writeRPCError(w, &Error{Code: code, Message: message}, id)
}

func (s *Server) writeRPCError(w http.ResponseWriter, rpcErr *Error, id any) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error:   rpcErr,
		ID:      id,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode error response")
	}
}
