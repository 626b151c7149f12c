package rpc

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	sdkerrors "github.com/0xAtelerix/registry-sdk/regsdk/errors"
	"github.com/0xAtelerix/registry-sdk/regsdk/registry"
	"github.com/0xAtelerix/registry-sdk/regsdk/transaction"
)

// Client is an HTTP JSON-RPC client for the registry method table. It is
// safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	nextID     atomic.Uint64
}

// NewClient creates a client for the given endpoint, e.g.
// "http://localhost:8546/rpc".
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Call invokes the given JSON-RPC method and decodes the result into dst.
// Protocol errors are resolved back to their registered coded error when the
// response carries a (module, code) pair.
func (c *Client) Call(ctx context.Context, method string, params []any, dst any) error {
	reqBody, err := json.Marshal(JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var rpcResp struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result,omitempty"`
		Error   *Error          `json:"error,omitempty"`
		ID      any             `json:"id"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return err
	}

	if rpcResp.Error != nil {
		if rpcResp.Error.Module != "" {
			if coded := sdkerrors.FromCode(rpcResp.Error.Module, uint32(rpcResp.Error.Code)); coded != nil {
				return coded
			}
		}

		return fmt.Errorf("rpc: %s (code %d)", rpcResp.Error.Message, rpcResp.Error.Code)
	}

	if dst == nil {
		return nil
	}

	return json.Unmarshal(rpcResp.Result, dst)
}

// submitTx invokes a registry transaction method with the signed envelope.
func (c *Client) submitTx(
	ctx context.Context,
	method transaction.MethodName,
	signed *transaction.SignedTransaction,
) (string, error) {
	var id string
	if err := c.Call(ctx, string(method), []any{signed.Signed}, &id); err != nil {
		return "", err
	}

	return id, nil
}

// RegisterEntity submits a registry.RegisterEntity transaction.
func (c *Client) RegisterEntity(ctx context.Context, signed *transaction.SignedTransaction) (string, error) {
	return c.submitTx(ctx, registry.MethodRegisterEntity, signed)
}

// DeregisterEntity submits a registry.DeregisterEntity transaction.
func (c *Client) DeregisterEntity(ctx context.Context, signed *transaction.SignedTransaction) (string, error) {
	return c.submitTx(ctx, registry.MethodDeregisterEntity, signed)
}

// RegisterNode submits a registry.RegisterNode transaction.
func (c *Client) RegisterNode(ctx context.Context, signed *transaction.SignedTransaction) (string, error) {
	return c.submitTx(ctx, registry.MethodRegisterNode, signed)
}

// UnfreezeNode submits a registry.UnfreezeNode transaction.
func (c *Client) UnfreezeNode(ctx context.Context, signed *transaction.SignedTransaction) (string, error) {
	return c.submitTx(ctx, registry.MethodUnfreezeNode, signed)
}

// RegisterRuntime submits a registry.RegisterRuntime transaction.
func (c *Client) RegisterRuntime(ctx context.Context, signed *transaction.SignedTransaction) (string, error) {
	return c.submitTx(ctx, registry.MethodRegisterRuntime, signed)
}

// GetEntity fetches the entity descriptor with the given identifier.
func (c *Client) GetEntity(ctx context.Context, id string) (*registry.Entity, error) {
	var entity registry.Entity
	if err := c.Call(ctx, "getEntity", []any{id}, &entity); err != nil {
		return nil, err
	}

	return &entity, nil
}

// GetNode fetches the node descriptor with the given identifier.
func (c *Client) GetNode(ctx context.Context, id string) (*registry.Node, error) {
	var node registry.Node
	if err := c.Call(ctx, "getNode", []any{id}, &node); err != nil {
		return nil, err
	}

	return &node, nil
}

// GetRuntime fetches the runtime descriptor with the given identifier.
func (c *Client) GetRuntime(ctx context.Context, id string) (*registry.Runtime, error) {
	var rt registry.Runtime
	if err := c.Call(ctx, "getRuntime", []any{id}, &rt); err != nil {
		return nil, err
	}

	return &rt, nil
}

// GetEpoch fetches the server's current epoch.
func (c *Client) GetEpoch(ctx context.Context) (uint64, error) {
	var epoch uint64
	if err := c.Call(ctx, "getEpoch", nil, &epoch); err != nil {
		return 0, err
	}

	return epoch, nil
}
