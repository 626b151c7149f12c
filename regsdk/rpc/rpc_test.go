package rpc

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/ledgerwatch/erigon-lib/kv/mdbx"
	mdbxlog "github.com/ledgerwatch/log/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xAtelerix/registry-sdk/regsdk/registry"
	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
	"github.com/0xAtelerix/registry-sdk/regsdk/state"
	"github.com/0xAtelerix/registry-sdk/regsdk/submitqueue"
	"github.com/0xAtelerix/registry-sdk/regsdk/transaction"
	"github.com/0xAtelerix/registry-sdk/regsdk/utility"
)

func setupServer(t *testing.T) *Server {
	t.Helper()

	registryDB, err := mdbx.NewMDBX(mdbxlog.New()).
		Path(t.TempDir()).
		WithTableCfg(func(_ kv.TableCfg) kv.TableCfg {
			return state.Tables()
		}).
		Open()
	require.NoError(t, err)
	t.Cleanup(registryDB.Close)

	queueDB, err := mdbx.NewMDBX(mdbxlog.New()).
		Path(t.TempDir()).
		WithTableCfg(func(_ kv.TableCfg) kv.TableCfg {
			return submitqueue.Tables()
		}).
		Open()
	require.NoError(t, err)

	queue := submitqueue.NewQueue(queueDB)
	t.Cleanup(func() { _ = queue.Close() })

	return NewServer(registryDB, queue)
}

// txParam converts a signed transaction into the decoded-JSON shape the
// handler sees after request parsing.
func txParam(t *testing.T, signed *transaction.SignedTransaction) any {
	t.Helper()

	raw, err := json.Marshal(signed.Signed)
	require.NoError(t, err)

	var param any
	require.NoError(t, json.Unmarshal(raw, &param))

	return param
}

func signRegisterEntity(t *testing.T, entitySigner signature.Signer, nonce uint64) *transaction.SignedTransaction {
	t.Helper()

	entity := &registry.Entity{
		Versioned: registry.Versioned{V: registry.LatestEntityDescriptorVersion},
		ID:        entitySigner.Public(),
	}

	signedEntity, err := registry.SignEntity(entitySigner, registry.RegisterEntitySignatureContext, entity)
	require.NoError(t, err)

	tx, err := transaction.NewTransaction(nonce, nil, registry.MethodRegisterEntity, signedEntity.Signed)
	require.NoError(t, err)

	signedTx, err := transaction.Sign(entitySigner, tx)
	require.NoError(t, err)

	return signedTx
}

func TestRegisterEntityMethod(t *testing.T) {
	t.Parallel()

	server := setupServer(t)

	entitySigner, err := signature.NewMemorySigner(nil)
	require.NoError(t, err)

	signedTx := signRegisterEntity(t, entitySigner, 1)

	result, err := server.handleMethod(
		context.Background(),
		string(registry.MethodRegisterEntity),
		[]any{txParam(t, signedTx)},
	)
	require.NoError(t, err)

	entityID := result.(string)

	// The entity is now queryable.
	got, err := server.handleMethod(context.Background(), "getEntity", []any{entityID})
	require.NoError(t, err)

	entity := got.(*registry.Entity)
	assert.Equal(t, entitySigner.Public(), entity.ID)

	// Submitting the envelope to the wrong endpoint is rejected.
	_, err = server.handleMethod(
		context.Background(),
		string(registry.MethodRegisterNode),
		[]any{txParam(t, signedTx)},
	)
	require.ErrorIs(t, err, ErrMethodMismatch)
}

func TestRegisterNodeMethod(t *testing.T) {
	t.Parallel()

	server := setupServer(t)
	server.SetEpoch(10)

	entitySigner, err := signature.NewMemorySigner(nil)
	require.NoError(t, err)
	nodeSigner, err := signature.NewMemorySigner(nil)
	require.NoError(t, err)

	// Register the owning entity first.
	entity := &registry.Entity{
		Versioned: registry.Versioned{V: registry.LatestEntityDescriptorVersion},
		ID:        entitySigner.Public(),
		Nodes:     []signature.PublicKey{nodeSigner.Public()},
	}
	signedEntity, err := registry.SignEntity(entitySigner, registry.RegisterEntitySignatureContext, entity)
	require.NoError(t, err)

	entityTx, err := transaction.NewTransaction(1, nil, registry.MethodRegisterEntity, signedEntity.Signed)
	require.NoError(t, err)
	signedEntityTx, err := transaction.Sign(entitySigner, entityTx)
	require.NoError(t, err)

	_, err = server.handleMethod(
		context.Background(),
		string(registry.MethodRegisterEntity),
		[]any{txParam(t, signedEntityTx)},
	)
	require.NoError(t, err)

	// Now the node.
	node := &registry.Node{
		Versioned:  registry.Versioned{V: registry.LatestNodeDescriptorVersion},
		ID:         nodeSigner.Public(),
		EntityID:   entitySigner.Public(),
		Expiration: 20,
	}
	signedNode, err := registry.SignNode(nodeSigner, registry.RegisterNodeSignatureContext, node)
	require.NoError(t, err)

	nodeTx, err := transaction.NewTransaction(1, nil, registry.MethodRegisterNode, signedNode.Signed)
	require.NoError(t, err)
	signedNodeTx, err := transaction.Sign(nodeSigner, nodeTx)
	require.NoError(t, err)

	result, err := server.handleMethod(
		context.Background(),
		string(registry.MethodRegisterNode),
		[]any{txParam(t, signedNodeTx)},
	)
	require.NoError(t, err)

	nodeID := result.(string)

	got, err := server.handleMethod(context.Background(), "getNodeStatus", []any{nodeID})
	require.NoError(t, err)
	assert.False(t, got.(*registry.NodeStatus).IsFrozen())

	// Expired registration is rejected.
	server.SetEpoch(30)

	_, err = server.handleMethod(
		context.Background(),
		string(registry.MethodRegisterNode),
		[]any{txParam(t, signedNodeTx)},
	)
	require.ErrorIs(t, err, registry.ErrNodeExpired)

	// Deregistering the entity while the node lives is rejected.
	deregTx, err := transaction.NewTransaction(2, nil, registry.MethodDeregisterEntity, nil)
	require.NoError(t, err)
	signedDereg, err := transaction.Sign(entitySigner, deregTx)
	require.NoError(t, err)

	_, err = server.handleMethod(
		context.Background(),
		string(registry.MethodDeregisterEntity),
		[]any{txParam(t, signedDereg)},
	)
	require.ErrorIs(t, err, registry.ErrEntityHasNodes)
}

func TestMethodErrors(t *testing.T) {
	t.Parallel()

	server := setupServer(t)

	_, err := server.handleMethod(context.Background(), "noSuchMethod", nil)
	require.ErrorIs(t, err, ErrMethodNotFound)

	_, err = server.handleMethod(context.Background(), string(registry.MethodRegisterEntity), nil)
	require.ErrorIs(t, err, ErrRequiresExactly1Param)

	_, err = server.handleMethod(context.Background(), "getEntity", []any{"not-hex"})
	require.ErrorIs(t, err, ErrInvalidIDFormat)

	_, err = server.handleMethod(context.Background(), "getEntity", []any{42})
	require.ErrorIs(t, err, ErrParamMustBeString)

	// Unknown entity surfaces the coded registry error.
	_, err = server.handleMethod(
		context.Background(),
		"getEntity",
		[]any{"0x00000000000000000000000000000000000000000000000000000000000000ff"},
	)
	require.ErrorIs(t, err, registry.ErrNoSuchEntity)
}

func TestCustomMethod(t *testing.T) {
	t.Parallel()

	server := setupServer(t)
	server.AddCustomMethod("echo", func(_ context.Context, params []any) (any, error) {
		return params, nil
	})

	result, err := server.handleMethod(context.Background(), "echo", []any{"x"})
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, result)
}

func TestHTTPRoundTripWithClient(t *testing.T) {
	t.Parallel()

	server := setupServer(t)

	httpServer := httptest.NewServer(http.HandlerFunc(server.handleRPC))
	t.Cleanup(httpServer.Close)

	client := NewClient(httpServer.URL)

	entitySigner, err := signature.NewMemorySigner(nil)
	require.NoError(t, err)

	signedTx := signRegisterEntity(t, entitySigner, 1)

	entityID, err := client.RegisterEntity(context.Background(), signedTx)
	require.NoError(t, err)

	entity, err := client.GetEntity(context.Background(), entityID)
	require.NoError(t, err)
	assert.Equal(t, entitySigner.Public(), entity.ID)

	// Coded errors survive the HTTP round trip.
	_, err = client.GetNode(context.Background(), entityID)
	require.ErrorIs(t, err, registry.ErrNoSuchNode)

	epoch, err := client.GetEpoch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), epoch)

	// Queue a transaction for later broadcast and read it back.
	var txHash string
	require.NoError(t, client.Call(
		context.Background(), "sendTransaction", []any{signedTx.Signed}, &txHash,
	))
	assert.NotEmpty(t, txHash)

	var pending []transaction.SignedTransaction
	require.NoError(t, client.Call(context.Background(), "getPendingTransactions", nil, &pending))
	assert.Len(t, pending, 1)
}

func TestClientConcurrentCalls(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		ids = make(map[uint64]struct{})
	)

	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req JSONRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// JSON numbers decode as float64.
		id, ok := req.ID.(float64)
		require.True(t, ok)

		mu.Lock()
		ids[uint64(id)] = struct{}{}
		mu.Unlock()

		require.NoError(t, json.NewEncoder(w).Encode(JSONRPCResponse{
			JSONRPC: "2.0",
			Result:  uint64(0),
			ID:      req.ID,
		}))
	}))
	t.Cleanup(httpServer.Close)

	client := NewClient(httpServer.URL)

	const calls = 32

	errs := make([]error, calls)

	var wg sync.WaitGroup

	for i := 0; i < calls; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			var epoch uint64
			errs[i] = client.Call(context.Background(), "getEpoch", nil, &epoch)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	// Request IDs never collide across concurrent callers.
	assert.Len(t, ids, calls)
}

func TestRegistrationLogsShortIDs(t *testing.T) {
	t.Parallel()

	server := setupServer(t)

	var logBuf bytes.Buffer

	logger := zerolog.New(&logBuf)
	server.WithLogger(&logger)

	entitySigner, err := signature.NewMemorySigner(nil)
	require.NoError(t, err)

	signedTx := signRegisterEntity(t, entitySigner, 1)

	_, err = server.handleMethod(
		context.Background(),
		string(registry.MethodRegisterEntity),
		[]any{txParam(t, signedTx)},
	)
	require.NoError(t, err)

	// Log lines carry the short base58 rendering, not wire hex.
	id := entitySigner.Public()
	assert.Contains(t, logBuf.String(), utility.FormatID(id[:]))
}
