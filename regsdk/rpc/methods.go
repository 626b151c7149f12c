package rpc

import (
	"context"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/ledgerwatch/erigon-lib/kv"

	"github.com/0xAtelerix/registry-sdk/regsdk/registry"
	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
	"github.com/0xAtelerix/registry-sdk/regsdk/state"
	"github.com/0xAtelerix/registry-sdk/regsdk/transaction"
	"github.com/0xAtelerix/registry-sdk/regsdk/utility"
)

// openSignedTx decodes and verifies the single signed-transaction parameter
// all registry methods take, and checks it against the expected method and
// its gas cost.
func openSignedTx(
	params []any,
	method transaction.MethodName,
) (*transaction.SignedTransaction, *transaction.Transaction, error) {
	if len(params) != 1 {
		return nil, nil, ErrRequiresExactly1Param
	}

	var signed transaction.SignedTransaction
	if err := decodeParam(params[0], &signed.Signed); err != nil {
		return nil, nil, err
	}

	var tx transaction.Transaction
	if err := signed.Open(&tx); err != nil {
		return nil, nil, registry.ErrInvalidSignature
	}

	if tx.Method != method {
		return nil, nil, fmt.Errorf("%w: %s", ErrMethodMismatch, tx.Method)
	}

	if op, ok := registry.GasOpForMethod(method); ok && tx.Fee != nil {
		if tx.Fee.Gas < registry.DefaultGasCosts.Op(op) {
			return nil, nil, ErrInsufficientGas
		}
	}

	return &signed, &tx, nil
}

// registerEntity handles registry.RegisterEntity.
func (s *Server) registerEntity(ctx context.Context, params []any) (any, error) {
	_, tx, err := openSignedTx(params, registry.MethodRegisterEntity)
	if err != nil {
		return nil, err
	}

	var signedEntity registry.SignedEntity
	if err := cbor.Unmarshal(tx.Body, &signedEntity.Signed); err != nil {
		return nil, registry.ErrInvalidArgument
	}

	entity, err := registry.VerifyRegisterEntityArgs(&signedEntity, false)
	if err != nil {
		return nil, err
	}

	if err := s.registryDB.Update(ctx, func(dbTx kv.RwTx) error {
		return state.SetEntity(dbTx, entity)
	}); err != nil {
		return nil, err
	}

	registrationOps.WithLabelValues(string(registry.GasOpRegisterEntity)).Inc()
	s.logger.Info().
		Str("entity", utility.FormatID(entity.ID[:])).
		Msg("Entity registered")

	return formatID(entity.ID), nil
}

// deregisterEntity handles registry.DeregisterEntity.
func (s *Server) deregisterEntity(ctx context.Context, params []any) (any, error) {
	signed, _, err := openSignedTx(params, registry.MethodDeregisterEntity)
	if err != nil {
		return nil, err
	}

	signer := signed.Signature.PublicKey

	var removed *registry.Entity

	if err := s.registryDB.Update(ctx, func(dbTx kv.RwTx) error {
		entity, verifyErr := registry.VerifyDeregisterEntity(state.NewView(dbTx), signer)
		if verifyErr != nil {
			return verifyErr
		}

		removed = entity

		return state.RemoveEntity(dbTx, entity.ID)
	}); err != nil {
		return nil, err
	}

	registrationOps.WithLabelValues(string(registry.GasOpDeregisterEntity)).Inc()

	return formatID(removed.ID), nil
}

// registerNode handles registry.RegisterNode.
func (s *Server) registerNode(ctx context.Context, params []any) (any, error) {
	_, tx, err := openSignedTx(params, registry.MethodRegisterNode)
	if err != nil {
		return nil, err
	}

	var signedNode registry.SignedNode
	if err := cbor.Unmarshal(tx.Body, &signedNode.Signed); err != nil {
		return nil, registry.ErrInvalidArgument
	}

	epoch := s.CurrentEpoch()

	var registered *registry.Node

	if err := s.registryDB.Update(ctx, func(dbTx kv.RwTx) error {
		node, verifyErr := registry.VerifyRegisterNodeArgs(state.NewView(dbTx), &signedNode, epoch, false)
		if verifyErr != nil {
			return verifyErr
		}

		registered = node

		return state.SetNode(dbTx, node)
	}); err != nil {
		return nil, err
	}

	registrationOps.WithLabelValues(string(registry.GasOpRegisterNode)).Inc()
	s.logger.Info().
		Str("node", utility.FormatID(registered.ID[:])).
		Str("entity", utility.FormatID(registered.EntityID[:])).
		Uint64("expiration", registered.Expiration).
		Msg("Node registered")

	return formatID(registered.ID), nil
}

// unfreezeNode handles registry.UnfreezeNode.
func (s *Server) unfreezeNode(ctx context.Context, params []any) (any, error) {
	signed, tx, err := openSignedTx(params, registry.MethodUnfreezeNode)
	if err != nil {
		return nil, err
	}

	var body registry.UnfreezeNode
	if err := cbor.Unmarshal(tx.Body, &body); err != nil {
		return nil, registry.ErrInvalidArgument
	}

	epoch := s.CurrentEpoch()
	signer := signed.Signature.PublicKey

	if err := s.registryDB.Update(ctx, func(dbTx kv.RwTx) error {
		if _, verifyErr := registry.VerifyUnfreezeNode(state.NewView(dbTx), body.NodeID, signer, epoch); verifyErr != nil {
			return verifyErr
		}

		return state.SetNodeStatus(dbTx, body.NodeID, &registry.NodeStatus{})
	}); err != nil {
		return nil, err
	}

	registrationOps.WithLabelValues(string(registry.GasOpUnfreezeNode)).Inc()

	return formatID(body.NodeID), nil
}

// registerRuntime handles registry.RegisterRuntime.
func (s *Server) registerRuntime(ctx context.Context, params []any) (any, error) {
	signed, tx, err := openSignedTx(params, registry.MethodRegisterRuntime)
	if err != nil {
		return nil, err
	}

	var rt registry.Runtime
	if err := cbor.Unmarshal(tx.Body, &rt); err != nil {
		return nil, registry.ErrInvalidArgument
	}

	signer := signed.Signature.PublicKey

	if err := s.registryDB.Update(ctx, func(dbTx kv.RwTx) error {
		if verifyErr := registry.VerifyRegisterRuntimeArgs(state.NewView(dbTx), &rt, signer, false); verifyErr != nil {
			return verifyErr
		}

		return state.SetRuntime(dbTx, &rt)
	}); err != nil {
		return nil, err
	}

	registrationOps.WithLabelValues(string(registry.GasOpRegisterRuntime)).Inc()
	s.logger.Info().
		Str("runtime", utility.FormatID(rt.ID[:])).
		Str("kind", rt.Kind.String()).
		Msg("Runtime registered")

	return formatID(rt.ID), nil
}

// sendTransaction queues a signed transaction for later broadcast.
func (s *Server) sendTransaction(ctx context.Context, params []any) (any, error) {
	if len(params) != 1 {
		return nil, ErrRequiresExactly1Param
	}

	var signed transaction.SignedTransaction
	if err := decodeParam(params[0], &signed.Signed); err != nil {
		return nil, err
	}

	var tx transaction.Transaction
	if err := signed.Open(&tx); err != nil {
		return nil, registry.ErrInvalidSignature
	}

	if !transaction.IsRegisteredMethod(tx.Method) {
		return nil, registry.ErrInvalidArgument
	}

	if err := s.queue.Add(ctx, &signed); err != nil {
		return nil, err
	}

	hash, err := signed.Hash()
	if err != nil {
		return nil, err
	}

	return formatID(hash), nil
}

// getPendingTransactions returns all queued transactions.
func (s *Server) getPendingTransactions(ctx context.Context, _ []any) (any, error) {
	return s.queue.Pending(ctx)
}

// getEntity returns the entity descriptor with the given identifier.
func (s *Server) getEntity(ctx context.Context, params []any) (any, error) {
	id, err := parseSingleID(params)
	if err != nil {
		return nil, err
	}

	var entity *registry.Entity

	if err := s.registryDB.View(ctx, func(dbTx kv.Tx) error {
		var lookupErr error
		entity, lookupErr = state.NewView(dbTx).Entity(signature.PublicKey(id))

		return lookupErr
	}); err != nil {
		return nil, err
	}

	return entity, nil
}

// getNode returns the node descriptor with the given identifier.
func (s *Server) getNode(ctx context.Context, params []any) (any, error) {
	id, err := parseSingleID(params)
	if err != nil {
		return nil, err
	}

	var node *registry.Node

	if err := s.registryDB.View(ctx, func(dbTx kv.Tx) error {
		var lookupErr error
		node, lookupErr = state.NewView(dbTx).Node(signature.PublicKey(id))

		return lookupErr
	}); err != nil {
		return nil, err
	}

	return node, nil
}

// getNodeStatus returns the status record for the given node.
func (s *Server) getNodeStatus(ctx context.Context, params []any) (any, error) {
	id, err := parseSingleID(params)
	if err != nil {
		return nil, err
	}

	var status *registry.NodeStatus

	if err := s.registryDB.View(ctx, func(dbTx kv.Tx) error {
		var lookupErr error
		status, lookupErr = state.NewView(dbTx).NodeStatus(signature.PublicKey(id))

		return lookupErr
	}); err != nil {
		return nil, err
	}

	return status, nil
}

// getRuntime returns the runtime descriptor with the given identifier.
func (s *Server) getRuntime(ctx context.Context, params []any) (any, error) {
	id, err := parseSingleID(params)
	if err != nil {
		return nil, err
	}

	var rt *registry.Runtime

	if err := s.registryDB.View(ctx, func(dbTx kv.Tx) error {
		var lookupErr error
		rt, lookupErr = state.NewView(dbTx).Runtime(registry.Namespace(id))

		return lookupErr
	}); err != nil {
		return nil, err
	}

	return rt, nil
}

func parseSingleID(params []any) ([32]byte, error) {
	if len(params) != 1 {
		return [32]byte{}, ErrRequiresExactly1Param
	}

	return parseID(params[0])
}
