package registry

import (
	stderrors "errors"
	"math"

	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
)

// FreezeForever is the freeze end epoch of a node that is frozen with no
// scheduled thaw.
const FreezeForever = uint64(math.MaxUint64)

// NodeStatus is the registry's dynamic bookkeeping for a node, kept outside
// the signed descriptor.
type NodeStatus struct {
	// FreezeEndTime is the first epoch at which the node may be unfrozen.
	// Zero means the node is not frozen.
	FreezeEndTime uint64 `cbor:"1,keyasint,omitempty" json:"freeze_end_time,omitempty"`
}

// IsFrozen reports whether the node is currently frozen.
func (ns *NodeStatus) IsFrozen() bool {
	return ns.FreezeEndTime > 0
}

// Lookup is the read-only registry view the verification helpers run against.
// Lookups must return ErrNoSuchEntity, ErrNoSuchNode or ErrNoSuchRuntime for
// missing descriptors.
type Lookup interface {
	// Entity returns the entity descriptor with the given identifier.
	Entity(id signature.PublicKey) (*Entity, error)

	// Node returns the node descriptor with the given identifier.
	Node(id signature.PublicKey) (*Node, error)

	// NodeStatus returns the status record for the given node.
	NodeStatus(id signature.PublicKey) (*NodeStatus, error)

	// Runtime returns the runtime descriptor with the given identifier.
	Runtime(id Namespace) (*Runtime, error)

	// EntityNodes returns the nodes registered under the given entity.
	EntityNodes(id signature.PublicKey) ([]*Node, error)

	// EntityRuntimes returns the runtimes owned by the given entity.
	EntityRuntimes(id signature.PublicKey) ([]*Runtime, error)
}

// EntityRegistrationContext selects the signature context for entity
// registrations. Genesis registrations verify under the genesis context,
// which aliases the regular one so signatures replay across a regenesis.
func EntityRegistrationContext(isGenesis bool) signature.Context {
	if isGenesis {
		return RegisterGenesisEntitySignatureContext
	}

	return RegisterEntitySignatureContext
}

// NodeRegistrationContext selects the signature context for node
// registrations, same as EntityRegistrationContext.
func NodeRegistrationContext(isGenesis bool) signature.Context {
	if isGenesis {
		return RegisterGenesisNodeSignatureContext
	}

	return RegisterNodeSignatureContext
}

// VerifyRegisterEntityArgs verifies a signed entity registration and returns
// the opened descriptor.
func VerifyRegisterEntityArgs(signed *SignedEntity, isGenesis bool) (*Entity, error) {
	if signed == nil {
		return nil, ErrInvalidArgument
	}

	var entity Entity
	if err := signed.Open(EntityRegistrationContext(isGenesis), &entity); err != nil {
		return nil, ErrInvalidSignature
	}

	if err := entity.ValidateBasic(); err != nil {
		return nil, err
	}

	// Entity descriptors are self-signed.
	if !signed.Signature.PublicKey.Equal(entity.ID) {
		return nil, ErrIncorrectTxSigner
	}

	return &entity, nil
}

// VerifyRegisterNodeArgs verifies a signed node registration against the
// current registry view and returns the opened descriptor.
func VerifyRegisterNodeArgs(
	lookup Lookup,
	signed *SignedNode,
	epoch uint64,
	isGenesis bool,
) (*Node, error) {
	if signed == nil {
		return nil, ErrInvalidArgument
	}

	var node Node
	if err := signed.Open(NodeRegistrationContext(isGenesis), &node); err != nil {
		return nil, ErrInvalidSignature
	}

	if err := node.ValidateBasic(); err != nil {
		return nil, err
	}

	// Node descriptors are signed by the node's own identity key.
	if !signed.Signature.PublicKey.Equal(node.ID) {
		return nil, ErrIncorrectTxSigner
	}

	if node.IsExpired(epoch) {
		return nil, ErrNodeExpired
	}

	entity, err := lookup.Entity(node.EntityID)
	if err != nil {
		return nil, err
	}

	if !entity.HasNode(node.ID) {
		return nil, ErrBadEntityForNode
	}

	// Re-registrations may refresh expiration and capabilities but may not
	// move the node to a different entity.
	existing, err := lookup.Node(node.ID)
	switch {
	case err == nil:
		if !existing.EntityID.Equal(node.EntityID) {
			return nil, ErrNodeUpdateNotAllowed
		}
	case stderrors.Is(err, ErrNoSuchNode):
		// First registration.
	default:
		return nil, err
	}

	if err := verifyNodeRuntimes(lookup, &node); err != nil {
		return nil, err
	}

	return &node, nil
}

// verifyNodeRuntimes checks the node's advertised runtimes and TEE
// capabilities against the registered runtime descriptors.
func verifyNodeRuntimes(lookup Lookup, node *Node) error {
	for _, rtID := range node.Runtimes {
		rt, err := lookup.Runtime(rtID)
		if err != nil {
			return err
		}

		if rt.TEEHardware == TEEHardwareInvalid {
			continue
		}

		tee := node.Capabilities.TEE
		if tee == nil || tee.Hardware != rt.TEEHardware {
			return ErrTEEHardwareMismatch
		}

		if !rt.HasEnclave(tee.EnclaveID) {
			return ErrBadEnclaveIdentity
		}
	}

	return nil
}

// VerifyRegisterRuntimeArgs verifies a runtime registration submitted by the
// given transaction signer against the current registry view.
func VerifyRegisterRuntimeArgs(
	lookup Lookup,
	rt *Runtime,
	txSigner signature.PublicKey,
	isGenesis bool,
) error {
	if rt == nil {
		return ErrInvalidArgument
	}

	if err := rt.ValidateBasic(); err != nil {
		return err
	}

	// Consensus-governed runtimes can only enter through the genesis
	// document or a governance proposal, never a plain registration tx.
	if rt.GovernanceModel == GovernanceConsensus && !isGenesis {
		return ErrForbidden
	}

	if _, err := lookup.Entity(rt.EntityID); err != nil {
		return ErrBadEntityForRuntime
	}

	if !txSigner.Equal(rt.EntityID) {
		return ErrIncorrectTxSigner
	}

	existing, err := lookup.Runtime(rt.ID)
	switch {
	case err == nil:
		// Immutable fields are frozen on first registration.
		if existing.Kind != rt.Kind || existing.TEEHardware != rt.TEEHardware {
			return ErrRuntimeUpdateNotAllowed
		}

		if !existing.EntityID.Equal(rt.EntityID) {
			return ErrRuntimeUpdateNotAllowed
		}
	case stderrors.Is(err, ErrNoSuchRuntime):
		// First registration.
	default:
		return err
	}

	return nil
}

// VerifyDeregisterEntity checks that the entity signing the deregistration
// may be removed from the registry.
func VerifyDeregisterEntity(lookup Lookup, txSigner signature.PublicKey) (*Entity, error) {
	entity, err := lookup.Entity(txSigner)
	if err != nil {
		return nil, err
	}

	nodes, err := lookup.EntityNodes(entity.ID)
	if err != nil {
		return nil, err
	}

	if len(nodes) > 0 {
		return nil, ErrEntityHasNodes
	}

	runtimes, err := lookup.EntityRuntimes(entity.ID)
	if err != nil {
		return nil, err
	}

	if len(runtimes) > 0 {
		return nil, ErrEntityHasRuntimes
	}

	return entity, nil
}

// VerifyUnfreezeNode checks that the given transaction signer may unfreeze
// the node at the given epoch.
func VerifyUnfreezeNode(
	lookup Lookup,
	nodeID signature.PublicKey,
	txSigner signature.PublicKey,
	epoch uint64,
) (*Node, error) {
	node, err := lookup.Node(nodeID)
	if err != nil {
		return nil, err
	}

	// Only the owning entity may unfreeze its node.
	if !txSigner.Equal(node.EntityID) {
		return nil, ErrIncorrectTxSigner
	}

	status, err := lookup.NodeStatus(nodeID)
	if err != nil {
		return nil, err
	}

	if !status.IsFrozen() || status.FreezeEndTime > epoch {
		return nil, ErrNodeCannotBeUnfrozen
	}

	return node, nil
}
