package registry

import (
	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
)

// LatestNodeDescriptorVersion is the latest node descriptor version that
// should be used for all new descriptors.
const LatestNodeDescriptorVersion = 1

// TEEHardware is the TEE hardware implementation a node runs.
type TEEHardware uint8

const (
	// TEEHardwareInvalid is the sentinel value and never valid on the wire.
	TEEHardwareInvalid TEEHardware = 0
	// TEEHardwareIntelSGX is Intel SGX.
	TEEHardwareIntelSGX TEEHardware = 1
)

func (h TEEHardware) String() string {
	switch h {
	case TEEHardwareInvalid:
		return "invalid"
	case TEEHardwareIntelSGX:
		return "intel-sgx"
	default:
		return "[unknown]"
	}
}

// EnclaveIdentity identifies a specific enclave build.
type EnclaveIdentity [32]byte

// CapabilityTEE advertises a node's TEE capability.
type CapabilityTEE struct {
	// Hardware is the TEE hardware implementation.
	Hardware TEEHardware `cbor:"1,keyasint" json:"hardware"`

	// EnclaveID is the identity of the enclave the node runs.
	EnclaveID EnclaveIdentity `cbor:"2,keyasint" json:"enclave_id"`
}

// Capabilities are a node's advertised capabilities.
type Capabilities struct {
	// TEE is set when the node can run runtimes inside a TEE.
	TEE *CapabilityTEE `cbor:"1,keyasint,omitempty" json:"tee,omitempty"`
}

// Node is a registered node descriptor.
type Node struct {
	Versioned

	// ID is the public key identifying the node.
	ID signature.PublicKey `cbor:"1,keyasint" json:"id"`

	// EntityID is the public key of the entity the node belongs to.
	EntityID signature.PublicKey `cbor:"2,keyasint" json:"entity_id"`

	// Expiration is the epoch in which the node's registration expires.
	Expiration uint64 `cbor:"3,keyasint" json:"expiration"`

	// Runtimes is the list of runtimes the node participates in.
	Runtimes []Namespace `cbor:"4,keyasint,omitempty" json:"runtimes,omitempty"`

	// Capabilities advertises what the node can do.
	Capabilities Capabilities `cbor:"5,keyasint,omitempty" json:"capabilities,omitempty"`
}

// IsExpired reports whether the node registration has expired at the given
// epoch.
func (n *Node) IsExpired(epoch uint64) bool {
	return n.Expiration < epoch
}

// ValidateBasic performs context-free validity checks on the descriptor.
func (n *Node) ValidateBasic() error {
	if n.V > LatestNodeDescriptorVersion {
		return ErrInvalidArgument
	}

	if n.ID == (signature.PublicKey{}) || n.EntityID == (signature.PublicKey{}) {
		return ErrInvalidArgument
	}

	if tee := n.Capabilities.TEE; tee != nil && tee.Hardware == TEEHardwareInvalid {
		return ErrBadCapabilitiesTEEHardware
	}

	return nil
}

// UnfreezeNode is the body of a MethodUnfreezeNode transaction.
type UnfreezeNode struct {
	// NodeID is the identifier of the node to unfreeze.
	NodeID signature.PublicKey `cbor:"1,keyasint" json:"node_id"`
}

// SignedNode is a signed blob containing a CBOR-serialized Node.
type SignedNode struct {
	signature.Signed
}

// Open verifies the signature under the given context and deserializes the
// node descriptor.
func (s *SignedNode) Open(context signature.Context, node *Node) error {
	return s.Signed.Open(context, node)
}

// SignNode serializes the node and signs the result.
func SignNode(signer signature.Signer, context signature.Context, node *Node) (*SignedNode, error) {
	signed, err := signature.SignSigned(signer, context, node)
	if err != nil {
		return nil, err
	}

	return &SignedNode{Signed: *signed}, nil
}
