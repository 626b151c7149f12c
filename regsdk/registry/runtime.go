package registry

import (
	"github.com/holiman/uint256"

	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
)

// LatestRuntimeDescriptorVersion is the latest runtime descriptor version
// that should be used for all new descriptors. Do not use version 0, as it
// is the sentinel for an invalid descriptor.
const LatestRuntimeDescriptorVersion = 2

// Namespace is a runtime identifier.
type Namespace [32]byte

// RuntimeKind is the kind of a runtime.
type RuntimeKind uint32

const (
	// KindInvalid is the sentinel kind and never valid on the wire.
	KindInvalid RuntimeKind = 0

	// KindCompute is a generic compute runtime.
	KindCompute RuntimeKind = 1

	// KindKeyManager is a key manager runtime.
	KindKeyManager RuntimeKind = 2

	kindInvalid    = "invalid"
	kindCompute    = "compute"
	kindKeyManager = "keymanager"
)

func (k RuntimeKind) String() string {
	switch k {
	case KindInvalid:
		return kindInvalid
	case KindCompute:
		return kindCompute
	case KindKeyManager:
		return kindKeyManager
	default:
		return "[unknown runtime kind]"
	}
}

// GovernanceModel specifies who is allowed to update a runtime descriptor
// after registration.
type GovernanceModel uint8

const (
	// GovernanceInvalid is the sentinel model and never valid on the wire.
	GovernanceInvalid GovernanceModel = 0

	// GovernanceEntity means the runtime owner entity signs updates.
	GovernanceEntity GovernanceModel = 1

	// GovernanceRuntime means the runtime itself updates its descriptor.
	GovernanceRuntime GovernanceModel = 2

	// GovernanceConsensus means updates go through consensus-layer governance.
	GovernanceConsensus GovernanceModel = 3

	// GovernanceMax is the highest valid governance model, used by
	// validators to range-check incoming values. It must be kept equal to
	// the maximum defined non-sentinel model whenever a new one is added.
	GovernanceMax = GovernanceConsensus
)

func (gm GovernanceModel) String() string {
	switch gm {
	case GovernanceInvalid:
		return kindInvalid
	case GovernanceEntity:
		return "entity"
	case GovernanceRuntime:
		return "runtime"
	case GovernanceConsensus:
		return "consensus"
	default:
		return "[unknown governance model]"
	}
}

// IsValid reports whether the governance model is within the valid range.
func (gm GovernanceModel) IsValid() bool {
	return gm > GovernanceInvalid && gm <= GovernanceMax
}

// Runtime is a registered runtime descriptor.
type Runtime struct {
	Versioned

	// ID is the runtime identifier.
	ID Namespace `cbor:"1,keyasint" json:"id"`

	// EntityID is the public key of the entity that owns the runtime.
	EntityID signature.PublicKey `cbor:"2,keyasint" json:"entity_id"`

	// Kind is the runtime kind.
	Kind RuntimeKind `cbor:"3,keyasint" json:"kind"`

	// TEEHardware is the TEE hardware the runtime requires, if any.
	TEEHardware TEEHardware `cbor:"4,keyasint,omitempty" json:"tee_hardware,omitempty"`

	// Enclaves is the set of enclave identities allowed to run the runtime.
	// Required (non-empty) when TEEHardware is set.
	Enclaves []EnclaveIdentity `cbor:"5,keyasint,omitempty" json:"enclaves,omitempty"`

	// GovernanceModel governs who may update this descriptor.
	GovernanceModel GovernanceModel `cbor:"6,keyasint" json:"governance_model"`

	// Deposit is the stake escrowed at registration time.
	Deposit *uint256.Int `cbor:"7,keyasint,omitempty" json:"deposit,omitempty"`
}

// HasEnclave reports whether the runtime allows the given enclave identity.
func (r *Runtime) HasEnclave(id EnclaveIdentity) bool {
	for _, eid := range r.Enclaves {
		if eid == id {
			return true
		}
	}

	return false
}

// ValidateBasic performs context-free validity checks on the descriptor.
func (r *Runtime) ValidateBasic() error {
	if r.V == 0 || r.V > LatestRuntimeDescriptorVersion {
		return ErrInvalidArgument
	}

	if r.ID == (Namespace{}) || r.EntityID == (signature.PublicKey{}) {
		return ErrInvalidArgument
	}

	if r.Kind != KindCompute && r.Kind != KindKeyManager {
		return ErrInvalidArgument
	}

	if !r.GovernanceModel.IsValid() {
		return ErrInvalidArgument
	}

	if r.TEEHardware != TEEHardwareInvalid && len(r.Enclaves) == 0 {
		return ErrNoEnclaveForRuntime
	}

	return nil
}
