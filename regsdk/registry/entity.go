package registry

import (
	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
)

// LatestEntityDescriptorVersion is the latest entity descriptor version that
// should be used for all new descriptors.
const LatestEntityDescriptorVersion = 2

// Versioned is the descriptor version header shared by all registerable
// descriptors. Consumers reject descriptors claiming a version newer than
// the latest one they understand.
type Versioned struct {
	V uint16 `cbor:"v" json:"v"`
}

// Entity represents an entity that controls nodes and runtimes.
type Entity struct {
	Versioned

	// ID is the public key identifying the entity.
	ID signature.PublicKey `cbor:"1,keyasint" json:"id"`

	// Nodes is the list of node identity keys the entity has authorized to
	// register on its behalf.
	Nodes []signature.PublicKey `cbor:"2,keyasint,omitempty" json:"nodes,omitempty"`
}

// HasNode reports whether the entity has authorized the given node key.
func (e *Entity) HasNode(id signature.PublicKey) bool {
	for _, nodeID := range e.Nodes {
		if nodeID.Equal(id) {
			return true
		}
	}

	return false
}

// ValidateBasic performs context-free validity checks on the descriptor.
func (e *Entity) ValidateBasic() error {
	if e.V > LatestEntityDescriptorVersion {
		return ErrInvalidArgument
	}

	if e.ID == (signature.PublicKey{}) {
		return ErrInvalidArgument
	}

	return nil
}

// SignedEntity is a signed blob containing a CBOR-serialized Entity.
type SignedEntity struct {
	signature.Signed
}

// Open verifies the signature under the given context and deserializes the
// entity descriptor.
func (s *SignedEntity) Open(context signature.Context, entity *Entity) error {
	return s.Signed.Open(context, entity)
}

// SignEntity serializes the entity and signs the result.
func SignEntity(signer signature.Signer, context signature.Context, entity *Entity) (*SignedEntity, error) {
	signed, err := signature.SignSigned(signer, context, entity)
	if err != nil {
		return nil, err
	}

	return &SignedEntity{Signed: *signed}, nil
}
