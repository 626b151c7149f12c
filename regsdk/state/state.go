// Package state maintains the SDK's local view of the registry in an MDBX
// database: entity, node and runtime descriptors plus per-node status. It
// implements registry.Lookup so the verification helpers can run against it.
package state

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/ledgerwatch/erigon-lib/kv"

	"github.com/0xAtelerix/registry-sdk/regsdk/registry"
	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
)

const (
	EntityBucket     = "registry_entities"    // entity ID -> Entity
	NodeBucket       = "registry_nodes"       // node ID -> Node
	NodeStatusBucket = "registry_node_status" // node ID -> NodeStatus
	RuntimeBucket    = "registry_runtimes"    // runtime ID -> Runtime
)

// Tables returns the table configuration for the registry state database.
func Tables() kv.TableCfg {
	return kv.TableCfg{
		EntityBucket:     {},
		NodeBucket:       {},
		NodeStatusBucket: {},
		RuntimeBucket:    {},
	}
}

// SetEntity stores the entity descriptor.
func SetEntity(tx kv.RwTx, entity *registry.Entity) error {
	value, err := cbor.Marshal(entity)
	if err != nil {
		return err
	}

	return tx.Put(EntityBucket, entity.ID[:], value)
}

// RemoveEntity deletes the entity descriptor.
func RemoveEntity(tx kv.RwTx, id signature.PublicKey) error {
	return tx.Delete(EntityBucket, id[:])
}

// SetNode stores the node descriptor and initializes its status record if
// one does not exist yet.
func SetNode(tx kv.RwTx, node *registry.Node) error {
	value, err := cbor.Marshal(node)
	if err != nil {
		return err
	}

	if err := tx.Put(NodeBucket, node.ID[:], value); err != nil {
		return err
	}

	existing, err := tx.GetOne(NodeStatusBucket, node.ID[:])
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		return SetNodeStatus(tx, node.ID, &registry.NodeStatus{})
	}

	return nil
}

// RemoveNode deletes the node descriptor and its status record.
func RemoveNode(tx kv.RwTx, id signature.PublicKey) error {
	if err := tx.Delete(NodeBucket, id[:]); err != nil {
		return err
	}

	return tx.Delete(NodeStatusBucket, id[:])
}

// SetNodeStatus stores the status record for the given node.
func SetNodeStatus(tx kv.RwTx, id signature.PublicKey, status *registry.NodeStatus) error {
	value, err := cbor.Marshal(status)
	if err != nil {
		return err
	}

	return tx.Put(NodeStatusBucket, id[:], value)
}

// FreezeNode marks the node frozen until the given epoch.
func FreezeNode(tx kv.RwTx, id signature.PublicKey, freezeEndTime uint64) error {
	return SetNodeStatus(tx, id, &registry.NodeStatus{FreezeEndTime: freezeEndTime})
}

// SetRuntime stores the runtime descriptor.
func SetRuntime(tx kv.RwTx, rt *registry.Runtime) error {
	value, err := cbor.Marshal(rt)
	if err != nil {
		return err
	}

	return tx.Put(RuntimeBucket, rt.ID[:], value)
}

// RemoveRuntime deletes the runtime descriptor.
func RemoveRuntime(tx kv.RwTx, id registry.Namespace) error {
	return tx.Delete(RuntimeBucket, id[:])
}

// View is a read-only registry view over a single database transaction.
// It implements registry.Lookup.
type View struct {
	tx kv.Tx
}

// NewView wraps the given transaction in a registry view.
func NewView(tx kv.Tx) *View {
	return &View{tx: tx}
}

var _ registry.Lookup = (*View)(nil)

func (v *View) Entity(id signature.PublicKey) (*registry.Entity, error) {
	value, err := v.tx.GetOne(EntityBucket, id[:])
	if err != nil {
		return nil, err
	}

	if len(value) == 0 {
		return nil, registry.ErrNoSuchEntity
	}

	var entity registry.Entity
	if err := cbor.Unmarshal(value, &entity); err != nil {
		return nil, err
	}

	return &entity, nil
}

func (v *View) Node(id signature.PublicKey) (*registry.Node, error) {
	value, err := v.tx.GetOne(NodeBucket, id[:])
	if err != nil {
		return nil, err
	}

	if len(value) == 0 {
		return nil, registry.ErrNoSuchNode
	}

	var node registry.Node
	if err := cbor.Unmarshal(value, &node); err != nil {
		return nil, err
	}

	return &node, nil
}

func (v *View) NodeStatus(id signature.PublicKey) (*registry.NodeStatus, error) {
	value, err := v.tx.GetOne(NodeStatusBucket, id[:])
	if err != nil {
		return nil, err
	}

	if len(value) == 0 {
		return nil, registry.ErrNoSuchNode
	}

	var status registry.NodeStatus
	if err := cbor.Unmarshal(value, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

func (v *View) Runtime(id registry.Namespace) (*registry.Runtime, error) {
	value, err := v.tx.GetOne(RuntimeBucket, id[:])
	if err != nil {
		return nil, err
	}

	if len(value) == 0 {
		return nil, registry.ErrNoSuchRuntime
	}

	var rt registry.Runtime
	if err := cbor.Unmarshal(value, &rt); err != nil {
		return nil, err
	}

	return &rt, nil
}

func (v *View) EntityNodes(id signature.PublicKey) ([]*registry.Node, error) {
	var nodes []*registry.Node

	cursor, err := v.tx.Cursor(NodeBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	for k, value, err := cursor.First(); ; k, value, err = cursor.Next() {
		if err != nil {
			return nil, err
		}

		if k == nil {
			break
		}

		var node registry.Node
		if err := cbor.Unmarshal(value, &node); err != nil {
			return nil, err
		}

		if node.EntityID.Equal(id) {
			nodes = append(nodes, &node)
		}
	}

	return nodes, nil
}

func (v *View) EntityRuntimes(id signature.PublicKey) ([]*registry.Runtime, error) {
	var runtimes []*registry.Runtime

	cursor, err := v.tx.Cursor(RuntimeBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	for k, value, err := cursor.First(); ; k, value, err = cursor.Next() {
		if err != nil {
			return nil, err
		}

		if k == nil {
			break
		}

		var rt registry.Runtime
		if err := cbor.Unmarshal(value, &rt); err != nil {
			return nil, err
		}

		if rt.EntityID.Equal(id) {
			runtimes = append(runtimes, &rt)
		}
	}

	return runtimes, nil
}

// Entities returns all registered entity descriptors.
func (v *View) Entities() ([]*registry.Entity, error) {
	var entities []*registry.Entity

	cursor, err := v.tx.Cursor(EntityBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	for k, value, err := cursor.First(); ; k, value, err = cursor.Next() {
		if err != nil {
			return nil, err
		}

		if k == nil {
			break
		}

		var entity registry.Entity
		if err := cbor.Unmarshal(value, &entity); err != nil {
			return nil, err
		}

		entities = append(entities, &entity)
	}

	return entities, nil
}
