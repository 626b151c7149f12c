package state

import (
	"context"
	"testing"

	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/ledgerwatch/erigon-lib/kv/mdbx"
	mdbxlog "github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xAtelerix/registry-sdk/regsdk/registry"
	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
)

func openTestDB(t *testing.T) kv.RwDB {
	t.Helper()

	db, err := mdbx.NewMDBX(mdbxlog.New()).
		Path(t.TempDir()).
		WithTableCfg(func(_ kv.TableCfg) kv.TableCfg {
			return Tables()
		}).
		Open()
	require.NoError(t, err)

	t.Cleanup(db.Close)

	return db
}

func TestEntityRoundTrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	entity := &registry.Entity{
		Versioned: registry.Versioned{V: registry.LatestEntityDescriptorVersion},
		ID:        signature.PublicKey{0x01},
		Nodes:     []signature.PublicKey{{0x02}},
	}

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return SetEntity(tx, entity)
	}))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		view := NewView(tx)

		got, err := view.Entity(entity.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.ID, got.ID)
		assert.Equal(t, entity.Nodes, got.Nodes)

		_, err = view.Entity(signature.PublicKey{0xff})
		require.ErrorIs(t, err, registry.ErrNoSuchEntity)

		all, err := view.Entities()
		require.NoError(t, err)
		assert.Len(t, all, 1)

		return nil
	}))

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return RemoveEntity(tx, entity.ID)
	}))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		_, err := NewView(tx).Entity(entity.ID)
		require.ErrorIs(t, err, registry.ErrNoSuchEntity)

		return nil
	}))
}

func TestNodeStatusLifecycle(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	node := &registry.Node{
		Versioned:  registry.Versioned{V: registry.LatestNodeDescriptorVersion},
		ID:         signature.PublicKey{0x03},
		EntityID:   signature.PublicKey{0x01},
		Expiration: 10,
	}

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return SetNode(tx, node)
	}))

	// A fresh node gets an unfrozen status record.
	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		status, err := NewView(tx).NodeStatus(node.ID)
		require.NoError(t, err)
		assert.False(t, status.IsFrozen())

		return nil
	}))

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return FreezeNode(tx, node.ID, 42)
	}))

	// Re-registering the node must not reset the freeze.
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return SetNode(tx, node)
	}))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		status, err := NewView(tx).NodeStatus(node.ID)
		require.NoError(t, err)
		assert.True(t, status.IsFrozen())
		assert.Equal(t, uint64(42), status.FreezeEndTime)

		return nil
	}))

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return RemoveNode(tx, node.ID)
	}))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		view := NewView(tx)

		_, err := view.Node(node.ID)
		require.ErrorIs(t, err, registry.ErrNoSuchNode)

		_, err = view.NodeStatus(node.ID)
		require.ErrorIs(t, err, registry.ErrNoSuchNode)

		return nil
	}))
}

func TestEntityOwnershipScans(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	entityA := signature.PublicKey{0x0a}
	entityB := signature.PublicKey{0x0b}

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		for i, owner := range []signature.PublicKey{entityA, entityA, entityB} {
			node := &registry.Node{
				Versioned: registry.Versioned{V: registry.LatestNodeDescriptorVersion},
				ID:        signature.PublicKey{0x10, byte(i)},
				EntityID:  owner,
			}
			if err := SetNode(tx, node); err != nil {
				return err
			}
		}

		rt := &registry.Runtime{
			Versioned:       registry.Versioned{V: registry.LatestRuntimeDescriptorVersion},
			ID:              registry.Namespace{0x80},
			EntityID:        entityB,
			Kind:            registry.KindCompute,
			GovernanceModel: registry.GovernanceEntity,
		}

		return SetRuntime(tx, rt)
	}))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		view := NewView(tx)

		nodesA, err := view.EntityNodes(entityA)
		require.NoError(t, err)
		assert.Len(t, nodesA, 2)

		nodesB, err := view.EntityNodes(entityB)
		require.NoError(t, err)
		assert.Len(t, nodesB, 1)

		runtimesA, err := view.EntityRuntimes(entityA)
		require.NoError(t, err)
		assert.Empty(t, runtimesA)

		runtimesB, err := view.EntityRuntimes(entityB)
		require.NoError(t, err)
		assert.Len(t, runtimesB, 1)

		return nil
	}))
}

func TestRuntimeRoundTrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	rt := &registry.Runtime{
		Versioned:       registry.Versioned{V: registry.LatestRuntimeDescriptorVersion},
		ID:              registry.Namespace{0x80, 0x01},
		EntityID:        signature.PublicKey{0x01},
		Kind:            registry.KindKeyManager,
		GovernanceModel: registry.GovernanceRuntime,
	}

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return SetRuntime(tx, rt)
	}))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		got, err := NewView(tx).Runtime(rt.ID)
		require.NoError(t, err)
		assert.Equal(t, rt.Kind, got.Kind)
		assert.Equal(t, rt.GovernanceModel, got.GovernanceModel)

		_, err = NewView(tx).Runtime(registry.Namespace{0xff})
		require.ErrorIs(t, err, registry.ErrNoSuchRuntime)

		return nil
	}))
}

func TestScansDrainFully(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	// Empty buckets scan cleanly.
	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		view := NewView(tx)

		entities, err := view.Entities()
		require.NoError(t, err)
		assert.Empty(t, entities)

		nodes, err := view.EntityNodes(signature.PublicKey{0x01})
		require.NoError(t, err)
		assert.Empty(t, nodes)

		runtimes, err := view.EntityRuntimes(signature.PublicKey{0x01})
		require.NoError(t, err)
		assert.Empty(t, runtimes)

		return nil
	}))

	const n = 16

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		for i := 0; i < n; i++ {
			entity := &registry.Entity{
				Versioned: registry.Versioned{V: registry.LatestEntityDescriptorVersion},
				ID:        signature.PublicKey{0x20, byte(i)},
			}
			if err := SetEntity(tx, entity); err != nil {
				return err
			}
		}

		return nil
	}))

	// The scan returns every entry up to and including the last one.
	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		entities, err := NewView(tx).Entities()
		require.NoError(t, err)
		assert.Len(t, entities, n)

		return nil
	}))
}
