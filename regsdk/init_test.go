package regsdk

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xAtelerix/registry-sdk/regsdk/genesis"
	"github.com/0xAtelerix/registry-sdk/regsdk/registry"
	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
	"github.com/0xAtelerix/registry-sdk/regsdk/state"
)

func writeGenesis(t *testing.T, dataDir string, doc *genesis.Document) {
	t.Helper()

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(GenesisFilePath(dataDir), raw, 0o600))
}

func testGenesisDocument(t *testing.T, chainID string) (*genesis.Document, *signature.MemorySigner) {
	t.Helper()

	entitySigner, err := signature.NewMemorySigner(nil)
	require.NoError(t, err)

	entity := &registry.Entity{
		Versioned: registry.Versioned{V: registry.LatestEntityDescriptorVersion},
		ID:        entitySigner.Public(),
	}
	signedEntity, err := registry.SignEntity(
		entitySigner, registry.RegisterGenesisEntitySignatureContext, entity,
	)
	require.NoError(t, err)

	return &genesis.Document{
		Height:  1,
		Time:    time.Unix(1700000000, 0).UTC(),
		ChainID: chainID,
		Epoch:   3,
		Registry: genesis.Registry{
			Entities: []*registry.SignedEntity{signedEntity},
		},
	}, entitySigner
}

func TestInitAppliesGenesis(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	doc, entitySigner := testGenesisDocument(t, "registry-test")
	writeGenesis(t, dataDir, doc)

	storage, config, err := Init(context.Background(), InitConfig{
		ChainID: "registry-test",
		DataDir: dataDir,
	})
	require.NoError(t, err)
	t.Cleanup(storage.Close)

	assert.Equal(t, "registry-test", config.ChainID)
	assert.Equal(t, uint64(3), config.Epoch)

	require.NoError(t, storage.RegistryDB().View(context.Background(), func(tx kv.Tx) error {
		_, lookupErr := state.NewView(tx).Entity(entitySigner.Public())

		return lookupErr
	}))
}

func TestInitWithoutGenesis(t *testing.T) {
	t.Parallel()

	storage, config, err := Init(context.Background(), InitConfig{
		ChainID: "registry-test",
		DataDir: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(storage.Close)

	assert.Equal(t, uint64(0), config.Epoch)
}

func TestInitRejectsChainIDMismatch(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	doc, _ := testGenesisDocument(t, "other-chain")
	writeGenesis(t, dataDir, doc)

	_, _, err := Init(context.Background(), InitConfig{
		ChainID: "registry-test",
		DataDir: dataDir,
	})
	require.ErrorIs(t, err, ErrChainIDMismatch)
}

func TestInitPersistsEpochAcrossRestarts(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	doc, _ := testGenesisDocument(t, "registry-test")
	writeGenesis(t, dataDir, doc)

	cfg := InitConfig{ChainID: "registry-test", DataDir: dataDir}

	storage, config, err := Init(context.Background(), cfg)
	require.NoError(t, err)

	service := NewService(storage, config)
	require.NoError(t, service.advanceEpoch(context.Background(), 7))
	assert.Equal(t, uint64(7), service.RPC().CurrentEpoch())

	storage.Close()

	// A restart resumes from the persisted epoch, not the genesis one.
	storage, config, err = Init(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(storage.Close)

	assert.Equal(t, uint64(7), config.Epoch)
}

func TestInitRejectsReusedDataDir(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()

	storage, _, err := Init(context.Background(), InitConfig{ChainID: "chain-a", DataDir: dataDir})
	require.NoError(t, err)
	storage.Close()

	_, _, err = Init(context.Background(), InitConfig{ChainID: "chain-b", DataDir: dataDir})
	require.ErrorIs(t, err, ErrChainIDMismatch)
}

func TestMergeTables(t *testing.T) {
	t.Parallel()

	merged := MergeTables(
		kv.TableCfg{"a": {}, "b": {}},
		kv.TableCfg{"b": {}, "c": {}},
	)
	assert.Len(t, merged, 3)

	// The default set carries both the registry state and config buckets.
	tables := DefaultTables()
	assert.Contains(t, tables, ConfigBucket)

	for name := range state.Tables() {
		assert.Contains(t, tables, name)
	}
}
