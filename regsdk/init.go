package regsdk

import (
	"context"
	"fmt"
	"os"

	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/ledgerwatch/erigon-lib/kv/mdbx"
	mdbxlog "github.com/ledgerwatch/log/v3"
	"github.com/rs/zerolog/log"

	"github.com/0xAtelerix/registry-sdk/regsdk/genesis"
	"github.com/0xAtelerix/registry-sdk/regsdk/state"
	"github.com/0xAtelerix/registry-sdk/regsdk/submitqueue"
)

type InitConfig struct {
	ChainID string // Defaults to registry-dev
	DataDir string // Defaults to /data
	RPCPort string // Defaults to the rpc package default

	GenesisFile    string // Optional, defaults to {DataDir}/genesis.json
	WaitForGenesis bool   // Block until the genesis document appears

	PrometheusPort string       // Optional, leave empty to disable
	CustomTables   kv.TableCfg  // Optional, merged with default tables
	CustomPaths    *CustomPaths // Optional, overrides DataDir-derived paths
}

// CustomPaths overrides default directory paths.
// Optional - if not set, paths are derived from DataDir.
type CustomPaths struct {
	RegistryDBDir string // Default: {DataDir}/registry/db
	QueueDBDir    string // Default: {DataDir}/queue
}

// Init initializes the registry storage and configuration: it opens the
// registry and queue databases, pins the chain ID, and applies the genesis
// document on first start.
func Init(ctx context.Context, cfg InitConfig) (*Storage, *Config, error) {
	if cfg.ChainID == "" {
		cfg.ChainID = DefaultChainID
	}

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}

	logger := log.Ctx(ctx)

	registryDBPath := RegistryDBPath(cfg.DataDir)
	if cfg.CustomPaths != nil && cfg.CustomPaths.RegistryDBDir != "" {
		registryDBPath = cfg.CustomPaths.RegistryDBDir
	}

	if err := os.MkdirAll(registryDBPath, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create registry db directory: %w", err)
	}

	tables := DefaultTables()
	if cfg.CustomTables != nil {
		tables = MergeTables(tables, cfg.CustomTables)
	}

	storage := &Storage{}

	var err error

	storage.registryDB, err = mdbx.NewMDBX(mdbxlog.New()).
		Path(registryDBPath).
		WithTableCfg(func(_ kv.TableCfg) kv.TableCfg {
			return tables
		}).Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open registry database: %w", err)
	}

	if err := pinChainID(ctx, storage.registryDB, cfg.ChainID); err != nil {
		storage.Close()

		return nil, nil, err
	}

	queueDBPath := QueueDBPath(cfg.DataDir)
	if cfg.CustomPaths != nil && cfg.CustomPaths.QueueDBDir != "" {
		queueDBPath = cfg.CustomPaths.QueueDBDir
	}

	if err := os.MkdirAll(queueDBPath, 0o755); err != nil {
		storage.Close()

		return nil, nil, fmt.Errorf("failed to create queue directory: %w", err)
	}

	storage.queueDB, err = mdbx.NewMDBX(mdbxlog.New()).
		Path(queueDBPath).
		WithTableCfg(func(_ kv.TableCfg) kv.TableCfg {
			return submitqueue.Tables()
		}).
		Open()
	if err != nil {
		storage.Close()

		return nil, nil, fmt.Errorf("failed to open queue database: %w", err)
	}

	storage.queue = submitqueue.NewQueue(storage.queueDB)

	epoch, err := initGenesis(ctx, storage.registryDB, cfg)
	if err != nil {
		storage.Close()

		return nil, nil, err
	}

	config := &Config{
		ChainID:        cfg.ChainID,
		DataDir:        cfg.DataDir,
		RPCPort:        cfg.RPCPort,
		PrometheusPort: cfg.PrometheusPort,
		Epoch:          epoch,
		Logger:         logger,
	}

	logger.Info().
		Str("chainID", cfg.ChainID).
		Str("dataDir", cfg.DataDir).
		Uint64("epoch", epoch).
		Msg("Registry initialization complete")

	return storage, config, nil
}

// pinChainID stores the chain ID on first start and rejects databases that
// were initialized for a different network.
func pinChainID(ctx context.Context, db kv.RwDB, chainID string) error {
	return db.Update(ctx, func(tx kv.RwTx) error {
		stored, err := GetChainID(tx)
		if err != nil {
			return err
		}

		switch stored {
		case "":
			return WriteChainID(tx, chainID)
		case chainID:
			return nil
		default:
			return fmt.Errorf("%w: database has %q, configured %q",
				ErrChainIDMismatch, stored, chainID)
		}
	})
}

// initGenesis applies the genesis document to an empty registry and returns
// the epoch the service should start from.
func initGenesis(ctx context.Context, db kv.RwDB, cfg InitConfig) (uint64, error) {
	logger := log.Ctx(ctx)

	genesisFile := GenesisFilePath(cfg.DataDir)
	if cfg.GenesisFile != "" {
		genesisFile = cfg.GenesisFile
	}

	var (
		doc *genesis.Document
		err error
	)

	switch {
	case cfg.WaitForGenesis:
		logger.Info().Str("path", genesisFile).Msg("Waiting for genesis document...")

		doc, err = genesis.WaitDocument(ctx, genesisFile)
		if err != nil {
			return 0, fmt.Errorf("genesis not available: %w", err)
		}
	default:
		doc, err = genesis.LoadDocument(genesisFile)
		if os.IsNotExist(err) {
			// No document; resume from whatever epoch was persisted.
			return persistedEpoch(ctx, db)
		}

		if err != nil {
			return 0, err
		}
	}

	if doc.ChainID != cfg.ChainID {
		return 0, fmt.Errorf("%w: genesis has %q, configured %q",
			ErrChainIDMismatch, doc.ChainID, cfg.ChainID)
	}

	empty, err := registryEmpty(ctx, db)
	if err != nil {
		return 0, err
	}

	if empty {
		if err := doc.Apply(ctx, db); err != nil {
			return 0, err
		}

		if err := db.Update(ctx, func(tx kv.RwTx) error {
			return WriteEpoch(tx, doc.Epoch)
		}); err != nil {
			return 0, err
		}

		logger.Info().
			Int("entities", len(doc.Registry.Entities)).
			Int("nodes", len(doc.Registry.Nodes)).
			Int("runtimes", len(doc.Registry.Runtimes)).
			Uint64("epoch", doc.Epoch).
			Msg("Genesis document applied")

		return doc.Epoch, nil
	}

	return persistedEpoch(ctx, db)
}

func persistedEpoch(ctx context.Context, db kv.RwDB) (uint64, error) {
	var epoch uint64

	err := db.View(ctx, func(tx kv.Tx) error {
		var getErr error
		epoch, getErr = GetEpoch(tx)

		return getErr
	})

	return epoch, err
}

func registryEmpty(ctx context.Context, db kv.RwDB) (bool, error) {
	var empty bool

	err := db.View(ctx, func(tx kv.Tx) error {
		entities, viewErr := state.NewView(tx).Entities()
		if viewErr != nil {
			return viewErr
		}

		empty = len(entities) == 0

		return nil
	})

	return empty, err
}
