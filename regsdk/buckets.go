package regsdk

import (
	"encoding/binary"

	"github.com/ledgerwatch/erigon-lib/kv"

	"github.com/0xAtelerix/registry-sdk/regsdk/state"
)

const (
	// ConfigBucket holds service bookkeeping: chain ID, persisted epoch.
	ConfigBucket = "config"

	ChainIDKey = "chain_id"
	EpochKey   = "epoch"
)

// DefaultTables returns the table set of the registry database.
func DefaultTables() kv.TableCfg {
	return MergeTables(state.Tables(), kv.TableCfg{
		ConfigBucket: {},
	})
}

// MergeTables merges table sets. Later sets win on name collisions.
func MergeTables(bucketSets ...kv.TableCfg) kv.TableCfg {
	final := kv.TableCfg{}
	for _, buckets := range bucketSets {
		for i := range buckets {
			final[i] = buckets[i]
		}
	}

	return final
}

// WriteChainID stores the chain identifier the database belongs to.
func WriteChainID(rwtx kv.RwTx, chainID string) error {
	return rwtx.Put(ConfigBucket, []byte(ChainIDKey), []byte(chainID))
}

// GetChainID returns the stored chain identifier, or empty on first start.
func GetChainID(tx kv.Tx) (string, error) {
	value, err := tx.GetOne(ConfigBucket, []byte(ChainIDKey))
	if err != nil {
		return "", err
	}

	return string(value), nil
}

// WriteEpoch persists the current epoch so restarts resume from it.
func WriteEpoch(rwtx kv.RwTx, epoch uint64) error {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, epoch)

	return rwtx.Put(ConfigBucket, []byte(EpochKey), value)
}

// GetEpoch returns the persisted epoch, zero if none was stored yet.
func GetEpoch(tx kv.Tx) (uint64, error) {
	value, err := tx.GetOne(ConfigBucket, []byte(EpochKey))
	if err != nil {
		return 0, err
	}

	if len(value) != 8 {
		return 0, nil
	}

	return binary.BigEndian.Uint64(value), nil
}
