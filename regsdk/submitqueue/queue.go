// Package submitqueue persists signed transactions that have been prepared
// locally but not yet broadcast. Transactions survive process restarts and
// can be drained into batches for submission.
package submitqueue

import (
	"context"
	"crypto/sha256"
	"errors"

	"github.com/ledgerwatch/erigon-lib/kv"

	"github.com/0xAtelerix/registry-sdk/regsdk/transaction"
	"github.com/0xAtelerix/registry-sdk/regsdk/utility"
)

const (
	queueBucket   = "submit_queue"   // tx hash -> signed tx
	batchesBucket = "submit_batches" // batch hash -> flattened txs
)

var ErrNotFound = errors.New("submitqueue: transaction not found")

// Tables returns the table configuration for the queue database.
func Tables() kv.TableCfg {
	return kv.TableCfg{
		queueBucket:   {},
		batchesBucket: {},
	}
}

// Queue is an MDBX-backed queue of pending signed transactions.
type Queue struct {
	db kv.RwDB
}

// NewQueue creates a queue over the given database. The database must be
// opened with Tables().
func NewQueue(db kv.RwDB) *Queue {
	return &Queue{db: db}
}

// Add inserts the signed transaction, keyed by its hash.
func (q *Queue) Add(ctx context.Context, tx *transaction.SignedTransaction) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}

	data, err := tx.Marshal()
	if err != nil {
		return err
	}

	return q.db.Update(ctx, func(txn kv.RwTx) error {
		return txn.Put(queueBucket, hash[:], data)
	})
}

// Get returns the queued transaction with the given hash.
func (q *Queue) Get(ctx context.Context, hash []byte) (*transaction.SignedTransaction, error) {
	var data []byte

	err := q.db.View(ctx, func(txn kv.Tx) error {
		var err error
		data, err = txn.GetOne(queueBucket, hash)

		return err
	})
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, ErrNotFound
	}

	var tx transaction.SignedTransaction
	if err := tx.Unmarshal(data); err != nil {
		return nil, err
	}

	return &tx, nil
}

// Remove deletes the queued transaction with the given hash.
func (q *Queue) Remove(ctx context.Context, hash []byte) error {
	return q.db.Update(ctx, func(txn kv.RwTx) error {
		return txn.Delete(queueBucket, hash)
	})
}

// Pending returns all queued transactions.
func (q *Queue) Pending(ctx context.Context) ([]*transaction.SignedTransaction, error) {
	var txs []*transaction.SignedTransaction

	err := q.db.View(ctx, func(txn kv.Tx) error {
		cursor, err := txn.Cursor(queueBucket)
		if err != nil {
			return err
		}
		defer cursor.Close()

		for k, v, err := cursor.First(); ; k, v, err = cursor.Next() {
			if err != nil {
				return err
			}

			if k == nil {
				break
			}

			var tx transaction.SignedTransaction
			if err := tx.Unmarshal(v); err != nil {
				return err
			}

			txs = append(txs, &tx)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return txs, nil
}

// CreateBatch drains the queue into a length-prefixed batch, stores the batch
// under its hash and returns the hash and the raw transactions.
func (q *Queue) CreateBatch(ctx context.Context) ([]byte, [][]byte, error) {
	var (
		rawTxs    [][]byte
		batchHash []byte
	)

	err := q.db.Update(ctx, func(txn kv.RwTx) error {
		cursor, err := txn.Cursor(queueBucket)
		if err != nil {
			return err
		}
		defer cursor.Close()

		for k, v, err := cursor.First(); ; k, v, err = cursor.Next() {
			if err != nil {
				return err
			}

			if k == nil {
				break
			}

			value := make([]byte, len(v))
			copy(value, v)
			rawTxs = append(rawTxs, value)

			if err := txn.Delete(queueBucket, k); err != nil {
				return err
			}
		}

		if len(rawTxs) == 0 {
			return nil
		}

		flat := utility.Flatten(rawTxs)
		hash := sha256.Sum256(flat)
		batchHash = hash[:]

		return txn.Put(batchesBucket, batchHash, flat)
	})
	if err != nil {
		return nil, nil, err
	}

	return batchHash, rawTxs, nil
}

// GetBatch returns the raw transactions of a stored batch.
func (q *Queue) GetBatch(ctx context.Context, batchHash []byte) ([][]byte, error) {
	var flat []byte

	err := q.db.View(ctx, func(txn kv.Tx) error {
		var err error
		flat, err = txn.GetOne(batchesBucket, batchHash)

		return err
	})
	if err != nil {
		return nil, err
	}

	if len(flat) == 0 {
		return nil, ErrNotFound
	}

	if !utility.CheckHash(flat, batchHash) {
		return nil, ErrNotFound
	}

	return utility.Unflatten(flat)
}

// Close closes the underlying database.
func (q *Queue) Close() error {
	q.db.Close()

	return nil
}
