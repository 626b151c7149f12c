package submitqueue

import (
	"context"
	"testing"

	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/ledgerwatch/erigon-lib/kv/mdbx"
	mdbxlog "github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
	"github.com/0xAtelerix/registry-sdk/regsdk/transaction"
)

var testMethod = transaction.NewMethodName("queuetest", "Noop")

func openTestQueue(t *testing.T) *Queue {
	t.Helper()

	db, err := mdbx.NewMDBX(mdbxlog.New()).
		Path(t.TempDir()).
		WithTableCfg(func(_ kv.TableCfg) kv.TableCfg {
			return Tables()
		}).
		Open()
	require.NoError(t, err)

	queue := NewQueue(db)
	t.Cleanup(func() {
		require.NoError(t, queue.Close())
	})

	return queue
}

func signedTx(t require.TestingT, signer signature.Signer, nonce uint64) *transaction.SignedTransaction {
	tx := &transaction.Transaction{Nonce: nonce, Method: testMethod}

	signed, err := transaction.Sign(signer, tx)
	require.NoError(t, err)

	return signed
}

func TestQueueAddGetRemove(t *testing.T) {
	t.Parallel()

	queue := openTestQueue(t)

	signer, err := signature.NewMemorySigner(nil)
	require.NoError(t, err)

	signed := signedTx(t, signer, 1)
	hash, err := signed.Hash()
	require.NoError(t, err)

	require.NoError(t, queue.Add(context.Background(), signed))

	got, err := queue.Get(context.Background(), hash[:])
	require.NoError(t, err)

	gotHash, err := got.Hash()
	require.NoError(t, err)
	assert.Equal(t, hash, gotHash)

	require.NoError(t, queue.Remove(context.Background(), hash[:]))

	_, err = queue.Get(context.Background(), hash[:])
	require.ErrorIs(t, err, ErrNotFound)
}

func TestQueueBatch(t *testing.T) {
	t.Parallel()

	queue := openTestQueue(t)

	signer, err := signature.NewMemorySigner(nil)
	require.NoError(t, err)

	for nonce := uint64(1); nonce <= 3; nonce++ {
		require.NoError(t, queue.Add(context.Background(), signedTx(t, signer, nonce)))
	}

	batchHash, rawTxs, err := queue.CreateBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, rawTxs, 3)
	require.NotEmpty(t, batchHash)

	// The queue is drained.
	pending, err := queue.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	// The batch is retrievable and intact.
	stored, err := queue.GetBatch(context.Background(), batchHash)
	require.NoError(t, err)
	assert.Equal(t, rawTxs, stored)

	// Empty queue produces an empty batch.
	batchHash, rawTxs, err = queue.CreateBatch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, batchHash)
	assert.Empty(t, rawTxs)
}

func TestQueuePendingProperty(t *testing.T) {
	queue := openTestQueue(t)

	signer, err := signature.NewMemorySigner(nil)
	require.NoError(t, err)

	rapid.Check(t, func(tr *rapid.T) {
		nonces := rapid.SliceOfNDistinct(
			rapid.Uint64(), 1, 50,
			func(n uint64) uint64 { return n },
		).Draw(tr, "nonces")

		for _, nonce := range nonces {
			if err := queue.Add(context.Background(), signedTx(tr, signer, nonce)); err != nil {
				tr.Fatalf("add failed: %v", err)
			}
		}

		pending, err := queue.Pending(context.Background())
		if err != nil {
			tr.Fatalf("pending failed: %v", err)
		}

		if len(pending) != len(nonces) {
			tr.Fatalf("pending count: want %d, got %d", len(nonces), len(pending))
		}

		// Drain between iterations.
		if _, _, err := queue.CreateBatch(context.Background()); err != nil {
			tr.Fatalf("drain failed: %v", err)
		}
	})
}
