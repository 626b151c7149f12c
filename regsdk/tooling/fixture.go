// Package tooling provides fixtures and loaders for exercising a registry
// deployment: deterministic signers and descriptors for tests, and writers
// that feed descriptors into a registry database from files or a live RPC
// endpoint.
package tooling

import (
	"bufio"
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/ledgerwatch/erigon-lib/kv"

	"github.com/0xAtelerix/registry-sdk/regsdk/registry"
	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
	"github.com/0xAtelerix/registry-sdk/regsdk/state"
	"github.com/0xAtelerix/registry-sdk/regsdk/transaction"
)

type FixtureError string

func (e FixtureError) Error() string {
	return string(e)
}

const ErrUnsupportedFixture = FixtureError("unsupported fixture type")

// Iterator yields fixture items one at a time, io.EOF when done.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, error)
	Close() error
}

// FixtureWriter drains an iterator into a registry database at a fixed
// interval. Descriptors are written as-is: fixtures bypass the registration
// argument checks so tests can set up any state they need.
type FixtureWriter[T any] struct {
	DB       kv.RwDB
	Iter     Iterator[T]
	Interval time.Duration
}

func (fw *FixtureWriter[T]) Run(ctx context.Context) error {
	t := time.NewTicker(fw.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			item, err := fw.Iter.Next(ctx)
			if err == io.EOF {
				return nil
			}

			if err != nil {
				return err
			}

			if err := fw.writeOne(ctx, item); err != nil {
				return err
			}
		}
	}
}

func (fw *FixtureWriter[T]) writeOne(ctx context.Context, item T) error {
	switch v := any(item).(type) {
	case *registry.SignedEntity:
		return fw.putEntity(ctx, v)
	case registry.SignedEntity:
		return fw.putEntity(ctx, &v)
	case *registry.SignedNode:
		return fw.putNode(ctx, v)
	case registry.SignedNode:
		return fw.putNode(ctx, &v)
	case *registry.Runtime:
		return fw.putRuntime(ctx, v)
	case registry.Runtime:
		return fw.putRuntime(ctx, &v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedFixture, item)
	}
}

func (fw *FixtureWriter[T]) putEntity(ctx context.Context, signed *registry.SignedEntity) error {
	var entity registry.Entity
	if err := signed.Open(registry.RegisterEntitySignatureContext, &entity); err != nil {
		return err
	}

	return fw.DB.Update(ctx, func(tx kv.RwTx) error {
		return state.SetEntity(tx, &entity)
	})
}

func (fw *FixtureWriter[T]) putNode(ctx context.Context, signed *registry.SignedNode) error {
	var node registry.Node
	if err := signed.Open(registry.RegisterNodeSignatureContext, &node); err != nil {
		return err
	}

	return fw.DB.Update(ctx, func(tx kv.RwTx) error {
		return state.SetNode(tx, &node)
	})
}

func (fw *FixtureWriter[T]) putRuntime(ctx context.Context, rt *registry.Runtime) error {
	return fw.DB.Update(ctx, func(tx kv.RwTx) error {
		return state.SetRuntime(tx, rt)
	})
}

// FixtureSigner returns a signer derived deterministically from the seed
// byte, so fixtures keep stable identities across runs.
func FixtureSigner(seed byte) (*signature.MemorySigner, error) {
	return signature.NewMemorySigner(
		bytes.NewReader(bytes.Repeat([]byte{seed}, ed25519.SeedSize)),
	)
}

// EntityFixture builds a signed entity descriptor owned by the seed signer,
// authorizing the given node keys.
func EntityFixture(seed byte, nodes ...signature.PublicKey) (*registry.SignedEntity, *signature.MemorySigner, error) {
	signer, err := FixtureSigner(seed)
	if err != nil {
		return nil, nil, err
	}

	entity := &registry.Entity{
		Versioned: registry.Versioned{V: registry.LatestEntityDescriptorVersion},
		ID:        signer.Public(),
		Nodes:     nodes,
	}

	signed, err := registry.SignEntity(signer, registry.RegisterEntitySignatureContext, entity)
	if err != nil {
		return nil, nil, err
	}

	return signed, signer, nil
}

// NodeFixture builds a signed node descriptor for the seed signer under the
// given entity.
func NodeFixture(
	seed byte,
	entityID signature.PublicKey,
	expiration uint64,
) (*registry.SignedNode, *signature.MemorySigner, error) {
	signer, err := FixtureSigner(seed)
	if err != nil {
		return nil, nil, err
	}

	node := &registry.Node{
		Versioned:  registry.Versioned{V: registry.LatestNodeDescriptorVersion},
		ID:         signer.Public(),
		EntityID:   entityID,
		Expiration: expiration,
	}

	signed, err := registry.SignNode(signer, registry.RegisterNodeSignatureContext, node)
	if err != nil {
		return nil, nil, err
	}

	return signed, signer, nil
}

// RuntimeFixture builds a compute runtime descriptor owned by the entity.
func RuntimeFixture(id registry.Namespace, entityID signature.PublicKey) *registry.Runtime {
	return &registry.Runtime{
		Versioned:       registry.Versioned{V: registry.LatestRuntimeDescriptorVersion},
		ID:              id,
		EntityID:        entityID,
		Kind:            registry.KindCompute,
		GovernanceModel: registry.GovernanceEntity,
	}
}

// SliceIterator yields the items of a slice in order.
type SliceIterator[T any] struct {
	items []T
	cur   int
}

func NewSliceIterator[T any](items []T) *SliceIterator[T] {
	return &SliceIterator[T]{items: items}
}

func (it *SliceIterator[T]) Next(_ context.Context) (T, error) {
	var zero T

	if it.cur >= len(it.items) {
		return zero, io.EOF
	}

	item := it.items[it.cur]
	it.cur++

	return item, nil
}

func (it *SliceIterator[T]) Close() error {
	it.cur = len(it.items)

	return nil
}

// SignedTxFileIterator reads signed transactions from a file, one JSON
// envelope per line.
type SignedTxFileIterator struct {
	f  *os.File
	sc *bufio.Scanner
}

func NewSignedTxFileIterator(path string) (*SignedTxFileIterator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<27)

	return &SignedTxFileIterator{f: f, sc: sc}, nil
}

func (it *SignedTxFileIterator) Next(_ context.Context) (*transaction.SignedTransaction, error) {
	if !it.sc.Scan() {
		if err := it.sc.Err(); err != nil {
			return nil, err
		}

		return nil, io.EOF
	}

	var signed transaction.SignedTransaction
	if err := json.Unmarshal(bytes.Clone(it.sc.Bytes()), &signed.Signed); err != nil {
		return nil, err
	}

	return &signed, nil
}

func (it *SignedTxFileIterator) Close() error {
	return it.f.Close()
}
