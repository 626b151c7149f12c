// Package genesis loads and applies the initial registry document. Entities
// and nodes in the document carry the same signatures they were registered
// with, so a document can be cut from a running registry and replayed on a
// fresh one without re-signing anything.
package genesis

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/ledgerwatch/erigon-lib/kv"

	"github.com/0xAtelerix/registry-sdk/regsdk/registry"
	"github.com/0xAtelerix/registry-sdk/regsdk/state"
)

// Document is the top-level genesis document.
type Document struct {
	// Height is the block height the document was produced at.
	Height uint64 `json:"height"`

	// Time is the genesis time.
	Time time.Time `json:"genesis_time"`

	// ChainID identifies the network the document belongs to.
	ChainID string `json:"chain_id"`

	// Epoch is the epoch registrations are validated against when the
	// document is applied.
	Epoch uint64 `json:"epoch"`

	// Registry is the initial registry state.
	Registry Registry `json:"registry"`
}

// Registry is the registry part of the genesis document.
type Registry struct {
	Entities []*registry.SignedEntity `json:"entities,omitempty"`
	Nodes    []*registry.SignedNode   `json:"nodes,omitempty"`
	Runtimes []*registry.Runtime      `json:"runtimes,omitempty"`
}

// LoadDocument reads and sanity-checks a genesis document from disk.
func LoadDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("genesis: malformed document: %w", err)
	}

	if err := doc.SanityCheck(); err != nil {
		return nil, err
	}

	return &doc, nil
}

// SanityCheck performs the checks that need no registry view: document
// framing and every signature in the registry section.
func (d *Document) SanityCheck() error {
	if d.ChainID == "" {
		return fmt.Errorf("genesis: chain ID must not be empty")
	}

	for _, signed := range d.Registry.Entities {
		if _, err := registry.VerifyRegisterEntityArgs(signed, true); err != nil {
			return fmt.Errorf("genesis: bad entity: %w", err)
		}
	}

	for _, signed := range d.Registry.Nodes {
		if signed == nil {
			return fmt.Errorf("genesis: bad node: %w", registry.ErrInvalidArgument)
		}

		var node registry.Node
		if err := signed.Open(registry.RegisterGenesisNodeSignatureContext, &node); err != nil {
			return fmt.Errorf("genesis: bad node: %w", registry.ErrInvalidSignature)
		}

		if err := node.ValidateBasic(); err != nil {
			return fmt.Errorf("genesis: bad node: %w", err)
		}
	}

	for _, rt := range d.Registry.Runtimes {
		if rt == nil {
			return fmt.Errorf("genesis: bad runtime: %w", registry.ErrInvalidArgument)
		}

		if err := rt.ValidateBasic(); err != nil {
			return fmt.Errorf("genesis: bad runtime: %w", err)
		}
	}

	return nil
}

// Apply populates an empty registry database from the document. Descriptors
// go through the same argument checks as live registrations, with the genesis
// relaxations: genesis signature contexts and consensus-governed runtimes
// allowed in.
//
// Order matters: entities first, then runtimes, then nodes, so that the
// cross-references each check needs are already in place.
func (d *Document) Apply(ctx context.Context, db kv.RwDB) error {
	return db.Update(ctx, func(tx kv.RwTx) error {
		view := state.NewView(tx)

		for _, signed := range d.Registry.Entities {
			entity, err := registry.VerifyRegisterEntityArgs(signed, true)
			if err != nil {
				return fmt.Errorf("genesis: bad entity: %w", err)
			}

			if err := state.SetEntity(tx, entity); err != nil {
				return err
			}
		}

		for _, rt := range d.Registry.Runtimes {
			// Runtimes in the document were approved by their owning
			// entity, so the entity stands in as the signer.
			if err := registry.VerifyRegisterRuntimeArgs(view, rt, rt.EntityID, true); err != nil {
				return fmt.Errorf("genesis: bad runtime: %w", err)
			}

			if err := state.SetRuntime(tx, rt); err != nil {
				return err
			}
		}

		for _, signed := range d.Registry.Nodes {
			node, err := registry.VerifyRegisterNodeArgs(view, signed, d.Epoch, true)
			if err != nil {
				return fmt.Errorf("genesis: bad node: %w", err)
			}

			if err := state.SetNode(tx, node); err != nil {
				return err
			}
		}

		return nil
	})
}
