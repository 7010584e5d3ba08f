package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// RunDefinitionStoreContract verifies that a DefinitionStore implementation
// adheres to the interface contract. Adapters call it from their own tests.
func RunDefinitionStoreContract(t *testing.T, store DefinitionStore) {
	ctx := context.Background()

	newDef := func(id string) *domain.Definition {
		tree := domain.NewTree()
		root := tree.Append(domain.CompiledNode{ExternalID: "a", Label: "Root"}, domain.NoNode)
		tree.Append(domain.CompiledNode{ExternalID: "b", Label: "Leaf", Name: "leaf"}, root)
		return &domain.Definition{
			ID:         id,
			Name:       "contract",
			Version:    1,
			Tree:       tree,
			Source:     &domain.Source{Format: domain.SourceGraph, Payload: []byte(`{"cells":[]}`)},
			CompiledAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		def := newDef("contract-save-load")
		require.NoError(t, store.Save(ctx, def))

		loaded, err := store.Load(ctx, def.ID)
		require.NoError(t, err)
		assert.Equal(t, def.ID, loaded.ID)
		assert.Equal(t, def.Name, loaded.Name)
		require.NotNil(t, loaded.Tree)
		assert.Equal(t, def.Tree.Len(), loaded.Tree.Len())
		assert.Equal(t, "Leaf", loaded.Tree.Node(loaded.Tree.ByName["leaf"]).Label)
		require.NotNil(t, loaded.Source)
		assert.Equal(t, def.Source.Payload, loaded.Source.Payload)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "contract-no-such-definition")
		assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
	})

	t.Run("Overwrite Bumps Content", func(t *testing.T) {
		def := newDef("contract-overwrite")
		require.NoError(t, store.Save(ctx, def))
		def.Version = 2
		require.NoError(t, store.Save(ctx, def))

		loaded, err := store.Load(ctx, def.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Version)
	})

	t.Run("Delete", func(t *testing.T) {
		def := newDef("contract-delete")
		require.NoError(t, store.Save(ctx, def))
		require.NoError(t, store.Delete(ctx, def.ID))

		_, err := store.Load(ctx, def.ID)
		assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)

		// Idempotent.
		assert.NoError(t, store.Delete(ctx, def.ID))
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newDef("contract-list-1")))
		require.NoError(t, store.Save(ctx, newDef("contract-list-2")))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, "contract-list-1")
		assert.Contains(t, ids, "contract-list-2")
	})
}
