package ports

import (
	"context"

	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// DefinitionStore persists compiled scenario definitions. The persistence
// technology is a collaborator concern; the core only needs these four
// operations.
type DefinitionStore interface {
	// Save persists the definition under its ID, overwriting any previous
	// version.
	Save(ctx context.Context, def *domain.Definition) error

	// Load retrieves a definition by ID. Returns domain.ErrDefinitionNotFound
	// when the ID is unknown.
	Load(ctx context.Context, id string) (*domain.Definition, error)

	// Delete removes a definition. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the stored definition IDs.
	List(ctx context.Context) ([]string, error)
}
