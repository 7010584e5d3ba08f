package domain

import "time"

// SourceFormat tags the authoring format a definition was imported from.
type SourceFormat string

const (
	SourceGraph   SourceFormat = "graph"
	SourceTable   SourceFormat = "table"
	SourceEditor  SourceFormat = "editor"
)

// Source keeps the original authoring payload verbatim so a re-export can be
// faithful to what the author last saved.
type Source struct {
	Format  SourceFormat `json:"format"`
	Payload []byte       `json:"payload"`
}

// Definition is a named, versioned container holding exactly one compiled
// tree plus the authoring payload it was compiled from. Immutable once
// published; editing means re-running a codec on the whole payload and
// recompiling.
type Definition struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Version    int       `json:"version"`
	Tree       *Tree     `json:"tree"`
	Source     *Source   `json:"source,omitempty"`
	CompiledAt time.Time `json:"compiled_at"`
}
