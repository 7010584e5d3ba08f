// Package ingest parses a raw authoring-graph document into typed node and
// link cells. It validates shape only; node semantics belong to the classifier.
package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// CellKind distinguishes node cells from link cells.
type CellKind string

const (
	KindNode CellKind = "node"
	KindLink CellKind = "link"
)

// Endpoint is one end of a link: a cell id plus an optional port.
type Endpoint struct {
	Cell string `json:"cell"`
	Port string `json:"port,omitempty"`
}

// Cell is one raw unit of the authoring document.
type Cell struct {
	ID    string         `json:"id,omitempty"`
	Kind  CellKind       `json:"kind"`
	Type  string         `json:"type,omitempty"`
	State map[string]any `json:"state,omitempty"`

	Source *Endpoint `json:"source,omitempty"`
	Target *Endpoint `json:"target,omitempty"`
}

// Document is the wire shape of an authoring graph.
type Document struct {
	Cells []Cell `json:"cells"`
}

// NodeCell is a validated node cell.
type NodeCell struct {
	ID    string
	Type  string
	State map[string]any
}

// LinkCell is a validated link cell.
type LinkCell struct {
	Source Endpoint
	Target Endpoint
}

// Graph holds the two ordered collections a document parses into.
type Graph struct {
	Nodes []NodeCell
	Links []LinkCell
}

// Parse decodes and validates a raw graph document. Any shape problem wraps
// domain.ErrBadFormat and nothing is returned.
func Parse(payload []byte) (*Graph, error) {
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadFormat, err)
	}
	return FromDocument(&doc)
}

// FromDocument validates an already-decoded document.
func FromDocument(doc *Document) (*Graph, error) {
	if doc == nil || len(doc.Cells) == 0 {
		return nil, fmt.Errorf("%w: missing cells collection", domain.ErrBadFormat)
	}

	g := &Graph{}
	for i, cell := range doc.Cells {
		switch cell.Kind {
		case KindNode:
			if cell.ID == "" {
				return nil, fmt.Errorf("%w: node cell %d has no id", domain.ErrBadFormat, i)
			}
			if cell.Type == "" {
				return nil, fmt.Errorf("%w: node cell %q has no type", domain.ErrBadFormat, cell.ID)
			}
			g.Nodes = append(g.Nodes, NodeCell{ID: cell.ID, Type: cell.Type, State: cell.State})
		case KindLink:
			if cell.Source == nil || cell.Source.Cell == "" {
				return nil, fmt.Errorf("%w: link cell %d has no source", domain.ErrBadFormat, i)
			}
			if cell.Target == nil || cell.Target.Cell == "" {
				return nil, fmt.Errorf("%w: link cell %d has no target", domain.ErrBadFormat, i)
			}
			g.Links = append(g.Links, LinkCell{Source: *cell.Source, Target: *cell.Target})
		default:
			return nil, fmt.Errorf("%w: cell %d has unknown kind %q", domain.ErrBadFormat, i, cell.Kind)
		}
	}
	return g, nil
}

// NodeByID returns the node cell with the given id, or nil.
func (g *Graph) NodeByID(id string) *NodeCell {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Adjacency builds a source cell id -> ordered target cell ids map from the
// link collection. Pure; malformed links were already rejected by Parse.
func Adjacency(links []LinkCell) map[string][]string {
	adj := make(map[string][]string, len(links))
	for _, l := range links {
		adj[l.Source.Cell] = append(adj[l.Source.Cell], l.Target.Cell)
	}
	return adj
}
