// Package runtime walks a compiled tree live to drive a chat session.
//
// Traversal is a pure, stateless read over an already-compiled tree: it never
// mutates the tree and never blocks, so any number of concurrent sessions can
// share one definition without locking.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cicerone-chat/cicerone/internal/logging"
	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// Selection is one inbound event: either the compiled id the user picked or
// the restart sentinel.
type Selection struct {
	Node    domain.NodeID
	Restart bool
}

// ParseSelection decodes the wire form of a selection: a decimal compiled id
// or the reserved restart value.
func ParseSelection(raw string) (Selection, error) {
	if raw == domain.SelectionRestart {
		return Selection{Restart: true}, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return Selection{}, fmt.Errorf("%w: selection %q", domain.ErrNodeNotFound, raw)
	}
	return Selection{Node: domain.NodeID(id)}, nil
}

// Option is one choice offered to the user for the next turn.
type Option struct {
	// ID is the compiled node the option selects. NoNode for the synthetic
	// return-to-start option.
	ID      domain.NodeID `json:"id"`
	Label   string        `json:"label"`
	Restart bool          `json:"restart,omitempty"`
}

// Reply is what one traversal step hands back to the caller: the message to
// present, the next option set, and the selected node's action verbatim. A
// node may both present text and declare an action to fire.
type Reply struct {
	Messages []domain.Response   `json:"messages,omitempty"`
	Options  []Option            `json:"options,omitempty"`
	Action   domain.Action       `json:"action,omitempty"`
	Config   domain.ActionConfig `json:"config,omitempty"`
	// Handover signals that the caller must flip the session to
	// "awaiting human". No further options are offered.
	Handover bool `json:"handover,omitempty"`
	// Terminal marks a leaf reply; the only option is returning to start.
	Terminal bool `json:"terminal,omitempty"`
}

// ReturnToStartLabel is the label of the synthetic option appended to leaf
// replies.
const ReturnToStartLabel = "Return to start"

// Engine evaluates selection events against compiled trees.
type Engine struct {
	logger *slog.Logger
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a traversal engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Traverse evaluates one selection against a compiled tree.
func (e *Engine) Traverse(ctx context.Context, tree *domain.Tree, sel Selection) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sel.Restart {
		return e.restart(tree), nil
	}

	node := tree.Node(sel.Node)
	if node == nil {
		// Per-request condition; concurrent sessions are unaffected.
		return nil, fmt.Errorf("%w: id %d", domain.ErrNodeNotFound, sel.Node)
	}

	switch node.Action {
	case domain.ActionHandover:
		e.logger.Debug("handover requested", "node", node.ID)
		return &Reply{
			Messages: node.Responses,
			Action:   domain.ActionHandover,
			Config:   node.Config,
			Handover: true,
		}, nil
	case domain.ActionRestart:
		return e.restart(tree), nil
	}

	if node.IsLeaf() {
		return &Reply{
			Messages: node.Responses,
			Options:  []Option{{ID: domain.NoNode, Label: ReturnToStartLabel, Restart: true}},
			Action:   node.Action,
			Config:   node.Config,
			Terminal: true,
		}, nil
	}

	return &Reply{
		Messages: node.Responses,
		Options:  optionsFor(tree.ChildrenOf(node.ID)),
		Action:   node.Action,
		Config:   node.Config,
	}, nil
}

// restart re-emits the root's immediate children as the next option set. With
// a single root the options are its children; with a true forest each root is
// itself an option.
func (e *Engine) restart(tree *domain.Tree) *Reply {
	roots := tree.RootNodes()
	if len(roots) == 1 {
		root := roots[0]
		return &Reply{
			Messages: root.Responses,
			Options:  optionsFor(tree.ChildrenOf(root.ID)),
		}
	}
	return &Reply{Options: optionsFor(roots)}
}

func optionsFor(nodes []*domain.CompiledNode) []Option {
	opts := make([]Option, 0, len(nodes))
	for _, n := range nodes {
		opts = append(opts, Option{ID: n.ID, Label: n.Label})
	}
	return opts
}
