// Package compiler turns an ingested authoring graph into a compiled forest.
//
// The walk is a single depth-first pass from the start cell's entry point.
// A visited set keyed by raw cell id cuts cycles, embedded children are
// attached before linked ones, and pass-through cells are skipped over so
// their successors hang off the original parent. Symbol resolution runs as a
// second pass over the finished arena.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/cicerone-chat/cicerone/internal/classify"
	"github.com/cicerone-chat/cicerone/internal/ingest"
	"github.com/cicerone-chat/cicerone/internal/logging"
	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// CyclePolicy decides what happens when the walk revisits a raw cell. Under
// both policies the revisited edge is never descended into, so the compiled
// result cannot loop.
type CyclePolicy int

const (
	// CycleReport cuts the edge and records a non-fatal issue (default).
	CycleReport CyclePolicy = iota
	// CycleIgnore cuts the edge silently.
	CycleIgnore
)

// Compiler builds compiled trees from authoring graphs.
type Compiler struct {
	classifier  *classify.Classifier
	cyclePolicy CyclePolicy
	logger      *slog.Logger
}

// Option configures the Compiler.
type Option func(*Compiler)

// WithCyclePolicy selects the cycle-cut behavior.
func WithCyclePolicy(p CyclePolicy) Option {
	return func(c *Compiler) { c.cyclePolicy = p }
}

// WithClassifier injects a pre-configured classifier.
func WithClassifier(cl *classify.Classifier) Option {
	return func(c *Compiler) { c.classifier = cl }
}

// WithLogger sets the compiler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.classifier == nil {
		c.classifier = classify.New(classify.WithLogger(c.logger))
	}
	return c
}

// walker carries the per-compilation state. One walker per Compile call, so
// concurrent compilations of different definitions share nothing mutable.
type walker struct {
	c       *Compiler
	graph   *ingest.Graph
	adj     map[string][]string
	tree    *domain.Tree
	visited map[string]bool
	issues  []domain.Issue
}

// Compile builds the compiled forest for a parsed graph. A missing start
// cell, a missing entry point, or an entry point naming no cell is fatal and
// returns no tree; every other anomaly lands in the issue list beside a
// usable tree.
func (c *Compiler) Compile(graph *ingest.Graph) (*domain.Tree, []domain.Issue, error) {
	w := &walker{
		c:       c,
		graph:   graph,
		adj:     ingest.Adjacency(graph.Links),
		tree:    domain.NewTree(),
		visited: make(map[string]bool),
	}

	entry, err := w.findEntry()
	if err != nil {
		return nil, nil, err
	}
	if graph.NodeByID(entry) == nil {
		return nil, nil, fmt.Errorf("%w: start points at unknown cell %q", domain.ErrNoEntry, entry)
	}

	w.walk(entry, domain.NoNode)
	w.resolveSymbols()

	c.logger.Debug("compilation finished",
		"nodes", w.tree.Len(), "issues", len(w.issues))
	return w.tree, w.issues, nil
}

// findEntry locates the unique start cell and its first real node: the
// declared "first" reference, or the start cell's first outgoing link.
func (w *walker) findEntry() (string, error) {
	var start *ingest.NodeCell
	for i := range w.graph.Nodes {
		if w.graph.Nodes[i].Type == classify.TypeStart {
			start = &w.graph.Nodes[i]
			break
		}
	}
	if start == nil {
		return "", domain.ErrNoStart
	}

	cls, issues := w.c.classifier.Classify(*start)
	w.issues = append(w.issues, issues...)
	w.visited[start.ID] = true

	if cls.First != "" {
		return cls.First, nil
	}
	if targets := w.adj[start.ID]; len(targets) > 0 {
		return targets[0], nil
	}
	return "", domain.ErrNoEntry
}

// walk materializes cellID under parent and recurses into its children.
func (w *walker) walk(cellID string, parent domain.NodeID) {
	if w.visited[cellID] {
		w.cutCycle(cellID, parent)
		return
	}
	w.visited[cellID] = true

	cell := w.graph.NodeByID(cellID)
	if cell == nil {
		w.issues = append(w.issues, domain.Issue{
			Code:    domain.IssueAnomaly,
			Node:    parent,
			Ref:     cellID,
			Message: "link target does not exist",
		})
		return
	}

	cls, issues := w.c.classifier.Classify(*cell)
	w.issues = append(w.issues, issues...)

	if cls.Start {
		// A stray start cell reached mid-walk: continue through it.
		w.walkChildren(cls, cellID, parent)
		return
	}
	if cls.IsPassThrough() {
		// Nothing to materialize; descendants attach to the original parent.
		w.walkChildren(cls, cellID, parent)
		return
	}

	id := w.tree.Append(domain.CompiledNode{
		ExternalID: cellID,
		Name:       cls.Name,
		Label:      cls.Label,
		Responses:  cls.Responses,
		Branches:   cls.Branches,
		Action:     cls.Action,
		Config:     cls.Config,
	}, parent)

	w.walkChildren(cls, cellID, id)
}

// walkChildren recurses into embedded children first, then linked targets not
// already covered by an embedded edge. The same target is never attached
// twice under one parent.
func (w *walker) walkChildren(cls *classify.Classified, cellID string, parent domain.NodeID) {
	attached := make(map[string]bool, len(cls.Embedded))
	for _, child := range cls.Embedded {
		if attached[child] {
			w.duplicateEdge(child, parent)
			continue
		}
		attached[child] = true
		w.walk(child, parent)
	}
	for _, target := range w.adj[cellID] {
		if attached[target] {
			w.duplicateEdge(target, parent)
			continue
		}
		attached[target] = true
		w.walk(target, parent)
	}
}

func (w *walker) cutCycle(cellID string, parent domain.NodeID) {
	if w.c.cyclePolicy == CycleIgnore {
		return
	}
	w.issues = append(w.issues, domain.Issue{
		Code:    domain.IssueCycle,
		Node:    parent,
		Ref:     cellID,
		Message: "revisited edge cut during tree walk",
	})
}

func (w *walker) duplicateEdge(cellID string, parent domain.NodeID) {
	w.issues = append(w.issues, domain.Issue{
		Code:    domain.IssueDuplicateEdge,
		Node:    parent,
		Ref:     cellID,
		Message: "target already attached under this parent",
	})
}

// resolveSymbols is the second resolution pass: every pending reference on an
// action config or a jump branch is rewritten to a compiled id, or explicitly
// flagged unresolved. Names are collected into the tree's symbol table during
// the walk itself (pass one).
func (w *walker) resolveSymbols() {
	for i := range w.tree.Nodes {
		node := &w.tree.Nodes[i]
		switch node.Action {
		case domain.ActionJump, domain.ActionMail, domain.ActionCSV, domain.ActionHandover:
			for _, ref := range node.Config.Refs() {
				w.resolveRef(node.ID, ref)
			}
		}
		for bi := range node.Branches {
			b := &node.Branches[bi]
			if b.Kind == domain.BranchJump {
				w.resolveRef(node.ID, &b.Target)
			}
		}
	}
}

func (w *walker) resolveRef(node domain.NodeID, ref *domain.Ref) {
	if ref.State != domain.RefPending {
		return
	}
	if ref.Name == "" {
		// No continuation declared; flagged, not an authoring error.
		ref.State = domain.RefUnresolved
		return
	}
	if id, ok := w.tree.ByName[ref.Name]; ok {
		ref.ID = id
		ref.State = domain.RefResolved
		return
	}
	ref.State = domain.RefUnresolved
	w.issues = append(w.issues, domain.Issue{
		Code:    domain.IssueUnresolvedSymbol,
		Node:    node,
		Ref:     ref.Name,
		Message: fmt.Sprintf("no node named %q", ref.Name),
	})
}

// ResolveTree re-runs symbol resolution over an externally built tree (the
// editor codec uses it after recompiling from editor shape).
func ResolveTree(tree *domain.Tree) []domain.Issue {
	w := &walker{tree: tree}
	w.resolveSymbols()
	return w.issues
}
