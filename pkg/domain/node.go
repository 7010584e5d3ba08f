package domain

// NodeID is a dense identifier assigned in visitation order during
// compilation. It is stable within one compilation, not across re-imports.
type NodeID int

// NoNode marks the absence of a node (root parent, unresolved reference).
const NoNode NodeID = -1

// ResponseKind types one segment of a node's response.
type ResponseKind string

const (
	ResponseText  ResponseKind = "text"
	ResponseImage ResponseKind = "image"
	ResponseForm  ResponseKind = "form"
)

// Response is one ordered segment of the message a node presents: plain text,
// an image URL, or an inline form with its field names.
type Response struct {
	Kind    ResponseKind `json:"kind" mapstructure:"kind"`
	Content string       `json:"content,omitempty" mapstructure:"content"`
	Fields  []string     `json:"fields,omitempty" mapstructure:"fields"`
}

// BranchKind types a selectable reply branch.
type BranchKind string

const (
	BranchButton BranchKind = "button"
	BranchLink   BranchKind = "link"
	BranchJump   BranchKind = "jump"
)

// Branch is a selectable continuation offered alongside a node's responses.
// Link branches carry a raw URL; jump branches carry a Ref that symbol
// resolution rewrites to a compiled id.
type Branch struct {
	Kind   BranchKind `json:"kind"`
	Label  string     `json:"label"`
	URL    string     `json:"url,omitempty"`
	Target Ref        `json:"target,omitempty"`
}

// CompiledNode is the unit of the compiled tree. Nodes are created by the
// compiler, enriched by symbol resolution, and never mutated at runtime.
type CompiledNode struct {
	// ID is the dense compiled id, equal to the node's index in the arena.
	ID NodeID `json:"id"`
	// ExternalID is the original authoring-format cell id, kept only for
	// round-tripping back to the authoring form.
	ExternalID string `json:"external_id,omitempty"`

	// Level is the depth in the tree; roots sit at 0.
	Level int `json:"level"`
	// Order is the ordinal among siblings.
	Order int `json:"order"`

	// Name is the author-assigned jump-target symbol, optional.
	Name string `json:"name,omitempty"`
	// Label is the trigger text shown to reach this node.
	Label string `json:"label"`

	Responses []Response `json:"responses,omitempty"`
	Branches  []Branch   `json:"branches,omitempty"`

	Action Action       `json:"action,omitempty"`
	Config ActionConfig `json:"config,omitempty"`

	Parent   NodeID   `json:"parent"`
	Children []NodeID `json:"children,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n *CompiledNode) IsLeaf() bool { return len(n.Children) == 0 }

// Tree is the compiled forest: a dense arena of nodes indexed by NodeID plus
// the lookup maps produced as compilation by-products. Read-only once built,
// so concurrent traversals need no locking.
type Tree struct {
	Nodes []CompiledNode `json:"nodes"`
	Roots []NodeID       `json:"roots"`

	// ByExternal maps raw authoring cell ids to compiled ids.
	ByExternal map[string]NodeID `json:"by_external,omitempty"`
	// ByName maps author-assigned node names to compiled ids (symbol table).
	ByName map[string]NodeID `json:"by_name,omitempty"`
}

// NewTree returns an empty tree with initialized lookup maps.
func NewTree() *Tree {
	return &Tree{
		ByExternal: make(map[string]NodeID),
		ByName:     make(map[string]NodeID),
	}
}

// Node returns the node for id, or nil if id is out of range.
func (t *Tree) Node(id NodeID) *CompiledNode {
	if id < 0 || int(id) >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[id]
}

// Append materializes a node under parent and returns its compiled id.
// Level, order and the parent's child list are maintained here so the forest
// invariant cannot drift.
func (t *Tree) Append(node CompiledNode, parent NodeID) NodeID {
	id := NodeID(len(t.Nodes))
	node.ID = id
	node.Parent = parent
	if p := t.Node(parent); p != nil {
		node.Level = p.Level + 1
		node.Order = len(p.Children)
		p.Children = append(p.Children, id)
	} else {
		node.Parent = NoNode
		node.Level = 0
		node.Order = len(t.Roots)
		t.Roots = append(t.Roots, id)
	}
	t.Nodes = append(t.Nodes, node)
	if node.ExternalID != "" {
		if _, dup := t.ByExternal[node.ExternalID]; !dup {
			t.ByExternal[node.ExternalID] = id
		}
	}
	if node.Name != "" {
		if _, dup := t.ByName[node.Name]; !dup {
			t.ByName[node.Name] = id
		}
	}
	return id
}

// ChildrenOf returns the child nodes of id in sibling order.
func (t *Tree) ChildrenOf(id NodeID) []*CompiledNode {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	out := make([]*CompiledNode, 0, len(n.Children))
	for _, c := range n.Children {
		if child := t.Node(c); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// RootNodes returns the root nodes in order.
func (t *Tree) RootNodes() []*CompiledNode {
	out := make([]*CompiledNode, 0, len(t.Roots))
	for _, r := range t.Roots {
		if n := t.Node(r); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of compiled nodes.
func (t *Tree) Len() int { return len(t.Nodes) }

// Walk visits every node depth-first in sibling order, roots first.
func (t *Tree) Walk(fn func(*CompiledNode) bool) {
	var visit func(NodeID) bool
	visit = func(id NodeID) bool {
		n := t.Node(id)
		if n == nil {
			return true
		}
		if !fn(n) {
			return false
		}
		for _, c := range n.Children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	for _, r := range t.Roots {
		if !visit(r) {
			return
		}
	}
}
