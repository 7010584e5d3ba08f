// Package editor converts between the compiled tree and the flattened
// "responses + branches" editor representation.
//
// Editor documents are portable: jump branches carry the target's node name,
// never its compiled id, so a document survives being re-compiled against a
// fresh id assignment. The codec is a pure pair of functions against the
// compiled tree; it never mutates a tree it was given.
package editor

import (
	"fmt"
	"strconv"

	"github.com/cicerone-chat/cicerone/internal/compiler"
	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// EntryKind types one flattened response entry.
type EntryKind string

const (
	EntryText  EntryKind = "text"
	EntryImage EntryKind = "image"
	EntryForm  EntryKind = "form"
)

// Entry is one flattened response segment.
type Entry struct {
	Kind    EntryKind `json:"kind"`
	Content string    `json:"content,omitempty"`
	Fields  []string  `json:"fields,omitempty"`
}

// Branch is one flattened reply branch. Target is a node name for jump
// branches and empty otherwise.
type Branch struct {
	Kind   domain.BranchKind `json:"kind"`
	Label  string            `json:"label"`
	URL    string            `json:"url,omitempty"`
	Target string            `json:"target,omitempty"`
}

// Node is one node in editor shape.
type Node struct {
	ID        string              `json:"id"`
	Name      string              `json:"name,omitempty"`
	Label     string              `json:"label"`
	Responses []Entry             `json:"responses,omitempty"`
	Branches  []Branch            `json:"branches,omitempty"`
	Action    domain.Action       `json:"action,omitempty"`
	Config    domain.ActionConfig `json:"config,omitempty"`
}

// Connection is one parent -> child edge between editor node ids.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Document is the editor-shape form of a whole definition.
type Document struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections,omitempty"`
}

// Decompile flattens a compiled tree into editor shape. Inline images
// embedded in rich text become their own image entries and the surrounding
// markup is reduced to plain text.
func Decompile(tree *domain.Tree) *Document {
	doc := &Document{}
	tree.Walk(func(n *domain.CompiledNode) bool {
		doc.Nodes = append(doc.Nodes, Node{
			ID:        editorID(n),
			Name:      n.Name,
			Label:     n.Label,
			Responses: flattenResponses(n.Responses),
			Branches:  flattenBranches(n.Branches),
			Action:    n.Action,
			Config:    portableConfig(n.Config),
		})
		if parent := tree.Node(n.Parent); parent != nil {
			doc.Connections = append(doc.Connections, Connection{
				From: editorID(parent),
				To:   editorID(n),
			})
		}
		return true
	})
	return doc
}

// Recompile rebuilds a compiled tree from editor shape. Parenthood comes from
// the connection list alone: a node with no incoming connection is a root.
// Jump names are re-resolved against the rebuilt symbol table.
func Recompile(doc *Document) (*domain.Tree, []domain.Issue, error) {
	if doc == nil || len(doc.Nodes) == 0 {
		return nil, nil, fmt.Errorf("%w: editor document has no nodes", domain.ErrBadFormat)
	}

	byID := make(map[string]*Node, len(doc.Nodes))
	order := make([]string, 0, len(doc.Nodes))
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.ID == "" {
			return nil, nil, fmt.Errorf("%w: editor node %d has no id", domain.ErrBadFormat, i)
		}
		if _, dup := byID[n.ID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate editor node id %q", domain.ErrBadFormat, n.ID)
		}
		byID[n.ID] = n
		order = append(order, n.ID)
	}

	children := make(map[string][]string)
	hasParent := make(map[string]bool)
	var issues []domain.Issue
	for _, conn := range doc.Connections {
		if byID[conn.From] == nil || byID[conn.To] == nil {
			issues = append(issues, domain.Issue{
				Code:    domain.IssueAnomaly,
				Node:    domain.NoNode,
				Ref:     conn.From + "->" + conn.To,
				Message: "connection references an unknown node",
			})
			continue
		}
		if hasParent[conn.To] {
			issues = append(issues, domain.Issue{
				Code:    domain.IssueDuplicateEdge,
				Node:    domain.NoNode,
				Ref:     conn.To,
				Message: "node already has a parent; first incoming connection wins",
			})
			continue
		}
		hasParent[conn.To] = true
		children[conn.From] = append(children[conn.From], conn.To)
	}

	tree := domain.NewTree()
	visited := make(map[string]bool, len(doc.Nodes))
	var attach func(id string, parent domain.NodeID)
	attach = func(id string, parent domain.NodeID) {
		if visited[id] {
			issues = append(issues, domain.Issue{
				Code:    domain.IssueCycle,
				Node:    parent,
				Ref:     id,
				Message: "revisited connection cut",
			})
			return
		}
		visited[id] = true
		src := byID[id]
		compiled := tree.Append(domain.CompiledNode{
			ExternalID: id,
			Name:       src.Name,
			Label:      src.Label,
			Responses:  restoreResponses(src.Responses),
			Branches:   restoreBranches(src.Branches),
			Action:     src.Action,
			Config:     pendingConfig(src.Config),
		}, parent)
		for _, child := range children[id] {
			attach(child, compiled)
		}
	}
	for _, id := range order {
		if !hasParent[id] && !visited[id] {
			attach(id, domain.NoNode)
		}
	}
	// Nodes in a rootless connection cycle all have a parent, so the root
	// loop never reaches them. Promote the first unvisited node of each
	// cycle to a root; attach records the cut back edge as a cycle issue.
	for _, id := range order {
		if !visited[id] {
			attach(id, domain.NoNode)
		}
	}

	issues = append(issues, compiler.ResolveTree(tree)...)
	return tree, issues, nil
}

// editorID prefers the round-trip friendly external id and falls back to the
// compiled id.
func editorID(n *domain.CompiledNode) string {
	if n.ExternalID != "" {
		return n.ExternalID
	}
	return "n" + strconv.Itoa(int(n.ID))
}

func flattenResponses(responses []domain.Response) []Entry {
	var out []Entry
	for _, r := range responses {
		switch r.Kind {
		case domain.ResponseImage:
			out = append(out, Entry{Kind: EntryImage, Content: r.Content})
		case domain.ResponseForm:
			out = append(out, Entry{Kind: EntryForm, Fields: r.Fields})
		default:
			out = append(out, ReduceRichText(r.Content)...)
		}
	}
	return out
}

func restoreResponses(entries []Entry) []domain.Response {
	var out []domain.Response
	for _, e := range entries {
		switch e.Kind {
		case EntryImage:
			if e.Content == "" {
				continue
			}
			out = append(out, domain.Response{Kind: domain.ResponseImage, Content: e.Content})
		case EntryForm:
			if len(e.Fields) == 0 {
				continue
			}
			out = append(out, domain.Response{Kind: domain.ResponseForm, Fields: e.Fields})
		default:
			if e.Content == "" {
				continue
			}
			out = append(out, domain.Response{Kind: domain.ResponseText, Content: e.Content})
		}
	}
	return out
}

func flattenBranches(branches []domain.Branch) []Branch {
	var out []Branch
	for _, b := range branches {
		eb := Branch{Kind: b.Kind, Label: b.Label, URL: b.URL}
		if b.Kind == domain.BranchJump {
			// The name, not the compiled id: editor documents must survive
			// re-compilation under a fresh id assignment.
			eb.Target = b.Target.Name
		}
		out = append(out, eb)
	}
	return out
}

func restoreBranches(branches []Branch) []domain.Branch {
	var out []domain.Branch
	for _, b := range branches {
		if b.Label == "" && b.URL == "" && b.Target == "" {
			continue
		}
		db := domain.Branch{Kind: b.Kind, Label: b.Label, URL: b.URL}
		if b.Kind == domain.BranchJump {
			db.Target = domain.PendingRef(b.Target)
		}
		out = append(out, db)
	}
	return out
}

// portableConfig strips compiled ids from every reference, keeping only the
// symbolic names.
func portableConfig(cfg domain.ActionConfig) domain.ActionConfig {
	out := cloneConfig(cfg)
	for _, ref := range out.Refs() {
		*ref = domain.Ref{Name: ref.Name, ID: domain.NoNode, State: domain.RefPending}
	}
	return out
}

// pendingConfig marks every named reference pending so resolution runs fresh.
func pendingConfig(cfg domain.ActionConfig) domain.ActionConfig {
	out := cloneConfig(cfg)
	for _, ref := range out.Refs() {
		ref.ID = domain.NoNode
		ref.State = domain.RefPending
	}
	return out
}

func cloneConfig(cfg domain.ActionConfig) domain.ActionConfig {
	out := cfg
	if cfg.Link != nil {
		v := *cfg.Link
		out.Link = &v
	}
	if cfg.Form != nil {
		v := *cfg.Form
		out.Form = &v
	}
	if cfg.Jump != nil {
		v := *cfg.Jump
		out.Jump = &v
	}
	if cfg.Handover != nil {
		v := *cfg.Handover
		out.Handover = &v
	}
	if cfg.Mail != nil {
		v := *cfg.Mail
		out.Mail = &v
	}
	if cfg.CSV != nil {
		v := *cfg.CSV
		out.CSV = &v
	}
	return out
}
