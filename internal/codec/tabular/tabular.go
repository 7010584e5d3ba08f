// Package tabular converts between the compiled tree and the fixed-width
// spreadsheet representation (Level1..Level10 columns, one row per leaf).
//
// Cell text carries a small suffix grammar for actions:
//
//	Billing [link:https://example.com/billing]
//	Talk to us [handover]
//	Contact [form:contact]
//	Back [restart]
//	Goodbye [dropoff]
//
// Two rows sharing a (level, parent, text) prefix share the corresponding
// ancestor chain on import.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// MaxDepth is the column capacity of the row format.
const MaxDepth = 10

// DepthPolicy decides what happens when an exported tree is deeper than
// MaxDepth. Silent corruption is never an option.
type DepthPolicy int

const (
	// DepthReject fails the export with domain.ErrDepthExceeded (default).
	DepthReject DepthPolicy = iota
	// DepthTruncate emits the first MaxDepth levels and records an issue per
	// pruned subtree.
	DepthTruncate
)

// Codec imports and exports the tabular representation.
type Codec struct {
	depthPolicy DepthPolicy
}

// Option configures the Codec.
type Option func(*Codec)

// WithDepthPolicy selects the over-depth export behavior.
func WithDepthPolicy(p DepthPolicy) Option {
	return func(c *Codec) { c.depthPolicy = p }
}

// New creates a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var suffixRe = regexp.MustCompile(`^(.*?)\s*\[(link:([^\]]+)|form:([^\]]+)|handover|restart|dropoff)\]$`)

// parseCell applies the suffix grammar to one cell value.
func parseCell(raw string) (label string, action domain.Action, cfg domain.ActionConfig) {
	m := suffixRe.FindStringSubmatch(raw)
	if m == nil {
		return raw, domain.ActionNone, domain.ActionConfig{}
	}
	label = m[1]
	switch {
	case m[3] != "":
		return label, domain.ActionLink, domain.ActionConfig{Link: &domain.LinkConfig{URL: m[3]}}
	case m[4] != "":
		return label, domain.ActionForm, domain.ActionConfig{Form: &domain.FormConfig{ID: m[4]}}
	case m[2] == "handover":
		return label, domain.ActionHandover, domain.ActionConfig{}
	case m[2] == "restart":
		return label, domain.ActionRestart, domain.ActionConfig{}
	default: // dropoff
		return label, domain.ActionDropOff, domain.ActionConfig{}
	}
}

// formatCell re-appends the suffix marker for a node's action. Actions the
// grammar has no marker for (jump, mail, csv) export as plain text.
func formatCell(n *domain.CompiledNode) string {
	switch n.Action {
	case domain.ActionLink:
		if n.Config.Link != nil {
			return fmt.Sprintf("%s [link:%s]", n.Label, n.Config.Link.URL)
		}
	case domain.ActionHandover:
		return n.Label + " [handover]"
	case domain.ActionForm:
		if n.Config.Form != nil && n.Config.Form.ID != "" {
			return fmt.Sprintf("%s [form:%s]", n.Label, n.Config.Form.ID)
		}
	case domain.ActionRestart:
		return n.Label + " [restart]"
	case domain.ActionDropOff:
		return n.Label + " [dropoff]"
	}
	return n.Label
}

type dedupKey struct {
	level  int
	parent domain.NodeID
	text   string
}

// Import reads tabular rows into a compiled tree. Rows are walked left to
// right; a cell identical to an already-imported (level, parent, text) triple
// reuses that node, otherwise a new node is appended under the running parent.
func (c *Codec) Import(r io.Reader) (*domain.Tree, []domain.Issue, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrBadFormat, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: no rows", domain.ErrBadFormat)
	}

	tree := domain.NewTree()
	seen := make(map[dedupKey]domain.NodeID)
	var issues []domain.Issue

	for rowIdx, row := range rows {
		if len(row) > MaxDepth {
			issues = append(issues, domain.Issue{
				Code:    domain.IssueDepthTruncated,
				Node:    domain.NoNode,
				Ref:     fmt.Sprintf("row %d", rowIdx+1),
				Message: fmt.Sprintf("row has %d cells; columns beyond Level%d ignored", len(row), MaxDepth),
			})
			row = row[:MaxDepth]
		}

		parent := domain.NoNode
		level := 0
		for _, raw := range row {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			key := dedupKey{level: level, parent: parent, text: raw}
			id, ok := seen[key]
			if !ok {
				label, action, cfg := parseCell(raw)
				id = tree.Append(domain.CompiledNode{
					Label:  label,
					Action: action,
					Config: cfg,
				}, parent)
				seen[key] = id
			}
			parent = id
			level++
		}
	}
	return tree, issues, nil
}

// Export writes one row per leaf, depth-first. Trees deeper than MaxDepth are
// rejected or truncated per the depth policy, never silently corrupted.
func (c *Codec) Export(tree *domain.Tree, w io.Writer) ([]domain.Issue, error) {
	if c.depthPolicy == DepthReject {
		var tooDeep *domain.CompiledNode
		tree.Walk(func(n *domain.CompiledNode) bool {
			if n.Level >= MaxDepth {
				tooDeep = n
				return false
			}
			return true
		})
		if tooDeep != nil {
			return nil, fmt.Errorf("%w: node %q sits at level %d",
				domain.ErrDepthExceeded, tooDeep.Label, tooDeep.Level+1)
		}
	}

	writer := csv.NewWriter(w)
	var issues []domain.Issue

	var emit func(n *domain.CompiledNode, path []string) error
	emit = func(n *domain.CompiledNode, path []string) error {
		path = append(path, formatCell(n))

		truncated := n.Level == MaxDepth-1 && !n.IsLeaf()
		if truncated {
			issues = append(issues, domain.Issue{
				Code:    domain.IssueDepthTruncated,
				Node:    n.ID,
				Ref:     n.Label,
				Message: fmt.Sprintf("subtree below level %d pruned", MaxDepth),
			})
		}
		if n.IsLeaf() || truncated {
			return writer.Write(path)
		}
		for _, child := range tree.ChildrenOf(n.ID) {
			// Reuse the shared prefix for every leaf under this node.
			if err := emit(child, path[:len(path):len(path)]); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range tree.RootNodes() {
		if err := emit(root, nil); err != nil {
			return issues, fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return issues, fmt.Errorf("flush rows: %w", err)
	}
	return issues, nil
}
