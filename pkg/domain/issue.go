package domain

import "fmt"

// IssueCode classifies a non-fatal compilation anomaly.
type IssueCode string

const (
	// IssueCycle marks a revisited edge cut during the tree walk.
	IssueCycle IssueCode = "cycle"
	// IssueUnresolvedSymbol marks a named jump/mail/csv/handover target with
	// no matching node.
	IssueUnresolvedSymbol IssueCode = "unresolved_symbol"
	// IssueDuplicateEdge marks a target attached twice under one parent.
	IssueDuplicateEdge IssueCode = "duplicate_edge"
	// IssueUnknownNodeType marks a cell whose type is outside the closed set.
	IssueUnknownNodeType IssueCode = "unknown_node_type"
	// IssueBadNodeState marks a cell whose state could not be decoded; the
	// node degrades to no action instead of aborting its siblings.
	IssueBadNodeState IssueCode = "bad_node_state"
	// IssueDepthTruncated marks a subtree pruned by the tabular depth cap.
	IssueDepthTruncated IssueCode = "depth_truncated"
	// IssueAnomaly covers other recoverable walk anomalies.
	IssueAnomaly IssueCode = "anomaly"
)

// Issue is one non-fatal anomaly accumulated during compilation or export.
// Issues accompany a usable tree so an author can fix a broken branch without
// losing the rest of the work.
type Issue struct {
	Code IssueCode `json:"code"`
	// Node is the compiled node involved, NoNode when none exists yet.
	Node NodeID `json:"node,omitempty"`
	// Ref is the raw cell id or symbolic name the issue is about.
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Ref != "" {
		return fmt.Sprintf("%s (%s): %s", i.Code, i.Ref, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}
