package domain

const (
	// SelectionRestart is the reserved selection value meaning "show the root
	// options again". It is not a compiled node id.
	SelectionRestart = "restart"

	// RestartTargetName is the sentinel go_to target that restarts the
	// session instead of jumping to a named node.
	RestartTargetName = "start_over"

	// DefaultHandoverKeyword is the text fragment that turns a button branch
	// into a hand-off. The original product's keyword is locale-specific, so
	// the classifier accepts an override.
	DefaultHandoverKeyword = "operator"
)
