package domain

import "errors"

// ErrBadFormat is returned when an input document is not well-formed.
// Nothing is compiled.
var ErrBadFormat = errors.New("malformed document")

// ErrNoStart is returned when the authoring graph has no start cell.
var ErrNoStart = errors.New("start node not found")

// ErrNoEntry is returned when the start cell names no first node and has no
// outgoing link.
var ErrNoEntry = errors.New("start node has no entry point")

// ErrDefinitionNotFound is returned when a definition id is unknown to the store.
var ErrDefinitionNotFound = errors.New("definition not found")

// ErrNodeNotFound is returned when a runtime selection references an id absent
// from the compiled tree. Per-request; other sessions are unaffected.
var ErrNodeNotFound = errors.New("node not found")

// ErrDepthExceeded is returned by the tabular export when a tree is deeper
// than the row format can hold and the depth policy rejects it.
var ErrDepthExceeded = errors.New("tree exceeds tabular depth limit")
