/*
Package ports defines the narrow interfaces the scenario core consumes but
does not implement: definition persistence, session-state hand-off, and
outbound notification triggers.

Adapters live under internal/adapters; the reusable contract suites here let
any adapter prove compliance.
*/
package ports
