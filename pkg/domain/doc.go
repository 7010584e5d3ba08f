/*
Package domain defines the compiled scenario model shared by the compiler, the
codecs and the runtime traversal engine.

A scenario is authored as a free-form graph (or a spreadsheet of rows) and
compiled into an immutable Tree of CompiledNodes. The Tree is the single source
of truth: the editor and tabular representations are serializations produced
and consumed by pure codec functions, never a second mutable model.
*/
package domain
