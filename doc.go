/*
Package cicerone compiles dialogue-scenario graphs into immutable decision
trees and walks them to drive customer-support chat sessions.

A scenario arrives in one of three authoring formats: the visual graph
editor's cell/link document, a spreadsheet-style CSV where columns are tree
levels, or the simplified editor JSON used by the web frontend. Whatever the
format, compilation produces the same thing: a dense arena of nodes with
resolved jump targets, ready for stateless traversal.

# Usage

	eng := cicerone.New(cicerone.WithStore(memory.NewStore()))

	res, err := eng.ImportGraph(ctx, "billing", payload)
	if err != nil {
		log.Fatal(err)
	}
	for _, issue := range res.Issues {
		log.Println("compile issue:", issue)
	}

	reply, err := eng.Select(ctx, res.DefinitionID, "restart", sessionID)

Traversal never mutates the tree, so one stored definition serves any number
of concurrent sessions. Side-effects (operator hand-off, mail and CSV
notifications) are delegated to the SessionGate and Notifier ports; the
defaults discard them, which is what compile-and-preview tooling wants.
*/
package cicerone
