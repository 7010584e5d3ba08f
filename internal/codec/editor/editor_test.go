package editor_test

import (
	"testing"

	"github.com/cicerone-chat/cicerone/internal/codec/editor"
	"github.com/cicerone-chat/cicerone/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textOnlyTree() *domain.Tree {
	tree := domain.NewTree()
	root := tree.Append(domain.CompiledNode{
		ExternalID: "a",
		Label:      "Topics",
		Responses:  []domain.Response{{Kind: domain.ResponseText, Content: "Pick a topic"}},
	}, domain.NoNode)
	tree.Append(domain.CompiledNode{
		ExternalID: "b",
		Label:      "Billing",
		Responses:  []domain.Response{{Kind: domain.ResponseText, Content: "Billing help"}},
	}, root)
	tree.Append(domain.CompiledNode{
		ExternalID: "c",
		Label:      "Shipping",
		Responses:  []domain.Response{{Kind: domain.ResponseText, Content: "Shipping help"}},
	}, root)
	return tree
}

func TestDecompile_Shape(t *testing.T) {
	doc := editor.Decompile(textOnlyTree())

	require.Len(t, doc.Nodes, 3)
	assert.Equal(t, "a", doc.Nodes[0].ID)
	assert.Equal(t, "Topics", doc.Nodes[0].Label)
	require.Len(t, doc.Connections, 2)
	assert.Equal(t, editor.Connection{From: "a", To: "b"}, doc.Connections[0])
	assert.Equal(t, editor.Connection{From: "a", To: "c"}, doc.Connections[1])
}

func TestRoundTrip_TextOnlyIsIdentity(t *testing.T) {
	orig := textOnlyTree()

	doc := editor.Decompile(orig)
	back, issues, err := editor.Recompile(doc)
	require.NoError(t, err)
	assert.Empty(t, issues)

	require.Equal(t, orig.Len(), back.Len())
	for i := range orig.Nodes {
		o, b := orig.Nodes[i], back.Nodes[i]
		assert.Equal(t, o.ExternalID, b.ExternalID)
		assert.Equal(t, o.Label, b.Label)
		assert.Equal(t, o.Responses, b.Responses)
		assert.Equal(t, o.Level, b.Level)
		assert.Equal(t, o.Parent, b.Parent)
		assert.Equal(t, o.Children, b.Children)
	}
}

func TestRoundTrip_JumpBranchCarriesNameNotID(t *testing.T) {
	tree := domain.NewTree()
	root := tree.Append(domain.CompiledNode{ExternalID: "a", Label: "A"}, domain.NoNode)
	tree.Append(domain.CompiledNode{ExternalID: "t", Name: "faq", Label: "FAQ"}, root)
	tree.Append(domain.CompiledNode{
		ExternalID: "j",
		Label:      "Jump",
		Branches: []domain.Branch{{
			Kind:   domain.BranchJump,
			Label:  "See FAQ",
			Target: domain.Ref{Name: "faq", ID: 1, State: domain.RefResolved},
		}},
	}, root)

	doc := editor.Decompile(tree)

	var jumpNode *editor.Node
	for i := range doc.Nodes {
		if doc.Nodes[i].ID == "j" {
			jumpNode = &doc.Nodes[i]
		}
	}
	require.NotNil(t, jumpNode)
	require.Len(t, jumpNode.Branches, 1)
	assert.Equal(t, "faq", jumpNode.Branches[0].Target, "portable documents carry names")

	back, issues, err := editor.Recompile(doc)
	require.NoError(t, err)
	assert.Empty(t, issues)

	rej := back.Node(back.ByExternal["j"])
	require.Len(t, rej.Branches, 1)
	assert.Equal(t, domain.RefResolved, rej.Branches[0].Target.State)
	assert.Equal(t, back.ByName["faq"], rej.Branches[0].Target.ID)
}

func TestRecompile_OrphanBecomesRoot(t *testing.T) {
	doc := &editor.Document{
		Nodes: []editor.Node{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
			{ID: "floating", Label: "Floating"},
		},
		Connections: []editor.Connection{{From: "a", To: "b"}},
	}

	tree, issues, err := editor.Recompile(doc)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, tree.Roots, 2)
	assert.Equal(t, "A", tree.Node(tree.Roots[0]).Label)
	assert.Equal(t, "Floating", tree.Node(tree.Roots[1]).Label)
}

func TestRecompile_RootlessCycleBecomesRoot(t *testing.T) {
	doc := &editor.Document{
		Nodes: []editor.Node{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
			{ID: "c", Label: "C"},
		},
		Connections: []editor.Connection{
			{From: "a", To: "b"},
			{From: "b", To: "a"},
		},
	}

	tree, issues, err := editor.Recompile(doc)
	require.NoError(t, err)

	// Every node survives: a is promoted to a root, b hangs under it, and
	// the b->a back edge is cut and reported.
	require.Equal(t, 3, tree.Len())
	require.Len(t, tree.Roots, 2)
	assert.Equal(t, "C", tree.Node(tree.Roots[0]).Label)

	promoted := tree.Node(tree.Roots[1])
	assert.Equal(t, "A", promoted.Label)
	require.Len(t, promoted.Children, 1)
	assert.Equal(t, "B", tree.Node(promoted.Children[0]).Label)

	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueCycle, issues[0].Code)
	assert.Equal(t, "a", issues[0].Ref)
}

func TestRecompile_EmptyEntriesDropped(t *testing.T) {
	doc := &editor.Document{
		Nodes: []editor.Node{{
			ID:    "a",
			Label: "A",
			Responses: []editor.Entry{
				{Kind: editor.EntryText, Content: ""},
				{Kind: editor.EntryText, Content: "kept"},
				{Kind: editor.EntryImage, Content: ""},
			},
		}},
	}
	tree, _, err := editor.Recompile(doc)
	require.NoError(t, err)
	require.Len(t, tree.Node(0).Responses, 1)
	assert.Equal(t, "kept", tree.Node(0).Responses[0].Content)
}

func TestRecompile_FormatErrors(t *testing.T) {
	_, _, err := editor.Recompile(&editor.Document{})
	assert.ErrorIs(t, err, domain.ErrBadFormat)

	_, _, err = editor.Recompile(&editor.Document{
		Nodes: []editor.Node{{ID: "a"}, {ID: "a"}},
	})
	assert.ErrorIs(t, err, domain.ErrBadFormat)
}

func TestRecompile_SecondParentIgnored(t *testing.T) {
	doc := &editor.Document{
		Nodes: []editor.Node{
			{ID: "a", Label: "A"}, {ID: "b", Label: "B"}, {ID: "c", Label: "C"},
		},
		Connections: []editor.Connection{
			{From: "a", To: "c"},
			{From: "b", To: "c"}, // second parent for c
		},
	}
	tree, issues, err := editor.Recompile(doc)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueDuplicateEdge, issues[0].Code)

	c := tree.Node(tree.ByExternal["c"])
	assert.Equal(t, tree.ByExternal["a"], c.Parent, "first incoming connection wins")
}
