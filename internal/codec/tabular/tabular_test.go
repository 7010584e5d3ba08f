package tabular_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cicerone-chat/cicerone/internal/codec/tabular"
	"github.com/cicerone-chat/cicerone/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImport_SharedPrefixDeduplicated(t *testing.T) {
	rows := "Support,Billing,Refunds\nSupport,Billing,Invoices\n"

	tree, issues, err := tabular.New().Import(strings.NewReader(rows))
	require.NoError(t, err)
	assert.Empty(t, issues)

	// Support and Billing are shared; only the leaves differ.
	assert.Equal(t, 4, tree.Len())
	require.Len(t, tree.Roots, 1)

	support := tree.Node(tree.Roots[0])
	assert.Equal(t, "Support", support.Label)
	require.Len(t, support.Children, 1)

	billing := tree.Node(support.Children[0])
	assert.Equal(t, "Billing", billing.Label)
	require.Len(t, billing.Children, 2)
	assert.Equal(t, "Refunds", tree.Node(billing.Children[0]).Label)
	assert.Equal(t, "Invoices", tree.Node(billing.Children[1]).Label)
}

func TestImport_SameTextDifferentParentIsNotShared(t *testing.T) {
	rows := "A,Other\nB,Other\n"

	tree, _, err := tabular.New().Import(strings.NewReader(rows))
	require.NoError(t, err)
	assert.Equal(t, 4, tree.Len(), "dedup key includes the parent")
	require.Len(t, tree.Roots, 2)
}

func TestImport_SuffixGrammar(t *testing.T) {
	cases := []struct {
		cell   string
		label  string
		action domain.Action
	}{
		{"Docs [link:https://example.com/docs]", "Docs", domain.ActionLink},
		{"Talk to us [handover]", "Talk to us", domain.ActionHandover},
		{"Contact [form:contact]", "Contact", domain.ActionForm},
		{"Back [restart]", "Back", domain.ActionRestart},
		{"Goodbye [dropoff]", "Goodbye", domain.ActionDropOff},
		{"Plain text", "Plain text", domain.ActionNone},
	}

	for _, tc := range cases {
		t.Run(tc.cell, func(t *testing.T) {
			tree, _, err := tabular.New().Import(strings.NewReader("\"" + tc.cell + "\"\n"))
			require.NoError(t, err)
			require.Equal(t, 1, tree.Len())
			n := tree.Node(0)
			assert.Equal(t, tc.label, n.Label)
			assert.Equal(t, tc.action, n.Action)
		})
	}
}

func TestImport_LinkURLAndFormID(t *testing.T) {
	tree, _, err := tabular.New().Import(strings.NewReader(
		"\"Docs [link:https://example.com]\",\"Contact [form:lead]\"\n"))
	require.NoError(t, err)

	docs := tree.Node(0)
	require.NotNil(t, docs.Config.Link)
	assert.Equal(t, "https://example.com", docs.Config.Link.URL)

	contact := tree.Node(1)
	require.NotNil(t, contact.Config.Form)
	assert.Equal(t, "lead", contact.Config.Form.ID)
}

func TestImport_EmptyInputIsFormatError(t *testing.T) {
	_, _, err := tabular.New().Import(strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrBadFormat)
}

func TestImport_RowBeyondTenColumns(t *testing.T) {
	cells := make([]string, 12)
	for i := range cells {
		cells[i] = string(rune('A' + i))
	}
	tree, issues, err := tabular.New().Import(strings.NewReader(strings.Join(cells, ",") + "\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, tree.Len())
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueDepthTruncated, issues[0].Code)
}

func TestRoundTrip_ExportImport(t *testing.T) {
	rows := strings.Join([]string{
		"Support,Billing,Refunds",
		"Support,Billing,\"Docs [link:https://example.com]\"",
		"Support,\"Talk to us [handover]\"",
		"Sales,Pricing",
	}, "\n") + "\n"

	codec := tabular.New()
	tree, issues, err := codec.Import(strings.NewReader(rows))
	require.NoError(t, err)
	require.Empty(t, issues)

	var buf bytes.Buffer
	issues, err = codec.Export(tree, &buf)
	require.NoError(t, err)
	assert.Empty(t, issues)

	back, _, err := codec.Import(&buf)
	require.NoError(t, err)

	assert.Equal(t, tree.Len(), back.Len(), "node count round-trips")
	labels := func(t2 *domain.Tree) []string {
		var out []string
		t2.Walk(func(n *domain.CompiledNode) bool {
			out = append(out, n.Label)
			return true
		})
		return out
	}
	assert.Equal(t, labels(tree), labels(back), "trigger labels round-trip")
}

func deepTree(depth int) *domain.Tree {
	tree := domain.NewTree()
	parent := domain.NoNode
	for i := 0; i < depth; i++ {
		parent = tree.Append(domain.CompiledNode{Label: string(rune('A' + i))}, parent)
	}
	return tree
}

func TestExport_DepthPolicies(t *testing.T) {
	t.Run("reject is the default", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := tabular.New().Export(deepTree(11), &buf)
		assert.ErrorIs(t, err, domain.ErrDepthExceeded)
		assert.Zero(t, buf.Len(), "nothing is emitted on reject")
	})

	t.Run("exactly ten levels pass", func(t *testing.T) {
		var buf bytes.Buffer
		issues, err := tabular.New().Export(deepTree(10), &buf)
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("truncate prunes and reports", func(t *testing.T) {
		var buf bytes.Buffer
		codec := tabular.New(tabular.WithDepthPolicy(tabular.DepthTruncate))
		issues, err := codec.Export(deepTree(12), &buf)
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.IssueDepthTruncated, issues[0].Code)

		back, _, err := tabular.New().Import(&buf)
		require.NoError(t, err)
		assert.Equal(t, 10, back.Len())
	})
}
