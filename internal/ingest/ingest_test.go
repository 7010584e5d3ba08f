package ingest_test

import (
	"testing"

	"github.com/cicerone-chat/cicerone/internal/ingest"
	"github.com/cicerone-chat/cicerone/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_WellFormed(t *testing.T) {
	payload := []byte(`{
		"cells": [
			{"id": "s", "kind": "node", "type": "start", "state": {"first": "a"}},
			{"id": "a", "kind": "node", "type": "response", "state": {"label": "Hello"}},
			{"kind": "link", "source": {"cell": "s", "port": "out"}, "target": {"cell": "a"}}
		]
	}`)

	g, err := ingest.Parse(payload)
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "s", g.Nodes[0].ID)
	assert.Equal(t, "start", g.Nodes[0].Type)
	assert.Equal(t, "a", g.Nodes[0].State["first"])

	require.Len(t, g.Links, 1)
	assert.Equal(t, "s", g.Links[0].Source.Cell)
	assert.Equal(t, "out", g.Links[0].Source.Port)
	assert.Equal(t, "a", g.Links[0].Target.Cell)
}

func TestParse_FormatErrors(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `{{`},
		{"no cells", `{"cells": []}`},
		{"node without id", `{"cells": [{"kind": "node", "type": "response"}]}`},
		{"node without type", `{"cells": [{"id": "a", "kind": "node"}]}`},
		{"link without source", `{"cells": [{"kind": "link", "target": {"cell": "a"}}]}`},
		{"link without target", `{"cells": [{"kind": "link", "source": {"cell": "a"}}]}`},
		{"unknown kind", `{"cells": [{"id": "a", "kind": "blob"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := ingest.Parse([]byte(tc.payload))
			assert.Nil(t, g)
			assert.ErrorIs(t, err, domain.ErrBadFormat)
		})
	}
}

func TestAdjacency_PreservesOrder(t *testing.T) {
	links := []ingest.LinkCell{
		{Source: ingest.Endpoint{Cell: "a"}, Target: ingest.Endpoint{Cell: "b"}},
		{Source: ingest.Endpoint{Cell: "a"}, Target: ingest.Endpoint{Cell: "c"}},
		{Source: ingest.Endpoint{Cell: "b"}, Target: ingest.Endpoint{Cell: "c"}},
	}

	adj := ingest.Adjacency(links)
	assert.Equal(t, []string{"b", "c"}, adj["a"])
	assert.Equal(t, []string{"c"}, adj["b"])
	assert.Empty(t, adj["c"])
}
