package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cicerone "github.com/cicerone-chat/cicerone"
	httpadapter "github.com/cicerone-chat/cicerone/internal/adapters/http"
	"github.com/cicerone-chat/cicerone/pkg/observability"
)

const graphDoc = `{
  "cells": [
    {"id": "start", "kind": "node", "type": "start", "state": {"first": "root"}},
    {"id": "root", "kind": "node", "type": "response", "state": {"label": "Welcome"}},
    {"id": "faq", "kind": "node", "type": "response", "state": {"label": "FAQ"}},
    {"kind": "link", "source": {"cell": "root"}, "target": {"cell": "faq"}}
  ]
}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	eng := cicerone.New(cicerone.WithMetrics(observability.NewMetrics(reg)))
	srv := httptest.NewServer(httpadapter.NewHandler(eng, httpadapter.WithRegistry(reg)))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func importGraph(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/definitions/graph", map[string]any{
		"name":     "welcome",
		"document": json.RawMessage(graphDoc),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res struct {
		DefinitionID string `json:"definition_id"`
		NodeCount    int    `json:"node_count"`
	}
	decode(t, resp, &res)
	require.NotEmpty(t, res.DefinitionID)
	require.Equal(t, 2, res.NodeCount)
	return res.DefinitionID
}

func TestImportGraphAndSelect(t *testing.T) {
	srv := newServer(t)
	id := importGraph(t, srv)

	resp := postJSON(t, fmt.Sprintf("%s/definitions/%s/select", srv.URL, id), map[string]any{
		"selection":  "restart",
		"session_id": "s1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply struct {
		Options []struct {
			ID    int    `json:"id"`
			Label string `json:"label"`
		} `json:"options"`
	}
	decode(t, resp, &reply)
	require.Len(t, reply.Options, 1)
	assert.Equal(t, "FAQ", reply.Options[0].Label)
}

func TestImportGraphRejectsBadPayload(t *testing.T) {
	srv := newServer(t)

	resp := postJSON(t, srv.URL+"/definitions/graph", map[string]any{
		"name":     "broken",
		"document": json.RawMessage(`{"cells": []}`),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestImportTableAndExport(t *testing.T) {
	srv := newServer(t)

	resp := postJSON(t, srv.URL+"/definitions/table", map[string]any{
		"name": "faq",
		"rows": "Welcome,Billing\nWelcome,Shipping [handover]",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res struct {
		DefinitionID string `json:"definition_id"`
	}
	decode(t, resp, &res)

	get, err := http.Get(fmt.Sprintf("%s/definitions/%s/table", srv.URL, res.DefinitionID))
	require.NoError(t, err)
	defer get.Body.Close()
	require.Equal(t, http.StatusOK, get.StatusCode)
	assert.Equal(t, "text/csv", get.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(get.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Shipping [handover]")
}

func TestExportEditor(t *testing.T) {
	srv := newServer(t)
	id := importGraph(t, srv)

	resp, err := http.Get(fmt.Sprintf("%s/definitions/%s/editor", srv.URL, id))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		Nodes []struct {
			Label string `json:"label"`
		} `json:"nodes"`
	}
	decode(t, resp, &doc)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "Welcome", doc.Nodes[0].Label)
}

func TestUnknownDefinitionIs404(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/definitions/missing/editor")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	sel := postJSON(t, srv.URL+"/definitions/missing/select", map[string]any{"selection": "restart"})
	assert.Equal(t, http.StatusNotFound, sel.StatusCode)
}

func TestSelectUnknownNodeIs404(t *testing.T) {
	srv := newServer(t)
	id := importGraph(t, srv)

	resp := postJSON(t, fmt.Sprintf("%s/definitions/%s/select", srv.URL, id), map[string]any{
		"selection": "999",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListAndDelete(t *testing.T) {
	srv := newServer(t)
	id := importGraph(t, srv)

	resp, err := http.Get(srv.URL + "/definitions/")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list struct {
		Definitions []string `json:"definitions"`
	}
	decode(t, resp, &list)
	assert.Contains(t, list.Definitions, id)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/definitions/%s", srv.URL, id), nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	editor, err := http.Get(fmt.Sprintf("%s/definitions/%s/editor", srv.URL, id))
	require.NoError(t, err)
	defer editor.Body.Close()
	assert.Equal(t, http.StatusNotFound, editor.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t)
	importGraph(t, srv)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	require.Equal(t, http.StatusOK, metrics.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "cicerone_compilations_total")
}
