package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text2phenotype.com/standoff/metrics"
	"text2phenotype.com/standoff/standoff"
	"text2phenotype.com/standoff/types"
)

const (
	themes = "T1\tProtein 0 5\tBMP-6\nT2\tProtein 40 49\tTGF-beta\n"
	events = "T3\tBinding 20 25\tbinds\nE1\tBinding:T3 Theme:T1 Theme:T2\n"
)

func newTestServer() *httptest.Server {
	server := NewServer(standoff.NewLoaders(types.Configurations{}), metrics.NewRecorder())
	return httptest.NewServer(server.Handler())
}

func postGraph(t *testing.T, url string, request interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(request)
	require.NoError(t, err)
	resp, err := http.Post(url+"/graph", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestBuildGraph(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postGraph(t, srv.URL, GraphRequest{DocumentID: "doc-1", Themes: themes, Events: []string{events}})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := uuid.Parse(resp.Header.Get(TidHeader))
	assert.NoError(t, err)

	var graph types.GraphResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&graph))
	assert.Equal(t, "doc-1", graph.DocId)
	assert.Len(t, graph.Themes, 3)
	require.Len(t, graph.Events, 1)
	assert.Equal(t, []string{"T1", "T2"}, graph.Events[0].Relations[types.SlotHasTheme])
}

func TestBuildGraphErrors(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	tests := map[string]struct {
		request    GraphRequest
		status     int
		errorClass string
	}{
		"unresolved": {
			request:    GraphRequest{Themes: themes, Events: []string{"E1\tBinding:T9 Theme:T1\n"}},
			status:     http.StatusUnprocessableEntity,
			errorClass: standoff.ErrorClassUnresolved,
		},
		"malformed": {
			request:    GraphRequest{Themes: "T1\tProtein five 5\tBMP-6\n"},
			status:     http.StatusUnprocessableEntity,
			errorClass: standoff.ErrorClassMalformed,
		},
		"unknown config": {
			request: GraphRequest{Config: "genia", Themes: themes},
			status:  http.StatusNotFound,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			resp := postGraph(t, srv.URL, test.request)
			defer resp.Body.Close()
			assert.Equal(t, test.status, resp.StatusCode)

			var errResp errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			assert.Equal(t, test.errorClass, errResp.ErrorClass)
			assert.Equal(t, resp.Header.Get(TidHeader), errResp.Tid)
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

func TestBuildGraphBadRequests(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/graph")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/graph", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBuildGraphKeepsCallerTid(t *testing.T) {
	server := NewServer(standoff.NewLoaders(types.Configurations{}), metrics.NewRecorder())
	body, err := json.Marshal(GraphRequest{Themes: themes})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graph", bytes.NewReader(body))
	req.Header.Set(TidHeader, "tid-42")
	rec := httptest.NewRecorder()
	server.BuildGraph(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tid-42", rec.Header().Get(TidHeader))
	var graph types.GraphResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	assert.Equal(t, "tid-42", graph.DocId)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postGraph(t, srv.URL, GraphRequest{Themes: themes, Events: []string{events}})
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `standoff_documents_loaded_total{source="api"} 1`)
}
