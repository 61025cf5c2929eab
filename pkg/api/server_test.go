package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylabs/musicore/pkg/pipeline"
	"github.com/aylabs/musicore/pkg/store"
)

const validScoreJSON = `{
	"id": "test",
	"title": "Test Score",
	"instruments": [{
		"id": "piano",
		"staves": [{
			"clef": "treble",
			"voices": [{
				"notes": [
					{"start_tick": 0, "duration_ticks": 960, "pitch": 60},
					{"start_tick": 960, "duration_ticks": 960, "pitch": 62},
					{"start_tick": 1920, "duration_ticks": 960, "pitch": 64},
					{"start_tick": 2880, "duration_ticks": 960, "pitch": 65}
				]
			}]
		}]
	}]
}`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, logger)
	srv := NewServer(runner, store.NewMemoryStore(), logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestLayoutEndpoint(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/v1/layout", `{"score": `+validScoreJSON+`}`)

	var body struct {
		ScoreHash string `json:"score_hash"`
		Cached    bool   `json:"cached"`
		Layout    struct {
			Systems       []json.RawMessage `json:"systems"`
			UnitsPerSpace float64           `json:"units_per_space"`
		} `json:"layout"`
	}
	decodeBody(t, resp, &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body.ScoreHash)
	assert.False(t, body.Cached)
	assert.NotEmpty(t, body.Layout.Systems)
	assert.Equal(t, 20.0, body.Layout.UnitsPerSpace)
}

func TestLayoutEndpointRejectsMissingScore(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/v1/layout", `{}`)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
}

func TestLayoutEndpointRejectsInvalidScore(t *testing.T) {
	ts := testServer(t)

	// Structurally valid JSON, semantically invalid score
	resp := postJSON(t, ts.URL+"/v1/layout", `{"score": {"instruments": []}}`)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_SCORE", body.Error.Code)
}

func TestLayoutEndpointRejectsInvalidConfig(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/v1/layout",
		`{"score": `+validScoreJSON+`, "config": {"max_system_width": -10}}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScoreCRUD(t *testing.T) {
	ts := testServer(t)

	// Create
	resp := postJSON(t, ts.URL+"/v1/scores", `{"score": `+validScoreJSON+`}`)
	var created store.Summary
	decodeBody(t, resp, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, created.ID)
	// Title falls back to the score document's title
	assert.Equal(t, "Test Score", created.Title)

	// Get
	resp, err := http.Get(ts.URL + "/v1/scores/" + created.ID)
	require.NoError(t, err)
	var rec store.Record
	decodeBody(t, resp, &rec)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, rec.ID)
	assert.JSONEq(t, validScoreJSON, string(rec.ScoreJSON))

	// List
	resp, err = http.Get(ts.URL + "/v1/scores")
	require.NoError(t, err)
	var list []store.Summary
	decodeBody(t, resp, &list)
	assert.Len(t, list, 1)

	// Layout from stored score
	resp, err = http.Get(ts.URL + "/v1/scores/" + created.ID + "/layout")
	require.NoError(t, err)
	var layoutResp struct {
		Layout struct {
			Systems []json.RawMessage `json:"systems"`
		} `json:"layout"`
	}
	decodeBody(t, resp, &layoutResp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, layoutResp.Layout.Systems)

	// Delete
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/scores/"+created.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Gone
	resp, err = http.Get(ts.URL + "/v1/scores/" + created.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateScoreRejectsInvalid(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/v1/scores", `{"score": {"instruments": []}}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetScoreMissing(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/v1/scores/no-such-id")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLayoutCachedAcrossRequests(t *testing.T) {
	ts := testServer(t)

	// NullCache backs the default runner, so no hit expected, but repeated
	// requests must produce identical layouts.
	first := postJSON(t, ts.URL+"/v1/layout", `{"score": `+validScoreJSON+`}`)
	var a struct {
		Layout json.RawMessage `json:"layout"`
	}
	decodeBody(t, first, &a)

	second := postJSON(t, ts.URL+"/v1/layout", `{"score": `+validScoreJSON+`}`)
	var b struct {
		Layout json.RawMessage `json:"layout"`
	}
	decodeBody(t, second, &b)

	assert.JSONEq(t, string(a.Layout), string(b.Layout))
}
