package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansignals/floodwatch/internal/model"
	"github.com/urbansignals/floodwatch/internal/store"
)

func newTestRouter(t *testing.T) (http.Handler, store.Store, *model.Run) {
	t.Helper()
	testConfig(t)

	st, err := initStore(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	run, err := st.CreateRun(t.Context(), 2019)
	require.NoError(t, err)
	require.NoError(t, st.SaveSummaries(t.Context(), run.ID, []model.TractSummary{
		{GEOID: "36047000100", Population: 1000, ComplaintCount: 5, Rate: 0.005, RatePer1000: 5, RateDefined: true},
	}))

	return newRouter(st), st, run
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServeHealthz(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeMetrics(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeListRuns(t *testing.T) {
	h, _, run := newTestRouter(t)

	rec := get(t, h, "/api/runs?year=2019")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Runs []model.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, run.ID, body.Runs[0].ID)
}

func TestServeGetRun(t *testing.T) {
	h, _, run := newTestRouter(t)

	rec := get(t, h, "/api/runs/"+run.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, 2019, got.Year)
}

func TestServeGetRunNotFound(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := get(t, h, "/api/runs/no-such-run")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeGetSummaries(t *testing.T) {
	h, _, run := newTestRouter(t)

	rec := get(t, h, "/api/runs/"+run.ID+"/summaries")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Summaries []model.TractSummary `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Summaries, 1)
	assert.Equal(t, "36047000100", body.Summaries[0].GEOID)
	assert.Equal(t, 5.0, body.Summaries[0].RatePer1000)
}

func TestServeStaticResults(t *testing.T) {
	h, _, _ := newTestRouter(t)

	require.NoError(t, os.MkdirAll(cfg.Pipeline.ResultsDir, 0o755))
	path := filepath.Join(cfg.Pipeline.ResultsDir, "analysis_summary.md")
	require.NoError(t, os.WriteFile(path, []byte("# Summary"), 0o644))

	rec := get(t, h, "/results/analysis_summary.md")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# Summary")
}

func TestServeCORSHeaders(t *testing.T) {
	h, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/runs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
