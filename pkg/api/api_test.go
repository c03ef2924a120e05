package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/smbench/pkg/config"
	"github.com/ethpandaops/smbench/pkg/dataset"
	"github.com/ethpandaops/smbench/pkg/storage"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

const testDataDir = "../dataset/testdata"

func testConfig(dataDir string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Listen: "127.0.0.1:0",
			RateLimit: config.RateLimitConfig{
				RequestsPerMinute: config.DefaultRequestsPerMinute,
			},
		},
		Storage: config.StorageConfig{
			Local: config.LocalStorageConfig{Enabled: true, Dir: dataDir},
		},
		Indexing: config.IndexingConfig{
			Interval:    time.Minute,
			Concurrency: 2,
			Database: config.DatabaseConfig{
				Driver: "sqlite",
				SQLite: config.SQLiteConfig{Path: ":memory:"},
			},
		},
		Compare: config.CompareConfig{
			SessionTTL:  time.Minute,
			MaxSessions: 8,
		},
		Site: config.SiteConfig{Title: "SM Bench"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*server, http.Handler) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	source := dataset.NewSource(log, storage.NewLocalReader(&cfg.Storage.Local))

	srv, ok := NewServer(log, cfg, source, vendor.Default()).(*server)
	require.True(t, ok)
	require.NoError(t, srv.prepare(context.Background()))

	t.Cleanup(func() {
		require.NoError(t, srv.Stop())
	})

	return srv, srv.buildRouter()
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())

	return v
}

func TestHealthAndConfig(t *testing.T) {
	_, h := newTestServer(t, testConfig(testDataDir))

	rec := do(t, h, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cfg := decode[map[string]map[string]any](t, rec)
	assert.Equal(t, "SM Bench", cfg["site"]["title"])
	assert.Equal(t, "local", cfg["storage"]["backend"])
	assert.Equal(t, false, cfg["indexing"]["enabled"])
}

func TestLeaderboardJSON(t *testing.T) {
	_, h := newTestServer(t, testConfig(testDataDir))

	rec := do(t, h, http.MethodGet, "/api/v1/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[struct {
		Rows []struct {
			ID     string `json:"id"`
			Rating string `json:"rating"`
		} `json:"rows"`
	}](t, rec)

	require.Len(t, view.Rows, 3)
	assert.Equal(t, "run-claude", view.Rows[0].ID)
	assert.Equal(t, "run-gpt", view.Rows[1].ID)
	assert.Equal(t, "-", view.Rows[2].Rating)
}

func TestLeaderboardJSON_MissingData(t *testing.T) {
	_, h := newTestServer(t, testConfig(t.TempDir()))

	rec := do(t, h, http.MethodGet, "/api/v1/leaderboard", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunJSON(t *testing.T) {
	_, h := newTestServer(t, testConfig(testDataDir))

	type group struct {
		Name    string `json:"name"`
		Total   int    `json:"total"`
		State   string `json:"state"`
		HasMore bool   `json:"has_more"`
	}

	type response struct {
		Summary struct {
			ID          string `json:"id"`
			JudgedTests int    `json:"judged_tests"`
		} `json:"summary"`
		Groups []group `json:"groups"`
	}

	t.Run("loads view", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/runs/run-gpt", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[response](t, rec)
		assert.Equal(t, "run-gpt", resp.Summary.ID)
		assert.Equal(t, 3, resp.Summary.JudgedTests)
		require.Len(t, resp.Groups, 2)
		assert.Equal(t, "Overfit", resp.Groups[0].Name)
		assert.Equal(t, "fully_shown", resp.Groups[0].State)
	})

	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "missing run", target: "/api/v1/runs/nope", status: http.StatusNotFound},
		{name: "invalid id", target: "/api/v1/runs/bad$id", status: http.StatusBadRequest},
		{name: "dot id", target: "/api/v1/runs/..", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestPages(t *testing.T) {
	_, h := newTestServer(t, testConfig(testDataDir))

	tests := []struct {
		name   string
		target string
		status int
		want   []string
	}{
		{
			name:   "leaderboard",
			target: "/",
			status: http.StatusOK,
			want:   []string{`data-page="leaderboard"`, "run-claude.html"},
		},
		{
			name:   "run page",
			target: "/run/run-gpt.html",
			status: http.StatusOK,
			want:   []string{`data-page="run"`, "SM Bench Results", "GPT-4o"},
		},
		{
			name:   "revealed group opens",
			target: "/run/run-gpt.html?reveal=Overfit",
			status: http.StatusOK,
			want:   []string{`<details class="category-group" id="group-overfit" open>`},
		},
		{
			name:   "run page without extension",
			target: "/run/run-gpt",
			status: http.StatusOK,
			want:   []string{"SM Bench Results"},
		},
		{
			name:   "missing run",
			target: "/run/nope.html",
			status: http.StatusNotFound,
			want:   []string{"Run not found"},
		},
		{
			name:   "invalid run id",
			target: "/run/bad$id.html",
			status: http.StatusNotFound,
			want:   []string{"Run not found"},
		},
		{
			name:   "compare empty",
			target: "/compare",
			status: http.StatusOK,
			want:   []string{"Pick two or more runs to compare categories."},
		},
		{
			name:   "compare selection",
			target: "/compare?run=run-gpt&run=run-claude&run=run-grok&width=500",
			status: http.StatusOK,
			want:   []string{"compare-table", "Overall 82.5%", "compare-overall-card--span"},
		},
		{
			name:   "stylesheet",
			target: "/static/style.css",
			status: http.StatusOK,
			want:   []string{".compare-run-item"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code)

			for _, want := range tt.want {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestPages_Unavailable(t *testing.T) {
	_, h := newTestServer(t, testConfig(t.TempDir()))

	for _, target := range []string{"/", "/compare"} {
		rec := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "Unable to load data.", target)
	}

	rec := do(t, h, http.MethodGet, "/run/run-gpt.html", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompareSessions(t *testing.T) {
	srv, h := newTestServer(t, testConfig(testDataDir))

	type viewResponse struct {
		ID   string `json:"id"`
		View struct {
			Query    string   `json:"query"`
			Selected []string `json:"selected"`
			Empty    bool     `json:"empty"`
			Runs     []struct {
				ID string `json:"id"`
			} `json:"runs"`
			Overall []struct {
				ID string `json:"id"`
			} `json:"overall"`
			Layout struct {
				Columns  int  `json:"columns"`
				SpanLast bool `json:"span_last"`
			} `json:"layout"`
		} `json:"view"`
	}

	rec := do(t, h, http.MethodPost, "/api/v1/compare/sessions", map[string]any{
		"selected": []string{"run-gpt"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[viewResponse](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"run-gpt"}, created.View.Selected)
	assert.False(t, created.View.Empty)
	assert.Equal(t, 1, srv.sessions.Len())

	base := "/api/v1/compare/sessions/" + created.ID

	rec = do(t, h, http.MethodPost, base+"/toggle", map[string]string{"run_id": "run-claude"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[viewResponse](t, rec).View.Overall, 2)

	rec = do(t, h, http.MethodPost, base+"/toggle", map[string]string{"run_id": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, base+"/search", map[string]string{"query": " GROK "})
	require.Equal(t, http.StatusOK, rec.Code)

	searched := decode[viewResponse](t, rec)
	assert.Equal(t, "grok", searched.View.Query)
	require.Len(t, searched.View.Runs, 1)
	assert.Equal(t, "run-grok", searched.View.Runs[0].ID)
	assert.Len(t, searched.View.Overall, 2)

	rec = do(t, h, http.MethodPut, base+"/layout", map[string]float64{"width": 500})
	require.Equal(t, http.StatusOK, rec.Code)

	laid := decode[viewResponse](t, rec)
	assert.Equal(t, 2, laid.View.Layout.Columns)
	assert.False(t, laid.View.Layout.SpanLast)

	rec = do(t, h, http.MethodPut, base+"/layout", map[string]float64{"width": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "grok", decode[viewResponse](t, rec).View.Query)

	rec = do(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompareSessions_BadRequest(t *testing.T) {
	_, h := newTestServer(t, testConfig(testDataDir))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare/sessions",
		bytes.NewBufferString(`{"selected": "run-gpt"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// An empty body starts an empty session.
	rec = do(t, h, http.MethodPost, "/api/v1/compare/sessions", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestFiles(t *testing.T) {
	_, h := newTestServer(t, testConfig(testDataDir))

	rec := do(t, h, http.MethodGet, "/api/v1/files/runs/run-gpt.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run-gpt"`)

	rec = do(t, h, http.MethodGet, "/api/v1/files/runs.json", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, target := range []string{
		"/api/v1/files/runs/missing.json",
		"/api/v1/files/config.yaml",
		"/api/v1/files/runs/run-gpt.txt",
	} {
		rec = do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestIsDocumentPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "runs.json", want: true},
		{path: "runs/run-gpt.json", want: true},
		{path: "runs/../runs.json", want: false},
		{path: "runs/.json", want: false},
		{path: "runs/a/b.json", want: false},
		{path: "other.json", want: false},
		{path: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isDocumentPath(tt.path))
		})
	}
}

func TestIndexEndpoints(t *testing.T) {
	cfg := testConfig(testDataDir)
	cfg.Indexing.Enabled = true

	srv, h := newTestServer(t, cfg)
	require.NotNil(t, srv.indexer)

	_, err := srv.indexer.Sync(context.Background())
	require.NoError(t, err)

	type indexResponse struct {
		Entries []struct {
			RunID  string `json:"run_id"`
			Status string `json:"status"`
		} `json:"entries"`
	}

	rec := do(t, h, http.MethodGet, "/api/v1/index", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[indexResponse](t, rec).Entries, 3)

	rec = do(t, h, http.MethodGet, "/api/v1/index?status=running", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	running := decode[indexResponse](t, rec)
	require.Len(t, running.Entries, 1)
	assert.Equal(t, "run-grok", running.Entries[0].RunID)

	rec = do(t, h, http.MethodGet, "/api/v1/index/run-gpt", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/index/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndexEndpoints_Disabled(t *testing.T) {
	_, h := newTestServer(t, testConfig(testDataDir))

	rec := do(t, h, http.MethodGet, "/api/v1/index", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBasePath(t *testing.T) {
	cfg := testConfig(testDataDir)
	cfg.Site.BasePath = "/bench"

	_, h := newTestServer(t, cfg)

	rec := do(t, h, http.MethodGet, "/bench/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/bench/run/run-gpt.html"`)

	rec = do(t, h, http.MethodGet, "/bench/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/bench/static/style.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(testDataDir)
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}

	_, h := newTestServer(t, cfg)

	rec := do(t, h, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Pages are not rate limited.
	rec = do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_StartStop(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := testConfig(testDataDir)
	source := dataset.NewSource(log, storage.NewLocalReader(&cfg.Storage.Local))

	srv := NewServer(log, cfg, source, vendor.Default())
	require.NoError(t, srv.Start(context.Background()))
	require.NoError(t, srv.Stop())
}
