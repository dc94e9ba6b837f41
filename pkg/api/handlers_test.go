package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/regressoor/pkg/analysis"
	"github.com/ethpandaops/regressoor/pkg/baseline"
	"github.com/ethpandaops/regressoor/pkg/config"
	"github.com/ethpandaops/regressoor/pkg/criterion"
)

// newTestServer builds a server over temp baseline and criterion
// directories, without an index database.
func newTestServer(t *testing.T) (*server, string, string) {
	t.Helper()

	baselineDir := t.TempDir()
	criterionDir := t.TempDir()

	cfg := config.Default()
	cfg.Baseline.Dir = baselineDir
	cfg.Criterion.ResultsDir = criterionDir
	cfg.API = &config.APIConfig{}

	log := logrus.New()

	return &server{
		log:       log.WithField("component", "api"),
		cfg:       cfg,
		baselines: baseline.NewStore(log, baselineDir, nil),
		extractor: criterion.NewExtractor(log, criterionDir),
	}, baselineDir, criterionDir
}

func writeBaselineFile(t *testing.T, dir, file string, mean float64) {
	t.Helper()

	content := fmt.Sprintf(`{
		"bench": {
			"mean_ns": %f,
			"std_dev_ns": %f,
			"median_ns": %f,
			"mad_ns": 1.0,
			"timestamp": "2026-08-26T10:00:00Z"
		}
	}`, mean, mean/10, mean)

	require.NoError(t, os.WriteFile(
		filepath.Join(dir, file), []byte(content), 0o644,
	))
}

func writeCriterionResult(t *testing.T, dir string, mean float64) {
	t.Helper()

	benchDir := filepath.Join(dir, "bench", "new")
	require.NoError(t, os.MkdirAll(benchDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(benchDir, "estimates.json"),
		[]byte(fmt.Sprintf(`{"mean": {"point_estimate": %f}}`, mean)), 0o644,
	))
}

func doRequest(t *testing.T, srv *server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	return rec
}

func TestHandleHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleListBaselines(t *testing.T) {
	srv, baselineDir, _ := newTestServer(t)

	writeBaselineFile(t, baselineDir, "baseline_20260820_100000.json", 100)
	writeBaselineFile(t, baselineDir, "baseline_v2_20260821_100000.json", 110)

	rec := doRequest(t, srv, "/api/v1/baselines")
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 2)

	assert.Equal(t, "baseline_20260820_100000.json", listed[0]["file"])
	assert.Equal(t, "v2", listed[1]["tag"])
	assert.InDelta(t, 1, listed[0]["benchmark_count"], 1e-9)
}

func TestHandleGetBaseline(t *testing.T) {
	srv, baselineDir, _ := newTestServer(t)

	writeBaselineFile(t, baselineDir, "baseline_20260820_100000.json", 100)

	t.Run("existing record", func(t *testing.T) {
		rec := doRequest(t, srv, "/api/v1/baselines/baseline_20260820_100000.json")
		require.Equal(t, http.StatusOK, rec.Code)

		var snap baseline.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		assert.InDelta(t, 100, snap["bench"].MeanNs, 1e-9)
	})

	t.Run("unknown record", func(t *testing.T) {
		rec := doRequest(t, srv, "/api/v1/baselines/baseline_20260101_000000.json")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("name outside the filename scheme", func(t *testing.T) {
		rec := doRequest(t, srv, "/api/v1/baselines/passwd")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleCompare(t *testing.T) {
	srv, baselineDir, criterionDir := newTestServer(t)

	writeBaselineFile(t, baselineDir, baseline.LatestAlias, 100)
	writeCriterionResult(t, criterionDir, 120)

	t.Run("default threshold flags regression", func(t *testing.T) {
		rec := doRequest(t, srv, "/api/v1/compare")
		require.Equal(t, http.StatusOK, rec.Code)

		var cmp analysis.Comparison
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
		require.Len(t, cmp.Regressions, 1)
		assert.InDelta(t, 20, cmp.Regressions[0].ChangePercent, 1e-6)
	})

	t.Run("threshold override", func(t *testing.T) {
		rec := doRequest(t, srv, "/api/v1/compare?threshold=25")
		require.Equal(t, http.StatusOK, rec.Code)

		var cmp analysis.Comparison
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
		assert.Empty(t, cmp.Regressions)
		assert.Len(t, cmp.Stable, 1)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		rec := doRequest(t, srv, "/api/v1/compare?threshold=lots")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("named current record", func(t *testing.T) {
		writeBaselineFile(t, baselineDir, "baseline_20260825_100000.json", 130)

		rec := doRequest(t, srv,
			"/api/v1/compare?current=baseline_20260825_100000.json")
		require.Equal(t, http.StatusOK, rec.Code)

		var cmp analysis.Comparison
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
		require.Len(t, cmp.Regressions, 1)
		assert.InDelta(t, 30, cmp.Regressions[0].ChangePercent, 1e-6)
	})

	t.Run("unknown named baseline", func(t *testing.T) {
		rec := doRequest(t, srv, "/api/v1/compare?baseline=nope.json")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleCompareNoBaseline(t *testing.T) {
	srv, _, criterionDir := newTestServer(t)

	writeCriterionResult(t, criterionDir, 120)

	rec := doRequest(t, srv, "/api/v1/compare")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no baseline found")
}

func TestHandleCompareNoCurrentResults(t *testing.T) {
	srv, baselineDir, _ := newTestServer(t)

	writeBaselineFile(t, baselineDir, baseline.LatestAlias, 100)

	rec := doRequest(t, srv, "/api/v1/compare")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no current benchmark results")
}

func TestHandleTrends(t *testing.T) {
	srv, baselineDir, _ := newTestServer(t)

	writeBaselineFile(t, baselineDir, "baseline_20260824_100000.json", 100)
	writeBaselineFile(t, baselineDir, "baseline_20260825_100000.json", 120)

	t.Run("enough history", func(t *testing.T) {
		rec := doRequest(t, srv, "/api/v1/trends?days=3650")
		require.Equal(t, http.StatusOK, rec.Code)

		var rep analysis.TrendReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
		assert.Equal(t, 2, rep.BaselinesAnalyzed)

		trend, ok := rep.Trends["bench"]
		require.True(t, ok)
		assert.Equal(t, analysis.TrendDegrading, trend.Direction)
	})

	t.Run("invalid days", func(t *testing.T) {
		rec := doRequest(t, srv, "/api/v1/trends?days=0")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleTrendsInsufficientHistory(t *testing.T) {
	srv, baselineDir, _ := newTestServer(t)

	writeBaselineFile(t, baselineDir, "baseline_20260825_100000.json", 100)

	rec := doRequest(t, srv, "/api/v1/trends?days=3650")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestValidBaselineName(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		expected bool
	}{
		{name: "latest alias", file: "latest.json", expected: true},
		{name: "record filename", file: "baseline_20260820_100000.json", expected: true},
		{name: "tagged record", file: "baseline_v1_20260820_100000.json", expected: true},
		{name: "path traversal", file: "../secrets.json", expected: false},
		{name: "backslash", file: `..\secrets.json`, expected: false},
		{name: "arbitrary name", file: "config.yaml", expected: false},
		{name: "empty", file: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, validBaselineName(tt.file))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.cfg.API.Server.RateLimit = config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
	}

	router := srv.buildRouter()

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Stop must release the limiter's cleanup goroutine.
	require.NoError(t, srv.Stop())

	select {
	case <-srv.rateLimits.done:
	default:
		t.Fatal("limiter cleanup not signalled to stop")
	}
}
