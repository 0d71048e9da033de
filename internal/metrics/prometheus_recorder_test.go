package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("merge_content", 150*time.Millisecond)
	pr.ObserveRunDuration(2 * time.Second)
	pr.IncStageResult("merge_content", ResultSuccess)
	pr.IncRunOutcome("success")
	pr.ObserveModuleBuild("App", 3*time.Second, ModuleBuilt)
	pr.ObserveModuleBuild("Empty", 0, ModuleSkipped)
	pr.AddContentCopied(4)
	pr.AddContentCopied(-1)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	assert.InDelta(t, 1, testutil.ToFloat64(pr.stageResults.WithLabelValues("merge_content", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.runOutcome.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.moduleResults.WithLabelValues("skipped")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(pr.contentCopied), 0)
	assert.Same(t, reg, pr.Registry())
}

func TestNilPrometheusRecorder(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration("x", time.Second)
		pr.IncRunOutcome("failed")
		pr.AddContentCopied(1)
	})
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncRunOutcome("success")

	path := filepath.Join(t.TempDir(), "textfile", "doccmerge.prom")
	require.NoError(t, WriteTextfile(path, pr.Registry()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `doccmerge_run_outcomes_total{outcome="success"} 1`)
}

func TestHTTPHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncStageResult("merge_index", ResultWarning)

	rec := httptest.NewRecorder()
	HTTPHandler(pr.Registry()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "doccmerge_stage_results_total")
}
