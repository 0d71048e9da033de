package merge

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doccmerge/internal/archive"
	"git.home.luguber.info/inful/doccmerge/internal/metrics"
)

func TestReportDeriveOutcome(t *testing.T) {
	tests := []struct {
		name string
		errs []*StageError
		want Outcome
	}{
		{"clean", nil, OutcomeSuccess},
		{"warning", []*StageError{newWarnStageError(StageMergeContent, errors.New("w"))}, OutcomeWarning},
		{"fatal", []*StageError{newFatalStageError(StageMergeIndex, errors.New("f"))}, OutcomeFailed},
		{"canceled", []*StageError{newCanceledStageError(StageBuildArchives, errors.New("c"))}, OutcomeCanceled},
		{"fatal after warning", []*StageError{
			newWarnStageError(StageBuildArchives, errors.New("w")),
			newFatalStageError(StagePromoteAssets, errors.New("f")),
		}, OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReport("id")
			for _, se := range tt.errs {
				r.addStageError(se)
			}
			r.finish()
			assert.Equal(t, tt.want, r.Outcome)
		})
	}
}

func TestReportPersist(t *testing.T) {
	r := newReport("run-42")
	r.MainModule = "App"
	r.Modules = []string{"App", "Empty"}
	r.Builds = []ModuleBuild{
		{Module: "App", Main: true, Duration: 2 * time.Second},
		{Module: "Empty", Skipped: true},
	}
	r.Content = archive.MergeSummary{Modules: []archive.ModuleContent{{Module: "App", Copied: []archive.ContentKind{archive.KindDocumentation}}}}
	r.recordStage(StageBuildArchives, 1500*time.Millisecond, StageResultWarning, metrics.NoopRecorder{})
	r.addStageError(newWarnStageError(StageBuildArchives, errors.New("skipped Empty")))

	path := filepath.Join(t.TempDir(), "reports", "merge-report.json")
	require.NoError(t, r.Persist(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "run-42", got["run_id"])
	assert.Equal(t, "warning", got["outcome"])
	assert.Equal(t, []any{"App"}, got["built"])
	assert.Equal(t, []any{"Empty"}, got["skipped"])
	assert.Equal(t, map[string]any{"build_archives": float64(1500)}, got["stage_durations_ms"])
	assert.Equal(t, map[string]any{"build_archives": "warning"}, got["stage_error_kinds"])
	assert.Equal(t, []any{"warning stage build_archives: skipped Empty"}, got["warnings"])
	assert.Equal(t, []any{}, got["errors"])
	assert.NotContains(t, got, "revision")
	assert.NoFileExists(t, path+".tmp")
}

func TestReportSummary(t *testing.T) {
	r := newReport("abc")
	r.MainModule = "App"
	r.Modules = []string{"App"}
	r.Builds = []ModuleBuild{{Module: "App", Main: true}}
	r.finish()

	s := r.Summary()
	assert.Contains(t, s, "run=abc")
	assert.Contains(t, s, "built=1")
	assert.Contains(t, s, "outcome=success")
}
