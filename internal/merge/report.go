package merge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/doccmerge/internal/archive"
	"git.home.luguber.info/inful/doccmerge/internal/git"
	"git.home.luguber.info/inful/doccmerge/internal/metrics"
	"git.home.luguber.info/inful/doccmerge/internal/version"
)

// ReportSchemaVersion is bumped when the persisted report changes incompatibly.
const ReportSchemaVersion = 1

// Outcome is the final state of a run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// ModuleBuild records the compiler result for one module.
type ModuleBuild struct {
	Module   string        `json:"module"`
	Main     bool          `json:"main,omitempty"`
	Skipped  bool          `json:"skipped,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report captures what happened during a run.
type Report struct {
	SchemaVersion   int
	RunID           string
	Version         string
	MainModule      string
	Modules         []string // requested, main first
	OutputDir       string
	Start           time.Time
	End             time.Time
	Builds          []ModuleBuild
	Content         archive.MergeSummary
	IndexLanguages  []string
	Revision        *git.Revision
	StageDurations  map[StageName]time.Duration
	StageResults    map[StageName]StageResult
	StageErrorKinds map[StageName]StageErrorKind
	Errors          []error // fatal errors causing the run to abort (at most one)
	Warnings        []error
	Outcome         Outcome
}

func newReport(runID string) *Report {
	return &Report{
		SchemaVersion:   ReportSchemaVersion,
		RunID:           runID,
		Version:         version.Version,
		Start:           time.Now(),
		StageDurations:  make(map[StageName]time.Duration),
		StageResults:    make(map[StageName]StageResult),
		StageErrorKinds: make(map[StageName]StageErrorKind),
	}
}

// Built returns the names of modules the compiler produced archives for.
func (r *Report) Built() []string {
	var out []string
	for _, b := range r.Builds {
		if !b.Skipped {
			out = append(out, b.Module)
		}
	}
	return out
}

// Skipped returns the names of modules that had nothing to document.
func (r *Report) Skipped() []string {
	var out []string
	for _, b := range r.Builds {
		if b.Skipped {
			out = append(out, b.Module)
		}
	}
	return out
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("run=%s main=%s modules=%d built=%d skipped=%d content=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.RunID, r.MainModule, len(r.Modules), len(r.Built()), len(r.Skipped()), r.Content.Copied(),
		r.Duration().Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

func (r *Report) recordStage(name StageName, d time.Duration, res StageResult, recorder metrics.Recorder) {
	r.StageDurations[name] = d
	r.StageResults[name] = res
	recorder.ObserveStageDuration(string(name), d)
	recorder.IncStageResult(string(name), metrics.ResultLabel(res))
}

func (r *Report) addStageError(se *StageError) {
	r.StageErrorKinds[se.Stage] = se.Kind
	if se.Kind == StageErrorWarning {
		r.Warnings = append(r.Warnings, se)
		return
	}
	r.Errors = append(r.Errors, se)
}

func (r *Report) finish() {
	r.End = time.Now()
	r.deriveOutcome()
}

func (r *Report) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Persist writes the report as JSON to path, replacing any existing file atomically.
func (r *Report) Persist(path string) error {
	if r.End.IsZero() {
		r.finish()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure directory for report: %w", err)
	}
	jb, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(jb, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename report json: %w", err)
	}
	return nil
}

// MarshalJSON renders errors as strings and durations in milliseconds.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.serializable())
}

// ReportSerializable mirrors Report with JSON-friendly fields.
type ReportSerializable struct {
	SchemaVersion    int                  `json:"schema_version"`
	RunID            string               `json:"run_id"`
	Version          string               `json:"version"`
	MainModule       string               `json:"main_module"`
	Modules          []string             `json:"modules"`
	Built            []string             `json:"built"`
	Skipped          []string             `json:"skipped"`
	OutputDir        string               `json:"output_dir"`
	Start            time.Time            `json:"start"`
	End              time.Time            `json:"end"`
	DurationMS       int64                `json:"duration_ms"`
	Builds           []ModuleBuild        `json:"builds"`
	Content          archive.MergeSummary `json:"content"`
	IndexLanguages   []string             `json:"index_languages"`
	Revision         *git.Revision        `json:"revision,omitempty"`
	StageDurationsMS map[string]int64     `json:"stage_durations_ms"`
	StageResults     map[string]string    `json:"stage_results"`
	StageErrorKinds  map[string]string    `json:"stage_error_kinds"`
	Errors           []string             `json:"errors"`
	Warnings         []string             `json:"warnings"`
	Outcome          Outcome              `json:"outcome"`
}

func (r *Report) serializable() *ReportSerializable {
	s := &ReportSerializable{
		SchemaVersion:    r.SchemaVersion,
		RunID:            r.RunID,
		Version:          r.Version,
		MainModule:       r.MainModule,
		Modules:          nonNil(r.Modules),
		Built:            nonNil(r.Built()),
		Skipped:          nonNil(r.Skipped()),
		OutputDir:        r.OutputDir,
		Start:            r.Start,
		End:              r.End,
		DurationMS:       r.Duration().Milliseconds(),
		Builds:           r.Builds,
		Content:          r.Content,
		IndexLanguages:   nonNil(r.IndexLanguages),
		Revision:         r.Revision,
		StageDurationsMS: make(map[string]int64, len(r.StageDurations)),
		StageResults:     make(map[string]string, len(r.StageResults)),
		StageErrorKinds:  make(map[string]string, len(r.StageErrorKinds)),
		Errors:           make([]string, len(r.Errors)),
		Warnings:         make([]string, len(r.Warnings)),
		Outcome:          r.Outcome,
	}
	if s.Builds == nil {
		s.Builds = []ModuleBuild{}
	}
	if s.Content.Modules == nil {
		s.Content.Modules = []archive.ModuleContent{}
	}
	for k, v := range r.StageDurations {
		s.StageDurationsMS[string(k)] = v.Milliseconds()
	}
	for k, v := range r.StageResults {
		s.StageResults[string(k)] = string(v)
	}
	for k, v := range r.StageErrorKinds {
		s.StageErrorKinds[string(k)] = string(v)
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
