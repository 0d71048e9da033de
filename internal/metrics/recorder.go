package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// ModuleResultLabel enumerates per-module build results.
type ModuleResultLabel string

const (
	ModuleBuilt   ModuleResultLabel = "built"
	ModuleSkipped ModuleResultLabel = "skipped"
	ModuleFailed  ModuleResultLabel = "failed"
)

// Recorder defines observability hooks for merge runs.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(outcome string) // outcome: success|warning|failed|canceled
	ObserveModuleBuild(module string, d time.Duration, result ModuleResultLabel)
	AddContentCopied(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)                  {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                            {}
func (NoopRecorder) IncStageResult(string, ResultLabel)                          {}
func (NoopRecorder) IncRunOutcome(string)                                        {}
func (NoopRecorder) ObserveModuleBuild(string, time.Duration, ModuleResultLabel) {}
func (NoopRecorder) AddContentCopied(int)                                        {}
