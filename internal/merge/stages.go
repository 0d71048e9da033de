package merge

import (
	"context"
	stderrors "errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
)

// StageName is a strongly-typed identifier for a merge stage.
type StageName string

// Canonical stage names.
const (
	StagePrepareStaging StageName = "prepare_staging"
	StageBuildArchives  StageName = "build_archives"
	StagePromoteAssets  StageName = "promote_assets"
	StageMergeContent   StageName = "merge_content"
	StageMergeIndex     StageName = "merge_index"
	StageCleanupStaging StageName = "cleanup_staging"
	StagePublishOutput  StageName = "publish_output"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// stage is one step of the pipeline.
type stage func(ctx context.Context, rs *runState) error

type stageDef struct {
	Name StageName
	Fn   stage
}

// classifyStageError maps a stage function's error onto a StageError.
// Classified warnings continue the run; cancellation and everything else abort.
func classifyStageError(ctx context.Context, name StageName, err error) *StageError {
	if err == nil {
		return nil
	}
	var se *StageError
	if stderrors.As(err, &se) {
		return se
	}
	if ctx.Err() != nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return newCanceledStageError(name, err)
	}
	if ferrors.HasSeverity(err, ferrors.SeverityWarning) {
		return newWarnStageError(name, err)
	}
	return newFatalStageError(name, err)
}

func resultForKind(kind StageErrorKind) StageResult {
	switch kind {
	case StageErrorWarning:
		return StageResultWarning
	case StageErrorCanceled:
		return StageResultCanceled
	default:
		return StageResultFatal
	}
}
