package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/doccmerge/internal/archive"
	"git.home.luguber.info/inful/doccmerge/internal/compiler"
	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/doccmerge/internal/git"
	"git.home.luguber.info/inful/doccmerge/internal/logfields"
	"git.home.luguber.info/inful/doccmerge/internal/metrics"
	"git.home.luguber.info/inful/doccmerge/internal/module"
	"git.home.luguber.info/inful/doccmerge/internal/navindex"
	"git.home.luguber.info/inful/doccmerge/internal/notify"
	"git.home.luguber.info/inful/doccmerge/internal/workspace"
)

// ErrMainModuleSkipped indicates the main module produced no archive in a
// multi-module run, leaving nothing to promote shared assets from.
var ErrMainModuleSkipped = errors.New("main module has nothing to document")

// Request is one merge invocation.
type Request struct {
	Main        string
	Targets     []string
	OutputDir   string
	PassThrough []string // appended to the configured compiler pass-through arguments
	// Atomic builds into a sibling of OutputDir and swaps it in only after
	// every stage succeeded, so a failed run leaves the previous output intact.
	Atomic bool
}

// Options configures a Merger.
type Options struct {
	Compiler   compiler.Config
	StagingDir string // name or path of the staging directory; relative to the output root
	Index      navindex.MergeOptions
	// SourceDir is inspected for the git revision recorded in the report; empty disables it.
	SourceDir string
}

// Merger runs merge pipelines.
type Merger struct {
	opts        Options
	builderOpts []compiler.Option
	recorder    metrics.Recorder
	publisher   notify.Publisher
	progress    io.Writer
	newRunID    func() string
	sourceRevFn func(dir string) (*git.Revision, error)
}

// Option customizes a Merger.
type Option func(*Merger)

// WithBuilderOptions forwards options to every compiler.Builder the Merger creates.
func WithBuilderOptions(opts ...compiler.Option) Option {
	return func(m *Merger) { m.builderOpts = append(m.builderOpts, opts...) }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(m *Merger) { m.recorder = r } }

// WithPublisher sets the merge event publisher.
func WithPublisher(p notify.Publisher) Option { return func(m *Merger) { m.publisher = p } }

// WithProgress sets the writer receiving user-facing progress lines.
func WithProgress(w io.Writer) Option { return func(m *Merger) { m.progress = w } }

// New creates a Merger.
func New(opts Options, options ...Option) *Merger {
	m := &Merger{
		opts:        opts,
		recorder:    metrics.NoopRecorder{},
		publisher:   notify.NoopPublisher{},
		progress:    io.Discard,
		newRunID:    func() string { return uuid.NewString() },
		sourceRevFn: git.SourceRevision,
	}
	for _, o := range options {
		o(m)
	}
	return m
}

// runState carries data between stages of one run.
type runState struct {
	req     Request
	modules *module.Set
	active  *module.Set // modules, minus the ones skipped during build
	layout  *workspace.Layout
	final   string // published output root; differs from layout.OutputRoot() for atomic runs
	builder *compiler.Builder
	report  *Report
}

// Run validates req and executes the merge pipeline. The returned report is
// non-nil whenever validation passed, including on failure.
func (m *Merger) Run(ctx context.Context, req Request) (*Report, error) {
	modules, err := module.NewSet(req.Main, req.Targets)
	if err != nil {
		return nil, err
	}
	layout, err := workspace.NewLayout(req.OutputDir, m.opts.StagingDir)
	if err != nil {
		return nil, err
	}
	final := layout.OutputRoot()
	if req.Atomic {
		if layout, err = workspace.NewLayout(workspace.NextDir(final), m.opts.StagingDir); err != nil {
			return nil, err
		}
	}

	cc := m.opts.Compiler
	cc.PassThrough = append(append([]string(nil), cc.PassThrough...), req.PassThrough...)
	builderOpts := append([]compiler.Option{compiler.WithProgress(m.progress)}, m.builderOpts...)

	rs := &runState{
		req:     req,
		modules: modules,
		active:  modules,
		layout:  layout,
		final:   final,
		builder: compiler.NewBuilder(cc, builderOpts...),
		report:  newReport(m.newRunID()),
	}
	rs.report.MainModule = modules.Main().Name
	rs.report.Modules = modules.Names()
	rs.report.OutputDir = final
	rs.report.Revision = m.sourceRevision()

	log := slog.With(logfields.RunID(rs.report.RunID), logfields.MainModule(modules.Main().Name))
	log.Info("Starting merge", slog.Any("modules", rs.report.Modules), logfields.Path(final))

	runErr := m.runStages(ctx, rs, m.pipeline(req.Atomic))
	rs.report.finish()

	m.recorder.ObserveRunDuration(rs.report.Duration())
	m.recorder.IncRunOutcome(string(rs.report.Outcome))
	m.notify(ctx, rs.report)

	if runErr != nil {
		log.Error("Merge failed", logfields.Outcome(string(rs.report.Outcome)), logfields.Error(runErr))
		return rs.report, runErr
	}
	log.Info("Merge complete", logfields.Outcome(string(rs.report.Outcome)), logfields.DurationMS(float64(rs.report.Duration().Milliseconds())))
	fmt.Fprintf(m.progress, "Generated merged documentation archive at '%s'\n", final)
	return rs.report, nil
}

func (m *Merger) pipeline(atomic bool) []stageDef {
	stages := []stageDef{
		{StagePrepareStaging, m.stagePrepareStaging},
		{StageBuildArchives, m.stageBuildArchives},
		{StagePromoteAssets, m.stagePromoteAssets},
		{StageMergeContent, m.stageMergeContent},
		{StageMergeIndex, m.stageMergeIndex},
		{StageCleanupStaging, m.stageCleanupStaging},
	}
	if atomic {
		stages = append(stages, stageDef{StagePublishOutput, m.stagePublishOutput})
	}
	return stages
}

// runStages executes stages in order, recording timing and stopping on the first fatal error.
func (m *Merger) runStages(ctx context.Context, rs *runState, stages []stageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			rs.report.addStageError(se)
			rs.report.recordStage(st.Name, 0, StageResultCanceled, m.recorder)
			return se
		default:
		}

		slog.Debug("Stage started", logfields.RunID(rs.report.RunID), logfields.Stage(string(st.Name)))
		t0 := time.Now()
		err := st.Fn(ctx, rs)
		dur := time.Since(t0)

		se := classifyStageError(ctx, st.Name, err)
		res := StageResultSuccess
		if se != nil {
			res = resultForKind(se.Kind)
			rs.report.addStageError(se)
		}
		rs.report.recordStage(st.Name, dur, res, m.recorder)
		slog.Debug("Stage finished",
			logfields.RunID(rs.report.RunID),
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur.Microseconds())/1000),
			logfields.Outcome(string(res)))

		if se != nil && se.Kind != StageErrorWarning {
			return se
		}
		if se != nil {
			slog.Warn("Stage completed with warnings", logfields.Stage(string(st.Name)), logfields.Error(se.Err))
		}
	}
	return nil
}

func (m *Merger) stagePrepareStaging(_ context.Context, rs *runState) error {
	return rs.layout.Prepare()
}

func (m *Merger) stageBuildArchives(ctx context.Context, rs *runState) error {
	total := rs.modules.Len()
	var skipped []string
	for _, mod := range rs.modules.All() {
		res, err := rs.builder.Build(ctx, mod, rs.layout.StagingRoot(), total)
		if err != nil {
			m.recorder.ObserveModuleBuild(mod.Name, res.Duration, metrics.ModuleFailed)
			return err
		}
		rs.report.Builds = append(rs.report.Builds, ModuleBuild{
			Module:   mod.Name,
			Main:     mod.Main,
			Skipped:  res.Skipped,
			Duration: res.Duration,
		})
		if res.Skipped {
			m.recorder.ObserveModuleBuild(mod.Name, res.Duration, metrics.ModuleSkipped)
			if mod.Main {
				return ferrors.BuildError("main module produced no documentation archive").
					WithCause(ErrMainModuleSkipped).
					WithContext("module", mod.Name).
					Build()
			}
			skipped = append(skipped, mod.Name)
			continue
		}
		m.recorder.ObserveModuleBuild(mod.Name, res.Duration, metrics.ModuleBuilt)
	}

	if len(skipped) == 0 {
		return nil
	}
	rs.active = rs.modules.Without(skipped...)
	return ferrors.BuildError("modules without documentation were left out of the merge").
		Warning().
		WithContext("modules", strings.Join(skipped, ",")).
		Build()
}

func (m *Merger) stagePromoteAssets(_ context.Context, rs *runState) error {
	main := rs.modules.Main()
	if err := archive.PromoteAssets(rs.layout.ModuleStaging(main.Name), rs.layout.OutputRoot()); err != nil {
		return err
	}
	slog.Debug("Promoted shared assets", logfields.Module(main.Name), logfields.Count(len(archive.SharedAssets)))
	return nil
}

func (m *Merger) stageMergeContent(_ context.Context, rs *runState) error {
	summary := archive.MergeContent(rs.active.All(), rs.layout.StagingRoot(), rs.layout.OutputRoot())
	rs.report.Content = summary
	m.recorder.AddContentCopied(summary.Copied())

	var failed []string
	for _, mc := range summary.Modules {
		if len(mc.Failed) > 0 {
			failed = append(failed, mc.Module)
		}
	}
	if len(failed) > 0 {
		return ferrors.FileSystemError("some module content could not be copied").
			Warning().
			WithContext("modules", strings.Join(failed, ",")).
			Build()
	}
	return nil
}

func (m *Merger) stageMergeIndex(_ context.Context, rs *runState) error {
	main := rs.active.Main()
	mainIdx, err := m.readIndex(rs.layout, main)
	if err != nil {
		return err
	}
	secondaries := make([]navindex.Source, 0, len(rs.active.Secondaries()))
	for _, mod := range rs.active.Secondaries() {
		idx, err := m.readIndex(rs.layout, mod)
		if err != nil {
			return err
		}
		secondaries = append(secondaries, navindex.Source{Module: mod, Index: idx})
	}

	merged := navindex.Merge(navindex.Source{Module: main, Index: mainIdx}, secondaries, m.opts.Index)
	if err := navindex.WriteFile(rs.layout.IndexPath(), merged); err != nil {
		return ferrors.IndexError("failed to write merged navigation index").
			WithCause(err).
			WithContext("path", rs.layout.IndexPath()).
			Build()
	}
	rs.report.IndexLanguages = merged.Languages()
	slog.Debug("Wrote merged navigation index", logfields.Path(rs.layout.IndexPath()), logfields.Count(len(merged.IncludedArchiveIdentifiers)))
	return nil
}

func (m *Merger) readIndex(layout *workspace.Layout, mod module.Module) (*navindex.Index, error) {
	path := layout.ModuleIndexPath(mod.Name)
	idx, err := navindex.ReadFile(path)
	if err != nil {
		return nil, ferrors.IndexError("failed to read module navigation index").
			WithCause(err).
			WithContext("module", mod.Name).
			WithContext("path", path).
			Build()
	}
	return idx, nil
}

func (m *Merger) stageCleanupStaging(_ context.Context, rs *runState) error {
	return rs.layout.Cleanup()
}

func (m *Merger) stagePublishOutput(_ context.Context, rs *runState) error {
	return workspace.Publish(rs.layout.OutputRoot(), rs.final)
}

func (m *Merger) sourceRevision() *git.Revision {
	if m.opts.SourceDir == "" {
		return nil
	}
	rev, err := m.sourceRevFn(m.opts.SourceDir)
	if err != nil {
		slog.Debug("Source revision unavailable", logfields.Path(m.opts.SourceDir), logfields.Error(err))
		return nil
	}
	return rev
}

func (m *Merger) notify(ctx context.Context, r *Report) {
	e := notify.Event{
		RunID:      r.RunID,
		MainModule: r.MainModule,
		Modules:    r.Built(),
		Skipped:    r.Skipped(),
		OutputDir:  r.OutputDir,
		Outcome:    string(r.Outcome),
		DurationMS: r.Duration().Milliseconds(),
		Timestamp:  r.End.UTC(),
	}
	if r.Revision != nil {
		e.Revision = r.Revision.String()
	}
	if err := m.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		slog.Warn("Failed to publish merge event", logfields.RunID(r.RunID), logfields.Error(err))
	}
}
