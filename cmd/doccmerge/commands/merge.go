package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/doccmerge/internal/compiler"
	"git.home.luguber.info/inful/doccmerge/internal/config"
	"git.home.luguber.info/inful/doccmerge/internal/merge"
	"git.home.luguber.info/inful/doccmerge/internal/metrics"
	"git.home.luguber.info/inful/doccmerge/internal/navindex"
	"git.home.luguber.info/inful/doccmerge/internal/notify"
)

// MergeFlags are shared by merge and serve.
type MergeFlags struct {
	MainTarget      string   `name:"main-target" help:"Module whose archive becomes the site root"`
	Target          []string `name:"target" help:"Additional module to document (repeatable)"`
	OutputDirectory string   `name:"output-directory" short:"o" help:"Merged archive destination" type:"path"`
	MetricsFile     string   `name:"metrics-file" help:"Write Prometheus metrics to this textfile after each run" type:"path"`
	Report          string   `name:"report" help:"Write a JSON run report to this path" type:"path"`
	PassThrough     []string `arg:"" optional:"" passthrough:"" help:"Arguments after -- are passed to the documentation compiler"`
}

// apply overlays the flags onto cfg; flags win.
func (f *MergeFlags) apply(cfg *config.Config) {
	if f.MainTarget != "" {
		cfg.MainTarget = f.MainTarget
	}
	if len(f.Target) > 0 {
		cfg.Targets = f.Target
	}
	if f.OutputDirectory != "" {
		cfg.Output.Directory = f.OutputDirectory
	}
	if f.MetricsFile != "" {
		cfg.Metrics.Textfile = f.MetricsFile
	}
	if f.Report != "" {
		cfg.Output.Report = f.Report
	}
}

func (f *MergeFlags) request(cfg *config.Config) merge.Request {
	return merge.Request{
		Main:        cfg.MainTarget,
		Targets:     cfg.Targets,
		OutputDir:   cfg.Output.Directory,
		PassThrough: f.PassThrough,
	}
}

// MergeCmd implements the 'merge' command.
type MergeCmd struct {
	MergeFlags `embed:""`
}

func (m *MergeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	m.apply(cfg)

	ctx, stop := signalContext()
	defer stop()

	fmt.Println("Starting documentation merge")
	rt, err := newRuntime(cfg, false)
	if err != nil {
		return err
	}
	defer rt.close()

	_, err = rt.run(ctx, m.request(cfg))
	return err
}

// runtime bundles a Merger with the outputs written after each run.
type runtime struct {
	cfg       *config.Config
	merger    *merge.Merger
	recorder  *metrics.PrometheusRecorder
	publisher notify.Publisher
}

// newRuntime wires the Merger from cfg. A Prometheus recorder is created when
// a metrics textfile is configured or withMetrics is set.
func newRuntime(cfg *config.Config, withMetrics bool) (*runtime, error) {
	rt := &runtime{cfg: cfg, publisher: notify.NoopPublisher{}}

	opts := []merge.Option{merge.WithProgress(os.Stdout)}
	if cfg.SymbolGraphs.Enabled() {
		opts = append(opts, merge.WithBuilderOptions(compiler.WithSymbolGraphs(symbolGraphProvider(cfg), compiler.DirCatalogLocator{
			Root:        cfg.Compiler.WorkingDir,
			SearchPaths: cfg.SymbolGraphs.CatalogSearchPaths,
		})))
	}
	if withMetrics || cfg.Metrics.Textfile != "" {
		rt.recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, merge.WithRecorder(rt.recorder))
	}
	if cfg.Notify.Enabled() {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject, cfg.Notify.RetryPolicy())
		if err != nil {
			slog.Warn("Merge notifications disabled", slog.Any("error", err))
		} else {
			rt.publisher = pub
			opts = append(opts, merge.WithPublisher(pub))
		}
	}

	sourceDir := cfg.Compiler.WorkingDir
	if sourceDir == "" {
		sourceDir = "."
	}
	rt.merger = merge.New(merge.Options{
		Compiler: compiler.Config{
			Command:     cfg.Compiler.Command,
			WorkingDir:  cfg.Compiler.WorkingDir,
			Env:         cfg.Compiler.Env,
			PassThrough: cfg.Compiler.PassThrough,
			Stream:      cfg.Compiler.Stream,
		},
		StagingDir: cfg.Staging.Directory,
		Index: navindex.MergeOptions{
			PrimaryLanguage: cfg.Index.PrimaryLanguage,
			BackLinkFormat:  cfg.Index.BackLinkFormat,
		},
		SourceDir: sourceDir,
	}, opts...)
	return rt, nil
}

func symbolGraphProvider(cfg *config.Config) compiler.SymbolGraphProvider {
	if len(cfg.SymbolGraphs.Command) > 0 {
		return compiler.CommandSymbolGraphProvider{
			Command:    cfg.SymbolGraphs.Command,
			Output:     cfg.SymbolGraphs.Directory,
			WorkingDir: cfg.Compiler.WorkingDir,
		}
	}
	return compiler.DirectorySymbolGraphProvider{
		Root:    cfg.Compiler.WorkingDir,
		Pattern: cfg.SymbolGraphs.Directory,
	}
}

// run executes one merge and writes the configured report and metrics.
func (rt *runtime) run(ctx context.Context, req merge.Request) (*merge.Report, error) {
	report, err := rt.merger.Run(ctx, req)
	if report == nil {
		return nil, err
	}

	if path := rt.cfg.Output.Report; path != "" {
		if perr := report.Persist(path); perr != nil {
			slog.Warn("Failed to write run report", slog.String("path", path), slog.Any("error", perr))
		}
	}
	if path := rt.cfg.Metrics.Textfile; path != "" && rt.recorder != nil {
		if merr := metrics.WriteTextfile(path, rt.recorder.Registry()); merr != nil {
			slog.Warn("Failed to write metrics textfile", slog.String("path", path), slog.Any("error", merr))
		}
	}
	if err != nil {
		return report, err
	}

	fmt.Printf("Merged %d module(s) in %s\n", len(report.Built()), report.Duration().Round(10*time.Millisecond))
	for _, name := range report.Skipped() {
		fmt.Printf("Skipped '%s': nothing to document\n", name)
	}
	return report, nil
}

func (rt *runtime) close() {
	if err := rt.publisher.Close(); err != nil {
		slog.Debug("close publisher", slog.Any("error", err))
	}
}
