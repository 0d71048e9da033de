package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/doccmerge/internal/logfields"
	"git.home.luguber.info/inful/doccmerge/internal/module"
)

// DefaultCommand invokes the Swift-DocC package plugin. {staging} expands to the staging root.
var DefaultCommand = []string{"swift", "package", "--allow-writing-to-directory", "{staging}", "generate-documentation"}

// Config describes how to invoke the compiler.
type Config struct {
	// Command is the executable and its leading arguments; may contain {staging}.
	Command []string
	// WorkingDir is where the compiler runs (the package root).
	WorkingDir string
	// Env holds extra KEY=VALUE entries for the compiler process.
	Env []string
	// PassThrough arguments are appended verbatim after the fixed template.
	PassThrough []string
	// Stream copies compiler output to the progress writer while it runs.
	Stream bool
}

// Result describes the outcome of one module build.
type Result struct {
	Module     string
	OutputPath string
	Skipped    bool
	Duration   time.Duration
}

// Builder produces one documentation archive per module.
type Builder struct {
	cfg      Config
	runner   Runner
	graphs   SymbolGraphProvider
	catalogs CatalogLocator
	lookPath func(string) (string, error)
	progress io.Writer
	now      func() time.Time
}

// Option customizes a Builder.
type Option func(*Builder)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option { return func(b *Builder) { b.runner = r } }

// WithSymbolGraphs enables the documentable-module check using p and l.
func WithSymbolGraphs(p SymbolGraphProvider, l CatalogLocator) Option {
	return func(b *Builder) {
		b.graphs = p
		b.catalogs = l
	}
}

// WithLookPath replaces executable discovery.
func WithLookPath(f func(string) (string, error)) Option { return func(b *Builder) { b.lookPath = f } }

// WithProgress sets the writer receiving user-facing progress lines.
func WithProgress(w io.Writer) Option { return func(b *Builder) { b.progress = w } }

// NewBuilder creates a Builder. Without options it runs real processes, skips
// the documentable-module check and discards progress output.
func NewBuilder(cfg Config, opts ...Option) *Builder {
	if len(cfg.Command) == 0 {
		cfg.Command = DefaultCommand
	}
	b := &Builder{
		cfg:      cfg,
		runner:   ExecRunner{},
		lookPath: exec.LookPath,
		progress: io.Discard,
		now:      time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// OutputPath is the staged archive location for m.
func OutputPath(stagingRoot string, m module.Module) string {
	return filepath.Join(stagingRoot, m.Name)
}

// Arguments returns the full argv (without the executable) for building m.
func (b *Builder) Arguments(m module.Module, stagingRoot string) []string {
	args := make([]string, 0, len(b.cfg.Command)+6+len(b.cfg.PassThrough))
	for _, a := range b.cfg.Command[1:] {
		args = append(args, strings.ReplaceAll(a, "{staging}", stagingRoot))
	}
	args = append(args,
		"--disable-indexing",
		"--target", m.Name,
		"--output-path", OutputPath(stagingRoot, m),
		"--transform-for-static-hosting",
	)
	return append(args, b.cfg.PassThrough...)
}

// Build compiles the archive for m into stagingRoot. total is the number of
// modules requested in this run: an undocumentable module is skipped with a
// warning when total > 1 and is a fatal error otherwise.
func (b *Builder) Build(ctx context.Context, m module.Module, stagingRoot string, total int) (Result, error) {
	res := Result{Module: m.Name, OutputPath: OutputPath(stagingRoot, m)}
	fmt.Fprintf(b.progress, "Generating documentation for '%s'...\n", m.Name)

	ok, err := b.documentable(ctx, m)
	if err != nil {
		return res, err
	}
	if !ok {
		msg := fmt.Sprintf("'%s' does not contain any documentable symbols or a documentation catalog and will not produce documentation", m.Name)
		if total > 1 {
			slog.Warn(msg, logfields.Module(m.Name))
			res.Skipped = true
			return res, nil
		}
		return res, ferrors.BuildError(msg).
			WithCause(ErrNothingToDocument).
			WithContext("module", m.Name).
			Build()
	}

	exe, err := b.lookPath(b.cfg.Command[0])
	if err != nil {
		return res, ferrors.CompilerError("documentation compiler not found").
			WithCause(fmt.Errorf("%w: %w", ErrCompilerNotFound, err)).
			WithContext("command", b.cfg.Command[0]).
			Build()
	}

	var stdout, stderr bytes.Buffer
	cmd := Command{
		Path:   exe,
		Args:   b.Arguments(m, stagingRoot),
		Dir:    b.cfg.WorkingDir,
		Env:    b.cfg.Env,
		Stdout: &stdout,
		Stderr: &stderr,
	}
	if b.cfg.Stream {
		cmd.Stdout = io.MultiWriter(&stdout, b.progress)
		cmd.Stderr = io.MultiWriter(&stderr, b.progress)
	}

	fmt.Fprintln(b.progress, "Converting documentation...")
	slog.Debug("Invoking documentation compiler", logfields.Module(m.Name), slog.String("command", exe), slog.Any("args", cmd.Args))
	start := b.now()
	runErr := b.runner.Run(ctx, cmd)
	res.Duration = b.now().Sub(start)

	if out := strings.TrimSpace(stdout.String()); out != "" {
		slog.Debug("compiler stdout", logfields.Module(m.Name), slog.String("output", out))
	}
	if errOut := strings.TrimSpace(stderr.String()); errOut != "" && runErr != nil {
		slog.Warn("compiler stderr", logfields.Module(m.Name), slog.String("error_output", errOut))
	}

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ferrors.WrapError(ctxErr, ferrors.CategoryRuntime, "documentation build canceled").
				Fatal().
				WithContext("module", m.Name).
				Build()
		}
		builder := ferrors.BuildError("module build failed").
			WithCause(fmt.Errorf("%w: %w", ErrCompilerFailed, runErr)).
			WithContext("module", m.Name)
		var exitErr *ExitError
		if errors.As(runErr, &exitErr) {
			builder = builder.WithContext("exit_code", exitErr.Code)
		}
		if tail := lastLines(stderr.String(), 20); tail != "" {
			builder = builder.WithContext("stderr", tail)
		}
		return res, builder.Build()
	}

	fmt.Fprintf(b.progress, "Conversion complete! (%.2fs)\n", res.Duration.Seconds())
	fmt.Fprintf(b.progress, "Generated documentation archive at '%s'\n", res.OutputPath)
	slog.Info("Built module archive",
		logfields.Module(m.Name),
		logfields.Path(res.OutputPath),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	return res, nil
}

func (b *Builder) documentable(ctx context.Context, m module.Module) (bool, error) {
	if b.graphs == nil {
		return true, nil
	}
	dir, err := b.graphs.SymbolGraphs(ctx, m)
	if err != nil {
		return false, ferrors.WrapError(err, ferrors.CategoryBuild, "symbol graph extraction failed").
			Fatal().
			WithContext("module", m.Name).
			Build()
	}
	found, err := hasSymbolGraphs(dir)
	if err != nil {
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read symbol graph directory").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	if found || b.catalogs == nil {
		return found, nil
	}
	catalog, err := b.catalogs.Catalog(m)
	if err != nil {
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "search documentation catalog").
			Fatal().
			WithContext("module", m.Name).
			Build()
	}
	if catalog != "" {
		slog.Debug("Module has no symbol graphs but a documentation catalog", logfields.Module(m.Name), logfields.Path(catalog))
	}
	return catalog != "", nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
