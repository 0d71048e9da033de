package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/doccmerge/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"doccmerge.yaml" env:"DOCCMERGE_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Merge   MergeCmd   `cmd:"" default:"withargs" help:"Build every module and merge the archives into one"`
	Serve   ServeCmd   `cmd:"" help:"Merge, serve the result over HTTP and re-merge on source changes"`
	Inspect InspectCmd `cmd:"" help:"Print the navigation tree of an index.json"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`

	stdout io.Writer
	stderr io.Writer
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	w := c.stderr
	if w == nil {
		w = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel resolves the level from -v, then DOCCMERGE_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if env := strings.TrimSpace(os.Getenv("DOCCMERGE_LOG_LEVEL")); env != "" {
		return config.NormalizeLogLevel(env).SlogLevel()
	}
	return slog.LevelInfo
}

// loadConfig reads the configuration; a missing file is only an error when
// the path was chosen explicitly.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config, c.Config != config.DefaultPath)
	if err != nil {
		return nil, err
	}
	if !c.Verbose && os.Getenv("DOCCMERGE_LOG_LEVEL") == "" && cfg.Logging.Level != config.LogLevelInfo {
		w := c.stderr
		if w == nil {
			w = os.Stderr
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Logging.Level.SlogLevel()})))
	}
	if c.Verbose {
		cfg.Compiler.Stream = true
	}
	return cfg, nil
}

// out is where command results are printed.
func (c *CLI) out() io.Writer {
	if c.stdout == nil {
		return os.Stdout
	}
	return c.stdout
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
