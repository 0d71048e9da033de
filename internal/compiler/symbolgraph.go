package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/doccmerge/internal/logfields"
	"git.home.luguber.info/inful/doccmerge/internal/module"
)

// SymbolGraphProvider supplies the directory of symbol-graph files the
// compiler consumes for a module. The directory may be empty or absent.
type SymbolGraphProvider interface {
	SymbolGraphs(ctx context.Context, m module.Module) (dir string, err error)
}

// CatalogLocator finds a module's documentation catalog (a *.docc directory).
type CatalogLocator interface {
	Catalog(m module.Module) (path string, err error)
}

// expand replaces {module} and {key} placeholders.
func expand(s string, m module.Module) string {
	return strings.NewReplacer("{module}", m.Name, "{key}", m.Key()).Replace(s)
}

// DirectorySymbolGraphProvider reads symbol graphs produced ahead of time.
// Pattern may contain {module} and {key}.
type DirectorySymbolGraphProvider struct {
	Root    string
	Pattern string
}

// SymbolGraphs implements SymbolGraphProvider.
func (p DirectorySymbolGraphProvider) SymbolGraphs(_ context.Context, m module.Module) (string, error) {
	dir := expand(p.Pattern, m)
	if !filepath.IsAbs(dir) && p.Root != "" {
		dir = filepath.Join(p.Root, dir)
	}
	return dir, nil
}

// CommandSymbolGraphProvider empties its output directory and runs an
// extraction command before listing it. Command and Output may contain {module}, {key} and
// {output}; {output} expands to the resolved output directory.
type CommandSymbolGraphProvider struct {
	Command    []string
	Output     string
	WorkingDir string
	Runner     Runner
}

// SymbolGraphs implements SymbolGraphProvider.
func (p CommandSymbolGraphProvider) SymbolGraphs(ctx context.Context, m module.Module) (string, error) {
	if len(p.Command) == 0 {
		return "", errors.New("symbol graph command is empty")
	}
	out := expand(p.Output, m)
	if !filepath.IsAbs(out) && p.WorkingDir != "" {
		out = filepath.Join(p.WorkingDir, out)
	}
	// Stale graphs from an earlier run would make the module look documentable.
	if err := os.RemoveAll(out); err != nil {
		return "", fmt.Errorf("clear symbol graph directory: %w", err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("create symbol graph directory: %w", err)
	}

	args := make([]string, len(p.Command))
	for i, a := range p.Command {
		args[i] = strings.ReplaceAll(expand(a, m), "{output}", out)
	}
	runner := p.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	var stderr bytes.Buffer
	slog.Debug("Extracting symbol graphs", logfields.Module(m.Name), logfields.Path(out))
	if err := runner.Run(ctx, Command{Path: args[0], Args: args[1:], Dir: p.WorkingDir, Stderr: &stderr}); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("extract symbol graphs for %s: %w: %s", m.Name, err, msg)
		}
		return "", fmt.Errorf("extract symbol graphs for %s: %w", m.Name, err)
	}
	return out, nil
}

// DirCatalogLocator searches directories for a *.docc catalog.
// SearchPaths may contain {module} and {key}; relative paths resolve against Root.
type DirCatalogLocator struct {
	Root        string
	SearchPaths []string
}

// DefaultCatalogSearchPaths follows the Swift package layout.
var DefaultCatalogSearchPaths = []string{"Sources/{module}"}

// Catalog implements CatalogLocator. It returns "" when no catalog exists.
func (l DirCatalogLocator) Catalog(m module.Module) (string, error) {
	paths := l.SearchPaths
	if len(paths) == 0 {
		paths = DefaultCatalogSearchPaths
	}
	for _, p := range paths {
		dir := expand(p, m)
		if !filepath.IsAbs(dir) && l.Root != "" {
			dir = filepath.Join(l.Root, dir)
		}
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			if e.IsDir() && strings.HasSuffix(e.Name(), ".docc") {
				return filepath.Join(dir, e.Name()), nil
			}
		}
	}
	return "", nil
}

// hasSymbolGraphs reports whether dir holds at least one entry.
func hasSymbolGraphs(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
