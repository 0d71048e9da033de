package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/doccmerge/internal/retry"
)

// Validate checks field-level constraints. Presence of the main target and the
// output directory is checked by the merge request, since flags may supply them.
func Validate(cfg *Config) error {
	if cfg.Compiler.Command[0] == "" {
		return errors.New("compiler.command: executable must not be empty")
	}
	if strings.ContainsAny(cfg.Staging.Directory, `/\`) || cfg.Staging.Directory == "." || cfg.Staging.Directory == ".." {
		return fmt.Errorf("staging.directory: %q must be a single directory name", cfg.Staging.Directory)
	}
	if strings.Count(cfg.Index.BackLinkFormat, "%s") != 1 {
		return fmt.Errorf("index.back_link_format: %q must contain exactly one %%s", cfg.Index.BackLinkFormat)
	}
	for _, kv := range cfg.Compiler.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("compiler.env: %q is not KEY=VALUE", kv)
		}
	}
	if len(cfg.SymbolGraphs.Command) > 0 && cfg.SymbolGraphs.Directory == "" {
		return errors.New("symbol_graphs.directory: required when symbol_graphs.command is set")
	}
	if _, err := retry.ParseBackoffMode(cfg.Notify.Backoff); err != nil {
		return fmt.Errorf("notify.backoff: %w", err)
	}
	if cfg.Notify.Retries != nil && *cfg.Notify.Retries < 0 {
		return fmt.Errorf("notify.retries: must not be negative")
	}
	if d, err := time.ParseDuration(cfg.Serve.Debounce); err != nil || d < 0 {
		return fmt.Errorf("serve.debounce: invalid duration %q", cfg.Serve.Debounce)
	}
	return nil
}

// DebounceDuration returns the parsed serve debounce.
func (s ServeConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(s.Debounce)
	if err != nil {
		return 0
	}
	return d
}
