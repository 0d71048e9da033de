package config

import (
	"git.home.luguber.info/inful/doccmerge/internal/compiler"
	"git.home.luguber.info/inful/doccmerge/internal/navindex"
	"git.home.luguber.info/inful/doccmerge/internal/workspace"
)

// CurrentVersion is the only configuration version understood.
const CurrentVersion = "1.0"

const (
	DefaultServeAddr     = "127.0.0.1:8000"
	DefaultServeDebounce = "2s"
	DefaultNotifySubject = "doccmerge.merge.completed"
)

func applyDefaults(cfg *Config) {
	if len(cfg.Compiler.Command) == 0 {
		cfg.Compiler.Command = append([]string(nil), compiler.DefaultCommand...)
	}
	if cfg.Staging.Directory == "" {
		cfg.Staging.Directory = workspace.DefaultStagingDir
	}
	if cfg.Index.PrimaryLanguage == "" {
		cfg.Index.PrimaryLanguage = navindex.DefaultPrimaryLanguage
	}
	if cfg.Index.BackLinkFormat == "" {
		cfg.Index.BackLinkFormat = navindex.DefaultBackLinkFormat
	}
	if len(cfg.SymbolGraphs.CatalogSearchPaths) == 0 {
		cfg.SymbolGraphs.CatalogSearchPaths = append([]string(nil), compiler.DefaultCatalogSearchPaths...)
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = DefaultServeAddr
	}
	if cfg.Serve.Debounce == "" {
		cfg.Serve.Debounce = DefaultServeDebounce
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
}
