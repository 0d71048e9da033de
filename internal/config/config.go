package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/doccmerge/internal/retry"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "doccmerge.yaml"

// Config is the doccmerge configuration file.
type Config struct {
	Version      string             `yaml:"version"`
	MainTarget   string             `yaml:"main_target,omitempty"`
	Targets      []string           `yaml:"targets,omitempty"`
	Compiler     CompilerConfig     `yaml:"compiler"`
	Staging      StagingConfig      `yaml:"staging"`
	Index        IndexConfig        `yaml:"index"`
	SymbolGraphs SymbolGraphsConfig `yaml:"symbol_graphs"`
	Output       OutputConfig       `yaml:"output"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Notify       NotifyConfig       `yaml:"notify"`
	Serve        ServeConfig        `yaml:"serve"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// CompilerConfig controls the documentation compiler invocation.
type CompilerConfig struct {
	Command     []string `yaml:"command"`      // executable and leading args; {staging} expands
	WorkingDir  string   `yaml:"working_dir"`  // package root
	Env         []string `yaml:"env"`          // extra KEY=VALUE entries
	PassThrough []string `yaml:"pass_through"` // appended after the fixed arguments
	Stream      bool     `yaml:"stream"`       // echo compiler output while it runs
}

// StagingConfig names the scratch directory inside the output root.
type StagingConfig struct {
	Directory string `yaml:"directory"`
}

// IndexConfig tunes the navigation index merge.
type IndexConfig struct {
	PrimaryLanguage string `yaml:"primary_language"`
	BackLinkFormat  string `yaml:"back_link_format"`
}

// SymbolGraphsConfig enables the documentable-module check.
// Leaving both Command and Directory empty disables it.
type SymbolGraphsConfig struct {
	Command            []string `yaml:"command"`
	Directory          string   `yaml:"directory"`
	CatalogSearchPaths []string `yaml:"catalog_search_paths"`
}

// Enabled reports whether symbol graphs are configured.
func (s SymbolGraphsConfig) Enabled() bool {
	return len(s.Command) > 0 || s.Directory != ""
}

// OutputConfig holds the merged archive location.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Report    string `yaml:"report"`
}

// MetricsConfig enables Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// NotifyConfig enables the merge-completed NATS event.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
	Retries *int   `yaml:"retries,omitempty"` // nil keeps the default
	Backoff string `yaml:"backoff,omitempty"` // fixed, linear or exponential
}

// Enabled reports whether notifications should be published.
func (n NotifyConfig) Enabled() bool { return n.NATSURL != "" }

// RetryPolicy returns the publish retry policy.
func (n NotifyConfig) RetryPolicy() retry.Policy {
	mode, _ := retry.ParseBackoffMode(n.Backoff)
	retries := -1
	if n.Retries != nil {
		retries = *n.Retries
	}
	return retry.NewPolicy(mode, 0, 0, retries)
}

// ServeConfig controls the preview server.
type ServeConfig struct {
	Addr     string   `yaml:"addr"`
	Watch    []string `yaml:"watch"`
	Schedule string   `yaml:"schedule"`
	Debounce string   `yaml:"debounce"`
}

// LoggingConfig sets the default log level; -v and DOCCMERGE_LOG_LEVEL take precedence.
type LoggingConfig struct {
	Level LogLevel `yaml:"level"`
}

// Load reads the configuration file at path. A missing file at the default
// path yields the defaults; a missing explicitly requested file is an error.
func Load(path string, explicit bool) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load environment file").Build()
	}

	cfg := &Config{Version: CurrentVersion}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) && !explicit:
		applyDefaults(cfg)
		return cfg, nil
	case os.IsNotExist(err):
		return nil, ferrors.NewError(ferrors.CategoryNotFound, "configuration file not found").
			WithContext("path", path).
			Build()
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Build()
	}

	cfg, err = Parse(data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid configuration").
			WithContext("path", path).
			Build()
	}
	return cfg, nil
}

// Parse decodes YAML content after expanding ${ENV} references, applies
// defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
