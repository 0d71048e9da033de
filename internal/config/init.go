package config

import (
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
)

// Example returns the configuration written by Init.
func Example() *Config {
	cfg := &Config{
		Version:    CurrentVersion,
		MainTarget: "App",
		Targets:    []string{"Utils"},
		Compiler: CompilerConfig{
			WorkingDir: ".",
			Env:        []string{"DOCC_JSON_PRETTYPRINT=YES"},
		},
		SymbolGraphs: SymbolGraphsConfig{
			Command:   []string{"swift", "build", "--target", "{module}", "-Xswiftc", "-emit-symbol-graph", "-Xswiftc", "-emit-symbol-graph-dir", "-Xswiftc", "{output}"},
			Directory: ".build/symbol-graphs/{key}",
		},
		Output: OutputConfig{
			Directory: "./docs",
			Report:    "./docs-report.json",
		},
		Notify: NotifyConfig{NATSURL: "${DOCCMERGE_NATS_URL}"},
		Serve: ServeConfig{
			Watch:    []string{"Sources"},
			Schedule: "",
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}
