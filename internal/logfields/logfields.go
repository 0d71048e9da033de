package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyModule     = "module"
	KeyMain       = "main_module"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeySource     = "source"
	KeyDest       = "dest"
	KeyLanguage   = "language"
	KeyDurationMS = "duration_ms"
	KeyExitCode   = "exit_code"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeyAddr       = "addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Module(name string) slog.Attr     { return slog.String(KeyModule, name) }
func MainModule(name string) slog.Attr { return slog.String(KeyMain, name) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Source(p string) slog.Attr        { return slog.String(KeySource, p) }
func Dest(p string) slog.Attr          { return slog.String(KeyDest, p) }
func Language(l string) slog.Attr      { return slog.String(KeyLanguage, l) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func ExitCode(code int) slog.Attr      { return slog.Int(KeyExitCode, code) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func Addr(a string) slog.Attr          { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
