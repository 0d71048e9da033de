// Package errors provides the classified error primitives used across doccmerge.
//
// Every failure that can end a merge run is expressed as a ClassifiedError so the
// CLI can pick an exit code and a message without string matching:
//
//   - ErrorCategory: broad classification (config, validation, build, filesystem, index, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - ClassifiedError: category + severity + message + optional cause and context
//   - ErrorBuilder: fluent construction of ClassifiedError values
//   - CLIErrorAdapter: exit code mapping and user-facing formatting
//
// Example usage:
//
//	err := errors.BuildError("documentation compiler failed").
//		WithContext("module", name).
//		WithCause(runErr).
//		Build()
package errors
