package compiler

import "errors"

var (
	// ErrCompilerNotFound indicates the compiler executable could not be located.
	ErrCompilerNotFound = errors.New("documentation compiler not found")
	// ErrCompilerFailed indicates the compiler exited non-zero or was terminated by a signal.
	ErrCompilerFailed = errors.New("documentation compiler failed")
	// ErrNothingToDocument indicates a module without symbol graphs and without a documentation catalog.
	ErrNothingToDocument = errors.New("module has no documentable symbols and no documentation catalog")
)
