// Package compiler drives the external documentation compiler, producing one
// self-contained archive per module in the staging area.
//
// The compiler is an executable invoked as
//
//	<command...> --disable-indexing --target <Module> --output-path <staging>/<Module> \
//	    --transform-for-static-hosting [pass-through args]
//
// and must exit 0 on success. Builds run synchronously, one module at a time.
// Process execution goes through the Runner interface so tests can substitute
// a fake compiler.
package compiler
