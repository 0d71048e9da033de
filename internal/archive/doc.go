// Package archive copies staged per-module documentation archives into the
// merged archive root.
//
// Shared assets are promoted once, from the main module only, and every one of
// them must exist. Namespaced content is merged best-effort for every module:
// a module that produced no downloads or videos simply has none in the output.
package archive
