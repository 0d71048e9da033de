// Package preview serves a merged archive over HTTP and re-runs the merge when
// watched source directories change or on a cron schedule.
package preview
