// Package notify publishes merge-completed events to NATS so downstream
// deployers can pick up a freshly merged archive.
package notify
