// Package retry provides backoff policies for transient failures.
package retry
