// Package logfields holds the canonical slog attribute keys used across the
// build pipeline, with one constructor per key.
package logfields
