// Package patch applies unified diffs to extracted upstream sources.
package patch
