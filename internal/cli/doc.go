// Package cli defines the Cobra command tree for the tpbuild CLI. Each file
// in this package registers one top-level command (build, targets, url, etc.)
// with the root command. Command implementations delegate to internal packages
// for the build pipeline and only handle flag parsing and output formatting.
package cli
