// Package builder implements the target build dispatcher: for a requested
// target it fetches the library sources, applies the library patch once per
// dispatcher, runs the matching platform toolchain, and stages the public
// headers into the consuming project.
//
// The dispatcher owns no I/O of its own. Fetching, patching, building and
// copying are delegated to collaborators so that a larger orchestrator can
// compose many libraries, and so tests can observe every call.
package builder
