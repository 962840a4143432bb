// Package library describes a third-party native library: where its source
// archive lives, which patch to apply, and what artifact names each target's
// toolchain produces. Descriptors are YAML documents validated against an
// embedded JSON schema; the FreeType descriptor ships embedded in the binary.
package library
