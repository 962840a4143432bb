// Package config manages tpbuild settings. Values come from
// ~/.tpbuild/config.yaml (or a file given with --config) and can be
// overridden by TPBUILD_* environment variables, e.g. TPBUILD_FREETYPE_VERSION
// for the freetype.version key.
package config
