// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed. Everything that shows up on disk or on the wire
// with the tool's name (config dir, env vars, source stamp, User-Agent)
// derives from them.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

// Identity is the parsed branding.yaml.
type Identity struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
}

var fallback = Identity{
	CLIName:     "tpbuild",
	DisplayName: "TPBuild",
	Description: "Fetch, patch and cross-compile third-party native libraries",
	HomeDir:     ".tpbuild",
	EnvPrefix:   "TPBUILD",
}

var current = sync.OnceValue(func() Identity {
	id := fallback
	if err := yaml.Unmarshal(rawBranding, &id); err != nil {
		return fallback
	}
	return id
})

// Current returns the embedded identity.
func Current() Identity { return current() }

// CLIName returns the root command name (e.g., "tpbuild").
func CLIName() string { return current().CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { return current().DisplayName }

// Description returns the short product description.
func Description() string { return current().Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".tpbuild").
func HomeDir() string { return current().HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "TPBUILD").
func EnvPrefix() string { return current().EnvPrefix }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("home") → "TPBUILD_HOME".
func EnvVar(suffix string) string {
	return current().EnvPrefix + "_" + strings.ToUpper(suffix)
}

// SourceStampName is the file written into every extracted source folder.
func SourceStampName() string {
	return "." + current().CLIName + "-source.json"
}

// UserAgent identifies HTTP requests, e.g. UserAgent("1.2.0") → "tpbuild/1.2.0".
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return current().CLIName + "/" + version
}
