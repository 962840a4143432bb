package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nativelibs/tpbuild/internal/branding"
	"github.com/nativelibs/tpbuild/internal/library"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys.
const (
	KeyVersion     = "freetype.version"
	KeyURLTemplate = "freetype.url_template"
	KeySHA256      = "freetype.sha256"
	KeyPatchFile   = "freetype.patch_file"
	KeyDescriptor  = "freetype.descriptor"
	KeyWorkingDir  = "working_dir"
	KeyRootProject = "root_project"
	KeyCMakeArgs   = "cmake.args"
	KeyAndroidNDK  = "android.ndk"
	KeyHTTPTimeout = "http.timeout"
)

// Keys lists every supported key, for `config get` validation and help text.
var Keys = []string{
	KeyVersion, KeyURLTemplate, KeySHA256, KeyPatchFile, KeyDescriptor,
	KeyWorkingDir, KeyRootProject, KeyCMakeArgs, KeyAndroidNDK, KeyHTTPTimeout,
}

// Dir returns the tpbuild config directory. TPBUILD_HOME overrides ~/.tpbuild.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the default config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper from path (FilePath() when empty) and the
// environment. A missing file is not an error; a malformed one is.
func Load(path string) error {
	if path == "" {
		path = FilePath()
	}

	viper.SetConfigFile(path)
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(KeyWorkingDir, "_build")
	viper.SetDefault(KeyRootProject, ".")
	viper.SetDefault(KeyHTTPTimeout, 10*time.Minute)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(Keys, ", "))
	}
	if key == KeyVersion {
		if _, err := library.ParseVersion(value); err != nil {
			return err
		}
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = FilePath()
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// IsKnownKey reports whether key is a supported configuration key.
func IsKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
