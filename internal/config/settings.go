package config

import (
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/nativelibs/tpbuild/internal/library"
)

// Settings is a typed snapshot of the loaded configuration.
type Settings struct {
	Version     string
	URLTemplate string
	SHA256      string
	PatchFile   string
	Descriptor  string
	WorkingDir  string
	RootProject string
	CMakeArgs   string
	AndroidNDK  string
	HTTPTimeout time.Duration
}

// Current returns the settings from the loaded configuration.
func Current() Settings {
	s := Settings{
		Version:     viper.GetString(KeyVersion),
		URLTemplate: viper.GetString(KeyURLTemplate),
		SHA256:      viper.GetString(KeySHA256),
		PatchFile:   viper.GetString(KeyPatchFile),
		Descriptor:  viper.GetString(KeyDescriptor),
		WorkingDir:  viper.GetString(KeyWorkingDir),
		RootProject: viper.GetString(KeyRootProject),
		CMakeArgs:   viper.GetString(KeyCMakeArgs),
		AndroidNDK:  viper.GetString(KeyAndroidNDK),
		HTTPTimeout: viper.GetDuration(KeyHTTPTimeout),
	}
	if s.AndroidNDK == "" {
		s.AndroidNDK = os.Getenv("ANDROID_NDK_HOME")
	}
	if s.AndroidNDK == "" {
		s.AndroidNDK = os.Getenv("ANDROID_NDK")
	}
	return s
}

// Library loads the library descriptor and applies the configured
// version, URL template and checksum overrides.
func (s Settings) Library() (*library.Descriptor, error) {
	var (
		d   *library.Descriptor
		err error
	)
	if s.Descriptor != "" {
		d, err = library.LoadFile(s.Descriptor)
	} else {
		d, err = library.FreeType()
	}
	if err != nil {
		return nil, err
	}

	if s.Version != "" {
		if d, err = d.WithVersion(s.Version); err != nil {
			return nil, err
		}
	}
	if s.URLTemplate != "" {
		d.URLTemplate = s.URLTemplate
		if _, err := d.DownloadURL(); err != nil {
			return nil, err
		}
	}
	if s.SHA256 != "" {
		d.SHA256 = s.SHA256
	}
	return d, nil
}
