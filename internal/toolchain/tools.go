package toolchain

import (
	"path/filepath"

	"github.com/nativelibs/tpbuild/internal/target"
)

// RequiredTools lists the executables a build for t runs.
func RequiredTools(t target.Target) []string {
	switch t {
	case target.Win32, target.Win10:
		return []string{"cmake"}
	case target.MacOS, target.IOS:
		return []string{"cmake", "xcodebuild"}
	case target.Android:
		return []string{"cmake", "ninja"}
	default:
		return nil
	}
}

// AndroidToolchainFile returns the NDK's CMake toolchain file, or "" when
// no NDK is configured.
func (c *CMake) AndroidToolchainFile() string {
	if c.AndroidNDK == "" {
		return ""
	}
	return filepath.Join(c.AndroidNDK, "build", "cmake", "android.toolchain.cmake")
}
