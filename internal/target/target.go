package target

import (
	"fmt"
	"runtime"
	"strings"
)

// BuildPlatform is the host operating system running the build.
type BuildPlatform string

const (
	PlatformWin32  BuildPlatform = "win32"
	PlatformDarwin BuildPlatform = "darwin"
)

// Target is a (platform, toolchain) pairing a library can be built for.
type Target string

const (
	Win32   Target = "win32"
	Win10   Target = "win10"
	MacOS   Target = "macos"
	IOS     Target = "ios"
	Android Target = "android"
)

// All lists every known target in declaration order.
var All = []Target{Win32, Win10, MacOS, IOS, Android}

func (t Target) String() string        { return string(t) }
func (p BuildPlatform) String() string { return string(p) }

// UnsupportedTargetError is returned for a target outside the known set.
type UnsupportedTargetError struct {
	Target string
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("unsupported target %q (known targets: %s)", e.Target, joinTargets(All))
}

// UnsupportedPlatformError is returned for a host platform that cannot run builds.
type UnsupportedPlatformError struct {
	Platform string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported build platform %q (supported: %s, %s)", e.Platform, PlatformWin32, PlatformDarwin)
}

// SupportedBuildPlatforms returns the hosts capable of running a build.
func SupportedBuildPlatforms() []BuildPlatform {
	return []BuildPlatform{PlatformWin32, PlatformDarwin}
}

// SupportedTargets returns the targets buildable from the given host.
func SupportedTargets(p BuildPlatform) ([]Target, error) {
	switch p {
	case PlatformWin32:
		return []Target{Win32, Win10, Android}, nil
	case PlatformDarwin:
		return []Target{MacOS, IOS, Android}, nil
	default:
		return nil, &UnsupportedPlatformError{Platform: string(p)}
	}
}

// IsSupportedOn reports whether t can be built from host p.
func IsSupportedOn(t Target, p BuildPlatform) bool {
	targets, err := SupportedTargets(p)
	if err != nil {
		return false
	}
	for _, candidate := range targets {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTarget converts a user-supplied name into a Target.
func ParseTarget(s string) (Target, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range All {
		if string(t) == name {
			return t, nil
		}
	}
	return "", &UnsupportedTargetError{Target: s}
}

// ParsePlatform converts a user-supplied name into a BuildPlatform.
// Go-style names ("windows") are accepted as aliases.
func ParsePlatform(s string) (BuildPlatform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win32", "windows":
		return PlatformWin32, nil
	case "darwin", "macos":
		return PlatformDarwin, nil
	default:
		return "", &UnsupportedPlatformError{Platform: s}
	}
}

// HostPlatform returns the BuildPlatform for the running process.
func HostPlatform() (BuildPlatform, error) {
	return ParsePlatform(runtime.GOOS)
}

func joinTargets(ts []Target) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
