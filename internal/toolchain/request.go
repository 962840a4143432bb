package toolchain

import "github.com/nativelibs/tpbuild/internal/library"

// LibDir is where built libraries are staged, relative to the root project.
const LibDir = "Libs/lib_CMake"

// WindowsRequest describes a Visual Studio build. Built names what the
// solution produces per configuration; Results maps an architecture
// ("x86", "x64", "arm") to the names the artifacts are copied under.
type WindowsRequest struct {
	GenDir      string
	SourceDir   string
	RootProject string
	Project     string
	Library     string
	Built       library.Pair
	Results     map[string]library.Pair
}

// AppleRequest describes an Xcode build of a single release library.
type AppleRequest struct {
	GenDir      string
	SourceDir   string
	RootProject string
	Project     string
	Library     string
	Built       string
	Result      string
}

// AndroidRequest describes an NDK build, repeated for every ABI.
type AndroidRequest struct {
	GenDir      string
	SourceDir   string
	RootProject string
	Library     string
	Built       string
	Result      string
}
