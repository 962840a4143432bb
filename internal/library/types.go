package library

// Descriptor is the parsed form of a library YAML document.
type Descriptor struct {
	Name         string  `yaml:"name"`
	Version      string  `yaml:"version"`
	URLTemplate  string  `yaml:"url_template"`
	SHA256       string  `yaml:"sha256,omitempty"`
	SourceFolder string  `yaml:"source_folder"`
	PatchFile    string  `yaml:"patch_file,omitempty"`
	Headers      Headers `yaml:"headers"`
	Targets      Targets `yaml:"targets"`
}

// Headers names the public header subtree and where it is staged.
// From is relative to the extracted source, To to the root project.
type Headers struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Targets holds the toolchain outputs per target. A nil entry means the
// library cannot be built for that target.
type Targets struct {
	Win32   *WindowsOutputs `yaml:"win32,omitempty"`
	Win10   *WindowsOutputs `yaml:"win10,omitempty"`
	MacOS   *AppleOutputs   `yaml:"macos,omitempty"`
	IOS     *AppleOutputs   `yaml:"ios,omitempty"`
	Android *AndroidOutputs `yaml:"android,omitempty"`
}

// Pair is a debug/release pair of artifact file names.
type Pair struct {
	Debug   string `yaml:"debug"`
	Release string `yaml:"release"`
}

// WindowsOutputs describes a Visual Studio build. Built is what the
// solution produces; Results maps an architecture ("x86", "x64", "arm")
// to the names the artifacts are copied under.
type WindowsOutputs struct {
	Project string          `yaml:"project"`
	Built   Pair            `yaml:"built"`
	Results map[string]Pair `yaml:"results"`
}

// AppleOutputs describes an Xcode build producing a single release library.
type AppleOutputs struct {
	Project string `yaml:"project"`
	Built   string `yaml:"built"`
	Result  string `yaml:"result"`
}

// AndroidOutputs describes an NDK build. The same names are used for every ABI.
type AndroidOutputs struct {
	Built  string `yaml:"built"`
	Result string `yaml:"result"`
}
