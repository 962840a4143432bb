package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/shlex"

	"github.com/nativelibs/tpbuild/internal/command"
	"github.com/nativelibs/tpbuild/internal/fsutil"
	"github.com/nativelibs/tpbuild/internal/library"
	"github.com/nativelibs/tpbuild/internal/logfields"
)

const (
	DefaultVisualStudioGenerator = "Visual Studio 15 2017"
	DefaultAndroidAPILevel       = "android-16"
)

// DefaultAndroidABIs are built when CMake.AndroidABIs is empty.
var DefaultAndroidABIs = []string{"armeabi-v7a", "x86"}

// windowsArch maps an architecture name to the CMake -A platform value.
type windowsArch struct {
	name     string
	platform string
}

var (
	win32Archs = []windowsArch{{"x86", "Win32"}, {"x64", "x64"}}
	win10Archs = []windowsArch{{"x86", "Win32"}, {"x64", "x64"}, {"arm", "ARM"}}
)

var configurations = []string{"Debug", "Release"}

// CMake implements the toolchain collaborator on top of the cmake,
// xcodebuild and NDK command line tools.
type CMake struct {
	Runner    command.Runner
	Logger    *slog.Logger
	ExtraArgs []string

	VisualStudioGenerator string
	AndroidNDK            string
	AndroidABIs           []string
	AndroidAPILevel       string
}

// Option configures a CMake toolchain.
type Option func(*CMake)

// WithExtraArgs appends arguments to every CMake generate step.
func WithExtraArgs(args []string) Option {
	return func(c *CMake) { c.ExtraArgs = append(c.ExtraArgs, args...) }
}

// WithAndroidNDK sets the NDK root used for Android builds.
func WithAndroidNDK(path string) Option {
	return func(c *CMake) { c.AndroidNDK = path }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *CMake) { c.Logger = l }
}

// New returns a CMake toolchain using runner.
func New(runner command.Runner, opts ...Option) *CMake {
	c := &CMake{
		Runner:                runner,
		Logger:                slog.Default(),
		VisualStudioGenerator: DefaultVisualStudioGenerator,
		AndroidABIs:           DefaultAndroidABIs,
		AndroidAPILevel:       DefaultAndroidAPILevel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseExtraArgs splits a configured argument string using shell quoting rules.
func ParseExtraArgs(s string) ([]string, error) {
	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("parsing cmake arguments %q: %w", s, err)
	}
	return args, nil
}

// BuildWin32 builds x86 and x64 Debug/Release libraries for desktop Windows.
func (c *CMake) BuildWin32(ctx context.Context, req WindowsRequest) error {
	return c.buildWindows(ctx, req, "win32", "win", win32Archs, nil)
}

// BuildWin10 builds x86, x64 and ARM libraries for the Windows Store.
func (c *CMake) BuildWin10(ctx context.Context, req WindowsRequest) error {
	platformArgs := []string{"-DCMAKE_SYSTEM_NAME=WindowsStore", "-DCMAKE_SYSTEM_VERSION=10.0"}
	return c.buildWindows(ctx, req, "win10", "win10", win10Archs, platformArgs)
}

func (c *CMake) buildWindows(ctx context.Context, req WindowsRequest, genName, libName string, archs []windowsArch, platformArgs []string) error {
	for _, arch := range archs {
		names, ok := req.Results[arch.name]
		if !ok {
			continue
		}
		genDir := filepath.Join(req.GenDir, genName, arch.name)

		args := append([]string{"-G", c.VisualStudioGenerator, "-A", arch.platform}, platformArgs...)
		if err := c.generate(ctx, genDir, req.SourceDir, req.Project, args, nil); err != nil {
			return err
		}

		for _, cfg := range configurations {
			if err := c.run(ctx, genDir, "cmake", "--build", ".", "--config", cfg, "--target", req.Library); err != nil {
				return err
			}
			built, result := pick(req.Built, cfg), pick(names, cfg)
			src := filepath.Join(genDir, cfg, built)
			dst := filepath.Join(req.RootProject, filepath.FromSlash(LibDir), libName, arch.name, cfg, result)
			if err := c.copyArtifact(src, dst); err != nil {
				return err
			}
		}
	}
	return nil
}

// BuildMacOS builds a release library with Xcode for macOS.
func (c *CMake) BuildMacOS(ctx context.Context, req AppleRequest) error {
	return c.buildApple(ctx, req, "macos", "mac", nil, nil, "Release")
}

// BuildIOS builds a release library with Xcode for iOS devices.
func (c *CMake) BuildIOS(ctx context.Context, req AppleRequest) error {
	return c.buildApple(ctx, req, "ios", "ios",
		[]string{"-DCMAKE_SYSTEM_NAME=iOS", "-DCMAKE_OSX_SYSROOT=iphoneos"},
		[]string{"-sdk", "iphoneos"},
		"Release-iphoneos")
}

func (c *CMake) buildApple(ctx context.Context, req AppleRequest, genName, libName string, platformArgs, sdkArgs []string, outDir string) error {
	genDir := filepath.Join(req.GenDir, genName)
	args := append([]string{"-G", "Xcode"}, platformArgs...)
	if err := c.generate(ctx, genDir, req.SourceDir, req.Project, args, nil); err != nil {
		return err
	}

	build := append([]string{"-project", req.Project, "-target", req.Library, "-configuration", "Release"}, sdkArgs...)
	if err := c.run(ctx, genDir, "xcodebuild", build...); err != nil {
		return err
	}

	src := filepath.Join(genDir, outDir, req.Built)
	dst := filepath.Join(req.RootProject, filepath.FromSlash(LibDir), libName, req.Result)
	return c.copyArtifact(src, dst)
}

// BuildAndroid builds a release library for every configured ABI.
func (c *CMake) BuildAndroid(ctx context.Context, req AndroidRequest) error {
	if c.AndroidNDK == "" {
		return fmt.Errorf("android build requires an NDK path (set android.ndk or ANDROID_NDK_HOME)")
	}
	toolchainFile := c.AndroidToolchainFile()
	if _, err := os.Stat(toolchainFile); err != nil {
		return fmt.Errorf("android toolchain file: %w", err)
	}

	// Toolchain files and ndk-build helpers look the NDK up from the environment.
	env := []string{"ANDROID_NDK=" + c.AndroidNDK, "ANDROID_NDK_HOME=" + c.AndroidNDK}

	for _, abi := range c.AndroidABIs {
		genDir := filepath.Join(req.GenDir, "android", abi)
		args := []string{
			"-G", "Ninja",
			"-DCMAKE_TOOLCHAIN_FILE=" + toolchainFile,
			"-DANDROID_ABI=" + abi,
			"-DANDROID_PLATFORM=" + c.AndroidAPILevel,
			"-DCMAKE_BUILD_TYPE=Release",
		}
		if err := c.generate(ctx, genDir, req.SourceDir, "", args, env); err != nil {
			return err
		}
		if err := c.runEnv(ctx, genDir, env, "cmake", "--build", ".", "--target", req.Library); err != nil {
			return err
		}

		src := filepath.Join(genDir, req.Built)
		dst := filepath.Join(req.RootProject, filepath.FromSlash(LibDir), "android", abi, req.Result)
		if err := c.copyArtifact(src, dst); err != nil {
			return err
		}
	}
	return nil
}

// generate runs the CMake configure step in genDir and, when project is
// set, checks that the expected project file was produced.
func (c *CMake) generate(ctx context.Context, genDir, sourceDir, project string, args, env []string) error {
	if err := os.MkdirAll(genDir, 0755); err != nil {
		return fmt.Errorf("creating generation directory %s: %w", genDir, err)
	}

	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("resolving source directory: %w", err)
	}
	full := append(append(args, c.ExtraArgs...), absSource)
	if err := c.runEnv(ctx, genDir, env, "cmake", full...); err != nil {
		return err
	}

	if project == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(genDir, project)); err != nil {
		return fmt.Errorf("cmake did not generate %s in %s: %w", project, genDir, err)
	}
	return nil
}

func (c *CMake) run(ctx context.Context, dir, name string, args ...string) error {
	return c.runEnv(ctx, dir, nil, name, args...)
}

// runEnv runs name in dir with env ("KEY=value") layered over the process
// environment.
func (c *CMake) runEnv(ctx context.Context, dir string, env []string, name string, args ...string) error {
	start := time.Now()
	cmd := command.Command{Name: name, Args: args, Dir: dir, Env: env}
	if _, err := c.Runner.Run(ctx, cmd); err != nil {
		return err
	}
	c.Logger.Debug("Command finished", logfields.Command(cmd.String()), logfields.Since(start))
	return nil
}

func (c *CMake) copyArtifact(src, dst string) error {
	if err := fsutil.CopyFile(src, dst); err != nil {
		return fmt.Errorf("staging library: %w", err)
	}
	c.Logger.Info("Staged library", logfields.Path(dst))
	return nil
}

func pick(p library.Pair, cfg string) string {
	if cfg == "Debug" {
		return p.Debug
	}
	return p.Release
}
