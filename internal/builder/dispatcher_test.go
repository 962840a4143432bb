package builder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativelibs/tpbuild/internal/fsutil"
	"github.com/nativelibs/tpbuild/internal/library"
	"github.com/nativelibs/tpbuild/internal/target"
	"github.com/nativelibs/tpbuild/internal/toolchain"
)

type fetchCall struct {
	url, workingDir, destDir, baseName string
}

// fakeFetcher lays out a minimal source tree on first use.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []fetchCall
	err   error
}

func (f *fakeFetcher) DownloadAndExtract(_ context.Context, url, workingDir, destDir, baseName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{url, workingDir, destDir, baseName})
	if f.err != nil {
		return f.err
	}
	headers := filepath.Join(destDir, "include", "freetype")
	if err := os.MkdirAll(filepath.Join(headers, "config"), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(headers, "freetype.h"), []byte("/* freetype */"), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(headers, "config", "ftoption.h"), []byte("/* options */"), 0644)
}

type fakePatcher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (p *fakePatcher) ApplyPatch(_ context.Context, patchFile, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, patchFile)
	return p.err
}

type fakeToolchain struct {
	win32   []toolchain.WindowsRequest
	win10   []toolchain.WindowsRequest
	macos   []toolchain.AppleRequest
	ios     []toolchain.AppleRequest
	android []toolchain.AndroidRequest
	err     error
}

func (f *fakeToolchain) BuildWin32(_ context.Context, req toolchain.WindowsRequest) error {
	f.win32 = append(f.win32, req)
	return f.err
}

func (f *fakeToolchain) BuildWin10(_ context.Context, req toolchain.WindowsRequest) error {
	f.win10 = append(f.win10, req)
	return f.err
}

func (f *fakeToolchain) BuildMacOS(_ context.Context, req toolchain.AppleRequest) error {
	f.macos = append(f.macos, req)
	return f.err
}

func (f *fakeToolchain) BuildIOS(_ context.Context, req toolchain.AppleRequest) error {
	f.ios = append(f.ios, req)
	return f.err
}

func (f *fakeToolchain) BuildAndroid(_ context.Context, req toolchain.AndroidRequest) error {
	f.android = append(f.android, req)
	return f.err
}

func (f *fakeToolchain) total() int {
	return len(f.win32) + len(f.win10) + len(f.macos) + len(f.ios) + len(f.android)
}

type harness struct {
	d         *Dispatcher
	fetcher   *fakeFetcher
	patcher   *fakePatcher
	toolchain *fakeToolchain
	wd        string
	root      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	lib, err := library.FreeType()
	require.NoError(t, err)

	h := &harness{
		fetcher:   &fakeFetcher{},
		patcher:   &fakePatcher{},
		toolchain: &fakeToolchain{},
		wd:        t.TempDir(),
		root:      t.TempDir(),
	}
	h.d, err = New(Config{
		Library:   lib,
		PatchFile: filepath.Join(t.TempDir(), "patch.diff"),
		Fetcher:   h.fetcher,
		Patcher:   h.patcher,
		Toolchain: h.toolchain,
		Copier:    fsutil.Copier{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return h
}

func TestBuildForTargetWin32(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.d.BuildForTarget(context.Background(), target.Win32, h.wd, h.root))

	require.Len(t, h.toolchain.win32, 1)
	req := h.toolchain.win32[0]
	assert.Equal(t, "freetype.sln", req.Project)
	assert.Equal(t, "freetype", req.Library)
	assert.Equal(t, filepath.Join(h.wd, "gen"), req.GenDir)
	assert.Equal(t, filepath.Join(h.wd, "freetype_source"), req.SourceDir)
	assert.Equal(t, h.root, req.RootProject)
	assert.Equal(t, library.Pair{Debug: "freetyped.lib", Release: "freetype.lib"}, req.Built)
	assert.Equal(t, library.Pair{Debug: "freetype246MT_D.lib", Release: "freetype246MT.lib"}, req.Results["x86"])
	assert.Equal(t, library.Pair{Debug: "freetype.lib", Release: "freetype.lib"}, req.Results["x64"])
	assert.Len(t, req.Results, 2)
}

func TestBuildForTargetFetchArguments(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.d.BuildForTarget(context.Background(), target.Android, h.wd, h.root))

	require.Len(t, h.fetcher.calls, 1)
	assert.Equal(t, fetchCall{
		url:        "http://download.savannah.gnu.org/releases/freetype/freetype-2.7.tar.gz",
		workingDir: h.wd,
		destDir:    filepath.Join(h.wd, "freetype_source"),
		baseName:   "freetype-2.7",
	}, h.fetcher.calls[0])

	require.Len(t, h.toolchain.android, 1)
	assert.Equal(t, "libfreetype.a", h.toolchain.android[0].Built)
	assert.Equal(t, "libfreetype.a", h.toolchain.android[0].Result)
}

func TestBuildForTargetAppleRequests(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.d.BuildForTarget(ctx, target.MacOS, h.wd, h.root))
	require.NoError(t, h.d.BuildForTarget(ctx, target.IOS, h.wd, h.root))

	require.Len(t, h.toolchain.macos, 1)
	require.Len(t, h.toolchain.ios, 1)
	assert.Equal(t, "freetype.xcodeproj", h.toolchain.macos[0].Project)
	assert.Equal(t, "libfreetype_macos.a", h.toolchain.macos[0].Result)
	assert.Equal(t, "libfreetype_ios.a", h.toolchain.ios[0].Result)
}

func TestBuildForTargetWin10(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.d.BuildForTarget(context.Background(), target.Win10, h.wd, h.root))
	require.Len(t, h.toolchain.win10, 1)
	assert.Len(t, h.toolchain.win10[0].Results, 3)
}

func TestPatchAppliedOncePerRun(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.False(t, h.d.Patched())
	require.NoError(t, h.d.BuildForTarget(ctx, target.Win32, h.wd, h.root))
	require.NoError(t, h.d.BuildForTarget(ctx, target.Android, h.wd, h.root))
	require.NoError(t, h.d.BuildForTarget(ctx, target.Win32, h.wd, h.root))

	assert.Len(t, h.patcher.calls, 1)
	assert.True(t, filepath.IsAbs(h.patcher.calls[0]))
	assert.True(t, h.d.Patched())
	assert.Len(t, h.fetcher.calls, 3, "fetch is delegated on every build")
}

func TestPatchAppliedOnceConcurrently(t *testing.T) {
	h := newHarness(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.d.BuildForTarget(context.Background(), target.Android, h.wd, h.root))
		}()
	}
	wg.Wait()
	assert.Len(t, h.patcher.calls, 1)
}

func TestNewDispatcherAppliesPatchAgain(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.d.BuildForTarget(context.Background(), target.MacOS, h.wd, h.root))

	second, err := New(Config{
		Library:   h.d.lib,
		PatchFile: h.d.patchFile,
		Fetcher:   h.fetcher,
		Patcher:   h.patcher,
		Toolchain: h.toolchain,
		Copier:    fsutil.Copier{},
	})
	require.NoError(t, err)
	assert.NotEqual(t, h.d.RunID(), second.RunID())
	require.NoError(t, second.BuildForTarget(context.Background(), target.IOS, h.wd, h.root))

	assert.Len(t, h.patcher.calls, 2, "patch state is scoped to a dispatcher")
}

func TestHeadersStaged(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.d.BuildForTarget(context.Background(), target.IOS, h.wd, h.root))

	dst := filepath.Join(h.root, "Libs", "include", "freetype")
	got, err := os.ReadFile(filepath.Join(dst, "freetype.h"))
	require.NoError(t, err)
	assert.Equal(t, "/* freetype */", string(got))
	got, err = os.ReadFile(filepath.Join(dst, "config", "ftoption.h"))
	require.NoError(t, err)
	assert.Equal(t, "/* options */", string(got))
}

func TestHeadersOverwriteExisting(t *testing.T) {
	h := newHarness(t)
	dst := filepath.Join(h.root, "Libs", "include", "freetype")
	require.NoError(t, os.MkdirAll(dst, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "freetype.h"), []byte("stale"), 0644))

	require.NoError(t, h.d.BuildForTarget(context.Background(), target.MacOS, h.wd, h.root))

	got, err := os.ReadFile(filepath.Join(dst, "freetype.h"))
	require.NoError(t, err)
	assert.Equal(t, "/* freetype */", string(got))
}

func TestUnsupportedTarget(t *testing.T) {
	h := newHarness(t)
	err := h.d.BuildForTarget(context.Background(), target.Target("bogus_target"), h.wd, h.root)

	var ute *target.UnsupportedTargetError
	require.True(t, errors.As(err, &ute), "got %v", err)
	assert.Equal(t, "bogus_target", ute.Target)
	assert.Empty(t, h.fetcher.calls)
	assert.Empty(t, h.patcher.calls)
	assert.Zero(t, h.toolchain.total())
}

func TestFetchFailureStopsPipeline(t *testing.T) {
	h := newHarness(t)
	h.fetcher.err = errors.New("connection refused")

	err := h.d.BuildForTarget(context.Background(), target.Win32, h.wd, h.root)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageFetch, se.Stage)
	assert.Equal(t, target.Win32, se.Target)
	assert.Empty(t, h.patcher.calls)
	assert.Zero(t, h.toolchain.total())
}

func TestPatchFailureLeavesFlagUnset(t *testing.T) {
	h := newHarness(t)
	h.patcher.err = errors.New("patch does not apply")

	err := h.d.BuildForTarget(context.Background(), target.Android, h.wd, h.root)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StagePatch, se.Stage)
	assert.False(t, h.d.Patched())
	assert.Zero(t, h.toolchain.total())

	h.patcher.err = nil
	require.NoError(t, h.d.BuildForTarget(context.Background(), target.Android, h.wd, h.root))
	assert.Len(t, h.patcher.calls, 2)
	assert.True(t, h.d.Patched())
}

func TestToolchainFailureSkipsHeaders(t *testing.T) {
	h := newHarness(t)
	cause := errors.New("MSBuild failed")
	h.toolchain.err = cause

	err := h.d.BuildForTarget(context.Background(), target.Win32, h.wd, h.root)
	require.ErrorIs(t, err, cause)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageBuild, se.Stage)
	_, statErr := os.Stat(filepath.Join(h.root, "Libs", "include", "freetype"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildTargetsStopsAtFirstFailure(t *testing.T) {
	h := newHarness(t)
	h.toolchain.err = errors.New("boom")

	err := h.d.BuildTargets(context.Background(), []target.Target{target.MacOS, target.IOS}, h.wd, h.root)
	require.Error(t, err)
	assert.Len(t, h.toolchain.macos, 1)
	assert.Empty(t, h.toolchain.ios)
}

func TestBuildTargetsCanceled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.d.BuildTargets(ctx, []target.Target{target.Android}, h.wd, h.root)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.fetcher.calls)
}

func TestTargetMissingFromDescriptor(t *testing.T) {
	h := newHarness(t)
	lib := *h.d.lib
	lib.Targets.Win10 = nil
	h.d.lib = &lib

	err := h.d.BuildForTarget(context.Background(), target.Win10, h.wd, h.root)
	var ute *target.UnsupportedTargetError
	require.True(t, errors.As(err, &ute))
	assert.Empty(t, h.fetcher.calls)
}

func TestNoPatchFileSkipsPatching(t *testing.T) {
	lib, err := library.FreeType()
	require.NoError(t, err)
	lib.PatchFile = ""

	p := &fakePatcher{}
	d, err := New(Config{Library: lib, Fetcher: &fakeFetcher{}, Patcher: p, Toolchain: &fakeToolchain{}, Copier: fsutil.Copier{}})
	require.NoError(t, err)

	require.NoError(t, d.BuildForTarget(context.Background(), target.Android, t.TempDir(), t.TempDir()))
	assert.Empty(t, p.calls)
}

func TestNewValidation(t *testing.T) {
	lib, err := library.FreeType()
	require.NoError(t, err)

	_, err = New(Config{Fetcher: &fakeFetcher{}, Patcher: &fakePatcher{}, Toolchain: &fakeToolchain{}, Copier: fsutil.Copier{}})
	assert.Error(t, err)
	_, err = New(Config{Library: lib, Patcher: &fakePatcher{}, Toolchain: &fakeToolchain{}, Copier: fsutil.Copier{}})
	assert.Error(t, err)
}

func TestDownloadURL(t *testing.T) {
	h := newHarness(t)
	url, err := h.d.DownloadURL()
	require.NoError(t, err)
	assert.Equal(t, "http://download.savannah.gnu.org/releases/freetype/freetype-2.7.tar.gz", url)
}

func TestDependenciesForTargetEmpty(t *testing.T) {
	for _, tg := range append(target.All, target.Target("bogus")) {
		deps := DependenciesForTarget(tg)
		assert.NotNil(t, deps)
		assert.Empty(t, deps, tg)
	}
}

func TestSupportedTargetsBuildable(t *testing.T) {
	for _, p := range SupportedBuildPlatforms() {
		targets, err := SupportedTargets(p)
		require.NoError(t, err)
		for _, tg := range targets {
			h := newHarness(t)
			assert.NoError(t, h.d.BuildForTarget(context.Background(), tg, h.wd, h.root), "%s on %s", tg, p)
		}
	}
}
