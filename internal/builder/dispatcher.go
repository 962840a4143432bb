package builder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nativelibs/tpbuild/internal/fetch"
	"github.com/nativelibs/tpbuild/internal/library"
	"github.com/nativelibs/tpbuild/internal/logfields"
	"github.com/nativelibs/tpbuild/internal/target"
	"github.com/nativelibs/tpbuild/internal/toolchain"
)

// GenDirName is the toolchain scratch folder inside the working directory.
const GenDirName = "gen"

// Dispatcher builds one library for any supported target. Create one per
// build run: the patch is applied at most once over its lifetime.
type Dispatcher struct {
	lib       *library.Descriptor
	patchFile string

	fetcher   Fetcher
	patcher   Patcher
	toolchain Toolchain
	copier    Copier

	logger *slog.Logger
	runID  string

	mu      sync.Mutex
	patched bool
}

// Config carries the collaborators and library a Dispatcher works with.
type Config struct {
	Library *library.Descriptor
	// PatchFile overrides Library.PatchFile. Relative paths are resolved
	// against the process working directory.
	PatchFile string

	Fetcher   Fetcher
	Patcher   Patcher
	Toolchain Toolchain
	Copier    Copier
	Logger    *slog.Logger
}

// New validates cfg and returns a Dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Library == nil {
		return nil, fmt.Errorf("dispatcher requires a library descriptor")
	}
	if cfg.Fetcher == nil || cfg.Patcher == nil || cfg.Toolchain == nil || cfg.Copier == nil {
		return nil, fmt.Errorf("dispatcher requires fetcher, patcher, toolchain and copier")
	}

	patchFile := cfg.PatchFile
	if patchFile == "" {
		patchFile = cfg.Library.PatchFile
	}
	if patchFile != "" {
		abs, err := filepath.Abs(patchFile)
		if err != nil {
			return nil, fmt.Errorf("resolving patch file %s: %w", patchFile, err)
		}
		patchFile = abs
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()

	return &Dispatcher{
		lib:       cfg.Library,
		patchFile: patchFile,
		fetcher:   cfg.Fetcher,
		patcher:   cfg.Patcher,
		toolchain: cfg.Toolchain,
		copier:    cfg.Copier,
		logger:    logger.With(logfields.RunID(runID), slog.String("library", cfg.Library.Name)),
		runID:     runID,
	}, nil
}

// RunID identifies this dispatcher in logs.
func (d *Dispatcher) RunID() string { return d.runID }

// Patched reports whether the patch has been applied during this run.
func (d *Dispatcher) Patched() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.patched
}

// DownloadURL returns the source archive location for the pinned version.
func (d *Dispatcher) DownloadURL() (string, error) {
	return d.lib.DownloadURL()
}

// SupportedBuildPlatforms returns the hosts that can run a build.
func SupportedBuildPlatforms() []target.BuildPlatform {
	return target.SupportedBuildPlatforms()
}

// SupportedTargets returns the targets buildable from platform p.
func SupportedTargets(p target.BuildPlatform) ([]target.Target, error) {
	return target.SupportedTargets(p)
}

// DependenciesForTarget lists libraries that must be built before t.
// The library has none on any target.
func DependenciesForTarget(t target.Target) []target.Target {
	return []target.Target{}
}

// BuildForTarget runs fetch, patch, build and header staging for t.
// Concurrent calls on one Dispatcher are serialized.
func (d *Dispatcher) BuildForTarget(ctx context.Context, t target.Target, workingDir, rootProject string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	log := d.logger.With(logfields.Target(string(t)))
	start := time.Now()

	var err error
	switch t {
	case target.Win32:
		err = d.buildWin32(ctx, workingDir, rootProject)
	case target.Win10:
		err = d.buildWin10(ctx, workingDir, rootProject)
	case target.MacOS:
		err = d.buildMacOS(ctx, workingDir, rootProject)
	case target.IOS:
		err = d.buildIOS(ctx, workingDir, rootProject)
	case target.Android:
		err = d.buildAndroid(ctx, workingDir, rootProject)
	default:
		return &target.UnsupportedTargetError{Target: string(t)}
	}
	if err != nil {
		log.Error("Build failed", logfields.Error(err), logfields.Since(start))
		return err
	}

	log.Info("Build finished", logfields.Since(start))
	return nil
}

// BuildTargets builds each target in order and stops at the first failure.
func (d *Dispatcher) BuildTargets(ctx context.Context, targets []target.Target, workingDir, rootProject string) error {
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.BuildForTarget(ctx, t, workingDir, rootProject); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) buildWin32(ctx context.Context, wd, root string) error {
	out := d.lib.Targets.Win32
	if out == nil {
		return d.notDescribed(target.Win32)
	}
	src, err := d.prepareSources(ctx, target.Win32, wd)
	if err != nil {
		return err
	}
	req := d.windowsRequest(wd, src, root, out)
	if err := d.toolchain.BuildWin32(ctx, req); err != nil {
		return &StageError{Target: target.Win32, Stage: StageBuild, Err: err}
	}
	return d.copyHeaders(target.Win32, src, root)
}

func (d *Dispatcher) buildWin10(ctx context.Context, wd, root string) error {
	out := d.lib.Targets.Win10
	if out == nil {
		return d.notDescribed(target.Win10)
	}
	src, err := d.prepareSources(ctx, target.Win10, wd)
	if err != nil {
		return err
	}
	req := d.windowsRequest(wd, src, root, out)
	if err := d.toolchain.BuildWin10(ctx, req); err != nil {
		return &StageError{Target: target.Win10, Stage: StageBuild, Err: err}
	}
	return d.copyHeaders(target.Win10, src, root)
}

func (d *Dispatcher) buildMacOS(ctx context.Context, wd, root string) error {
	out := d.lib.Targets.MacOS
	if out == nil {
		return d.notDescribed(target.MacOS)
	}
	src, err := d.prepareSources(ctx, target.MacOS, wd)
	if err != nil {
		return err
	}
	if err := d.toolchain.BuildMacOS(ctx, d.appleRequest(wd, src, root, out)); err != nil {
		return &StageError{Target: target.MacOS, Stage: StageBuild, Err: err}
	}
	return d.copyHeaders(target.MacOS, src, root)
}

func (d *Dispatcher) buildIOS(ctx context.Context, wd, root string) error {
	out := d.lib.Targets.IOS
	if out == nil {
		return d.notDescribed(target.IOS)
	}
	src, err := d.prepareSources(ctx, target.IOS, wd)
	if err != nil {
		return err
	}
	if err := d.toolchain.BuildIOS(ctx, d.appleRequest(wd, src, root, out)); err != nil {
		return &StageError{Target: target.IOS, Stage: StageBuild, Err: err}
	}
	return d.copyHeaders(target.IOS, src, root)
}

func (d *Dispatcher) buildAndroid(ctx context.Context, wd, root string) error {
	out := d.lib.Targets.Android
	if out == nil {
		return d.notDescribed(target.Android)
	}
	src, err := d.prepareSources(ctx, target.Android, wd)
	if err != nil {
		return err
	}
	req := toolchain.AndroidRequest{
		GenDir:      filepath.Join(wd, GenDirName),
		SourceDir:   src,
		RootProject: root,
		Library:     d.lib.Name,
		Built:       out.Built,
		Result:      out.Result,
	}
	if err := d.toolchain.BuildAndroid(ctx, req); err != nil {
		return &StageError{Target: target.Android, Stage: StageBuild, Err: err}
	}
	return d.copyHeaders(target.Android, src, root)
}

// prepareSources fetches the archive and applies the patch on first use.
// It returns the extracted source folder.
func (d *Dispatcher) prepareSources(ctx context.Context, t target.Target, wd string) (string, error) {
	src := filepath.Join(wd, d.lib.SourceFolder)

	url, err := d.lib.DownloadURL()
	if err != nil {
		return "", &StageError{Target: t, Stage: StageFetch, Err: err}
	}
	base, err := fetch.URLFileNameNoExt(url)
	if err != nil {
		return "", &StageError{Target: t, Stage: StageFetch, Err: err}
	}
	if err := d.fetcher.DownloadAndExtract(ctx, url, wd, src, base); err != nil {
		return "", &StageError{Target: t, Stage: StageFetch, Err: err}
	}

	if err := d.patchOnce(ctx, wd); err != nil {
		return "", &StageError{Target: t, Stage: StagePatch, Err: err}
	}
	return src, nil
}

// patchOnce applies the library patch unless it was applied earlier in this
// run. The flag flips only after a successful application. Callers hold d.mu.
func (d *Dispatcher) patchOnce(ctx context.Context, wd string) error {
	if d.patched || d.patchFile == "" {
		return nil
	}
	if err := d.patcher.ApplyPatch(ctx, d.patchFile, wd); err != nil {
		return err
	}
	d.patched = true
	d.logger.Debug("Patch state changed", logfields.Stage(string(StagePatch)), slog.Bool("patched", true))
	return nil
}

func (d *Dispatcher) copyHeaders(t target.Target, src, root string) error {
	from := filepath.Join(src, filepath.FromSlash(d.lib.Headers.From))
	to := filepath.Join(root, filepath.FromSlash(d.lib.Headers.To))
	if err := d.copier.CopyFolderRecursive(from, to); err != nil {
		return &StageError{Target: t, Stage: StageHeaders, Err: err}
	}
	return nil
}

func (d *Dispatcher) windowsRequest(wd, src, root string, out *library.WindowsOutputs) toolchain.WindowsRequest {
	return toolchain.WindowsRequest{
		GenDir:      filepath.Join(wd, GenDirName),
		SourceDir:   src,
		RootProject: root,
		Project:     out.Project,
		Library:     d.lib.Name,
		Built:       out.Built,
		Results:     out.Results,
	}
}

func (d *Dispatcher) appleRequest(wd, src, root string, out *library.AppleOutputs) toolchain.AppleRequest {
	return toolchain.AppleRequest{
		GenDir:      filepath.Join(wd, GenDirName),
		SourceDir:   src,
		RootProject: root,
		Project:     out.Project,
		Library:     d.lib.Name,
		Built:       out.Built,
		Result:      out.Result,
	}
}

func (d *Dispatcher) notDescribed(t target.Target) error {
	return fmt.Errorf("library %s has no build description for %s: %w", d.lib.Name, t, &target.UnsupportedTargetError{Target: string(t)})
}
