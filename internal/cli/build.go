package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nativelibs/tpbuild/internal/branding"
	"github.com/nativelibs/tpbuild/internal/builder"
	"github.com/nativelibs/tpbuild/internal/command"
	"github.com/nativelibs/tpbuild/internal/config"
	"github.com/nativelibs/tpbuild/internal/fetch"
	"github.com/nativelibs/tpbuild/internal/fsutil"
	"github.com/nativelibs/tpbuild/internal/logfields"
	"github.com/nativelibs/tpbuild/internal/patch"
	"github.com/nativelibs/tpbuild/internal/target"
	"github.com/nativelibs/tpbuild/internal/toolchain"
)

var (
	buildWorkingDir  string
	buildRootProject string
)

func init() {
	buildCmd.Flags().StringVar(&buildWorkingDir, "working-dir", "", "Scratch directory for downloads and generated projects (default from config: working_dir)")
	buildCmd.Flags().StringVar(&buildRootProject, "root-project", "", "Project root that receives Libs/ (default from config: root_project)")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build [target...]",
	Short: "Fetch, patch and build the library for one or more targets",
	Long: `Build the library for the listed targets, or for every target the host
can build when none are given. All targets share one run, so the source patch
is applied once.`,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	settings := config.Current()
	if buildWorkingDir != "" {
		settings.WorkingDir = buildWorkingDir
	}
	if buildRootProject != "" {
		settings.RootProject = buildRootProject
	}

	targets, err := resolveTargets(args)
	if err != nil {
		return err
	}

	workingDir, err := filepath.Abs(settings.WorkingDir)
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	rootProject, err := filepath.Abs(settings.RootProject)
	if err != nil {
		return fmt.Errorf("resolving root project: %w", err)
	}
	if err := os.MkdirAll(workingDir, 0755); err != nil {
		return fmt.Errorf("creating working directory: %w", err)
	}

	d, err := newDispatcher(settings, rootProject, slog.Default())
	if err != nil {
		return err
	}

	start := time.Now()
	slog.Info("Starting build",
		logfields.RunID(d.RunID()),
		slog.String("targets", joinTargets(targets)),
		logfields.Path(workingDir))
	if err := d.BuildTargets(cmd.Context(), targets, workingDir, rootProject); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Built %s in %s\n", joinTargets(targets), time.Since(start).Round(time.Millisecond))
	return nil
}

// resolveTargets parses args, defaulting to everything the host can build.
// Targets the host cannot build are rejected before any work starts.
func resolveTargets(args []string) ([]target.Target, error) {
	host, err := hostPlatform()
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return builder.SupportedTargets(host)
	}

	targets := make([]target.Target, 0, len(args))
	for _, a := range args {
		t, err := target.ParseTarget(a)
		if err != nil {
			return nil, err
		}
		if !target.IsSupportedOn(t, host) {
			return nil, fmt.Errorf("target %s cannot be built on %s", t, host)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// newDispatcher wires the concrete fetcher, patcher, toolchain and copier.
// A relative patch file is resolved against rootProject when one is given.
func newDispatcher(s config.Settings, rootProject string, logger *slog.Logger) (*builder.Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lib, err := s.Library()
	if err != nil {
		return nil, err
	}
	extraArgs, err := toolchain.ParseExtraArgs(s.CMakeArgs)
	if err != nil {
		return nil, err
	}

	patchFile := s.PatchFile
	if patchFile == "" {
		patchFile = lib.PatchFile
	}
	if patchFile != "" && rootProject != "" && !filepath.IsAbs(patchFile) {
		patchFile = filepath.Join(rootProject, patchFile)
	}

	runner := &command.ExecRunner{Stderr: os.Stderr, Logger: logger}
	if verbose {
		runner.Stdout = os.Stderr
	}

	return builder.New(builder.Config{
		Library:   lib,
		PatchFile: patchFile,
		Fetcher: fetch.New(
			fetch.WithLogger(logger),
			fetch.WithChecksum(lib.SHA256),
			fetch.WithVersion(lib.Version),
			fetch.WithTimeout(s.HTTPTimeout),
			fetch.WithUserAgent(branding.UserAgent(buildVersion)),
		),
		Patcher: patch.NewGitApply(runner, logger),
		Toolchain: toolchain.New(runner,
			toolchain.WithExtraArgs(extraArgs),
			toolchain.WithAndroidNDK(s.AndroidNDK),
			toolchain.WithLogger(logger),
		),
		Copier: fsutil.Copier{},
		Logger: logger,
	})
}

func joinTargets(ts []target.Target) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
