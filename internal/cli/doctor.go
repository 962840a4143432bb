package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nativelibs/tpbuild/internal/builder"
	"github.com/nativelibs/tpbuild/internal/config"
	"github.com/nativelibs/tpbuild/internal/library"
	"github.com/nativelibs/tpbuild/internal/target"
	"github.com/nativelibs/tpbuild/internal/toolchain"
)

var (
	checkTools      bool
	checkSettings   bool
	checkDescriptor string
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

func init() {
	doctorCmd.Flags().BoolVar(&checkTools, "check-tools", false, "Verify the build tools for the host's targets are on PATH")
	doctorCmd.Flags().BoolVar(&checkSettings, "check-settings", false, "Verify the configured version, URL and patch file")
	doctorCmd.Flags().StringVar(&checkDescriptor, "check-descriptor", "", "Validate a library descriptor file at the given path")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that this machine can run a build",
	Long:  `Run diagnostic checks on the host toolchain and tpbuild configuration.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		anyFlag := checkTools || checkSettings || checkDescriptor != ""

		ok := true
		if !anyFlag || checkTools {
			ok = runToolsCheck(out) && ok
		}
		if !anyFlag || checkSettings {
			ok = runSettingsCheck(out, config.Current()) && ok
		}
		if checkDescriptor != "" {
			if err := runDescriptorCheck(out, checkDescriptor); err != nil {
				return err
			}
		}
		if !ok {
			return fmt.Errorf("doctor found problems")
		}
		return nil
	},
}

func runToolsCheck(out io.Writer) bool {
	fmt.Fprintln(out, "Tools check:")

	host, err := hostPlatform()
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}
	targets, err := builder.SupportedTargets(host)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}

	ok := checkBinary(out, "git")
	seen := map[string]bool{"git": true}
	for _, t := range targets {
		for _, tool := range toolchain.RequiredTools(t) {
			if seen[tool] {
				continue
			}
			seen[tool] = true
			ok = checkBinary(out, tool) && ok
		}
	}

	for _, t := range targets {
		if t != target.Android {
			continue
		}
		tc := toolchain.New(nil, toolchain.WithAndroidNDK(config.Current().AndroidNDK))
		file := tc.AndroidToolchainFile()
		if file == "" {
			fmt.Fprintln(out, "  [MISS] Android NDK not configured (android.ndk or ANDROID_NDK_HOME)")
			ok = false
			continue
		}
		if _, err := os.Stat(file); err != nil {
			fmt.Fprintf(out, "  [MISS] %s not found\n", file)
			ok = false
			continue
		}
		fmt.Fprintf(out, "  [ OK ] Android toolchain file at %s\n", file)
	}
	return ok
}

func checkBinary(out io.Writer, name string) bool {
	path, err := lookPath(name)
	if err != nil {
		fmt.Fprintf(out, "  [MISS] %s not found\n", name)
		return false
	}
	fmt.Fprintf(out, "  [ OK ] %s found at %s\n", name, path)
	return true
}

func runSettingsCheck(out io.Writer, s config.Settings) bool {
	fmt.Fprintln(out, "Settings check:")

	lib, err := s.Library()
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}
	url, err := lib.DownloadURL()
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}
	fmt.Fprintf(out, "  [ OK ] %s %s from %s\n", lib.Name, lib.Version, url)
	if lib.SHA256 == "" {
		fmt.Fprintln(out, "  [INFO] No sha256 configured; the archive will not be verified")
	}

	patchFile := s.PatchFile
	if patchFile == "" {
		patchFile = lib.PatchFile
	}
	if patchFile == "" {
		fmt.Fprintln(out, "  [INFO] No patch file configured")
		return true
	}
	if !filepath.IsAbs(patchFile) {
		patchFile = filepath.Join(s.RootProject, patchFile)
	}
	if _, err := os.Stat(patchFile); err != nil {
		fmt.Fprintf(out, "  [MISS] Patch file %s not found\n", patchFile)
		return false
	}
	fmt.Fprintf(out, "  [ OK ] Patch file %s\n", patchFile)
	return true
}

func runDescriptorCheck(out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading descriptor: %w", err)
	}
	d, err := library.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(out, "[ OK ] %s is a valid library descriptor (%s %s)\n", path, d.Name, d.Version)
	return nil
}
