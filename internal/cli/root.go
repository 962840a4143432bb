package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nativelibs/tpbuild/internal/branding"
	"github.com/nativelibs/tpbuild/internal/config"
	"github.com/nativelibs/tpbuild/internal/target"
)

// Exit codes returned by ExitCode.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUnsupported = 2
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	verbose    bool
	configFile string
)

// hostPlatform is swapped in tests.
var hostPlatform = target.HostPlatform

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` downloads, patches and builds third-party native libraries
for every platform a project ships on, and stages their headers and static
libraries inside the project tree.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(newLogger(cmd.ErrOrStderr(), verbose))
		return config.Load(configFile)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/"+branding.HomeDir()+"/config.yaml)")
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command with build info injected via ldflags.
// Interrupts cancel the running build.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ute *target.UnsupportedTargetError
	var upe *target.UnsupportedPlatformError
	if errors.As(err, &ute) || errors.As(err, &upe) {
		return ExitUnsupported
	}
	return ExitFailure
}
