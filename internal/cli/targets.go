package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nativelibs/tpbuild/internal/builder"
	"github.com/nativelibs/tpbuild/internal/target"
)

var targetsPlatform string

func init() {
	targetsCmd.Flags().StringVar(&targetsPlatform, "platform", "", "Build platform (win32, darwin); defaults to the host")
	rootCmd.AddCommand(targetsCmd)
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List targets buildable from a platform",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolvePlatform(targetsPlatform)
		if err != nil {
			return err
		}
		targets, err := builder.SupportedTargets(p)
		if err != nil {
			return err
		}
		for _, t := range targets {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func resolvePlatform(name string) (target.BuildPlatform, error) {
	if name == "" {
		return hostPlatform()
	}
	return target.ParsePlatform(name)
}
