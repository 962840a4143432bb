package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nativelibs/tpbuild/internal/builder"
)

func init() {
	rootCmd.AddCommand(platformsCmd)
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List platforms that can run a build",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := hostPlatform()
		for _, p := range builder.SupportedBuildPlatforms() {
			if p == host {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (host)\n", p)
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}
