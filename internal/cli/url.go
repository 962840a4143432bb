package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nativelibs/tpbuild/internal/config"
)

func init() {
	rootCmd.AddCommand(urlCmd)
}

var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the source archive URL for the configured version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := config.Current().Library()
		if err != nil {
			return err
		}
		url, err := lib.DownloadURL()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}
