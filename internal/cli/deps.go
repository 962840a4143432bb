package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nativelibs/tpbuild/internal/builder"
	"github.com/nativelibs/tpbuild/internal/target"
)

func init() {
	rootCmd.AddCommand(depsCmd)
}

var depsCmd = &cobra.Command{
	Use:   "deps <target>",
	Short: "List libraries that must be built before a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := target.ParseTarget(args[0])
		if err != nil {
			return err
		}
		deps := builder.DependenciesForTarget(t)
		if len(deps) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s has no dependencies\n", t)
			return nil
		}
		names := make([]string, len(deps))
		for i, d := range deps {
			names[i] = d.String()
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
		return nil
	},
}
