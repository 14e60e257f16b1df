package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bank-statement-parser/internal/buildinfo"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Skips loading settings and categories.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stan %s\ncommit: %s\nbuilt: %s\n",
				buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		},
	}
}
