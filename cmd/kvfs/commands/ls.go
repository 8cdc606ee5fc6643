package commands

import (
	"kvfs/pkg/exporter"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 1 {
			path = args[0]
		}

		id, err := FS.ResolvePath(cmd.Context(), path)
		if err != nil {
			return err
		}
		return exporter.PrintList(cmd.Context(), FS, id, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
