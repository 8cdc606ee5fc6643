package commands

import (
	"kvfs/pkg/exporter"

	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show the attributes of a file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := FS.ResolvePath(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		attr, err := FS.Attributes(cmd.Context(), id)
		if err != nil {
			return err
		}
		exporter.PrintAttr(attr, cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}
