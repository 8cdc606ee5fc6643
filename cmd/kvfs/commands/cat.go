package commands

import (
	"fmt"

	"kvfs/pkg/exporter"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print file content",
	Long:  `Read the whole file and write it to stdout. Binary files can be redirected: kvfs cat /model.bin > model.bin`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := FS.ResolvePath(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if err := exporter.NewExporter(FS).ExportFile(cmd.Context(), id, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("cat failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
