package commands

import (
	"fmt"

	"kvfs/pkg/exporter"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <path> <localdir>",
	Short: "Copy a kvfs directory tree to the local disk",
	Long:  `Restore every regular file under <path> into <localdir>. Symlinks are skipped.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := FS.ResolvePath(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		files, err := exporter.NewExporter(FS).ExportTree(cmd.Context(), id, args[1])
		if err != nil {
			return fmt.Errorf("export failed after %d files: %w", files, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Exported %d files to %s\n", files, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
