package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the root directory in the configured store",
	Long:  `Bootstrap the filesystem: write the root inode and an empty root directory. Running it again is a no-op.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := FS.Bootstrap(cmd.Context())
		if err != nil {
			return fmt.Errorf("init failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if created {
			fmt.Fprintln(out, "✅ Initialized empty kvfs root")
		} else {
			fmt.Fprintln(out, "ℹ️  kvfs root already exists")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
