package commands

import (
	"github.com/spf13/cobra"
)

var mvCmd = &cobra.Command{
	Use:   "mv <src> <dst>",
	Short: "Move or rename a file or directory",
	Long:  `Move <src> to <dst>. The destination must not exist; the inode keeps its identity.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		parent, name, err := FS.ResolveParent(ctx, args[0])
		if err != nil {
			return err
		}
		newParent, newName, err := FS.ResolveParent(ctx, args[1])
		if err != nil {
			return err
		}
		return FS.Rename(ctx, parent, name, newParent, newName)
	},
}

func init() {
	rootCmd.AddCommand(mvCmd)
}
