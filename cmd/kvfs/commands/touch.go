package commands

import (
	"errors"

	"kvfs/pkg/fserr"

	"github.com/spf13/cobra"
)

var touchCmd = &cobra.Command{
	Use:   "touch <path>",
	Short: "Create an empty file if it does not exist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		parent, name, err := FS.ResolveParent(ctx, args[0])
		if err != nil {
			return err
		}

		// 时间戳不存储，已存在的文件什么都不用做
		_, err = FS.Lookup(ctx, parent, name)
		if err == nil || !errors.Is(err, fserr.ErrNotFound) {
			return err
		}
		_, err = FS.Create(ctx, parent, name)
		return err
	},
}

func init() {
	rootCmd.AddCommand(touchCmd)
}
