package commands

import (
	"context"
	"errors"
	"fmt"

	"kvfs/pkg/fserr"
	"kvfs/pkg/types"

	"github.com/spf13/cobra"
)

var rmRecursive bool

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Remove a file or an empty directory",
	Long:  `Remove a file, a symlink or an empty directory. With -r, directories are emptied first.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		parent, name, err := FS.ResolveParent(ctx, args[0])
		if err != nil {
			return err
		}

		// 符号链接没有属性，先按非目录删除
		err = FS.Unlink(ctx, parent, name)
		if !errors.Is(err, fserr.ErrIsDirectory) {
			return err
		}

		attr, err := FS.Lookup(ctx, parent, name)
		if err != nil {
			return err
		}
		if err := removeDir(ctx, parent, name, attr.Inode, rmRecursive); err != nil {
			return fmt.Errorf("rm %s: %w", args[0], err)
		}
		return nil
	},
}

// removeDir 删除 parent 下的目录 name
// 只删除目录项，数据记录保留在 KV 中
func removeDir(ctx context.Context, parent types.InodeID, name string, id types.InodeID, recursive bool) error {
	if recursive {
		// 1. 先收集，边遍历边删除会让偏移错位
		seq, err := FS.List(ctx, id, 2)
		if err != nil {
			return err
		}
		type child struct {
			name string
			kind types.Kind
			id   types.InodeID
		}
		var children []child
		for entry, err := range seq {
			if err != nil {
				return err
			}
			children = append(children, child{entry.Name, entry.Kind, entry.Inode})
		}

		// 2. 深度优先删除
		for _, c := range children {
			if c.kind == types.KindDirectory {
				err = removeDir(ctx, id, c.name, c.id, true)
			} else {
				err = FS.Unlink(ctx, id, c.name)
			}
			if err != nil {
				return err
			}
		}
	}
	return FS.Rmdir(ctx, parent, name)
}

func init() {
	rmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "r", false, "Remove directories and their contents recursively")
	rootCmd.AddCommand(rmCmd)
}
