package commands

import (
	"context"
	"errors"
	"fmt"

	"kvfs/pkg/fs"
	"kvfs/pkg/fserr"
	"kvfs/pkg/types"

	"github.com/spf13/cobra"
)

var mkdirParents bool

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if mkdirParents {
			_, err := mkdirAll(ctx, args[0])
			return err
		}

		parent, name, err := FS.ResolveParent(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = FS.Mkdir(ctx, parent, name)
		return err
	},
}

// mkdirAll 逐级创建目录，已存在的目录直接复用
func mkdirAll(ctx context.Context, path string) (types.InodeID, error) {
	id := types.RootInode
	for _, part := range fs.SplitPath(path) {
		attr, err := FS.Lookup(ctx, id, part)
		switch {
		case err == nil:
			if attr.Kind != types.KindDirectory {
				return types.InodeID{}, fmt.Errorf("%s: %w", part, fserr.ErrNotADirectory)
			}
		case errors.Is(err, fserr.ErrNotFound):
			attr, err = FS.Mkdir(ctx, id, part)
			if err != nil {
				return types.InodeID{}, err
			}
		default:
			return types.InodeID{}, err
		}
		id = attr.Inode
	}
	return id, nil
}

func init() {
	mkdirCmd.Flags().BoolVarP(&mkdirParents, "parents", "p", false, "Create parent directories as needed")
	rootCmd.AddCommand(mkdirCmd)
}
