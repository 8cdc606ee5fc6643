package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"kvfs/pkg/fserr"
	"kvfs/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put <local> <path>",
	Short: "Copy a local file into kvfs",
	Long:  `Create the file at <path> (or truncate it if it already exists) and write the content of <local> into it.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// 每次 Write 都会整体重写文件，所以一次性读入并写入
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		// 1. 找到或创建目标文件
		id, err := createOrTruncate(ctx, args[1])
		if err != nil {
			return err
		}

		// 2. 写入
		if len(data) > 0 {
			if _, err := FS.Write(ctx, id, 0, data); err != nil {
				return fmt.Errorf("put failed: %w", err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s -> %s (%s)\n", args[0], args[1], humanize.IBytes(uint64(len(data))))
		return nil
	},
}

// createOrTruncate 返回 path 对应的空文件
func createOrTruncate(ctx context.Context, path string) (types.InodeID, error) {
	parent, name, err := FS.ResolveParent(ctx, path)
	if err != nil {
		return types.InodeID{}, err
	}

	attr, err := FS.Lookup(ctx, parent, name)
	switch {
	case errors.Is(err, fserr.ErrNotFound):
		attr, err = FS.Create(ctx, parent, name)
		if err != nil {
			return types.InodeID{}, err
		}
		return attr.Inode, nil
	case err != nil:
		return types.InodeID{}, err
	case attr.Kind != types.KindFile:
		return types.InodeID{}, fmt.Errorf("%s is a %s, not a file", path, attr.Kind)
	}

	if _, err := FS.Truncate(ctx, attr.Inode, 0); err != nil {
		return types.InodeID{}, err
	}
	return attr.Inode, nil
}

func init() {
	rootCmd.AddCommand(putCmd)
}
