package commands

import (
	"fmt"
	"time"

	"kvfs/pkg/ignore"
	"kvfs/pkg/importer"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <localdir> [path]",
	Short: "Copy a local directory tree into kvfs",
	Long: `Walk <localdir> and copy every regular file into kvfs under [path] (default "/").
Existing directories are merged, existing files are overwritten.
Paths matched by .kvfsignore in <localdir> are skipped.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		localRoot := args[0]

		destPath := "/"
		if len(args) == 2 {
			destPath = args[1]
		}

		// 1. 目标目录不存在时自动创建
		dest, err := mkdirAll(ctx, destPath)
		if err != nil {
			return err
		}

		// 2. 初始化忽略规则
		matcher, err := ignore.NewMatcher(localRoot)
		if err != nil {
			return fmt.Errorf("failed to load ignore rules: %w", err)
		}

		out := cmd.OutOrStdout()
		im := importer.New(FS, matcher)
		im.OnFile = func(path string, size int64) {
			fmt.Fprintf(out, "Adding: %s (%s)\n", path, humanize.IBytes(uint64(size)))
		}

		// 3. 执行导入
		start := time.Now()
		stats, err := im.Import(ctx, localRoot, dest)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		if stats.Files == 0 && stats.Dirs == 0 {
			fmt.Fprintln(out, "⚠️  No files imported.")
			return nil
		}
		fmt.Fprintf(out, "✅ Imported %d files, %d dirs (%s) in %s, skipped %d\n",
			stats.Files, stats.Dirs, humanize.IBytes(uint64(stats.Bytes)), time.Since(start).Round(time.Millisecond), stats.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
