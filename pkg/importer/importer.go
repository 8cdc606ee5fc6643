package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"kvfs/pkg/core"
	"kvfs/pkg/fserr"
	"kvfs/pkg/ignore"
	"kvfs/pkg/types"
)

// FileSystem 是导入需要的最小操作集合
// fs.Dispatcher (本地) 和 client.Client (远程) 都满足它
type FileSystem interface {
	Lookup(ctx context.Context, parent types.InodeID, name string) (core.Attr, error)
	Create(ctx context.Context, parent types.InodeID, name string) (core.Attr, error)
	Mkdir(ctx context.Context, parent types.InodeID, name string) (core.Attr, error)
	Write(ctx context.Context, id types.InodeID, offset uint64, data []byte) (int, error)
	Truncate(ctx context.Context, id types.InodeID, size uint64) (core.Attr, error)
}

// Stats 汇总一次导入
type Stats struct {
	Files   int
	Dirs    int
	Bytes   int64
	Skipped int
}

// Importer 把本地目录树复制进文件系统
// 同一目录下的并发创建会互相覆盖 (目录更新没有 CAS)，所以整个过程是串行的
type Importer struct {
	fs      FileSystem
	matcher *ignore.Matcher

	// OnFile 在每个文件写入后调用，可为空
	OnFile func(path string, size int64)
}

func New(fsys FileSystem, matcher *ignore.Matcher) *Importer {
	return &Importer{fs: fsys, matcher: matcher}
}

// Import 把 localRoot 下的内容导入到 dest 目录
// 已存在的同名文件被覆盖，已存在的同名目录被合并
func (im *Importer) Import(ctx context.Context, localRoot string, dest types.InodeID) (Stats, error) {
	var stats Stats

	// 本地相对目录 -> 目标目录的 InodeID
	dirs := map[string]types.InodeID{".": dest}

	err := filepath.WalkDir(localRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(localRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		// 1. 忽略规则
		if im.matcher.Matches(rel) {
			stats.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		parent, ok := dirs[filepath.ToSlash(filepath.Dir(rel))]
		if !ok {
			return fmt.Errorf("parent of %s was not imported", rel)
		}
		name := d.Name()

		// 2. 目录: 先建好，子项才能链接进去
		if d.IsDir() {
			id, err := im.ensureDir(ctx, parent, name)
			if err != nil {
				return fmt.Errorf("import dir %s: %w", rel, err)
			}
			dirs[rel] = id
			stats.Dirs++
			return nil
		}

		// 3. 只导入普通文件，符号链接等跳过
		if !d.Type().IsRegular() {
			stats.Skipped++
			return nil
		}

		n, err := im.importFile(ctx, parent, name, path)
		if err != nil {
			return fmt.Errorf("import file %s: %w", rel, err)
		}
		stats.Files++
		stats.Bytes += n
		if im.OnFile != nil {
			im.OnFile(rel, n)
		}
		return nil
	})
	return stats, err
}

func (im *Importer) ensureDir(ctx context.Context, parent types.InodeID, name string) (types.InodeID, error) {
	attr, err := im.fs.Lookup(ctx, parent, name)
	switch {
	case err == nil:
		if attr.Kind != types.KindDirectory {
			return types.InodeID{}, fmt.Errorf("%q exists: %w", name, fserr.ErrNotADirectory)
		}
		return attr.Inode, nil
	case errors.Is(err, fserr.ErrNotFound):
		attr, err = im.fs.Mkdir(ctx, parent, name)
		if err != nil {
			return types.InodeID{}, err
		}
		return attr.Inode, nil
	default:
		return types.InodeID{}, err
	}
}

func (im *Importer) importFile(ctx context.Context, parent types.InodeID, name, path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	attr, err := im.fs.Lookup(ctx, parent, name)
	switch {
	case err == nil:
		if attr.Kind == types.KindDirectory {
			return 0, fmt.Errorf("%q exists: %w", name, fserr.ErrIsDirectory)
		}
		// 覆盖: 先截断再整体写入
		if _, err := im.fs.Truncate(ctx, attr.Inode, 0); err != nil {
			return 0, err
		}
	case errors.Is(err, fserr.ErrNotFound):
		if attr, err = im.fs.Create(ctx, parent, name); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	if len(data) == 0 {
		return 0, nil
	}
	n, err := im.fs.Write(ctx, attr.Inode, 0, data)
	return int64(n), err
}
