package exporter

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"kvfs/pkg/core"
	"kvfs/pkg/directory"
	"kvfs/pkg/types"
)

// DefaultWindow 是 ExportFile 每次 Read 请求的字节数
const DefaultWindow = 1 << 20

// FileSystem 是导出需要的只读操作
type FileSystem interface {
	Attributes(ctx context.Context, id types.InodeID) (core.Attr, error)
	List(ctx context.Context, id types.InodeID, offset uint64) (iter.Seq2[directory.Entry, error], error)
	Read(ctx context.Context, id types.InodeID, offset, length uint64) ([]byte, error)
}

type Exporter struct {
	fs     FileSystem
	window uint64
}

func NewExporter(fsys FileSystem) *Exporter {
	return &Exporter{fs: fsys, window: DefaultWindow}
}

// ExportFile 把文件内容按窗口顺序写入 writer
func (e *Exporter) ExportFile(ctx context.Context, id types.InodeID, writer io.Writer) error {
	attr, err := e.fs.Attributes(ctx, id)
	if err != nil {
		return err
	}
	if attr.Kind != types.KindFile {
		return fmt.Errorf("inode %s is a %s, not a file", id, attr.Kind)
	}

	for off := uint64(0); off < attr.Size; {
		data, err := e.fs.Read(ctx, id, off, e.window)
		if err != nil {
			return fmt.Errorf("failed to read at offset %d: %w", off, err)
		}
		if len(data) == 0 {
			// 读取过程中文件被其它客户端截断
			break
		}
		if _, err := writer.Write(data); err != nil {
			return fmt.Errorf("failed to write data: %w", err)
		}
		off += uint64(len(data))
	}
	return nil
}

// ExportTree 把 id 指向的目录树还原到本地 dest 目录
func (e *Exporter) ExportTree(ctx context.Context, id types.InodeID, dest string) (files int, err error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, err
	}

	// 从 offset 2 开始，跳过 "." 和 ".."
	seq, err := e.fs.List(ctx, id, 2)
	if err != nil {
		return 0, err
	}
	for entry, err := range seq {
		if err != nil {
			return files, err
		}
		target := filepath.Join(dest, entry.Name)

		switch entry.Kind {
		case types.KindDirectory:
			n, err := e.ExportTree(ctx, entry.Inode, target)
			files += n
			if err != nil {
				return files, err
			}
		case types.KindFile:
			if err := e.exportToPath(ctx, entry.Inode, target); err != nil {
				return files, fmt.Errorf("export %s: %w", target, err)
			}
			files++
		default:
			// 符号链接无法解析目标，跳过
		}
	}
	return files, nil
}

func (e *Exporter) exportToPath(ctx context.Context, id types.InodeID, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := e.ExportFile(ctx, id, f); err != nil {
		return err
	}
	return f.Close()
}
