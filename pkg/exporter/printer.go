package exporter

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"text/tabwriter"

	"kvfs/pkg/core"
	"kvfs/pkg/types"

	"github.com/dustin/go-humanize"
)

// PrintList 以 ls -l 的格式打印目录，包括 "." 和 ".."
func PrintList(ctx context.Context, fsys FileSystem, id types.InodeID, w io.Writer) error {
	seq, err := fsys.List(ctx, id, 0)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "MODE\tINODE\tSIZE\tNAME\n")
	for entry, err := range seq {
		if err != nil {
			tw.Flush()
			return err
		}
		// 符号链接的属性不可用，只打印目录项本身的信息
		size, mode := "-", modeString(entry.Kind, core.LinkPerm)
		if entry.Kind != types.KindSymlink {
			attr, err := fsys.Attributes(ctx, entry.Inode)
			if err != nil {
				tw.Flush()
				return fmt.Errorf("stat %q: %w", entry.Name, err)
			}
			mode = modeString(attr.Kind, attr.Perm)
			if attr.Kind == types.KindFile {
				size = humanize.IBytes(attr.Size)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mode, entry.Inode.String()[:8], size, entry.Name)
	}
	return tw.Flush()
}

// PrintAttr 打印 stat 输出
func PrintAttr(attr core.Attr, w io.Writer) {
	fmt.Fprintf(w, "Inode:     %s (ino %d)\n", attr.Inode, attr.Inode.Ino())
	fmt.Fprintf(w, "Type:      %s\n", attr.Kind)
	fmt.Fprintf(w, "Mode:      %s\n", modeString(attr.Kind, attr.Perm))
	fmt.Fprintf(w, "Size:      %s (%d bytes)\n", humanize.IBytes(attr.Size), attr.Size)
	fmt.Fprintf(w, "Blocks:    %d x %s\n", attr.Blocks, humanize.IBytes(uint64(attr.BlockSize)))
	fmt.Fprintf(w, "Links:     %d\n", attr.Nlink)
	fmt.Fprintf(w, "Owner:     %d:%d\n", attr.UID, attr.GID)
}

// PrintRecord 解析并打印一条 KV 记录 (Inode / Directory / File / Link)
// 如果是原始数据 (Chunk)，返回 false，由调用者决定如何展示
func PrintRecord(data []byte, w io.Writer) (bool, error) {
	t, err := core.PeekType(data)
	if err != nil {
		return false, nil
	}

	switch t {
	case core.TypeInode:
		return true, printInode(data, w)
	case core.TypeDirectory:
		return true, printDirectory(data, w)
	case core.TypeFile:
		return true, printFile(data, w)
	case core.TypeLink:
		return true, printLink(data, w)
	default:
		return false, nil
	}
}

func printInode(data []byte, w io.Writer) error {
	var ino core.Inode
	if err := core.Decode(data, &ino); err != nil {
		return err
	}
	fmt.Fprintf(w, "Type:   Inode\n")
	fmt.Fprintf(w, "ID:     %s\n", ino.ID)
	fmt.Fprintf(w, "Kind:   %s\n", ino.Kind)
	fmt.Fprintf(w, "Target: %s\n", ino.Target)
	return nil
}

func printDirectory(data []byte, w io.Writer) error {
	var dir core.Directory
	if err := core.Decode(data, &dir); err != nil {
		return err
	}
	fmt.Fprintf(w, "Type: Directory\n")
	fmt.Fprintf(w, "ID:   %s\n\n", dir.ID)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "POS\tINODE\tNAME\n")
	for i, e := range dir.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+2, e.Inode, e.Name)
	}
	return tw.Flush()
}

func printFile(data []byte, w io.Writer) error {
	var f core.File
	if err := core.Decode(data, &f); err != nil {
		return err
	}
	fmt.Fprintf(w, "Type:      File\n")
	fmt.Fprintf(w, "ID:        %s\n", f.ID)
	fmt.Fprintf(w, "Size:      %s\n", humanize.IBytes(f.Size))
	fmt.Fprintf(w, "BlockSize: %s\n", humanize.IBytes(f.BlockSize))
	fmt.Fprintf(w, "Hash:      %s:%s\n", f.Algorithm, f.ContentHash)
	fmt.Fprintf(w, "Chunks:    %d\n", len(f.Chunks))
	return nil
}

func printLink(data []byte, w io.Writer) error {
	var l core.Link
	if err := core.Decode(data, &l); err != nil {
		return err
	}
	fmt.Fprintf(w, "Type:   Link\n")
	fmt.Fprintf(w, "ID:     %s\n", l.ID)
	fmt.Fprintf(w, "Target: %s\n", l.Target)
	return nil
}

// modeString 例如 "drwxr-xr-x"
func modeString(k types.Kind, perm uint32) string {
	m := fs.FileMode(perm) & fs.ModePerm
	switch k {
	case types.KindDirectory:
		m |= fs.ModeDir
	case types.KindSymlink:
		m |= fs.ModeSymlink
	}
	return m.String()
}
