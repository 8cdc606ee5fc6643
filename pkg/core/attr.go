package core

import "kvfs/pkg/types"

// 所有对象统一的属性默认值
const (
	DirPerm  uint32 = 0o755
	FilePerm uint32 = 0o644
	LinkPerm uint32 = 0o777

	DefaultUID uint32 = 1000
	DefaultGID uint32 = 1000
)

// Attr 是传输层需要的标准属性
type Attr struct {
	Inode     types.InodeID
	Kind      types.Kind
	Size      uint64
	Blocks    uint64
	BlockSize uint32
	Nlink     uint32
	Perm      uint32
	UID       uint32
	GID       uint32
}

// DirAttr 目录: nlink = 2 + 条目数，size 为 0
func DirAttr(ino types.InodeID, d *Directory) Attr {
	return Attr{
		Inode:     ino,
		Kind:      types.KindDirectory,
		BlockSize: DefaultBlockSize,
		Nlink:     uint32(2 + len(d.Entries)),
		Perm:      DirPerm,
		UID:       DefaultUID,
		GID:       DefaultGID,
	}
}

// FileAttr 文件: blocks 按块大小向上取整
func FileAttr(ino types.InodeID, f *File) Attr {
	bs := f.BlockSize
	if bs == 0 {
		bs = DefaultBlockSize
	}
	return Attr{
		Inode:     ino,
		Kind:      types.KindFile,
		Size:      f.Size,
		Blocks:    (f.Size + bs - 1) / bs,
		BlockSize: uint32(bs),
		Nlink:     1,
		Perm:      FilePerm,
		UID:       DefaultUID,
		GID:       DefaultGID,
	}
}
