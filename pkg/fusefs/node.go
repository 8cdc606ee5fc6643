package fusefs

import (
	"context"
	"log/slog"
	"syscall"

	"kvfs/pkg/core"
	"kvfs/pkg/fs"
	"kvfs/pkg/fserr"
	"kvfs/pkg/types"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// renameNoReplace 对应 RENAME_NOREPLACE
// Dispatcher.Rename 在目标存在时本来就会失败，所以这个标志可以直接接受
const renameNoReplace = 0x1

// node 是一个 FUSE 节点，只记录 InodeID，其余状态每次都从 KV 读取
type node struct {
	gofuse.Inode
	d      *fs.Dispatcher
	id     types.InodeID
	logger *slog.Logger
}

var (
	_ gofuse.InodeEmbedder  = (*node)(nil)
	_ gofuse.NodeGetattrer  = (*node)(nil)
	_ gofuse.NodeSetattrer  = (*node)(nil)
	_ gofuse.NodeLookuper   = (*node)(nil)
	_ gofuse.NodeReaddirer  = (*node)(nil)
	_ gofuse.NodeOpener     = (*node)(nil)
	_ gofuse.NodeReader     = (*node)(nil)
	_ gofuse.NodeWriter     = (*node)(nil)
	_ gofuse.NodeCreater    = (*node)(nil)
	_ gofuse.NodeMkdirer    = (*node)(nil)
	_ gofuse.NodeUnlinker   = (*node)(nil)
	_ gofuse.NodeRmdirer    = (*node)(nil)
	_ gofuse.NodeRenamer    = (*node)(nil)
	_ gofuse.NodeReadlinker = (*node)(nil)
)

func newNode(d *fs.Dispatcher, id types.InodeID, logger *slog.Logger) *node {
	return &node{d: d, id: id, logger: logger}
}

// errno 把引擎错误映射为 errno；EIO 说明是后端问题，需要记录下来
func (n *node) errno(op string, err error) syscall.Errno {
	e := fserr.Errno(err)
	if e == syscall.EIO {
		n.logger.Error("kvfs operation failed", "op", op, "inode", n.id, "error", err)
	}
	return e
}

// child 为 attr 描述的对象创建内核侧 Inode
func (n *node) child(ctx context.Context, attr core.Attr) *gofuse.Inode {
	return n.NewInode(ctx, newNode(n.d, attr.Inode, n.logger), gofuse.StableAttr{
		Mode: kindMode(attr.Kind),
		Ino:  attr.Inode.Ino(),
	})
}

func (n *node) Getattr(ctx context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.d.Attributes(ctx, n.id)
	if err != nil {
		return n.errno("getattr", err)
	}
	fillAttr(attr, &out.Attr)
	return 0
}

// Setattr 只支持改变大小；mode / owner / 时间戳没有存储位置，直接忽略
func (n *node) Setattr(ctx context.Context, _ gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	var (
		attr core.Attr
		err  error
	)
	if size, ok := in.GetSize(); ok {
		attr, err = n.d.Truncate(ctx, n.id, size)
	} else {
		attr, err = n.d.Attributes(ctx, n.id)
	}
	if err != nil {
		return n.errno("setattr", err)
	}
	fillAttr(attr, &out.Attr)
	return 0
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	attr, err := n.d.Lookup(ctx, n.id, name)
	if err != nil {
		return nil, n.errno("lookup", err)
	}
	fillAttr(attr, &out.Attr)
	return n.child(ctx, attr), 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	// 目录流会跨多个 READDIR 请求存活，不能继承单个请求的取消信号
	ctx = context.WithoutCancel(ctx)
	list := func(offset uint64) (dirSeq, error) {
		return n.d.List(ctx, n.id, offset)
	}
	seq, err := list(0)
	if err != nil {
		return nil, n.errno("readdir", err)
	}
	return newDirStream(list, seq), 0
}

// Open 返回空句柄，读写都落到节点上
// 使用 direct io，其它客户端通过同一个 KV 写入的内容立即可见
func (n *node) Open(ctx context.Context, _ uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if _, err := n.d.Open(ctx, n.id); err != nil {
		return nil, 0, n.errno("open", err)
	}
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *node) Read(ctx context.Context, _ gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := n.d.Read(ctx, n.id, uint64(off), uint64(len(dest)))
	if err != nil {
		return nil, n.errno("read", err)
	}
	return fuse.ReadResultData(data), 0
}

func (n *node) Write(ctx context.Context, _ gofuse.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	written, err := n.d.Write(ctx, n.id, uint64(off), data)
	if err != nil {
		return 0, n.errno("write", err)
	}
	return uint32(written), 0
}

func (n *node) Create(ctx context.Context, name string, _ uint32, _ uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	attr, err := n.d.Create(ctx, n.id, name)
	if err != nil {
		return nil, nil, 0, n.errno("create", err)
	}
	fillAttr(attr, &out.Attr)
	return n.child(ctx, attr), nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *node) Mkdir(ctx context.Context, name string, _ uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	attr, err := n.d.Mkdir(ctx, n.id, name)
	if err != nil {
		return nil, n.errno("mkdir", err)
	}
	fillAttr(attr, &out.Attr)
	return n.child(ctx, attr), 0
}

func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	return n.errno("unlink", n.d.Unlink(ctx, n.id, name))
}

func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return n.errno("rmdir", n.d.Rmdir(ctx, n.id, name))
}

func (n *node) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	if flags&^renameNoReplace != 0 {
		return syscall.EINVAL
	}
	target, ok := newParent.(*node)
	if !ok {
		return syscall.EXDEV
	}
	return n.errno("rename", n.d.Rename(ctx, n.id, name, target.id, newName))
}

func (n *node) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	return nil, n.errno("readlink", n.d.Readlink(ctx, n.id))
}

// kindMode 返回对象类型对应的 S_IFMT 位
func kindMode(k types.Kind) uint32 {
	switch k {
	case types.KindDirectory:
		return syscall.S_IFDIR
	case types.KindSymlink:
		return syscall.S_IFLNK
	default:
		return syscall.S_IFREG
	}
}

// fillAttr 把引擎属性写入 FUSE 属性
// 内核的 Blocks 以 512 字节为单位，与引擎按块大小计的 Blocks 不同
func fillAttr(a core.Attr, out *fuse.Attr) {
	out.Ino = a.Inode.Ino()
	out.Size = a.Size
	out.Blocks = (a.Size + 511) / 512
	out.Blksize = a.BlockSize
	out.Mode = kindMode(a.Kind) | a.Perm
	out.Nlink = a.Nlink
	out.Uid = a.UID
	out.Gid = a.GID
}
