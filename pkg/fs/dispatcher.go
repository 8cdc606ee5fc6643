package fs

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"kvfs/pkg/core"
	"kvfs/pkg/directory"
	"kvfs/pkg/filestore"
	"kvfs/pkg/fserr"
	"kvfs/pkg/inode"
	"kvfs/pkg/storage"
	"kvfs/pkg/types"
)

// DefaultMaxFileSize 是 Write / Truncate 允许的最大文件大小
// Write 需要把整个文件读入内存，这个上限同时也是单次操作的内存上限
const DefaultMaxFileSize uint64 = 4 << 30

// Handle 是 Open 返回的无状态句柄
type Handle struct {
	Inode types.InodeID
}

// Dispatcher 把文件系统操作翻译成 Inode / Directory / File 的组合调用
// 不持有任何状态，所有持久状态都在 KV 中
type Dispatcher struct {
	inodes *inode.Table
	dirs   *directory.Store
	files  *filestore.Store
	logger *slog.Logger

	maxFileSize uint64
	fileOpts    []filestore.Option
}

type Option func(*Dispatcher)

// WithLogger 设置操作日志，默认使用 slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithMaxFileSize 设置文件大小上限，0 表示使用 DefaultMaxFileSize
func WithMaxFileSize(n uint64) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxFileSize = n
		}
	}
}

// WithFileOptions 透传给 filestore
func WithFileOptions(opts ...filestore.Option) Option {
	return func(d *Dispatcher) { d.fileOpts = append(d.fileOpts, opts...) }
}

// New 基于一个 KV 会话构建 Dispatcher
func New(s storage.Store, opts ...Option) *Dispatcher {
	inodes := inode.NewTable(s)
	dirs := directory.NewStore(s, inodes)
	d := &Dispatcher{
		inodes: inodes,
		dirs:   dirs,
		logger: slog.Default(),

		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.files = filestore.New(s, inodes, dirs, d.fileOpts...)
	return d
}

func (d *Dispatcher) trace(ctx context.Context, op string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err)
	}
	d.logger.DebugContext(ctx, op, args...)
}

// -----------------------------------------------------------------------------
// 1. 引导
// -----------------------------------------------------------------------------

// Bootstrap 确保根 Inode 存在并指向一个目录
// 已存在时什么也不做，返回 created=false
func (d *Dispatcher) Bootstrap(ctx context.Context) (created bool, err error) {
	defer func() { d.trace(ctx, "bootstrap", err, "created", created) }()

	root, err := d.inodes.Get(ctx, types.RootInode)
	if err == nil {
		return false, inode.CheckKind(root, types.KindDirectory)
	}
	if !errors.Is(err, fserr.ErrNotFound) {
		return false, err
	}

	dir := core.NewDirectory(types.NewDataID(), nil)
	if err := d.dirs.Put(ctx, dir); err != nil {
		return false, err
	}
	if err := d.inodes.Put(ctx, core.NewInode(types.RootInode, dir.ID, types.KindDirectory)); err != nil {
		return false, err
	}
	return true, nil
}

// -----------------------------------------------------------------------------
// 2. 读操作
// -----------------------------------------------------------------------------

// Attributes 解析 Inode 及其 target，映射为标准属性
func (d *Dispatcher) Attributes(ctx context.Context, id types.InodeID) (attr core.Attr, err error) {
	defer func() { d.trace(ctx, "attributes", err, "inode", id) }()

	ino, err := d.inodes.Get(ctx, id)
	if err != nil {
		return core.Attr{}, err
	}
	return d.attrOf(ctx, ino)
}

func (d *Dispatcher) attrOf(ctx context.Context, ino *core.Inode) (core.Attr, error) {
	rec, err := d.inodes.Resolve(ctx, ino)
	if err != nil {
		return core.Attr{}, err
	}
	switch r := rec.(type) {
	case *core.Directory:
		return core.DirAttr(ino.ID, r), nil
	case *core.File:
		return core.FileAttr(ino.ID, r), nil
	default:
		return core.Attr{}, fmt.Errorf("inode %s resolved to %s: %w", ino.ID, rec.Type(), fserr.ErrUnimplemented)
	}
}

// Lookup 在 parent 中查找 name，返回对应对象的属性
func (d *Dispatcher) Lookup(ctx context.Context, parent types.InodeID, name string) (attr core.Attr, err error) {
	defer func() { d.trace(ctx, "lookup", err, "parent", parent, "name", name) }()

	_, dir, err := d.dirs.LoadByInode(ctx, parent)
	if err != nil {
		return core.Attr{}, err
	}
	entry, ok := dir.Find(name)
	if !ok {
		return core.Attr{}, fmt.Errorf("lookup %q in %s: %w", name, parent, fserr.ErrNotFound)
	}
	ino, err := d.inodes.Get(ctx, entry.Inode)
	if err != nil {
		return core.Attr{}, err
	}
	return d.attrOf(ctx, ino)
}

// List 从 offset 开始列出目录
// 目录本身的错误立即返回，条目级错误通过序列传递
func (d *Dispatcher) List(ctx context.Context, id types.InodeID, offset uint64) (seq iter.Seq2[directory.Entry, error], err error) {
	defer func() { d.trace(ctx, "list", err, "inode", id, "offset", offset) }()

	_, dir, err := d.dirs.LoadByInode(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.dirs.List(ctx, dir, id, offset), nil
}

// Open 校验对象存在且是文件，返回无状态句柄
func (d *Dispatcher) Open(ctx context.Context, id types.InodeID) (h Handle, err error) {
	defer func() { d.trace(ctx, "open", err, "inode", id) }()

	ino, err := d.inodes.Get(ctx, id)
	if err != nil {
		return Handle{}, err
	}
	if _, err := d.files.Load(ctx, ino); err != nil {
		return Handle{}, err
	}
	return Handle{Inode: id}, nil
}

// Read 返回文件 [offset, offset+length) 的内容，超出 size 的部分被截断
func (d *Dispatcher) Read(ctx context.Context, id types.InodeID, offset, length uint64) (data []byte, err error) {
	defer func() { d.trace(ctx, "read", err, "inode", id, "offset", offset, "length", length) }()

	f, err := d.loadFile(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.files.Read(ctx, f, offset, length)
}

// Readlink 符号链接的目标解析尚未实现
func (d *Dispatcher) Readlink(ctx context.Context, id types.InodeID) (err error) {
	defer func() { d.trace(ctx, "readlink", err, "inode", id) }()

	if _, err := d.inodes.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("readlink %s: %w", id, fserr.ErrUnimplemented)
}

func (d *Dispatcher) loadFile(ctx context.Context, id types.InodeID) (*core.File, error) {
	ino, err := d.inodes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.files.Load(ctx, ino)
}

// -----------------------------------------------------------------------------
// 3. 创建
// -----------------------------------------------------------------------------

// Create 在 parent 下创建空文件，返回其属性
func (d *Dispatcher) Create(ctx context.Context, parent types.InodeID, name string) (attr core.Attr, err error) {
	defer func() { d.trace(ctx, "create", err, "parent", parent, "name", name) }()

	ino, f, err := d.files.CreateNew(ctx, parent, name)
	if err != nil {
		return core.Attr{}, err
	}
	return core.FileAttr(ino.ID, f), nil
}

// Mkdir 在 parent 下创建空目录，返回其属性
func (d *Dispatcher) Mkdir(ctx context.Context, parent types.InodeID, name string) (attr core.Attr, err error) {
	defer func() { d.trace(ctx, "mkdir", err, "parent", parent, "name", name) }()

	ino, dir, err := d.files.Mkdir(ctx, parent, name)
	if err != nil {
		return core.Attr{}, err
	}
	return core.DirAttr(ino.ID, dir), nil
}

// Symlink 在 parent 下创建指向 target 的链接，返回新 Inode 的 id
func (d *Dispatcher) Symlink(ctx context.Context, parent types.InodeID, name string, target types.InodeID) (id types.InodeID, err error) {
	defer func() { d.trace(ctx, "symlink", err, "parent", parent, "name", name, "target", target) }()

	ino, _, err := d.files.Symlink(ctx, parent, name, target)
	if err != nil {
		return types.InodeID{}, err
	}
	return ino.ID, nil
}

// -----------------------------------------------------------------------------
// 4. 内容变更
// -----------------------------------------------------------------------------

// Write 把 data 写到 offset 处，空洞以 0 填充，返回写入的字节数
// 读取当前内容、拼接、整体重写为新的 File，再 swap Inode
func (d *Dispatcher) Write(ctx context.Context, id types.InodeID, offset uint64, data []byte) (n int, err error) {
	defer func() { d.trace(ctx, "write", err, "inode", id, "offset", offset, "size", len(data)) }()

	end := offset + uint64(len(data))
	if end < offset || end > d.maxFileSize {
		return 0, fmt.Errorf("write at %d+%d exceeds %d bytes: %w", offset, len(data), d.maxFileSize, fserr.ErrFileTooLarge)
	}

	f, err := d.loadFile(ctx, id)
	if err != nil {
		return 0, err
	}
	content, err := d.files.ReadAll(ctx, f)
	if err != nil {
		return 0, err
	}

	if end > uint64(len(content)) {
		grown := make([]byte, end)
		copy(grown, content)
		content = grown
	}
	copy(content[offset:], data)

	if _, err := d.files.WriteBytes(ctx, id, content); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Truncate 把文件截断或以 0 扩展到 size
func (d *Dispatcher) Truncate(ctx context.Context, id types.InodeID, size uint64) (attr core.Attr, err error) {
	defer func() { d.trace(ctx, "truncate", err, "inode", id, "size", size) }()

	if size > d.maxFileSize {
		return core.Attr{}, fmt.Errorf("truncate to %d exceeds %d bytes: %w", size, d.maxFileSize, fserr.ErrFileTooLarge)
	}

	f, err := d.loadFile(ctx, id)
	if err != nil {
		return core.Attr{}, err
	}
	if f.Size == size {
		return core.FileAttr(id, f), nil
	}

	content, err := d.files.Read(ctx, f, 0, size)
	if err != nil {
		return core.Attr{}, err
	}
	if uint64(len(content)) < size {
		grown := make([]byte, size)
		copy(grown, content)
		content = grown
	}

	next, err := d.files.WriteBytes(ctx, id, content)
	if err != nil {
		return core.Attr{}, err
	}
	return core.FileAttr(id, next), nil
}

// -----------------------------------------------------------------------------
// 5. 命名空间变更
// -----------------------------------------------------------------------------

// Unlink 从 parent 中删除一个非目录条目
// 被删除对象的 Inode 和数据记录保留在 KV 中
func (d *Dispatcher) Unlink(ctx context.Context, parent types.InodeID, name string) (err error) {
	defer func() { d.trace(ctx, "unlink", err, "parent", parent, "name", name) }()

	child, err := d.child(ctx, parent, name)
	if err != nil {
		return err
	}
	if child.Kind == types.KindDirectory {
		return fmt.Errorf("unlink %q: %w", name, fserr.ErrIsDirectory)
	}
	return d.removeEntry(ctx, parent, name)
}

// Rmdir 从 parent 中删除一个空目录
func (d *Dispatcher) Rmdir(ctx context.Context, parent types.InodeID, name string) (err error) {
	defer func() { d.trace(ctx, "rmdir", err, "parent", parent, "name", name) }()

	child, err := d.child(ctx, parent, name)
	if err != nil {
		return err
	}
	dir, err := d.dirs.Load(ctx, child)
	if err != nil {
		return err
	}
	if len(dir.Entries) > 0 {
		return fmt.Errorf("rmdir %q: %w", name, fserr.ErrNotEmpty)
	}
	return d.removeEntry(ctx, parent, name)
}

// Rename 把 parent/name 移动到 newParent/newName
// 先在目标目录链接，再从源目录删除；两次 COW 之间没有原子性
// 目标名字已存在时返回 fserr.ErrAlreadyExists
func (d *Dispatcher) Rename(ctx context.Context, parent types.InodeID, name string, newParent types.InodeID, newName string) (err error) {
	defer func() {
		d.trace(ctx, "rename", err, "parent", parent, "name", name, "new_parent", newParent, "new_name", newName)
	}()

	if parent == newParent && name == newName {
		_, err := d.child(ctx, parent, name)
		return err
	}

	child, err := d.child(ctx, parent, name)
	if err != nil {
		return err
	}
	if child.Kind == types.KindDirectory {
		inside, err := d.contains(ctx, child.ID, newParent)
		if err != nil {
			return err
		}
		if inside {
			return fmt.Errorf("move %q into its own subtree: %w", name, fserr.ErrInvalidName)
		}
	}

	if err := d.files.Link(ctx, newParent, newName, child.ID); err != nil {
		return err
	}
	return d.removeEntry(ctx, parent, name)
}

// child 读取 parent/name 指向的 Inode
func (d *Dispatcher) child(ctx context.Context, parent types.InodeID, name string) (*core.Inode, error) {
	_, dir, err := d.dirs.LoadByInode(ctx, parent)
	if err != nil {
		return nil, err
	}
	entry, ok := dir.Find(name)
	if !ok {
		return nil, fmt.Errorf("%q in %s: %w", name, parent, fserr.ErrNotFound)
	}
	return d.inodes.Get(ctx, entry.Inode)
}

func (d *Dispatcher) removeEntry(ctx context.Context, parent types.InodeID, name string) error {
	_, err := d.dirs.Update(ctx, parent, func(dir *core.Directory) (*core.Directory, error) {
		return directory.WithoutEntry(dir, name)
	})
	return err
}

// contains 判断 target 是否是 root 本身或位于 root 之下
func (d *Dispatcher) contains(ctx context.Context, root, target types.InodeID) (bool, error) {
	if root == target {
		return true, nil
	}
	stack := []types.InodeID{root}
	seen := map[types.InodeID]bool{root: true}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		_, dir, err := d.dirs.LoadByInode(ctx, id)
		if err != nil {
			return false, err
		}
		for _, e := range dir.Entries {
			if e.Inode == target {
				return true, nil
			}
			if seen[e.Inode] {
				continue
			}
			seen[e.Inode] = true
			ino, err := d.inodes.Get(ctx, e.Inode)
			if err != nil {
				return false, err
			}
			if ino.Kind == types.KindDirectory {
				stack = append(stack, e.Inode)
			}
		}
	}
	return false, nil
}

// -----------------------------------------------------------------------------
// 6. 路径
// -----------------------------------------------------------------------------

// ResolvePath 从根目录逐级 Lookup，返回路径对应的 Inode id
// "" 和 "/" 都表示根目录
func (d *Dispatcher) ResolvePath(ctx context.Context, path string) (types.InodeID, error) {
	id := types.RootInode
	for _, part := range SplitPath(path) {
		attr, err := d.Lookup(ctx, id, part)
		if err != nil {
			return types.InodeID{}, fmt.Errorf("resolve %q: %w", path, err)
		}
		id = attr.Inode
	}
	return id, nil
}

// ResolveParent 返回路径的父目录 id 和最后一级名字
func (d *Dispatcher) ResolveParent(ctx context.Context, path string) (types.InodeID, string, error) {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return types.InodeID{}, "", fmt.Errorf("path %q has no parent: %w", path, fserr.ErrInvalidName)
	}
	parent, err := d.ResolvePath(ctx, strings.Join(parts[:len(parts)-1], "/"))
	if err != nil {
		return types.InodeID{}, "", err
	}
	return parent, parts[len(parts)-1], nil
}

// SplitPath 把 "/a//b/" 拆成 ["a", "b"]
func SplitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}
