package directory

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"kvfs/pkg/core"
	"kvfs/pkg/fserr"
	"kvfs/pkg/inode"
	"kvfs/pkg/storage"
	"kvfs/pkg/types"
)

// MaxNameLen 单个目录项名字的最大字节数
const MaxNameLen = 255

// Store 负责目录值的读写和 COW 变更
type Store struct {
	store  storage.Store
	inodes *inode.Table
}

func NewStore(s storage.Store, inodes *inode.Table) *Store {
	return &Store{store: s, inodes: inodes}
}

// Get 按 DataID 读取目录值
func (s *Store) Get(ctx context.Context, id types.DataID) (*core.Directory, error) {
	var dir core.Directory
	if err := storage.GetRecord(ctx, s.store, core.DirKey(id), &dir); err != nil {
		return nil, err
	}
	return &dir, nil
}

// Put 存储一个目录值，调用方保证 DataID 是新分配的
func (s *Store) Put(ctx context.Context, dir *core.Directory) error {
	return storage.PutRecord(ctx, s.store, dir)
}

// Load 解引用一个目录 Inode
func (s *Store) Load(ctx context.Context, ino *core.Inode) (*core.Directory, error) {
	if err := inode.CheckKind(ino, types.KindDirectory); err != nil {
		return nil, err
	}
	return s.Get(ctx, ino.Target)
}

// LoadByInode 读取 Inode 并解引用为目录
func (s *Store) LoadByInode(ctx context.Context, id types.InodeID) (*core.Inode, *core.Directory, error) {
	ino, err := s.inodes.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	dir, err := s.Load(ctx, ino)
	if err != nil {
		return nil, nil, err
	}
	return ino, dir, nil
}

// Update 对 parent 执行目录的 COW 变更协议:
//  1. 通过 parent 的 target 读取当前目录
//  2. fn 计算新的目录值
//  3. 以新的 DataID 存储
//  4. SwapTarget 把 parent 指向新目录
//
// 3 和 4 之间不加锁，并发更新同一个目录会丢失其中一方的修改
func (s *Store) Update(ctx context.Context, parent types.InodeID, fn func(*core.Directory) (*core.Directory, error)) (*core.Directory, error) {
	var next *core.Directory
	_, err := s.inodes.UpdateViaIndirection(ctx, parent, types.KindDirectory,
		func(ctx context.Context, cur *core.Inode) (types.DataID, types.Kind, error) {
			dir, err := s.Get(ctx, cur.Target)
			if err != nil {
				return types.DataID{}, 0, err
			}
			if next, err = fn(dir); err != nil {
				return types.DataID{}, 0, err
			}
			if err := s.Put(ctx, next); err != nil {
				return types.DataID{}, 0, err
			}
			return next.ID, types.KindDirectory, nil
		})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// ValidateName 检查目录项名字
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%q: %w", name, fserr.ErrInvalidName)
	case len(name) > MaxNameLen:
		return fmt.Errorf("name longer than %d bytes: %w", MaxNameLen, fserr.ErrInvalidName)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("%q: %w", name, fserr.ErrInvalidName)
	}
	return nil
}

// WithNewEntry 返回 dir 加上一条新条目后的副本 (新的 DataID)
// 不持久化任何东西；name 已存在时返回 fserr.ErrAlreadyExists
func WithNewEntry(dir *core.Directory, name string, ino types.InodeID) (*core.Directory, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if _, ok := dir.Find(name); ok {
		return nil, fmt.Errorf("%q: %w", name, fserr.ErrAlreadyExists)
	}
	entries := make([]core.DirEntry, 0, len(dir.Entries)+1)
	entries = append(entries, dir.Entries...)
	entries = append(entries, core.DirEntry{Name: name, Inode: ino})
	return core.NewDirectory(types.NewDataID(), entries), nil
}

// WithoutEntry 返回 dir 去掉 name 后的副本 (新的 DataID)，保持其余条目的顺序
func WithoutEntry(dir *core.Directory, name string) (*core.Directory, error) {
	entries := make([]core.DirEntry, 0, len(dir.Entries))
	found := false
	for _, e := range dir.Entries {
		if e.Name == name {
			found = true
			continue
		}
		entries = append(entries, e)
	}
	if !found {
		return nil, fmt.Errorf("%q: %w", name, fserr.ErrNotFound)
	}
	return core.NewDirectory(types.NewDataID(), entries), nil
}

// Entry 是 List 产生的一项
type Entry struct {
	Name   string
	Inode  types.InodeID
	Kind   types.Kind
	Offset uint64 // 从这一项之后继续读取时传入的 offset
}

// List 从 offset 开始惰性地列出目录
// 位置 0 是 "."，1 是 ".."，2+i 是 entries[i]；"." 和 ".." 都映射到 self
// 每个真实条目的 kind 通过读取其 Inode 得到
// 序列可以重复遍历，只要目录值本身不变，结果就稳定
func (s *Store) List(ctx context.Context, dir *core.Directory, self types.InodeID, offset uint64) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for pos := offset; pos < 2; pos++ {
			name := "."
			if pos == 1 {
				name = ".."
			}
			if !yield(Entry{Name: name, Inode: self, Kind: types.KindDirectory, Offset: pos + 1}, nil) {
				return
			}
		}

		start := uint64(0)
		if offset > 2 {
			start = offset - 2
		}
		for i := start; i < uint64(len(dir.Entries)); i++ {
			e := dir.Entries[i]
			child, err := s.inodes.Get(ctx, e.Inode)
			if err != nil {
				yield(Entry{}, fmt.Errorf("list entry %q: %w", e.Name, err))
				return
			}
			if !yield(Entry{Name: e.Name, Inode: e.Inode, Kind: child.Kind, Offset: i + 3}, nil) {
				return
			}
		}
	}
}
