package inode

import (
	"context"
	"fmt"

	"kvfs/pkg/core"
	"kvfs/pkg/fserr"
	"kvfs/pkg/storage"
	"kvfs/pkg/types"
)

// Table 是 InodeID -> 当前数据记录的间接层
// 无状态，每次调用都直接读写 KV
type Table struct {
	store storage.Store
}

func NewTable(s storage.Store) *Table {
	return &Table{store: s}
}

// Get 读取 Inode，不存在时返回 fserr.ErrNotFound
func (t *Table) Get(ctx context.Context, id types.InodeID) (*core.Inode, error) {
	var ino core.Inode
	if err := storage.GetRecord(ctx, t.store, core.InodeKey(id), &ino); err != nil {
		return nil, err
	}
	return &ino, nil
}

// Put 写入一个新建的 Inode
func (t *Table) Put(ctx context.Context, ino *core.Inode) error {
	return storage.PutRecord(ctx, t.store, ino)
}

// SwapTarget 在同一个 id 下覆盖 target / kind
// 没有 Compare-And-Swap：后写者胜出
func (t *Table) SwapTarget(ctx context.Context, id types.InodeID, target types.DataID, kind types.Kind) error {
	// Inode 必须已存在，swap 不负责创建
	if _, err := t.Get(ctx, id); err != nil {
		return err
	}
	return storage.PutRecord(ctx, t.store, core.NewInode(id, target, kind))
}

// Resolve 按 kind 解引用 target
// 返回 *core.Directory 或 *core.File；符号链接返回 fserr.ErrUnimplemented
func (t *Table) Resolve(ctx context.Context, ino *core.Inode) (core.Record, error) {
	switch ino.Kind {
	case types.KindDirectory:
		var dir core.Directory
		if err := storage.GetRecord(ctx, t.store, core.DirKey(ino.Target), &dir); err != nil {
			return nil, err
		}
		return &dir, nil
	case types.KindFile:
		var f core.File
		if err := storage.GetRecord(ctx, t.store, core.FileKey(ino.Target), &f); err != nil {
			return nil, err
		}
		return &f, nil
	case types.KindSymlink:
		return nil, fmt.Errorf("resolve symlink %s: %w", ino.ID, fserr.ErrUnimplemented)
	default:
		return nil, fserr.Serialization(ino.Key(), fmt.Errorf("unknown kind %d", ino.Kind))
	}
}

// Mutator 根据当前 target 计算并存储下一个版本，返回新的 DataID 和 kind
type Mutator func(ctx context.Context, current *core.Inode) (types.DataID, types.Kind, error)

// UpdateViaIndirection 是所有 COW 变更共用的 "复制-重指向" 原语:
//  1. 读取 Inode 并检查 kind
//  2. mutate 读取当前记录，派生新记录并以新的 DataID 存储
//  3. SwapTarget 把 Inode 指向新记录
//
// 2 和 3 是两次独立的 KV 写入，中间没有原子性
// 并发调用者可能基于同一个旧版本计算，后 swap 的一方会覆盖先 swap 的一方
func (t *Table) UpdateViaIndirection(ctx context.Context, id types.InodeID, expect types.Kind, mutate Mutator) (types.DataID, error) {
	ino, err := t.Get(ctx, id)
	if err != nil {
		return types.DataID{}, err
	}
	if err := CheckKind(ino, expect); err != nil {
		return types.DataID{}, err
	}

	next, kind, err := mutate(ctx, ino)
	if err != nil {
		return types.DataID{}, err
	}

	if err := storage.PutRecord(ctx, t.store, core.NewInode(id, next, kind)); err != nil {
		return types.DataID{}, err
	}
	return next, nil
}

// CheckKind 把 kind 不匹配转换为对应的错误类别
func CheckKind(ino *core.Inode, expect types.Kind) error {
	if ino.Kind == expect {
		return nil
	}
	switch expect {
	case types.KindDirectory:
		return fmt.Errorf("inode %s is %s: %w", ino.ID, ino.Kind, fserr.ErrNotADirectory)
	case types.KindFile:
		if ino.Kind == types.KindDirectory {
			return fmt.Errorf("inode %s: %w", ino.ID, fserr.ErrIsDirectory)
		}
		return fmt.Errorf("inode %s is %s: %w", ino.ID, ino.Kind, fserr.ErrUnimplemented)
	default:
		return fmt.Errorf("inode %s is %s, want %s: %w", ino.ID, ino.Kind, expect, fserr.ErrUnimplemented)
	}
}
