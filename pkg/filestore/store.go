package filestore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"kvfs/pkg/chunker"
	"kvfs/pkg/core"
	"kvfs/pkg/directory"
	"kvfs/pkg/fserr"
	"kvfs/pkg/inode"
	"kvfs/pkg/storage"
	"kvfs/pkg/types"

	"golang.org/x/sync/errgroup"
)

// DefaultFetchConcurrency 读取时并发拉取 Chunk 的上限
const DefaultFetchConcurrency = 8

// Store 负责文件记录和 Chunk 数据
type Store struct {
	store   storage.Store
	inodes  *inode.Table
	dirs    *directory.Store
	chunker *chunker.Chunker
	alg     core.Algorithm
	fetch   int
}

type Option func(*Store)

// WithBlockSize 设置新写入文件的块大小，n <= 0 时保持默认值
func WithBlockSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunker = chunker.NewChunker(n)
		}
	}
}

// WithAlgorithm 设置新写入文件的摘要算法
func WithAlgorithm(alg core.Algorithm) Option {
	return func(s *Store) { s.alg = alg }
}

// WithFetchConcurrency 设置读取时的并发度
func WithFetchConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.fetch = n
		}
	}
}

func New(s storage.Store, inodes *inode.Table, dirs *directory.Store, opts ...Option) *Store {
	fs := &Store{
		store:   s,
		inodes:  inodes,
		dirs:    dirs,
		chunker: chunker.NewChunker(chunker.DefaultSize),
		alg:     core.DefaultAlgorithm,
		fetch:   DefaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// BlockSize 返回新文件使用的块大小
func (s *Store) BlockSize() uint64 { return uint64(s.chunker.Size()) }

// Get 按 DataID 读取文件记录
func (s *Store) Get(ctx context.Context, id types.DataID) (*core.File, error) {
	var f core.File
	if err := storage.GetRecord(ctx, s.store, core.FileKey(id), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load 解引用一个文件 Inode
func (s *Store) Load(ctx context.Context, ino *core.Inode) (*core.File, error) {
	if err := inode.CheckKind(ino, types.KindFile); err != nil {
		return nil, err
	}
	return s.Get(ctx, ino.Target)
}

// -----------------------------------------------------------------------------
// 1. 创建
// -----------------------------------------------------------------------------

// CreateNew 在 parent 下创建一个空文件
// 先写入新的 File 和 Inode，再把 name 链接到 parent
// 链接失败时已写入的记录成为孤儿，不会被回收
func (s *Store) CreateNew(ctx context.Context, parent types.InodeID, name string) (*core.Inode, *core.File, error) {
	f := core.NewEmptyFile(types.NewDataID(), s.BlockSize(), s.alg)
	ino, err := s.createNode(ctx, parent, name, f, f.ID, types.KindFile)
	if err != nil {
		return nil, nil, err
	}
	return ino, f, nil
}

// Mkdir 在 parent 下创建一个空目录
func (s *Store) Mkdir(ctx context.Context, parent types.InodeID, name string) (*core.Inode, *core.Directory, error) {
	dir := core.NewDirectory(types.NewDataID(), nil)
	ino, err := s.createNode(ctx, parent, name, dir, dir.ID, types.KindDirectory)
	if err != nil {
		return nil, nil, err
	}
	return ino, dir, nil
}

// Symlink 在 parent 下创建一个指向 target 的链接
func (s *Store) Symlink(ctx context.Context, parent types.InodeID, name string, target types.InodeID) (*core.Inode, *core.Link, error) {
	link := core.NewLink(types.NewDataID(), target)
	ino, err := s.createNode(ctx, parent, name, link, link.ID, types.KindSymlink)
	if err != nil {
		return nil, nil, err
	}
	return ino, link, nil
}

func (s *Store) createNode(ctx context.Context, parent types.InodeID, name string, rec core.Record, target types.DataID, kind types.Kind) (*core.Inode, error) {
	if err := directory.ValidateName(name); err != nil {
		return nil, err
	}

	// 1. 持久化新记录和新 Inode
	if err := storage.PutRecord(ctx, s.store, rec); err != nil {
		return nil, err
	}
	ino := core.NewInode(types.NewInodeID(), target, kind)
	if err := s.inodes.Put(ctx, ino); err != nil {
		return nil, err
	}

	// 2. 在 parent 下链接 name
	if err := s.Link(ctx, parent, name, ino.ID); err != nil {
		return nil, err
	}
	return ino, nil
}

// Link 通过目录 COW 协议把 name -> child 加入 parent
func (s *Store) Link(ctx context.Context, parent types.InodeID, name string, child types.InodeID) error {
	_, err := s.dirs.Update(ctx, parent, func(d *core.Directory) (*core.Directory, error) {
		return directory.WithNewEntry(d, name, child)
	})
	return err
}

// -----------------------------------------------------------------------------
// 2. 写入
// -----------------------------------------------------------------------------

// Write 用 r 的全部内容替换文件 id 的内容
// 流程: 定长切分 -> 每块计算 ChunkID 和摘要并写入 payload -> 以新的 DataID 存储 File -> swap Inode
func (s *Store) Write(ctx context.Context, id types.InodeID, r io.Reader) (*core.File, error) {
	var next *core.File
	_, err := s.inodes.UpdateViaIndirection(ctx, id, types.KindFile,
		func(ctx context.Context, _ *core.Inode) (types.DataID, types.Kind, error) {
			f, err := s.build(ctx, r)
			if err != nil {
				return types.DataID{}, 0, err
			}
			if err := storage.PutRecord(ctx, s.store, f); err != nil {
				return types.DataID{}, 0, err
			}
			next = f
			return f.ID, types.KindFile, nil
		})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// WriteBytes 是 Write 的便捷形式
func (s *Store) WriteBytes(ctx context.Context, id types.InodeID, data []byte) (*core.File, error) {
	return s.Write(ctx, id, bytes.NewReader(data))
}

// build 切分内容并写入所有 Chunk payload，返回尚未持久化的 File 记录
func (s *Store) build(ctx context.Context, r io.Reader) (*core.File, error) {
	f := core.NewEmptyFile(types.NewDataID(), s.BlockSize(), s.alg)
	whole := core.NewHasher(s.alg)

	err := s.chunker.Split(r, func(idx uint64, data []byte) error {
		// Split 会复用 data，交给 Store 之前必须复制
		data = bytes.Clone(data)
		c := core.NewChunk(s.alg, f.ID, idx, data)
		if err := storage.PutRaw(ctx, s.store, c.Key(), data); err != nil {
			return err
		}
		whole.Write(data)
		f.Chunks = append(f.Chunks, c)
		f.Size += c.Size
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("split content: %w", err)
	}

	if f.Size > 0 {
		f.ContentHash = core.SumDigest(whole)
	}
	return f, nil
}

// -----------------------------------------------------------------------------
// 3. 读取
// -----------------------------------------------------------------------------

// Read 返回 [offset, offset+length) 范围内的数据，超出 size 的部分被截断
// 覆盖到的 Chunk 并发拉取，并逐块校验摘要
func (s *Store) Read(ctx context.Context, f *core.File, offset, length uint64) ([]byte, error) {
	if offset >= f.Size || length == 0 {
		return []byte{}, nil
	}
	end := min(f.Size, offset+length)
	if end < offset { // 溢出
		end = f.Size
	}

	// 1. 计算覆盖的 Chunk 区间，并记录每块的起始 offset
	covered := make([]core.Chunk, 0)
	starts := make([]uint64, 0)
	var pos uint64
	for _, c := range f.Chunks {
		cStart, cEnd := pos, pos+c.Size
		pos = cEnd
		if cEnd <= offset {
			continue
		}
		if cStart >= end {
			break
		}
		covered = append(covered, c)
		starts = append(starts, cStart)
	}

	// 2. 并发拉取并校验
	payloads := make([][]byte, len(covered))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetch)
	for i, c := range covered {
		g.Go(func() error {
			data, err := s.fetchChunk(gctx, f.Algorithm, c)
			if err != nil {
				return err
			}
			payloads[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 3. 拼接请求的范围
	out := make([]byte, 0, end-offset)
	for i, data := range payloads {
		lo := max(offset, starts[i]) - starts[i]
		hi := min(end, starts[i]+uint64(len(data))) - starts[i]
		out = append(out, data[lo:hi]...)
	}
	return out, nil
}

// ReadAll 读取整个文件
func (s *Store) ReadAll(ctx context.Context, f *core.File) ([]byte, error) {
	return s.Read(ctx, f, 0, f.Size)
}

func (s *Store) fetchChunk(ctx context.Context, alg core.Algorithm, c core.Chunk) ([]byte, error) {
	data, err := storage.GetRaw(ctx, s.store, c.Key())
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != c.Size || core.ChecksumWith(alg, data) != c.Hash {
		return nil, fmt.Errorf("chunk %d of file %s: %w", c.Idx, c.FileID, fserr.ErrIntegrity)
	}
	return data, nil
}
