package dsstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"kvfs/pkg/storage"

	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	leveldb "github.com/ipfs/go-ds-leveldb"
)

// Store 把 KV 契约映射到任意 go-datastore 实现
type Store struct {
	d ds.Datastore
}

// New 包装一个已有的 Datastore
func New(d ds.Datastore) *Store {
	return &Store{d: d}
}

// NewInMemory 返回线程安全的 MapDatastore
func NewInMemory() *Store {
	return New(dssync.MutexWrap(ds.NewMapDatastore()))
}

// NewLevelDB 打开 (或创建) path 处的 LevelDB，path 为空时使用内存后端
func NewLevelDB(path string) (*Store, error) {
	d, err := leveldb.NewDatastore(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %q: %w", path, err)
	}
	return New(d), nil
}

// dsKey: "dir:aabb" -> "/dir/aabb"
func dsKey(key string) ds.Key {
	return ds.NewKey(strings.Replace(key, ":", "/", 1))
}

// Put 复制 value 后写入，MapDatastore 会直接持有传入的切片
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	return s.d.Put(ctx, dsKey(key), bytes.Clone(value))
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.d.Get(ctx, dsKey(key))
	if errors.Is(err, ds.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	// MapDatastore 返回的是内部切片
	return bytes.Clone(data), nil
}

func (s *Store) Close() error {
	return s.d.Close()
}
