package fs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"kvfs/pkg/storage"
	"kvfs/pkg/storage/memory"
	"kvfs/pkg/types"

	"github.com/stretchr/testify/require"
)

// newBootstrapped 返回一个已初始化根目录的 Dispatcher
func newBootstrapped(t *testing.T, opts ...Option) (*Dispatcher, *memory.Store) {
	t.Helper()
	kv := memory.NewStore()
	d := New(kv, opts...)
	created, err := d.Bootstrap(context.Background())
	require.NoError(t, err)
	require.True(t, created)
	return d, kv
}

// mustCreate 创建文件，失败则终止
func mustCreate(t *testing.T, d *Dispatcher, parent types.InodeID, name string) types.InodeID {
	t.Helper()
	attr, err := d.Create(context.Background(), parent, name)
	require.NoError(t, err)
	return attr.Inode
}

// mustMkdir 创建目录，失败则终止
func mustMkdir(t *testing.T, d *Dispatcher, parent types.InodeID, name string) types.InodeID {
	t.Helper()
	attr, err := d.Mkdir(context.Background(), parent, name)
	require.NoError(t, err)
	return attr.Inode
}

// listNames 列出目录的全部名字
func listNames(t *testing.T, d *Dispatcher, id types.InodeID, offset uint64) []string {
	t.Helper()
	seq, err := d.List(context.Background(), id, offset)
	require.NoError(t, err)

	var names []string
	for e, err := range seq {
		require.NoError(t, err)
		names = append(names, e.Name)
	}
	return names
}

// barrierStore 让前 n 个读取 key 的调用者互相等待
// 用于把并发的 COW 变更卡在 "读到旧目录" 之后、"swap" 之前
type barrierStore struct {
	storage.Store
	key     string
	n       int32
	arrived atomic.Int32
	wg      sync.WaitGroup
}

func newBarrierStore(s storage.Store, key string, n int) *barrierStore {
	b := &barrierStore{Store: s, key: key, n: int32(n)}
	b.wg.Add(n)
	return b
}

func (b *barrierStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.Store.Get(ctx, key)
	if key == b.key && b.arrived.Add(1) <= b.n {
		b.wg.Done()
		b.wg.Wait()
	}
	return data, err
}
