package dsstore

import (
	"context"
	"testing"

	"kvfs/pkg/storage"
	"kvfs/pkg/storage/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSKey(t *testing.T) {
	assert.Equal(t, "/dir/aabb", dsKey("dir:aabb").String())
	assert.Equal(t, "/chunk/00ff", dsKey("chunk:00ff").String())
}

func TestStore_Backends(t *testing.T) {
	ldb, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)

	backends := map[string]*Store{
		"map":     NewInMemory(),
		"leveldb": ldb,
	}

	for name, s := range backends {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			ctx := context.Background()

			_, err := s.Get(ctx, "inode:missing")
			assert.ErrorIs(t, err, storage.ErrNotFound)

			require.NoError(t, s.Put(ctx, "inode:1", []byte("v1")))
			require.NoError(t, s.Put(ctx, "inode:1", []byte("v2")))

			got, err := s.Get(ctx, "inode:1")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)

			storetest.CheckOwnership(t, s)
		})
	}
}

func TestLevelDB_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "file:abcd", []byte("persisted")))
	require.NoError(t, s.Close())

	// 重新打开后数据仍在
	s, err = NewLevelDB(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "file:abcd")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}
