package memory

import (
	"context"
	"testing"

	"kvfs/pkg/storage"
	"kvfs/pkg/storage/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Get(ctx, "inode:missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	value := []byte("v1")
	require.NoError(t, s.Put(ctx, "k", value))
	value[0] = 'X' // 修改原切片不应影响存储

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	// 覆盖写
	require.NoError(t, s.Put(ctx, "k", []byte("v2")))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_Ownership(t *testing.T) {
	storetest.CheckOwnership(t, NewStore())
}
