package storage_test

import (
	"context"
	"errors"
	"testing"

	"kvfs/pkg/core"
	"kvfs/pkg/fserr"
	"kvfs/pkg/storage"
	"kvfs/pkg/storage/memory"
	"kvfs/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore 模拟 KV 往返失败
type brokenStore struct{}

func (brokenStore) Put(ctx context.Context, key string, value []byte) error {
	return errors.New("connection reset")
}
func (brokenStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("connection reset")
}

func TestRecords_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	ino := core.NewInode(types.NewInodeID(), types.NewDataID(), types.KindDirectory)
	require.NoError(t, storage.PutRecord(ctx, s, ino))

	var got core.Inode
	require.NoError(t, storage.GetRecord(ctx, s, ino.Key(), &got))
	assert.Equal(t, *ino, got)
}

func TestRecords_ErrorClassification(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	// 1. 缺失
	var dir core.Directory
	err := storage.GetRecord(ctx, s, core.DirKey(types.NewDataID()), &dir)
	assert.ErrorIs(t, err, fserr.ErrNotFound)

	// 2. 无法解码
	require.NoError(t, s.Put(ctx, "dir:garbage", []byte{0xff}))
	err = storage.GetRecord(ctx, s, "dir:garbage", &dir)
	assert.ErrorIs(t, err, fserr.ErrSerialization)

	// 3. 传输失败
	err = storage.GetRecord(ctx, brokenStore{}, "dir:x", &dir)
	assert.ErrorIs(t, err, fserr.ErrTransport)
	err = storage.PutRaw(ctx, brokenStore{}, "chunk:x", []byte("data"))
	assert.ErrorIs(t, err, fserr.ErrTransport)
}
