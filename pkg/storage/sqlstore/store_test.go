package sqlstore

import (
	"context"
	"fmt"
	"testing"

	"kvfs/pkg/storage"
	"kvfs/pkg/storage/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

// setupTestStore 构建隔离的内存 SQLite
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Open(context.Background(), Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)

	s := NewWithConn(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLStore_PutGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "inode:missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, "inode:1", []byte{0x00, 0xa1, 0xff}))
	got, err := s.Get(ctx, "inode:1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xa1, 0xff}, got)
}

func TestSQLStore_Overwrite(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// 1. 同一个 key 写入两次
	require.NoError(t, s.Put(ctx, "inode:1", []byte("v1")))
	require.NoError(t, s.Put(ctx, "inode:1", []byte("v2")))

	// 2. 读到最新值
	got, err := s.Get(ctx, "inode:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	// 3. 数据库中只有一行 (副作用检查)
	var count int64
	require.NoError(t, s.db.Model(&KVRecord{}).Where(&KVRecord{Key: "inode:1"}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestSQLStore_Ownership(t *testing.T) {
	storetest.CheckOwnership(t, setupTestStore(t))
}
