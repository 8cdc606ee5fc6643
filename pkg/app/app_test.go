package app

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"kvfs/pkg/config"
	"kvfs/pkg/storage/disk"
	"kvfs/pkg/storage/dsstore"
	"kvfs/pkg/storage/memory"
	"kvfs/pkg/storage/metrics"
	"kvfs/pkg/storage/sqlstore"
	"kvfs/pkg/types"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitStore_Disk(t *testing.T) {
	viper.Reset()
	viper.Set(config.KeyStorageType, "disk")
	viper.Set(config.KeyStoragePath, filepath.Join(t.TempDir(), "data"))

	store, closer, err := initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &disk.Adapter{}, store)
	assert.Nil(t, closer)
}

func TestInitStore_LevelDB(t *testing.T) {
	viper.Reset()
	viper.Set(config.KeyStorageType, "leveldb")
	viper.Set(config.KeyStoragePath, filepath.Join(t.TempDir(), "ldb"))

	store, closer, err := initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &dsstore.Store{}, store)
	require.NotNil(t, closer)
	assert.NoError(t, closer.Close())
}

func TestInitStore_SQLite(t *testing.T) {
	viper.Reset()
	viper.Set(config.KeyStorageType, "sql")
	viper.Set(config.KeySQLDriver, "sqlite")
	viper.Set(config.KeySQLDSN, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))

	store, closer, err := initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &sqlstore.Store{}, store)
	assert.NoError(t, closer.Close())
}

func TestInitStore_S3_MissingBucket(t *testing.T) {
	viper.Reset()
	viper.Set(config.KeyStorageType, "s3")

	store, _, err := initStore(context.Background())
	assert.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "bucket is required")
}

func TestInitStore_UnknownType(t *testing.T) {
	viper.Reset()
	viper.Set(config.KeyStorageType, "ftp")

	store, _, err := initStore(context.Background())
	assert.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "unsupported storage type")
}

func TestNewApp_MemoryWithMetrics(t *testing.T) {
	viper.Reset()
	viper.Set(config.KeyStorageType, "memory")
	viper.Set(config.KeyMetricsEnabled, true)
	viper.Set(config.KeyHashAlgorithm, "blake3")
	viper.Set(config.KeyBlockSize, 1024)

	ctx := context.Background()
	a, err := NewApp(ctx)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Registry)
	wrapped, ok := a.Store.(*metrics.Store)
	require.True(t, ok)
	assert.IsType(t, &memory.Store{}, wrapped.Unwrap())

	_, err = a.FS.Bootstrap(ctx)
	require.NoError(t, err)
	attr, err := a.FS.Attributes(ctx, types.RootInode)
	require.NoError(t, err)
	assert.Equal(t, types.KindDirectory, attr.Kind)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewApp_BadHash(t *testing.T) {
	viper.Reset()
	viper.Set(config.KeyStorageType, "memory")
	viper.Set(config.KeyHashAlgorithm, "md5")

	_, err := NewApp(context.Background())
	assert.ErrorContains(t, err, "unsupported hash algorithm")
}
