// pkg/app/app.go
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"kvfs/pkg/config"
	"kvfs/pkg/core"
	"kvfs/pkg/filestore"
	"kvfs/pkg/fs"
	"kvfs/pkg/storage"
	"kvfs/pkg/storage/disk"
	"kvfs/pkg/storage/dsstore"
	"kvfs/pkg/storage/memory"
	"kvfs/pkg/storage/metrics"
	"kvfs/pkg/storage/redisstore"
	"kvfs/pkg/storage/s3"
	"kvfs/pkg/storage/sqlstore"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// App 是整个应用程序的依赖容器
// 一个进程只持有一个 KV 会话，所有组件共享
type App struct {
	Store storage.Store
	FS    *fs.Dispatcher

	// Registry 仅在 metrics.enabled 时非空
	Registry *prometheus.Registry

	closers []io.Closer
}

// NewApp 按 Viper 配置组装存储和 Dispatcher，不知道具体的 CLI 命令
func NewApp(ctx context.Context) (*App, error) {
	// 1. 初始化存储层
	store, closer, err := initStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	a := &App{}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	// 2. 可选的指标装饰
	if viper.GetBool(config.KeyMetricsEnabled) {
		a.Registry = prometheus.NewRegistry()
		store = metrics.New(store, a.Registry)
	}
	a.Store = store

	// 3. 文件系统参数
	alg, err := core.ParseAlgorithm(viper.GetString(config.KeyHashAlgorithm))
	if err != nil {
		return nil, multierr.Append(err, a.Close())
	}

	a.FS = fs.New(store,
		fs.WithLogger(slog.Default()),
		fs.WithMaxFileSize(viper.GetUint64(config.KeyMaxFileSize)),
		fs.WithFileOptions(
			filestore.WithBlockSize(viper.GetInt(config.KeyBlockSize)),
			filestore.WithAlgorithm(alg),
			filestore.WithFetchConcurrency(viper.GetInt(config.KeyFetchConcurrency)),
		),
	)
	return a, nil
}

// Close 释放所有后端连接，错误合并返回
func (a *App) Close() error {
	var err error
	for _, c := range a.closers {
		err = multierr.Append(err, c.Close())
	}
	a.closers = nil
	return err
}

// initStore 根据 storage.type 选择 KV 后端
// 返回的 io.Closer 可能为 nil
func initStore(ctx context.Context) (storage.Store, io.Closer, error) {
	storeType := strings.ToLower(viper.GetString(config.KeyStorageType))
	path := viper.GetString(config.KeyStoragePath)

	switch storeType {
	case "memory":
		return memory.NewStore(), nil, nil

	case "disk", "":
		if path == "" {
			return nil, nil, fmt.Errorf("storage path not set")
		}
		s, err := disk.NewAdapter(path)
		return s, nil, err

	case "leveldb":
		if path == "" {
			return nil, nil, fmt.Errorf("storage path not set")
		}
		s, err := dsstore.NewLevelDB(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case "redis":
		s, err := redisstore.NewStore(redisstore.Config{
			RedisURL: viper.GetString(config.KeyRedisURL),
			Prefix:   viper.GetString(config.KeyRedisPrefix),
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case "s3":
		bucket := viper.GetString(config.KeyS3Bucket)
		if bucket == "" {
			return nil, nil, fmt.Errorf("s3 bucket is required")
		}
		s, err := s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString(config.KeyS3Endpoint),
			Region:          viper.GetString(config.KeyS3Region),
			Bucket:          bucket,
			AccessKeyID:     viper.GetString(config.KeyS3AccessKey),
			SecretAccessKey: viper.GetString(config.KeyS3SecretKey),
		})
		return s, nil, err

	case "sql":
		cfg := sqlstore.Config{
			Driver: viper.GetString(config.KeySQLDriver),
			DSN:    viper.GetString(config.KeySQLDSN),
			Debug:  viper.GetBool(config.KeySQLDebug),
		}
		if cfg.Driver == "sqlite" && !strings.HasPrefix(cfg.DSN, "file:") {
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
				return nil, nil, err
			}
		}
		db, err := sqlstore.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		s := sqlstore.NewWithConn(db)
		return s, s, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", storeType)
	}
}
