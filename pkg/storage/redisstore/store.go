package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kvfs/pkg/storage"

	"github.com/redis/go-redis/v9"
)

// Store 把 KV 契约映射到 Redis 的 GET / SET
type Store struct {
	client *redis.Client
	prefix string
}

type Config struct {
	RedisURL string // 标准连接字符串: redis://<user>:<password>@<host>:<port>/<db>
	Prefix   string // 可选的 key 前缀，多个文件系统共用一个库时使用
}

// NewStore 建立连接并做 Fail-fast 检查
func NewStore(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// 所有调用共享同一条连接，单次往返之间互斥
	opts.PoolSize = 1

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{client: client, prefix: cfg.Prefix}, nil
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
