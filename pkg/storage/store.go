package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("key not found")
)

// Store 是外部 KV 存储的最小契约
// 实现可以是内存、Redis、本地磁盘、S3、SQL 或 LevelDB
//
// 单次 Put / Get 是原子的；由多次往返组成的协议不加锁
//
// 切片所有权: Put 返回后调用方可以继续修改 value，实现不得保留它；
// Get 返回的切片归调用方所有，修改它不会影响已存储的值
type Store interface {
	// Put 覆盖写入 key 对应的值
	Put(ctx context.Context, key string, value []byte) error

	// Get 读取 key 对应的值，不存在时返回 ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
}
