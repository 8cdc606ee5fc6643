// Package storetest 是所有 storage.Store 实现共用的契约测试
package storetest

import (
	"bytes"
	"context"
	"testing"

	"kvfs/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CheckOwnership 验证 Put / Get 的切片所有权规则:
// Put 之后修改 value，或修改 Get 返回的切片，都不能影响已存储的值
func CheckOwnership(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	// 1. 同一个缓冲区连续写入多个 key，模拟 chunker 复用缓冲区
	buf := make([]byte, 64)
	keys := []string{"chunk:00aa", "chunk:00bb", "chunk:00cc"}
	for i, key := range keys {
		copy(buf, bytes.Repeat([]byte{byte('a' + i)}, len(buf)))
		require.NoError(t, s.Put(ctx, key, buf))
	}
	for i, key := range keys {
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{byte('a' + i)}, len(buf)), got, key)
	}

	// 2. 修改 Get 的返回值
	got, err := s.Get(ctx, keys[0])
	require.NoError(t, err)
	got[0] = 'X'

	again, err := s.Get(ctx, keys[0])
	require.NoError(t, err)
	assert.Equal(t, byte('a'), again[0], "Get 返回的切片必须归调用方所有")
}
