package metrics

import (
	"context"
	"testing"

	"kvfs/pkg/storage"
	"kvfs/pkg/storage/memory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsStore_Observes(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(memory.NewStore(), reg)
	ctx := context.Background()

	// 1. 透传语义不变
	require.NoError(t, s.Put(ctx, "dir:aa", []byte("12345")))
	got, err := s.Get(ctx, "dir:aa")
	require.NoError(t, err)
	assert.Equal(t, []byte("12345"), got)

	_, err = s.Get(ctx, "inode:missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// 2. 流量统计
	assert.Equal(t, float64(5), testutil.ToFloat64(s.bytes.WithLabelValues("put", "dir")))
	assert.Equal(t, float64(5), testutil.ToFloat64(s.bytes.WithLabelValues("get", "dir")))

	// 3. 三个序列: put/dir/success, get/dir/success, get/inode/not_found
	assert.Equal(t, 3, testutil.CollectAndCount(s.latency))
}

func TestMetricsStore_ReRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(memory.NewStore(), reg)
	b := New(memory.NewStore(), reg)

	// 第二次注册复用第一次的 Collector，不会 panic
	assert.Same(t, a.latency, b.latency)
	assert.Same(t, a.bytes, b.bytes)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "chunk", kind("chunk:abcd"))
	assert.Equal(t, "unknown", kind("nocolon"))
}
