package metrics

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"kvfs/pkg/storage"

	"github.com/prometheus/client_golang/prometheus"
)

// Store 是一个装饰器，为底层 storage.Store 记录每次 KV 往返的耗时和流量
type Store struct {
	backend storage.Store
	latency *prometheus.HistogramVec
	bytes   *prometheus.CounterVec
}

// New 包装 backend，reg 为 nil 时注册到默认 Registry
func New(backend storage.Store, reg prometheus.Registerer) *Store {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	latency := register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kvfs",
			Subsystem: "kv",
			Name:      "op_duration_seconds",
			Help:      "The time spent in a single KV store round-trip.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1},
		},
		[]string{"op", "kind", "result"},
	))

	bytes := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kvfs",
			Subsystem: "kv",
			Name:      "bytes_total",
			Help:      "Bytes transferred to and from the KV store.",
		},
		[]string{"op", "kind"},
	))

	return &Store{backend: backend, latency: latency, bytes: bytes}
}

// register 在重复注册时复用已存在的 Collector
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(C)
		}
		slog.Error("failed to register kv metric", "error", err)
	}
	return c
}

// kind 取 key 的记录类型前缀，保证 label 基数有限
func kind(key string) string {
	k, _, ok := strings.Cut(key, ":")
	if !ok {
		return "unknown"
	}
	return k
}

func (s *Store) observe(op, key string, err error, begin time.Time) {
	result := "success"
	switch {
	case errors.Is(err, storage.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "failure"
	}
	s.latency.WithLabelValues(op, kind(key), result).Observe(time.Since(begin).Seconds())
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	begin := time.Now()
	err := s.backend.Put(ctx, key, value)
	s.observe("put", key, err, begin)
	if err == nil {
		s.bytes.WithLabelValues("put", kind(key)).Add(float64(len(value)))
	}
	return err
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	begin := time.Now()
	data, err := s.backend.Get(ctx, key)
	s.observe("get", key, err, begin)
	if err == nil {
		s.bytes.WithLabelValues("get", kind(key)).Add(float64(len(data)))
	}
	return data, err
}

// Unwrap 返回被装饰的存储，供关闭资源时使用
func (s *Store) Unwrap() storage.Store {
	return s.backend
}
