package storage

import (
	"context"
	"errors"
	"fmt"

	"kvfs/pkg/core"
	"kvfs/pkg/fserr"
)

// PutRecord 编码并写入一条记录
func PutRecord(ctx context.Context, s Store, rec core.Record) error {
	data, err := core.Encode(rec)
	if err != nil {
		return err
	}
	return PutRaw(ctx, s, rec.Key(), data)
}

// GetRecord 读取并解码一条记录
// 缺失映射为 fserr.ErrNotFound，解码失败映射为 fserr.ErrSerialization
func GetRecord(ctx context.Context, s Store, key string, rec core.Record) error {
	data, err := GetRaw(ctx, s, key)
	if err != nil {
		return err
	}
	if err := core.Decode(data, rec); err != nil {
		return fserr.Serialization(key, err)
	}
	return nil
}

// PutRaw 写入原始字节 (Chunk payload)
func PutRaw(ctx context.Context, s Store, key string, data []byte) error {
	if err := s.Put(ctx, key, data); err != nil {
		return fserr.Transport("put "+key, err)
	}
	return nil
}

// GetRaw 读取原始字节，并把适配器错误归类
func GetRaw(ctx context.Context, s Store, key string) ([]byte, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", key, fserr.ErrNotFound)
	}
	if err != nil {
		return nil, fserr.Transport("get "+key, err)
	}
	return data, nil
}
