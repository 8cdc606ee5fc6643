package fserr

import (
	"errors"
	"fmt"
	"syscall"
)

// 元数据引擎对外暴露的错误分类
// 上层通过 errors.Is 判断类别，传输层负责映射为 errno / gRPC code
var (
	ErrNotFound      = errors.New("no such entry")
	ErrAlreadyExists = errors.New("entry already exists")
	ErrNotADirectory = errors.New("not a directory")
	ErrIsDirectory   = errors.New("is a directory")
	ErrNotEmpty      = errors.New("directory not empty")
	ErrUnimplemented = errors.New("operation not supported")
	ErrInvalidName   = errors.New("invalid entry name")
	ErrFileTooLarge  = errors.New("file too large")

	// ErrTransport 是唯一适合调用方重试的类别
	ErrTransport     = errors.New("kv transport error")
	ErrSerialization = errors.New("record does not decode")
	ErrIntegrity     = errors.New("chunk integrity check failed")
)

// Transport 把 KV 往返失败包装为 ErrTransport，同时保留原始错误
func Transport(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

// Serialization 把解码失败包装为 ErrSerialization
func Serialization(key string, err error) error {
	return fmt.Errorf("decode %s: %w: %w", key, ErrSerialization, err)
}

// Errno 把错误映射为内核 errno，供 FUSE 等传输层使用
func Errno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ErrAlreadyExists):
		return syscall.EEXIST
	case errors.Is(err, ErrNotADirectory):
		return syscall.ENOTDIR
	case errors.Is(err, ErrIsDirectory):
		return syscall.EISDIR
	case errors.Is(err, ErrNotEmpty):
		return syscall.ENOTEMPTY
	case errors.Is(err, ErrUnimplemented):
		return syscall.EOPNOTSUPP
	case errors.Is(err, ErrInvalidName):
		return syscall.EINVAL
	case errors.Is(err, ErrFileTooLarge):
		return syscall.EFBIG
	default:
		// Transport / Serialization / Integrity 以及未知错误
		return syscall.EIO
	}
}
