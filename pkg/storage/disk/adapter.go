package disk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kvfs/pkg/storage"
)

// Adapter 把每个 key 存成一个本地文件
type Adapter struct {
	rootPath string // 比如: /home/user/.kvfs/data
}

// NewAdapter 创建一个新的磁盘存储适配器
func NewAdapter(root string) (*Adapter, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage dir: %w", err)
	}
	return &Adapter{rootPath: root}, nil
}

// layout 返回 key 对应的物理路径
// 策略：记录类型作为一级目录，id 前 2 个字符作为二级目录 (Sharding)
// Example: "dir:aabbcc..." -> root/dir/aa/bbcc...
func (s *Adapter) layout(key string) (string, error) {
	kind, id, ok := strings.Cut(key, ":")
	if !ok || kind == "" || id == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	if len(id) <= 2 {
		return filepath.Join(s.rootPath, kind, id), nil
	}
	return filepath.Join(s.rootPath, kind, id[:2], id[2:]), nil
}

// Put 覆盖写入
// 先写临时文件再 Rename，读者要么看到旧值，要么看到完整的新值
func (s *Adapter) Put(ctx context.Context, key string, value []byte) error {
	targetPath, err := s.layout(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(targetPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(dir, ".temp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(value); err != nil {
		tempFile.Close()
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	return os.Rename(tempFile.Name(), targetPath)
}

func (s *Adapter) Get(ctx context.Context, key string) ([]byte, error) {
	targetPath, err := s.layout(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(targetPath)
	if os.IsNotExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
