package core

import (
	"testing"

	"kvfs/pkg/types"
)

// mockFile 构造一个只有元数据的文件值，不关心 Chunk 内容
func mockFile(t *testing.T, size uint64) *File {
	t.Helper()
	f := NewEmptyFile(types.NewDataID(), DefaultBlockSize, DefaultAlgorithm)
	f.Size = size
	return f
}
