package chunker

import (
	"errors"
	"io"
)

// 块大小的允许范围 (单位: 字节)
const (
	MinSize     = 512
	DefaultSize = 4 * 1024 // 4KB，和内核页大小一致
	MaxSize     = 4 * 1024 * 1024
)

// Chunker 是一个无状态的定长切分工具
// 切点只依赖数据长度，与内容无关，因此第 i 块总是覆盖 [i*size, (i+1)*size)
type Chunker struct {
	size int
}

// NewChunker 创建定长切分器，size 会被限制在 [MinSize, MaxSize]
func NewChunker(size int) *Chunker {
	size = max(MinSize, min(size, MaxSize))
	return &Chunker{size: size}
}

// Size 返回块大小
func (c *Chunker) Size() int { return c.size }

// Split 从 r 中流式读取，每凑满一块就回调一次 fn
// 传给 fn 的切片在下一次回调前会被复用
func (c *Chunker) Split(r io.Reader, fn func(idx uint64, chunk []byte) error) error {
	buf := make([]byte, c.size)
	for idx := uint64(0); ; idx++ {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if cbErr := fn(idx, buf[:n]); cbErr != nil {
				return cbErr
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
