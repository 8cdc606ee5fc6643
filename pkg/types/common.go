// pkg/types/common.go
package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// InodeID 是命名空间对象的永久身份 (128 bit)
// 一旦分配就不会再改变，也不会被复用
type InodeID [16]byte

// DataID 是底层记录 (Directory / File / Link) 的身份
// 每次 COW 变更都会产生一个新的 DataID
type DataID [16]byte

// Digest 是 256 bit 的内容摘要
type Digest [32]byte

// RootInode 是保留的根目录 Inode，数值为 1
var RootInode = InodeIDFromUint64(1)

// NewInodeID 生成一个随机的 InodeID
func NewInodeID() InodeID { return InodeID(uuid.New()) }

// NewDataID 生成一个随机的 DataID
func NewDataID() DataID { return DataID(uuid.New()) }

// InodeIDFromUint64 用大端序把一个整数放进低 8 字节
func InodeIDFromUint64(n uint64) InodeID {
	var id InodeID
	binary.BigEndian.PutUint64(id[8:], n)
	return id
}

func (id InodeID) String() string { return hex.EncodeToString(id[:]) }
func (id InodeID) IsZero() bool   { return id == InodeID{} }

// Ino 把 128 bit 的身份折叠成内核使用的 64 bit inode number
// 根目录恰好映射为 1
// 折叠不是单射: 两个不同的 InodeID 可能得到相同的 Ino。随机 uuid 下碰撞概率约为 n²/2^65，
// 但 go-fuse 按 Ino 复用内核侧 Inode，一旦碰撞两个文件会被当成同一个
func (id InodeID) Ino() uint64 {
	return binary.BigEndian.Uint64(id[:8]) ^ binary.BigEndian.Uint64(id[8:])
}

func (id DataID) String() string { return hex.EncodeToString(id[:]) }
func (id DataID) IsZero() bool   { return id == DataID{} }

func (d Digest) String() string { return hex.EncodeToString(d[:]) }
func (d Digest) IsZero() bool   { return d == Digest{} }

// ParseInodeID 解析 32 位 Hex 字符串
func ParseInodeID(s string) (InodeID, error) {
	var id InodeID
	if err := decodeHex(s, id[:]); err != nil {
		return InodeID{}, fmt.Errorf("invalid inode id %q: %w", s, err)
	}
	return id, nil
}

// ParseDataID 解析 32 位 Hex 字符串
func ParseDataID(s string) (DataID, error) {
	var id DataID
	if err := decodeHex(s, id[:]); err != nil {
		return DataID{}, fmt.Errorf("invalid data id %q: %w", s, err)
	}
	return id, nil
}

func decodeHex(s string, dst []byte) error {
	if len(s) != hex.EncodedLen(len(dst)) {
		return fmt.Errorf("want %d hex chars, got %d", hex.EncodedLen(len(dst)), len(s))
	}
	_, err := hex.Decode(dst, []byte(s))
	return err
}
