package core

// RecordType 是写入 KV 的记录类型，同时也是 Key 的前缀
type RecordType string

const (
	TypeInode     RecordType = "inode"
	TypeDirectory RecordType = "dir"
	TypeFile      RecordType = "file"
	TypeLink      RecordType = "link"
	TypeChunk     RecordType = "chunk" // 原始数据，不经过 CBOR
)

// Record 是所有 CBOR 编码记录的通用接口
type Record interface {
	// Type 返回记录类型
	Type() RecordType

	// Key 返回记录在 KV 中的位置，例如 "dir:<hex>"
	Key() string

	// storedType 返回解码得到的类型标签 (字段 "t")
	storedType() RecordType
}

func recordKey(t RecordType, hexID string) string {
	return string(t) + ":" + hexID
}
