package core

import "kvfs/pkg/types"

// DefaultBlockSize 是文件切分的默认块大小
const DefaultBlockSize = 4096

// File 是一个不可变的文件值，内容由有序的 Chunk 列表组成
type File struct {
	TypeVal     RecordType   `cbor:"t"`
	ID          types.DataID `cbor:"id"`
	ContentHash types.Digest `cbor:"ch"`
	Size        uint64       `cbor:"sz"`
	BlockSize   uint64       `cbor:"bs"`
	Algorithm   Algorithm    `cbor:"a"`
	Chunks      []Chunk      `cbor:"cs"`
}

// NewEmptyFile 创建大小为 0、没有 Chunk、contentHash 为零值的文件
func NewEmptyFile(id types.DataID, blockSize uint64, alg Algorithm) *File {
	return &File{
		TypeVal:   TypeFile,
		ID:        id,
		BlockSize: blockSize,
		Algorithm: alg,
		Chunks:    []Chunk{},
	}
}

func FileKey(id types.DataID) string { return recordKey(TypeFile, id.String()) }

func (f *File) Type() RecordType       { return TypeFile }
func (f *File) Key() string            { return FileKey(f.ID) }
func (f *File) storedType() RecordType { return f.TypeVal }
