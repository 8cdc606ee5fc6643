package core

import "kvfs/pkg/types"

// Chunk 描述文件中的一个定长数据块
// ID 负责定位 (由 fileID + idx 推导)，Hash 负责校验内容，两者互相独立
type Chunk struct {
	FileID types.DataID `cbor:"f"`
	Idx    uint64       `cbor:"x"`
	ID     types.DataID `cbor:"id"`
	Size   uint64       `cbor:"s"`
	Hash   types.Digest `cbor:"h"`
}

// NewChunk 为第 idx 块数据生成描述，payload 本身另行写入 ChunkKey(ID)
func NewChunk(alg Algorithm, fileID types.DataID, idx uint64, data []byte) Chunk {
	return Chunk{
		FileID: fileID,
		Idx:    idx,
		ID:     ChunkID(fileID, idx),
		Size:   uint64(len(data)),
		Hash:   ChecksumWith(alg, data),
	}
}

func ChunkKey(id types.DataID) string { return recordKey(TypeChunk, id.String()) }

func (c Chunk) Key() string { return ChunkKey(c.ID) }
