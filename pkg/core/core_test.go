package core

import (
	"bytes"
	"testing"

	"kvfs/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 1. 摘要与 ChunkID
// -----------------------------------------------------------------------------

func TestChecksum_Deterministic(t *testing.T) {
	data := []byte("hello kvfs")

	assert.Equal(t, Checksum(data), Checksum(data), "相同输入必须得到相同摘要")

	// 改动任意一个字节，摘要都应变化
	for i := range data {
		mutated := bytes.Clone(data)
		mutated[i] ^= 0x01
		assert.NotEqual(t, Checksum(data), Checksum(mutated), "byte %d", i)
	}
}

func TestChecksum_KnownVector(t *testing.T) {
	// SHA-256("")
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Checksum(nil).String())
}

func TestChecksumWith_Algorithms(t *testing.T) {
	data := []byte("same bytes")
	sha := ChecksumWith(SHA256, data)
	b3 := ChecksumWith(BLAKE3, data)

	assert.NotEqual(t, sha, b3)
	assert.Equal(t, Checksum(data), sha, "默认算法是 sha256")

	// 流式 Hasher 与一次性计算结果一致
	for _, alg := range []Algorithm{SHA256, BLAKE3} {
		h := NewHasher(alg)
		h.Write(data[:4])
		h.Write(data[4:])
		assert.Equal(t, ChecksumWith(alg, data), SumDigest(h), string(alg))
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		input   string
		want    Algorithm
		wantErr bool
	}{
		{"", SHA256, false},
		{"sha256", SHA256, false},
		{"blake3", BLAKE3, false},
		{"md5", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChunkID_Purity(t *testing.T) {
	f := types.NewDataID()

	assert.Equal(t, ChunkID(f, 3), ChunkID(f, 3))
	assert.NotEqual(t, ChunkID(f, 3), ChunkID(f, 4))
	assert.NotEqual(t, ChunkID(f, 0), ChunkID(types.NewDataID(), 0))

	// ChunkID 与内容无关，Hash 只与内容有关
	a := NewChunk(SHA256, f, 7, []byte("aaaa"))
	b := NewChunk(SHA256, f, 7, []byte("bbbb"))
	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.Hash, b.Hash)

	other := NewChunk(SHA256, types.NewDataID(), 9, []byte("aaaa"))
	assert.Equal(t, a.Hash, other.Hash)
	assert.NotEqual(t, a.ID, other.ID)
}

// -----------------------------------------------------------------------------
// 2. 记录编解码
// -----------------------------------------------------------------------------

func TestDirectory_RoundTrip(t *testing.T) {
	dir := NewDirectory(types.NewDataID(), []DirEntry{
		{Name: "b.txt", Inode: types.NewInodeID()},
		{Name: "a.txt", Inode: types.NewInodeID()},
	})

	data, err := Encode(dir)
	require.NoError(t, err)

	var got Directory
	require.NoError(t, Decode(data, &got))
	assert.Equal(t, dir.ID, got.ID)
	assert.Equal(t, dir.Entries, got.Entries, "条目必须保持存储顺序")
	assert.Equal(t, "dir:"+dir.ID.String(), got.Key())
}

func TestFile_RoundTrip(t *testing.T) {
	id := types.NewDataID()
	f := NewEmptyFile(id, DefaultBlockSize, BLAKE3)
	f.Chunks = append(f.Chunks, NewChunk(BLAKE3, id, 0, []byte("payload")))
	f.Size = 7
	f.ContentHash = ChecksumWith(BLAKE3, []byte("payload"))

	data, err := Encode(f)
	require.NoError(t, err)

	var got File
	require.NoError(t, Decode(data, &got))
	assert.Equal(t, f.ContentHash, got.ContentHash)
	assert.Equal(t, uint64(7), got.Size)
	assert.Equal(t, BLAKE3, got.Algorithm)
	require.Len(t, got.Chunks, 1)
	assert.Equal(t, f.Chunks[0], got.Chunks[0])
}

func TestEncode_Canonical(t *testing.T) {
	ino := NewInode(types.NewInodeID(), types.NewDataID(), types.KindFile)

	b1, err := Encode(ino)
	require.NoError(t, err)

	var decoded Inode
	require.NoError(t, Decode(b1, &decoded))
	b2, err := Encode(&decoded)
	require.NoError(t, err)

	assert.Equal(t, b1, b2, "同一记录的编码必须唯一")
	assert.Equal(t, *ino, decoded)
}

func TestDecode_TypeMismatch(t *testing.T) {
	data, err := Encode(NewLink(types.NewDataID(), types.RootInode))
	require.NoError(t, err)

	var dir Directory
	err = Decode(data, &dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "type mismatch")

	assert.Error(t, Decode([]byte{0xff, 0x00}, &dir), "损坏的数据必须报错")
}

func TestPeekType(t *testing.T) {
	data, err := Encode(NewInode(types.RootInode, types.NewDataID(), types.KindDirectory))
	require.NoError(t, err)

	got, err := PeekType(data)
	require.NoError(t, err)
	assert.Equal(t, TypeInode, got)

	_, err = PeekType([]byte("raw chunk bytes"))
	assert.Error(t, err)

	empty, err := em.Marshal(map[string]int{"x": 1})
	require.NoError(t, err)
	_, err = PeekType(empty)
	assert.Error(t, err, "没有类型标签")
}

// -----------------------------------------------------------------------------
// 3. 属性映射
// -----------------------------------------------------------------------------

func TestAttr_Mapping(t *testing.T) {
	dir := NewDirectory(types.NewDataID(), []DirEntry{{Name: "x", Inode: types.NewInodeID()}})
	da := DirAttr(types.RootInode, dir)
	assert.Equal(t, types.KindDirectory, da.Kind)
	assert.Equal(t, uint32(3), da.Nlink)
	assert.Equal(t, DirPerm, da.Perm)
	assert.Equal(t, uint64(0), da.Size)

	f := mockFile(t, 4097)
	fa := FileAttr(types.NewInodeID(), f)
	assert.Equal(t, uint64(4097), fa.Size)
	assert.Equal(t, uint64(2), fa.Blocks)
	assert.Equal(t, uint32(1), fa.Nlink)
	assert.Equal(t, FilePerm, fa.Perm)
	assert.Equal(t, DefaultUID, fa.UID)
}
