package core

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"

	"kvfs/pkg/types"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// 记录的编码选项 (Canonical CBOR)
var encOptions = cbor.EncOptions{
	// 1. 强制 Map Key 排序，同一记录只有一种字节表示
	Sort: cbor.SortCanonical,

	// 2. 禁止不定长编码
	IndefLength: cbor.IndefLengthForbidden,

	// 3. 时间字段统一为 Unix 整数，不生成 Tag 0/1
	Time:    cbor.TimeUnix,
	TimeTag: cbor.EncTagNone,
}

var em, _ = encOptions.EncMode()

var decOptions = cbor.DecOptions{
	// 限制容器大小，防止损坏的记录耗尽内存
	// 一个 4GiB 的文件按 4KiB 切分约 1M 个 Chunk
	MaxArrayElements: 1 << 24,
	MaxMapPairs:      1024,
	MaxNestedLevels:  16,

	IndefLength: cbor.IndefLengthForbidden,
	DupMapKey:   cbor.DupMapKeyEnforcedAPF,
	TimeTag:     cbor.DecTagIgnored,
}

var dm, _ = decOptions.DecMode()

// Algorithm 是内容摘要算法
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"

	DefaultAlgorithm = SHA256
)

// ParseAlgorithm 解析配置中的算法名，空字符串视为默认算法
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "":
		return DefaultAlgorithm, nil
	case SHA256, BLAKE3:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm %q", s)
	}
}

// Checksum 计算数据的 SHA-256 摘要
func Checksum(data []byte) types.Digest {
	return ChecksumWith(DefaultAlgorithm, data)
}

// ChecksumWith 用指定算法计算摘要
func ChecksumWith(alg Algorithm, data []byte) types.Digest {
	if alg == BLAKE3 {
		return blake3.Sum256(data)
	}
	return sha256.Sum256(data)
}

// NewHasher 返回一个流式 Hasher，用于计算整个文件的 contentHash
func NewHasher(alg Algorithm) hash.Hash {
	if alg == BLAKE3 {
		return blake3.New()
	}
	return sha256.New()
}

// SumDigest 把 Hasher 的结果转成 Digest
func SumDigest(h hash.Hash) types.Digest {
	var d types.Digest
	copy(d[:], h.Sum(nil))
	return d
}

// ChunkID 计算 Chunk 的路由身份
// 只依赖 (fileID, idx)，与 Chunk 的内容无关:
// SHA-256(fileID || idx 小端 8 字节) 的前 16 字节
func ChunkID(fileID types.DataID, idx uint64) types.DataID {
	var buf [len(fileID) + 8]byte
	copy(buf[:], fileID[:])
	binary.LittleEndian.PutUint64(buf[len(fileID):], idx)

	sum := sha256.Sum256(buf[:])
	var id types.DataID
	copy(id[:], sum[:len(id)])
	return id
}

// Encode 把记录编码为 Canonical CBOR
func Encode(rec Record) ([]byte, error) {
	data, err := em.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s record: %w", rec.Type(), err)
	}
	return data, nil
}

// PeekType 只读取类型标签，不解码其余字段
// 数据不是 CBOR map 或没有标签时返回错误，调用方可以把它当作原始数据
func PeekType(data []byte) (RecordType, error) {
	var header struct {
		TypeVal RecordType `cbor:"t"`
	}
	if err := dm.Unmarshal(data, &header); err != nil {
		return "", err
	}
	if header.TypeVal == "" {
		return "", fmt.Errorf("record has no type tag")
	}
	return header.TypeVal, nil
}

// Decode 解码记录，并校验类型标签与目标记录一致
func Decode(data []byte, rec Record) error {
	if err := dm.Unmarshal(data, rec); err != nil {
		return err
	}
	if got := rec.storedType(); got != rec.Type() {
		return fmt.Errorf("record type mismatch: want %q, got %q", rec.Type(), got)
	}
	return nil
}
