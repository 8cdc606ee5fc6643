package rpc

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
)

// CodecName 是 gRPC content-subtype，客户端需要带上 grpc.CallContentSubtype(CodecName)
const CodecName = "cbor"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(fmt.Sprintf("rpc: init cbor encoder: %v", err))
	}
	if decMode, err = (cbor.DecOptions{
		MaxArrayElements: 1 << 20,
		MaxMapPairs:      1024,
		MaxNestedLevels:  16,
	}).DecMode(); err != nil {
		panic(fmt.Sprintf("rpc: init cbor decoder: %v", err))
	}

	encoding.RegisterCodec(Codec{})
}

// Codec 用 CBOR 编码请求和响应，与 KV 中的记录使用同一种格式
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

func (Codec) Name() string {
	return CodecName
}
