package rpc

import (
	"kvfs/pkg/core"
	"kvfs/pkg/directory"
	"kvfs/pkg/types"
)

// 请求与响应
// id 以 16 字节的 byte string 传输

type Empty struct{}

type BootstrapResponse struct {
	Created bool `cbor:"c"`
}

type InodeRequest struct {
	Inode types.InodeID `cbor:"i"`
}

type InodeResponse struct {
	Inode types.InodeID `cbor:"i"`
}

type NameRequest struct {
	Parent types.InodeID `cbor:"p"`
	Name   string        `cbor:"n"`
}

type AttrResponse struct {
	Attr core.Attr `cbor:"a"`
}

// ListRequest Limit 为 0 表示一次返回全部条目
type ListRequest struct {
	Inode  types.InodeID `cbor:"i"`
	Offset uint64        `cbor:"o"`
	Limit  uint32        `cbor:"l"`
}

// ListResponse Done 表示目录已经读完
type ListResponse struct {
	Entries []directory.Entry `cbor:"e"`
	Done    bool              `cbor:"d"`
}

type ReadRequest struct {
	Inode  types.InodeID `cbor:"i"`
	Offset uint64        `cbor:"o"`
	Length uint64        `cbor:"l"`
}

type ReadResponse struct {
	Data []byte `cbor:"d"`
}

type WriteRequest struct {
	Inode  types.InodeID `cbor:"i"`
	Offset uint64        `cbor:"o"`
	Data   []byte        `cbor:"d"`
}

type WriteResponse struct {
	Written int `cbor:"w"`
}

type TruncateRequest struct {
	Inode types.InodeID `cbor:"i"`
	Size  uint64        `cbor:"s"`
}

type SymlinkRequest struct {
	Parent types.InodeID `cbor:"p"`
	Name   string        `cbor:"n"`
	Target types.InodeID `cbor:"t"`
}

type RenameRequest struct {
	Parent    types.InodeID `cbor:"p"`
	Name      string        `cbor:"n"`
	NewParent types.InodeID `cbor:"np"`
	NewName   string        `cbor:"nn"`
}

type ResolveRequest struct {
	Path string `cbor:"p"`
}
