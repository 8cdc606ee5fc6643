package core

import "kvfs/pkg/types"

// Link 是符号链接记录，Target 指向另一个 Inode
// 目标解析尚未实现，见 fs.Dispatcher.Readlink
type Link struct {
	TypeVal RecordType    `cbor:"t"`
	ID      types.DataID  `cbor:"id"`
	Target  types.InodeID `cbor:"tg"`
}

func NewLink(id types.DataID, target types.InodeID) *Link {
	return &Link{
		TypeVal: TypeLink,
		ID:      id,
		Target:  target,
	}
}

func LinkKey(id types.DataID) string { return recordKey(TypeLink, id.String()) }

func (l *Link) Type() RecordType       { return TypeLink }
func (l *Link) Key() string            { return LinkKey(l.ID) }
func (l *Link) storedType() RecordType { return l.TypeVal }
