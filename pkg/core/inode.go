package core

import "kvfs/pkg/types"

// Inode 是稳定身份到当前数据记录的间接层
// ID 永远不变，Target / Kind 在每次 COW 变更时整体替换
type Inode struct {
	TypeVal RecordType    `cbor:"t"`
	ID      types.InodeID `cbor:"id"`
	Target  types.DataID  `cbor:"tg"`
	Kind    types.Kind    `cbor:"k"`
}

func NewInode(id types.InodeID, target types.DataID, kind types.Kind) *Inode {
	return &Inode{
		TypeVal: TypeInode,
		ID:      id,
		Target:  target,
		Kind:    kind,
	}
}

func InodeKey(id types.InodeID) string { return recordKey(TypeInode, id.String()) }

func (i *Inode) Type() RecordType       { return TypeInode }
func (i *Inode) Key() string            { return InodeKey(i.ID) }
func (i *Inode) storedType() RecordType { return i.TypeVal }
