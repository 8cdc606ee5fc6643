package core

import "kvfs/pkg/types"

// DirEntry 是目录中的一条 name -> inode 映射
type DirEntry struct {
	Name  string        `cbor:"n"`
	Inode types.InodeID `cbor:"i"`
}

// Directory 是一个不可变的有序目录值
// 一旦以某个 DataID 存入 KV 就不再修改，任何变更都产生新的 DataID
type Directory struct {
	TypeVal RecordType   `cbor:"t"`
	ID      types.DataID `cbor:"id"`
	Entries []DirEntry   `cbor:"e"`
}

// NewDirectory 创建目录值，entries 会被复制
func NewDirectory(id types.DataID, entries []DirEntry) *Directory {
	cp := make([]DirEntry, len(entries))
	copy(cp, entries)
	return &Directory{
		TypeVal: TypeDirectory,
		ID:      id,
		Entries: cp,
	}
}

func DirKey(id types.DataID) string { return recordKey(TypeDirectory, id.String()) }

func (d *Directory) Type() RecordType       { return TypeDirectory }
func (d *Directory) Key() string            { return DirKey(d.ID) }
func (d *Directory) storedType() RecordType { return d.TypeVal }

// Find 按名字查找条目
func (d *Directory) Find(name string) (DirEntry, bool) {
	for _, e := range d.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return DirEntry{}, false
}
