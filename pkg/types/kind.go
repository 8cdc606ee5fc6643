package types

import "fmt"

// Kind 是 Inode 指向的对象类型，一个封闭的枚举
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindDirectory
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) IsValid() bool {
	return k == KindFile || k == KindDirectory || k == KindSymlink
}
