package directory

import (
	"context"
	"strings"
	"testing"

	"kvfs/pkg/core"
	"kvfs/pkg/fserr"
	"kvfs/pkg/inode"
	"kvfs/pkg/storage/memory"
	"kvfs/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 辅助工具
// -----------------------------------------------------------------------------

type fixture struct {
	dirs   *Store
	inodes *inode.Table
	self   types.InodeID
}

// newFixture 创建一个目录 Inode，并按顺序放入给定名字的文件
func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	kv := memory.NewStore()
	inodes := inode.NewTable(kv)
	dirs := NewStore(kv, inodes)

	dir := core.NewDirectory(types.NewDataID(), nil)
	for _, name := range names {
		child := core.NewInode(types.NewInodeID(), types.NewDataID(), types.KindFile)
		require.NoError(t, inodes.Put(ctx, child))
		var err error
		dir, err = WithNewEntry(dir, name, child.ID)
		require.NoError(t, err)
	}
	require.NoError(t, dirs.Put(ctx, dir))

	self := core.NewInode(types.NewInodeID(), dir.ID, types.KindDirectory)
	require.NoError(t, inodes.Put(ctx, self))
	return &fixture{dirs: dirs, inodes: inodes, self: self.ID}
}

func (f *fixture) names(t *testing.T, offset uint64) []string {
	t.Helper()
	_, dir, err := f.dirs.LoadByInode(context.Background(), f.self)
	require.NoError(t, err)

	var out []string
	for e, err := range f.dirs.List(context.Background(), dir, f.self, offset) {
		require.NoError(t, err)
		out = append(out, e.Name)
	}
	return out
}

// -----------------------------------------------------------------------------
// 1. 纯函数
// -----------------------------------------------------------------------------

func TestWithNewEntry_Uniqueness(t *testing.T) {
	d := core.NewDirectory(types.NewDataID(), nil)

	d1, err := WithNewEntry(d, "x", types.NewInodeID())
	require.NoError(t, err)
	assert.NotEqual(t, d.ID, d1.ID, "新目录值必须使用新的 DataID")
	assert.Empty(t, d.Entries, "原目录值不可被修改")

	_, err = WithNewEntry(d1, "x", types.NewInodeID())
	assert.ErrorIs(t, err, fserr.ErrAlreadyExists)
}

func TestWithoutEntry(t *testing.T) {
	d := core.NewDirectory(types.NewDataID(), []core.DirEntry{
		{Name: "a", Inode: types.NewInodeID()},
		{Name: "b", Inode: types.NewInodeID()},
		{Name: "c", Inode: types.NewInodeID()},
	})

	d1, err := WithoutEntry(d, "b")
	require.NoError(t, err)
	require.Len(t, d1.Entries, 2)
	assert.Equal(t, "a", d1.Entries[0].Name)
	assert.Equal(t, "c", d1.Entries[1].Name)
	assert.Len(t, d.Entries, 3)

	_, err = WithoutEntry(d1, "b")
	assert.ErrorIs(t, err, fserr.ErrNotFound)
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"foo.txt", false},
		{".hidden", false},
		{"", true},
		{".", true},
		{"..", true},
		{"a/b", true},
		{"nul\x00", true},
		{strings.Repeat("x", MaxNameLen), false},
		{strings.Repeat("x", MaxNameLen+1), true},
	}
	for _, tt := range tests {
		err := ValidateName(tt.name)
		if tt.wantErr {
			assert.ErrorIs(t, err, fserr.ErrInvalidName, "%q", tt.name)
		} else {
			assert.NoError(t, err, "%q", tt.name)
		}
	}
}

// -----------------------------------------------------------------------------
// 2. List
// -----------------------------------------------------------------------------

func TestList_Offsets(t *testing.T) {
	f := newFixture(t, "e0", "e1", "e2")

	tests := []struct {
		offset uint64
		want   []string
	}{
		{0, []string{".", "..", "e0", "e1", "e2"}},
		{1, []string{"..", "e0", "e1", "e2"}},
		{2, []string{"e0", "e1", "e2"}},
		{3, []string{"e1", "e2"}},
		{5, nil},
		{100, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.names(t, tt.offset), "offset %d", tt.offset)
	}
}

func TestList_EntriesAndCookies(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()
	_, dir, err := f.dirs.LoadByInode(ctx, f.self)
	require.NoError(t, err)

	var got []Entry
	for e, err := range f.dirs.List(ctx, dir, f.self, 0) {
		require.NoError(t, err)
		got = append(got, e)
	}
	require.Len(t, got, 4)

	// "." 和 ".." 都映射到目录自身
	assert.Equal(t, f.self, got[0].Inode)
	assert.Equal(t, f.self, got[1].Inode)
	assert.Equal(t, types.KindDirectory, got[1].Kind)
	assert.Equal(t, types.KindFile, got[2].Kind)

	// 用上一项的 Offset 继续读取，恰好得到剩余的项
	for i, e := range got {
		assert.Equal(t, uint64(i+1), e.Offset)
	}
	assert.Equal(t, []string{"b"}, f.names(t, got[2].Offset))
}

func TestList_RestartableAndEarlyStop(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	ctx := context.Background()
	_, dir, err := f.dirs.LoadByInode(ctx, f.self)
	require.NoError(t, err)

	seq := f.dirs.List(ctx, dir, f.self, 0)

	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)

	// 同一个序列可以重新遍历
	count := 0
	for _, err := range seq {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 5, count)
}

func TestList_DanglingChild(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 目录中有一个 Inode 不存在的条目
	_, err := f.dirs.Update(ctx, f.self, func(d *core.Directory) (*core.Directory, error) {
		return WithNewEntry(d, "ghost", types.NewInodeID())
	})
	require.NoError(t, err)

	_, dir, err := f.dirs.LoadByInode(ctx, f.self)
	require.NoError(t, err)

	var lastErr error
	for _, err := range f.dirs.List(ctx, dir, f.self, 0) {
		lastErr = err
	}
	assert.ErrorIs(t, lastErr, fserr.ErrNotFound)
}

// -----------------------------------------------------------------------------
// 3. COW 变更协议
// -----------------------------------------------------------------------------

func TestUpdate_SwapsParent(t *testing.T) {
	f := newFixture(t, "a")
	ctx := context.Background()

	before, err := f.inodes.Get(ctx, f.self)
	require.NoError(t, err)

	child := types.NewInodeID()
	next, err := f.dirs.Update(ctx, f.self, func(d *core.Directory) (*core.Directory, error) {
		return WithNewEntry(d, "b", child)
	})
	require.NoError(t, err)

	after, err := f.inodes.Get(ctx, f.self)
	require.NoError(t, err)
	assert.Equal(t, f.self, after.ID)
	assert.Equal(t, next.ID, after.Target)
	assert.NotEqual(t, before.Target, after.Target)

	// 旧目录值保持不变
	old, err := f.dirs.Get(ctx, before.Target)
	require.NoError(t, err)
	assert.Len(t, old.Entries, 1)
}

func TestUpdate_FailureLeavesParent(t *testing.T) {
	f := newFixture(t, "a")
	ctx := context.Background()
	before, err := f.inodes.Get(ctx, f.self)
	require.NoError(t, err)

	_, err = f.dirs.Update(ctx, f.self, func(d *core.Directory) (*core.Directory, error) {
		return WithNewEntry(d, "a", types.NewInodeID())
	})
	assert.ErrorIs(t, err, fserr.ErrAlreadyExists)

	after, err := f.inodes.Get(ctx, f.self)
	require.NoError(t, err)
	assert.Equal(t, before.Target, after.Target)
}

func TestLoad_NotADirectory(t *testing.T) {
	f := newFixture(t, "file")
	ctx := context.Background()
	_, dir, err := f.dirs.LoadByInode(ctx, f.self)
	require.NoError(t, err)

	e, ok := dir.Find("file")
	require.True(t, ok)
	_, _, err = f.dirs.LoadByInode(ctx, e.Inode)
	assert.ErrorIs(t, err, fserr.ErrNotADirectory)
}
