package fusefs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"kvfs/pkg/core"
	"kvfs/pkg/fs"
	"kvfs/pkg/storage/memory"
	"kvfs/pkg/types"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T) *fs.Dispatcher {
	t.Helper()
	d := fs.New(memory.NewStore())
	_, err := d.Bootstrap(context.Background())
	require.NoError(t, err)
	return d
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKindMode(t *testing.T) {
	assert.Equal(t, uint32(syscall.S_IFDIR), kindMode(types.KindDirectory))
	assert.Equal(t, uint32(syscall.S_IFREG), kindMode(types.KindFile))
	assert.Equal(t, uint32(syscall.S_IFLNK), kindMode(types.KindSymlink))
}

func TestFillAttr(t *testing.T) {
	id := types.NewInodeID()
	attr := core.FileAttr(id, &core.File{Size: 1000, BlockSize: core.DefaultBlockSize})

	var out fuse.Attr
	fillAttr(attr, &out)

	assert.Equal(t, id.Ino(), out.Ino)
	assert.Equal(t, uint64(1000), out.Size)
	assert.Equal(t, uint64(2), out.Blocks, "内核按 512 字节计块")
	assert.Equal(t, uint32(core.DefaultBlockSize), out.Blksize)
	assert.Equal(t, uint32(syscall.S_IFREG|0o644), out.Mode)
	assert.Equal(t, uint32(1), out.Nlink)
	assert.Equal(t, core.DefaultUID, out.Uid)
	assert.Equal(t, core.DefaultGID, out.Gid)
}

func TestFillAttr_Root(t *testing.T) {
	d := newDispatcher(t)
	attr, err := d.Attributes(context.Background(), types.RootInode)
	require.NoError(t, err)

	var out fuse.Attr
	fillAttr(attr, &out)
	assert.Equal(t, uint64(1), out.Ino)
	assert.Equal(t, uint32(syscall.S_IFDIR|0o755), out.Mode)
	assert.Equal(t, uint32(2), out.Nlink)
}

func rootStream(t *testing.T, d *fs.Dispatcher) *dirStream {
	t.Helper()
	ctx := context.Background()
	list := func(offset uint64) (dirSeq, error) {
		return d.List(ctx, types.RootInode, offset)
	}
	seq, err := list(0)
	require.NoError(t, err)
	return newDirStream(list, seq)
}

func drain(t *testing.T, s *dirStream) []fuse.DirEntry {
	t.Helper()
	var out []fuse.DirEntry
	for s.HasNext() {
		e, errno := s.Next()
		require.Zero(t, errno)
		out = append(out, e)
	}
	return out
}

func TestDirStream(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher(t)
	_, err := d.Create(ctx, types.RootInode, "a")
	require.NoError(t, err)
	_, err = d.Mkdir(ctx, types.RootInode, "b")
	require.NoError(t, err)

	s := rootStream(t, d)
	defer s.Close()

	entries := drain(t, s)
	require.Len(t, entries, 4)

	names := make([]string, 0, len(entries))
	for i, e := range entries {
		names = append(names, e.Name)
		assert.Equal(t, uint64(i+1), e.Off)
	}
	assert.Equal(t, []string{".", "..", "a", "b"}, names)
	assert.Equal(t, uint64(1), entries[0].Ino)
	assert.Equal(t, uint32(syscall.S_IFREG), entries[2].Mode)
	assert.Equal(t, uint32(syscall.S_IFDIR), entries[3].Mode)

	_, errno := s.Next()
	assert.Equal(t, syscall.EINVAL, errno, "耗尽后继续读取")
}

func TestDirStream_Seekdir(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher(t)
	for _, name := range []string{"a", "b", "c"} {
		_, err := d.Create(ctx, types.RootInode, name)
		require.NoError(t, err)
	}

	s := rootStream(t, d)
	defer s.Close()
	drain(t, s)

	// offset 3 之后是 entries[1]
	require.Zero(t, s.Seekdir(ctx, 3))
	entries := drain(t, s)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Name)
	assert.Equal(t, "c", entries[1].Name)
}

func TestNode_ReadWriteTruncate(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher(t)
	attr, err := d.Create(ctx, types.RootInode, "f")
	require.NoError(t, err)

	n := newNode(d, attr.Inode, discardLogger())

	written, errno := n.Write(ctx, nil, []byte("hello world"), 0)
	require.Zero(t, errno)
	assert.Equal(t, uint32(11), written)

	res, errno := n.Read(ctx, nil, make([]byte, 5), 6)
	require.Zero(t, errno)
	data, status := res.Bytes(nil)
	require.Equal(t, fuse.OK, status)
	assert.Equal(t, "world", string(data))

	var in fuse.SetAttrIn
	in.Valid = fuse.FATTR_SIZE
	in.Size = 5
	var out fuse.AttrOut
	require.Zero(t, n.Setattr(ctx, nil, &in, &out))
	assert.Equal(t, uint64(5), out.Size)

	out = fuse.AttrOut{}
	require.Zero(t, n.Getattr(ctx, nil, &out))
	assert.Equal(t, uint64(5), out.Size)
	assert.Equal(t, attr.Inode.Ino(), out.Ino)
}

func TestNode_Errno(t *testing.T) {
	ctx := context.Background()
	d := newDispatcher(t)

	root := newNode(d, types.RootInode, discardLogger())
	assert.Equal(t, syscall.ENOENT, root.Unlink(ctx, "missing"))
	assert.Equal(t, syscall.EINVAL, root.Rename(ctx, "a", root, "b", 0x2))

	_, errno := root.Open(ctx, 0)
	assert.Equal(t, syscall.EISDIR, errno)

	missing := newNode(d, types.NewInodeID(), discardLogger())
	var out fuse.AttrOut
	assert.Equal(t, syscall.ENOENT, missing.Getattr(ctx, nil, &out))
	_, errno = missing.Readlink(ctx)
	assert.Equal(t, syscall.ENOENT, errno)
}

func fuseAvailable(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

func TestMount(t *testing.T) {
	fuseAvailable(t)

	mountpoint := filepath.Join(t.TempDir(), "mnt")
	server, err := Mount(context.Background(), Options{
		Mountpoint: mountpoint,
		Dispatcher: fs.New(memory.NewStore()),
		Logger:     discardLogger(),
	})
	if err != nil {
		t.Skipf("skipping: mount unavailable: %v", err)
	}
	t.Cleanup(func() { _ = server.Unmount() })

	require.NoError(t, os.Mkdir(filepath.Join(mountpoint, "docs"), 0o755))
	path := filepath.Join(mountpoint, "docs", "readme.txt")
	require.NoError(t, os.WriteFile(path, []byte("kvfs"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "kvfs", string(data))

	entries, err := os.ReadDir(filepath.Join(mountpoint, "docs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "readme.txt", entries[0].Name())

	require.NoError(t, os.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
