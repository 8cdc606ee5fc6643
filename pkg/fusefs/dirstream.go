package fusefs

import (
	"context"
	"iter"
	"syscall"

	"kvfs/pkg/directory"
	"kvfs/pkg/fserr"

	"github.com/hanwen/go-fuse/v2/fuse"
)

type dirSeq = iter.Seq2[directory.Entry, error]

// dirStream 把惰性的目录序列适配为 go-fuse 的 DirStream
// Seekdir 按引擎的 offset 语义重新列出目录
type dirStream struct {
	list func(offset uint64) (dirSeq, error)

	next func() (directory.Entry, error, bool)
	stop func()

	// 预读的一项
	peeked bool
	cur    directory.Entry
	err    error
	ok     bool
}

func newDirStream(list func(offset uint64) (dirSeq, error), seq dirSeq) *dirStream {
	s := &dirStream{list: list}
	s.reset(seq)
	return s
}

func (s *dirStream) reset(seq dirSeq) {
	if s.stop != nil {
		s.stop()
	}
	s.next, s.stop = iter.Pull2(seq)
	s.peeked = false
}

func (s *dirStream) peek() {
	if !s.peeked {
		s.cur, s.err, s.ok = s.next()
		s.peeked = true
	}
}

func (s *dirStream) HasNext() bool {
	s.peek()
	return s.ok
}

func (s *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	s.peek()
	if !s.ok {
		return fuse.DirEntry{}, syscall.EINVAL
	}
	s.peeked = false
	if s.err != nil {
		return fuse.DirEntry{}, fserr.Errno(s.err)
	}
	return fuse.DirEntry{
		Name: s.cur.Name,
		Mode: kindMode(s.cur.Kind),
		Ino:  s.cur.Inode.Ino(),
		Off:  s.cur.Offset,
	}, 0
}

func (s *dirStream) Seekdir(_ context.Context, off uint64) syscall.Errno {
	seq, err := s.list(off)
	if err != nil {
		return fserr.Errno(err)
	}
	s.reset(seq)
	return 0
}

func (s *dirStream) Close() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}
