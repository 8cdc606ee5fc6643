package service

import (
	"context"
	"fmt"

	"kvfs/pkg/directory"
	"kvfs/pkg/fs"
	"kvfs/pkg/rpc"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MaxListPage 是单次 List 最多返回的条目数
const MaxListPage = 1024

// FileSystemService 把 gRPC 请求转发给 Dispatcher
// 本身不持有状态，所有状态都在 KV 中
type FileSystemService struct {
	fs *fs.Dispatcher
}

var _ rpc.FileSystemServer = (*FileSystemService)(nil)

func NewFileSystemService(d *fs.Dispatcher) *FileSystemService {
	return &FileSystemService{fs: d}
}

func (s *FileSystemService) Bootstrap(ctx context.Context, _ *rpc.Empty) (*rpc.BootstrapResponse, error) {
	created, err := s.fs.Bootstrap(ctx)
	if err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.BootstrapResponse{Created: created}, nil
}

func (s *FileSystemService) Attributes(ctx context.Context, req *rpc.InodeRequest) (*rpc.AttrResponse, error) {
	attr, err := s.fs.Attributes(ctx, req.Inode)
	if err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.AttrResponse{Attr: attr}, nil
}

func (s *FileSystemService) Lookup(ctx context.Context, req *rpc.NameRequest) (*rpc.AttrResponse, error) {
	attr, err := s.fs.Lookup(ctx, req.Parent, req.Name)
	if err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.AttrResponse{Attr: attr}, nil
}

// List 返回 offset 之后最多 Limit 条 (上限 MaxListPage)
// 客户端用最后一条的 Offset 继续翻页
func (s *FileSystemService) List(ctx context.Context, req *rpc.ListRequest) (*rpc.ListResponse, error) {
	limit := int(req.Limit)
	if limit <= 0 || limit > MaxListPage {
		limit = MaxListPage
	}

	seq, err := s.fs.List(ctx, req.Inode, req.Offset)
	if err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}

	resp := &rpc.ListResponse{Done: true}
	for entry, err := range seq {
		if err != nil {
			return nil, rpc.ToStatus(ctx, err)
		}
		if len(resp.Entries) == limit {
			resp.Done = false
			break
		}
		resp.Entries = append(resp.Entries, entry)
	}
	if resp.Entries == nil {
		resp.Entries = []directory.Entry{}
	}
	return resp, nil
}

func (s *FileSystemService) Open(ctx context.Context, req *rpc.InodeRequest) (*rpc.InodeResponse, error) {
	h, err := s.fs.Open(ctx, req.Inode)
	if err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.InodeResponse{Inode: h.Inode}, nil
}

func (s *FileSystemService) Read(ctx context.Context, req *rpc.ReadRequest) (*rpc.ReadResponse, error) {
	data, err := s.fs.Read(ctx, req.Inode, req.Offset, req.Length)
	if err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.ReadResponse{Data: data}, nil
}

func (s *FileSystemService) Readlink(ctx context.Context, req *rpc.InodeRequest) (*rpc.Empty, error) {
	if err := s.fs.Readlink(ctx, req.Inode); err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *FileSystemService) Create(ctx context.Context, req *rpc.NameRequest) (*rpc.AttrResponse, error) {
	attr, err := s.fs.Create(ctx, req.Parent, req.Name)
	if err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.AttrResponse{Attr: attr}, nil
}

func (s *FileSystemService) Mkdir(ctx context.Context, req *rpc.NameRequest) (*rpc.AttrResponse, error) {
	attr, err := s.fs.Mkdir(ctx, req.Parent, req.Name)
	if err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.AttrResponse{Attr: attr}, nil
}

func (s *FileSystemService) Symlink(ctx context.Context, req *rpc.SymlinkRequest) (*rpc.InodeResponse, error) {
	id, err := s.fs.Symlink(ctx, req.Parent, req.Name, req.Target)
	if err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.InodeResponse{Inode: id}, nil
}

func (s *FileSystemService) Write(ctx context.Context, req *rpc.WriteRequest) (*rpc.WriteResponse, error) {
	n, err := s.fs.Write(ctx, req.Inode, req.Offset, req.Data)
	if err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.WriteResponse{Written: n}, nil
}

func (s *FileSystemService) Truncate(ctx context.Context, req *rpc.TruncateRequest) (*rpc.AttrResponse, error) {
	attr, err := s.fs.Truncate(ctx, req.Inode, req.Size)
	if err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.AttrResponse{Attr: attr}, nil
}

func (s *FileSystemService) Unlink(ctx context.Context, req *rpc.NameRequest) (*rpc.Empty, error) {
	if err := s.fs.Unlink(ctx, req.Parent, req.Name); err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *FileSystemService) Rmdir(ctx context.Context, req *rpc.NameRequest) (*rpc.Empty, error) {
	if err := s.fs.Rmdir(ctx, req.Parent, req.Name); err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *FileSystemService) Rename(ctx context.Context, req *rpc.RenameRequest) (*rpc.Empty, error) {
	if err := s.fs.Rename(ctx, req.Parent, req.Name, req.NewParent, req.NewName); err != nil {
		return nil, rpc.ToStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *FileSystemService) ResolvePath(ctx context.Context, req *rpc.ResolveRequest) (*rpc.InodeResponse, error) {
	if req.Path == "" {
		return nil, status.Error(codes.InvalidArgument, "path is required")
	}
	id, err := s.fs.ResolvePath(ctx, req.Path)
	if err != nil {
		return nil, rpc.ToStatus(ctx, fmt.Errorf("resolve: %w", err))
	}
	return &rpc.InodeResponse{Inode: id}, nil
}
