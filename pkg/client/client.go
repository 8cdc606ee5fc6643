package client

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"kvfs/pkg/core"
	"kvfs/pkg/directory"
	"kvfs/pkg/fs"
	"kvfs/pkg/fserr"
	"kvfs/pkg/rpc"
	"kvfs/pkg/server"
	"kvfs/pkg/types"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
)

// DefaultPageSize 是 List 每次向服务端请求的条目数
const DefaultPageSize = 256

// Client 是 kvfs 服务端的远程句柄
// 方法与 fs.Dispatcher 一一对应，错误同样可以用 errors.Is 判断 fserr 类别
type Client struct {
	conn     *grpc.ClientConn
	pageSize uint32
}

// NewClient 创建客户端，连接在后台建立，地址不可达不会在这里报错
// extra 用于测试时注入 dialer 等选项
func NewClient(addr string, extra ...grpc.DialOption) (*Client, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(server.MaxMsgSize),
			grpc.MaxCallSendMsgSize(server.MaxMsgSize),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             20 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", addr, err)
	}
	return &Client{conn: conn, pageSize: DefaultPageSize}, nil
}

// Close 关闭底层连接
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// call 发起一次调用，并用 trailer 还原出 fserr 类别
func call[Resp any](ctx context.Context, c *Client, method string, in any) (*Resp, error) {
	var trailer metadata.MD
	out, err := rpc.Invoke[Resp](ctx, c.conn, method, in, grpc.Trailer(&trailer))
	if err != nil {
		return nil, rpc.FromStatus(err, trailer)
	}
	return out, nil
}

func (c *Client) Bootstrap(ctx context.Context) (bool, error) {
	resp, err := call[rpc.BootstrapResponse](ctx, c, rpc.MethodBootstrap, &rpc.Empty{})
	if err != nil {
		return false, err
	}
	return resp.Created, nil
}

func (c *Client) Attributes(ctx context.Context, id types.InodeID) (core.Attr, error) {
	resp, err := call[rpc.AttrResponse](ctx, c, rpc.MethodAttributes, &rpc.InodeRequest{Inode: id})
	if err != nil {
		return core.Attr{}, err
	}
	return resp.Attr, nil
}

func (c *Client) Lookup(ctx context.Context, parent types.InodeID, name string) (core.Attr, error) {
	resp, err := call[rpc.AttrResponse](ctx, c, rpc.MethodLookup, &rpc.NameRequest{Parent: parent, Name: name})
	if err != nil {
		return core.Attr{}, err
	}
	return resp.Attr, nil
}

// List 第一页立即请求，目录本身的错误直接返回
// 之后的页在遍历时按需拉取，序列可以重复遍历
func (c *Client) List(ctx context.Context, id types.InodeID, offset uint64) (iter.Seq2[directory.Entry, error], error) {
	first, err := c.listPage(ctx, id, offset)
	if err != nil {
		return nil, err
	}

	return func(yield func(directory.Entry, error) bool) {
		page := first
		for {
			for _, e := range page.Entries {
				if !yield(e, nil) {
					return
				}
			}
			if page.Done || len(page.Entries) == 0 {
				return
			}

			next := page.Entries[len(page.Entries)-1].Offset
			var err error
			if page, err = c.listPage(ctx, id, next); err != nil {
				yield(directory.Entry{}, err)
				return
			}
		}
	}, nil
}

func (c *Client) listPage(ctx context.Context, id types.InodeID, offset uint64) (*rpc.ListResponse, error) {
	return call[rpc.ListResponse](ctx, c, rpc.MethodList, &rpc.ListRequest{
		Inode:  id,
		Offset: offset,
		Limit:  c.pageSize,
	})
}

func (c *Client) Open(ctx context.Context, id types.InodeID) (fs.Handle, error) {
	resp, err := call[rpc.InodeResponse](ctx, c, rpc.MethodOpen, &rpc.InodeRequest{Inode: id})
	if err != nil {
		return fs.Handle{}, err
	}
	return fs.Handle{Inode: resp.Inode}, nil
}

func (c *Client) Read(ctx context.Context, id types.InodeID, offset, length uint64) ([]byte, error) {
	resp, err := call[rpc.ReadResponse](ctx, c, rpc.MethodRead, &rpc.ReadRequest{Inode: id, Offset: offset, Length: length})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) Readlink(ctx context.Context, id types.InodeID) error {
	_, err := call[rpc.Empty](ctx, c, rpc.MethodReadlink, &rpc.InodeRequest{Inode: id})
	return err
}

func (c *Client) Create(ctx context.Context, parent types.InodeID, name string) (core.Attr, error) {
	resp, err := call[rpc.AttrResponse](ctx, c, rpc.MethodCreate, &rpc.NameRequest{Parent: parent, Name: name})
	if err != nil {
		return core.Attr{}, err
	}
	return resp.Attr, nil
}

func (c *Client) Mkdir(ctx context.Context, parent types.InodeID, name string) (core.Attr, error) {
	resp, err := call[rpc.AttrResponse](ctx, c, rpc.MethodMkdir, &rpc.NameRequest{Parent: parent, Name: name})
	if err != nil {
		return core.Attr{}, err
	}
	return resp.Attr, nil
}

func (c *Client) Symlink(ctx context.Context, parent types.InodeID, name string, target types.InodeID) (types.InodeID, error) {
	resp, err := call[rpc.InodeResponse](ctx, c, rpc.MethodSymlink, &rpc.SymlinkRequest{Parent: parent, Name: name, Target: target})
	if err != nil {
		return types.InodeID{}, err
	}
	return resp.Inode, nil
}

func (c *Client) Write(ctx context.Context, id types.InodeID, offset uint64, data []byte) (int, error) {
	resp, err := call[rpc.WriteResponse](ctx, c, rpc.MethodWrite, &rpc.WriteRequest{Inode: id, Offset: offset, Data: data})
	if err != nil {
		return 0, err
	}
	return resp.Written, nil
}

func (c *Client) Truncate(ctx context.Context, id types.InodeID, size uint64) (core.Attr, error) {
	resp, err := call[rpc.AttrResponse](ctx, c, rpc.MethodTruncate, &rpc.TruncateRequest{Inode: id, Size: size})
	if err != nil {
		return core.Attr{}, err
	}
	return resp.Attr, nil
}

func (c *Client) Unlink(ctx context.Context, parent types.InodeID, name string) error {
	_, err := call[rpc.Empty](ctx, c, rpc.MethodUnlink, &rpc.NameRequest{Parent: parent, Name: name})
	return err
}

func (c *Client) Rmdir(ctx context.Context, parent types.InodeID, name string) error {
	_, err := call[rpc.Empty](ctx, c, rpc.MethodRmdir, &rpc.NameRequest{Parent: parent, Name: name})
	return err
}

func (c *Client) Rename(ctx context.Context, parent types.InodeID, name string, newParent types.InodeID, newName string) error {
	_, err := call[rpc.Empty](ctx, c, rpc.MethodRename, &rpc.RenameRequest{
		Parent:    parent,
		Name:      name,
		NewParent: newParent,
		NewName:   newName,
	})
	return err
}

// ResolvePath 在服务端逐级解析路径，根目录不需要往返
func (c *Client) ResolvePath(ctx context.Context, path string) (types.InodeID, error) {
	parts := fs.SplitPath(path)
	if len(parts) == 0 {
		return types.RootInode, nil
	}
	resp, err := call[rpc.InodeResponse](ctx, c, rpc.MethodResolvePath, &rpc.ResolveRequest{Path: strings.Join(parts, "/")})
	if err != nil {
		return types.InodeID{}, err
	}
	return resp.Inode, nil
}

// ResolveParent 与 fs.Dispatcher.ResolveParent 语义相同
func (c *Client) ResolveParent(ctx context.Context, path string) (types.InodeID, string, error) {
	parts := fs.SplitPath(path)
	if len(parts) == 0 {
		return types.InodeID{}, "", fmt.Errorf("path %q has no parent: %w", path, fserr.ErrInvalidName)
	}
	parent, err := c.ResolvePath(ctx, strings.Join(parts[:len(parts)-1], "/"))
	if err != nil {
		return types.InodeID{}, "", err
	}
	return parent, parts[len(parts)-1], nil
}
