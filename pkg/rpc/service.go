package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "kvfs.v1.FileSystem"

// 方法名，同时用于 ServiceDesc 和客户端的 Invoke
const (
	MethodBootstrap   = "Bootstrap"
	MethodAttributes  = "Attributes"
	MethodLookup      = "Lookup"
	MethodList        = "List"
	MethodOpen        = "Open"
	MethodRead        = "Read"
	MethodReadlink    = "Readlink"
	MethodCreate      = "Create"
	MethodMkdir       = "Mkdir"
	MethodSymlink     = "Symlink"
	MethodWrite       = "Write"
	MethodTruncate    = "Truncate"
	MethodUnlink      = "Unlink"
	MethodRmdir       = "Rmdir"
	MethodRename      = "Rename"
	MethodResolvePath = "ResolvePath"
)

// FullMethod 返回 "/kvfs.v1.FileSystem/<method>"
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// FileSystemServer 是服务端需要实现的接口
type FileSystemServer interface {
	Bootstrap(context.Context, *Empty) (*BootstrapResponse, error)
	Attributes(context.Context, *InodeRequest) (*AttrResponse, error)
	Lookup(context.Context, *NameRequest) (*AttrResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Open(context.Context, *InodeRequest) (*InodeResponse, error)
	Read(context.Context, *ReadRequest) (*ReadResponse, error)
	Readlink(context.Context, *InodeRequest) (*Empty, error)
	Create(context.Context, *NameRequest) (*AttrResponse, error)
	Mkdir(context.Context, *NameRequest) (*AttrResponse, error)
	Symlink(context.Context, *SymlinkRequest) (*InodeResponse, error)
	Write(context.Context, *WriteRequest) (*WriteResponse, error)
	Truncate(context.Context, *TruncateRequest) (*AttrResponse, error)
	Unlink(context.Context, *NameRequest) (*Empty, error)
	Rmdir(context.Context, *NameRequest) (*Empty, error)
	Rename(context.Context, *RenameRequest) (*Empty, error)
	ResolvePath(context.Context, *ResolveRequest) (*InodeResponse, error)
}

// RegisterFileSystemServer 把实现注册到 gRPC Server
func RegisterFileSystemServer(s grpc.ServiceRegistrar, srv FileSystemServer) {
	s.RegisterService(&FileSystemServiceDesc, srv)
}

// unary 生成一个方法描述，把解码、拦截器和具体调用串起来
func unary[Req, Resp any](name string, call func(FileSystemServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(FileSystemServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(FileSystemServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var FileSystemServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FileSystemServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodBootstrap, FileSystemServer.Bootstrap),
		unary(MethodAttributes, FileSystemServer.Attributes),
		unary(MethodLookup, FileSystemServer.Lookup),
		unary(MethodList, FileSystemServer.List),
		unary(MethodOpen, FileSystemServer.Open),
		unary(MethodRead, FileSystemServer.Read),
		unary(MethodReadlink, FileSystemServer.Readlink),
		unary(MethodCreate, FileSystemServer.Create),
		unary(MethodMkdir, FileSystemServer.Mkdir),
		unary(MethodSymlink, FileSystemServer.Symlink),
		unary(MethodWrite, FileSystemServer.Write),
		unary(MethodTruncate, FileSystemServer.Truncate),
		unary(MethodUnlink, FileSystemServer.Unlink),
		unary(MethodRmdir, FileSystemServer.Rmdir),
		unary(MethodRename, FileSystemServer.Rename),
		unary(MethodResolvePath, FileSystemServer.ResolvePath),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kvfs/v1/filesystem",
}

// Invoke 用 CBOR 编码发起一次调用
func Invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
