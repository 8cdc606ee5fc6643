package rpc

import (
	"context"
	"errors"

	"kvfs/pkg/fserr"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ErrorKindKey 是 trailer 中携带错误类别的键
// 多个类别共用同一个 gRPC code，客户端需要它还原出准确的 sentinel
const ErrorKindKey = "kvfs-error-kind"

type errorKind struct {
	name string
	err  error
	code codes.Code
}

var errorKinds = []errorKind{
	{"not_found", fserr.ErrNotFound, codes.NotFound},
	{"already_exists", fserr.ErrAlreadyExists, codes.AlreadyExists},
	{"not_a_directory", fserr.ErrNotADirectory, codes.FailedPrecondition},
	{"is_directory", fserr.ErrIsDirectory, codes.FailedPrecondition},
	{"not_empty", fserr.ErrNotEmpty, codes.FailedPrecondition},
	{"unimplemented", fserr.ErrUnimplemented, codes.Unimplemented},
	{"invalid_name", fserr.ErrInvalidName, codes.InvalidArgument},
	{"file_too_large", fserr.ErrFileTooLarge, codes.OutOfRange},
	{"transport", fserr.ErrTransport, codes.Unavailable},
	{"serialization", fserr.ErrSerialization, codes.DataLoss},
	{"integrity", fserr.ErrIntegrity, codes.DataLoss},
}

// ToStatus 把引擎错误转换为 gRPC status，并把类别写入 trailer
func ToStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			_ = grpc.SetTrailer(ctx, metadata.Pairs(ErrorKindKey, k.name))
			return status.Error(k.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// remoteError 保留服务端的错误信息，同时可以用 errors.Is 判断类别
type remoteError struct {
	msg   string
	cause error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.cause }

// FromStatus 是 ToStatus 的逆过程，trailer 为调用时通过 grpc.Trailer 收到的元数据
func FromStatus(err error, trailer metadata.MD) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fserr.Transport("rpc", err)
	}

	if names := trailer.Get(ErrorKindKey); len(names) > 0 {
		for _, k := range errorKinds {
			if k.name == names[0] {
				return &remoteError{msg: st.Message(), cause: k.err}
			}
		}
	}

	// 没有 trailer 时只能按 code 粗略还原
	switch st.Code() {
	case codes.NotFound:
		return &remoteError{msg: st.Message(), cause: fserr.ErrNotFound}
	case codes.AlreadyExists:
		return &remoteError{msg: st.Message(), cause: fserr.ErrAlreadyExists}
	case codes.Unimplemented:
		return &remoteError{msg: st.Message(), cause: fserr.ErrUnimplemented}
	case codes.InvalidArgument:
		return &remoteError{msg: st.Message(), cause: fserr.ErrInvalidName}
	case codes.OutOfRange:
		return &remoteError{msg: st.Message(), cause: fserr.ErrFileTooLarge}
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fserr.Transport("rpc", err)
	default:
		return err
	}
}
