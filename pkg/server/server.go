package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"kvfs/pkg/rpc"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// 单个文件通过一次 Write 传输，消息上限与客户端保持一致
const MaxMsgSize = 1024 * 1024 * 1024

// New 创建 gRPC Server 并注册文件系统服务、健康检查和反射
// 日志拦截器在外层，panic 恢复后的 Internal 也会被记录
func New(svc rpc.FileSystemServer) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryLoggingInterceptor, UnaryRecoveryInterceptor),
		grpc.ChainStreamInterceptor(StreamLoggingInterceptor, StreamRecoveryInterceptor),
		grpc.MaxRecvMsgSize(MaxMsgSize),
		grpc.MaxSendMsgSize(MaxMsgSize),
	)

	rpc.RegisterFileSystemServer(s, svc)

	hs := health.NewServer()
	hs.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	// 方便用 grpcurl 列出服务
	reflection.Register(s)
	return s
}

// Run 在 lis 上提供服务，ctx 取消时优雅退出
func Run(ctx context.Context, lis net.Listener, s *grpc.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("🚀 gRPC server listening", "addr", lis.Addr().String())
		if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("⚠️  shutting down gRPC server")
		s.GracefulStop()
		return nil
	})

	return g.Wait()
}
