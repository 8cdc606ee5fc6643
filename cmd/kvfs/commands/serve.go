package commands

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"kvfs/pkg/config"
	"kvfs/pkg/server"
	"kvfs/pkg/service"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the filesystem over gRPC",
	Long:  `Expose every filesystem operation over gRPC so that other hosts can use kvfs --remote.`,
	Args:  cobra.NoArgs,
	// 服务端自己就是 KV 的持有者
	Annotations: map[string]string{annotationLocalOnly: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 1. 根目录必须存在
		if _, err := KV.FS.Bootstrap(ctx); err != nil {
			return fmt.Errorf("bootstrap failed: %w", err)
		}

		// 2. 监听
		addr := viper.GetString(config.KeyServerAddr)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}

		// 3. 可选的指标端口
		var mlis net.Listener
		if KV.Registry != nil {
			maddr := viper.GetString(config.KeyMetricsAddr)
			mlis, err = net.Listen("tcp", maddr)
			if err != nil {
				return multierr.Append(fmt.Errorf("failed to listen on %s: %w", maddr, err), lis.Close())
			}
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.Run(ctx, lis, server.New(service.NewFileSystemService(KV.FS)))
		})
		if mlis != nil {
			g.Go(func() error {
				return server.ServeMetrics(ctx, mlis, KV.Registry)
			})
		}

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "gRPC listen address (default from server.addr)")
	if err := viper.BindPFlag(config.KeyServerAddr, serveCmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(serveCmd)
}
