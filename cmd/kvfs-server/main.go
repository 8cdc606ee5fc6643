package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"kvfs/pkg/app"
	"kvfs/pkg/config"
	"kvfs/pkg/server"
	"kvfs/pkg/service"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Config
	flags := pflag.NewFlagSet("kvfs-server", pflag.ExitOnError)
	cfgFile := flags.String("config", "", "config file (default is $HOME/.kvfs/config.yaml)")
	flags.String("addr", "", "gRPC listen address (default from server.addr)")
	flags.String("storage-type", "", "KV backend: memory, disk, leveldb, redis, s3, sql")
	flags.Bool("metrics", false, "Expose Prometheus metrics on metrics.addr")
	_ = flags.Parse(os.Args[1:])

	for flag, key := range map[string]string{
		"addr":         config.KeyServerAddr,
		"storage-type": config.KeyStorageType,
		"metrics":      config.KeyMetricsEnabled,
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			log.Fatalf("❌ Failed to bind flag: %v", err)
		}
	}
	if err := config.Load(*cfgFile); err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Println("👋 Server stopped.")
}

func run(ctx context.Context) (err error) {
	// 2. Init Core Application
	application, err := app.NewApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer func() {
		if cerr := application.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := application.FS.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap root: %w", err)
	}
	fmt.Println("✅ kvfs core initialized.")

	// 3. Setup Network
	addr := viper.GetString(config.KeyServerAddr)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	var mlis net.Listener
	if application.Registry != nil {
		maddr := viper.GetString(config.KeyMetricsAddr)
		if mlis, err = net.Listen("tcp", maddr); err != nil {
			lis.Close()
			return fmt.Errorf("failed to listen on %s: %w", maddr, err)
		}
	}

	// 4. Serve until SIGINT / SIGTERM, then graceful shutdown
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, lis, server.New(service.NewFileSystemService(application.FS)))
	})
	if mlis != nil {
		g.Go(func() error {
			return server.ServeMetrics(ctx, mlis, application.Registry)
		})
	}
	return g.Wait()
}
