package commands

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"kvfs/pkg/app"
	"kvfs/pkg/client"
	"kvfs/pkg/config"
	"kvfs/pkg/core"
	"kvfs/pkg/directory"
	"kvfs/pkg/fs"
	"kvfs/pkg/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// FileSystem 是子命令使用的操作集合
// 本地模式下是 fs.Dispatcher，--remote 模式下是 client.Client
type FileSystem interface {
	Bootstrap(ctx context.Context) (bool, error)
	Attributes(ctx context.Context, id types.InodeID) (core.Attr, error)
	Lookup(ctx context.Context, parent types.InodeID, name string) (core.Attr, error)
	List(ctx context.Context, id types.InodeID, offset uint64) (iter.Seq2[directory.Entry, error], error)
	Read(ctx context.Context, id types.InodeID, offset, length uint64) ([]byte, error)
	Create(ctx context.Context, parent types.InodeID, name string) (core.Attr, error)
	Mkdir(ctx context.Context, parent types.InodeID, name string) (core.Attr, error)
	Write(ctx context.Context, id types.InodeID, offset uint64, data []byte) (int, error)
	Truncate(ctx context.Context, id types.InodeID, size uint64) (core.Attr, error)
	Unlink(ctx context.Context, parent types.InodeID, name string) error
	Rmdir(ctx context.Context, parent types.InodeID, name string) error
	Rename(ctx context.Context, parent types.InodeID, name string, newParent types.InodeID, newName string) error
	ResolvePath(ctx context.Context, path string) (types.InodeID, error)
	ResolveParent(ctx context.Context, path string) (types.InodeID, string, error)
}

var (
	_ FileSystem = (*fs.Dispatcher)(nil)
	_ FileSystem = (*client.Client)(nil)
)

// 只能在本地模式下运行的命令 (需要直接访问 KV)
const annotationLocalOnly = "kvfs/local-only"

var (
	cfgFile string

	// 全局应用实例，仅本地模式下非空
	KV *app.App
	// 子命令统一通过 FS 访问文件系统
	FS FileSystem

	remote *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "kvfs",
	Short: "kvfs: a filesystem on top of a key-value store",
	// 所有命令的输出都是给人看的，错误由 main 打印
	SilenceUsage: true,
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1. 远程模式
		if addr := viper.GetString(config.KeyRemoteAddr); addr != "" {
			if cmd.Annotations[annotationLocalOnly] != "" {
				return fmt.Errorf("'%s' needs direct access to the store and cannot run with --remote", cmd.Name())
			}
			c, err := client.NewClient(addr)
			if err != nil {
				return err
			}
			remote, FS = c, c
			return nil
		}

		// 2. 本地模式，统一初始化 App
		var err error
		KV, err = app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize kvfs: %w", err)
		}
		FS = KV.FS
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeAll()
	},
}

// Execute 是入口
func Execute() error {
	defer closeAll()
	return rootCmd.Execute()
}

func closeAll() error {
	var err error
	if remote != nil {
		err = remote.Close()
		remote = nil
	}
	if KV != nil {
		if cerr := KV.Close(); err == nil {
			err = cerr
		}
		KV = nil
	}
	FS = nil
	return err
}

func init() {
	// 在初始化时，加载配置
	cobra.OnInitialize(initConfig)

	// 1. 定义全局参数 --config
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.kvfs/config.yaml)")

	// 2. 其余参数绑定到 Viper
	// 用户既可以在 yaml 里写，也可以用命令行覆盖
	bind := map[string]string{
		"storage-type": config.KeyStorageType,
		"storage-path": config.KeyStoragePath,
		"remote":       config.KeyRemoteAddr,
		"log-level":    config.KeyLogLevel,
	}
	rootCmd.PersistentFlags().String("storage-type", "", "KV backend: memory, disk, leveldb, redis, s3, sql")
	rootCmd.PersistentFlags().String("storage-path", "", "Directory for the disk / leveldb backends")
	rootCmd.PersistentFlags().String("remote", "", "Address of a kvfs-server; operations go over gRPC instead of the local store")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")
	for flag, key := range bind {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Println("Failed to bind flag:", err)
			os.Exit(1)
		}
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Println("Config error:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.LogLevel(),
	}))
	slog.SetDefault(logger)
}
