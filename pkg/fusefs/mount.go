package fusefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"kvfs/pkg/fs"
	"kvfs/pkg/types"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Options 配置一次挂载
type Options struct {
	// Mountpoint 不存在时会被创建
	Mountpoint string

	Dispatcher *fs.Dispatcher

	// AllowOther 需要 /etc/fuse.conf 中的 user_allow_other
	AllowOther bool

	// 为空时只输出 Error 级别到 stderr
	Logger *slog.Logger

	// Debug 打开 go-fuse 的协议级日志
	Debug bool
}

// 属性和条目都可能被其它客户端通过同一个 KV 修改，缓存时间保持很短
const (
	entryTimeout    = time.Second
	attrTimeout     = time.Second
	negativeTimeout = 100 * time.Millisecond
)

// Mount 把 Dispatcher 挂载到 Mountpoint
// 调用方负责在结束时调用返回的 Server 的 Unmount
func Mount(ctx context.Context, options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, errors.New("mountpoint is required")
	}
	if options.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	// 1. 根目录必须存在，否则第一次 GETATTR 就会失败
	if _, err := options.Dispatcher.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap root: %w", err)
	}

	// 2. 确保挂载点存在
	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := newNode(options.Dispatcher, types.RootInode, options.Logger)

	entry, attr, negative := entryTimeout, attrTimeout, negativeTimeout
	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entry,
		AttrTimeout:     &attr,
		NegativeTimeout: &negative,
		MountOptions: fuse.MountOptions{
			FsName:     "kvfs",
			Name:       "kvfs",
			AllowOther: options.AllowOther,
			Debug:      options.Debug,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("kvfs mounted", "mountpoint", options.Mountpoint)
	return server, nil
}
