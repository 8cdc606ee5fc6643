package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"kvfs/pkg/fusefs"

	"github.com/spf13/cobra"
)

var (
	mountAllowOther bool
	mountDebug      bool
)

var mountCmd = &cobra.Command{
	Use:   "mount <mountpoint>",
	Short: "Mount kvfs with FUSE",
	Long:  `Serve the filesystem through FUSE until interrupted (Ctrl-C) or unmounted with fusermount -u.`,
	Args:  cobra.ExactArgs(1),
	// FUSE 节点直接持有本地 Dispatcher
	Annotations: map[string]string{annotationLocalOnly: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server, err := fusefs.Mount(ctx, fusefs.Options{
			Mountpoint: args[0],
			Dispatcher: KV.FS,
			AllowOther: mountAllowOther,
			Logger:     slog.Default(),
			Debug:      mountDebug,
		})
		if err != nil {
			return fmt.Errorf("mount failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🚀 kvfs mounted at %s\n", args[0])

		// 外部 fusermount -u 也会让 Wait 返回
		done := make(chan struct{})
		go func() {
			server.Wait()
			close(done)
		}()

		select {
		case <-ctx.Done():
			fmt.Fprintln(cmd.OutOrStdout(), "\n⚠️  Unmounting...")
			if err := server.Unmount(); err != nil {
				return fmt.Errorf("unmount failed: %w", err)
			}
			<-done
		case <-done:
		}

		fmt.Fprintln(cmd.OutOrStdout(), "👋 Unmounted.")
		return nil
	},
}

func init() {
	mountCmd.Flags().BoolVar(&mountAllowOther, "allow-other", false, "Allow other users to access the mount (needs user_allow_other)")
	mountCmd.Flags().BoolVar(&mountDebug, "debug", false, "Log every FUSE request")
	rootCmd.AddCommand(mountCmd)
}
