package commands

import (
	"encoding/hex"
	"fmt"

	"kvfs/pkg/exporter"
	"kvfs/pkg/storage"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// 原始数据最多打印的字节数
const inspectDumpLimit = 256

var inspectCmd = &cobra.Command{
	Use:   "inspect <key>",
	Short: "Decode a raw KV record",
	Long: `Fetch a key (for example "inode:00000000000000000000000000000001") straight from the store
and print the decoded record. Chunk data is shown as a hex dump.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationLocalOnly: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := storage.GetRaw(cmd.Context(), KV.Store, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ok, err := exporter.PrintRecord(data, out)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", args[0], err)
		}
		if ok {
			return nil
		}

		// 不是记录，按原始数据展示
		fmt.Fprintf(out, "Type: Raw (%s)\n\n", humanize.IBytes(uint64(len(data))))
		if len(data) > inspectDumpLimit {
			data = data[:inspectDumpLimit]
		}
		fmt.Fprint(out, hex.Dump(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
