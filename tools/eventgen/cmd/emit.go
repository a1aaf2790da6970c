package cmd

import (
	"bufio"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wikirelay/wikirelay/tools/eventgen/internal/generator"
)

var (
	emitCount    int
	emitStream   string
	emitInterval time.Duration
)

var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Write events to stdout",
	RunE:  runEmit,
}

func init() {
	emitCmd.Flags().IntVar(&emitCount, "count", 100, "number of events to emit (0 for unlimited)")
	emitCmd.Flags().StringVar(&emitStream, "stream", "recentchange", "stream name to stamp on events")
	emitCmd.Flags().DurationVar(&emitInterval, "interval", 0, "delay between events")
	rootCmd.AddCommand(emitCmd)
}

func runEmit(cmd *cobra.Command, args []string) error {
	gen := generator.New(profile, seed)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for i := 0; emitCount == 0 || i < emitCount; i++ {
		if _, err := out.Write(gen.NextLine(emitStream)); err != nil {
			return err
		}
		if emitInterval > 0 {
			if err := out.Flush(); err != nil {
				return err
			}
			time.Sleep(emitInterval)
		}
	}
	return nil
}
