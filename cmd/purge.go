package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	purgeOnce     bool
	purgeInterval time.Duration
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Hard-delete coffees deleted longer ago than PURGE_RETENTION",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("interval") {
			cfg.Purge.Interval = purgeInterval
		}
		return runPurge()
	},
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeOnce, "once", false, "Run one purge pass and exit")
	purgeCmd.Flags().DurationVar(&purgeInterval, "interval", time.Minute, "Loop interval (overrides PURGE_INTERVAL)")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge() error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s := newScheduler(b)
	if purgeOnce {
		s.RunOnce(ctx)
		return nil
	}
	s.Run(ctx)
	return nil
}
