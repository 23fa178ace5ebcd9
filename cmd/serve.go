package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kasuboski/reelwatch/pkg/logger"
)

// serveCmd runs the worker pool, periodic sweeps, and notifier
// continuously until interrupted. It is the only long-running command;
// every other subcommand performs one action against the store and exits.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the scheduler worker pool and notifier until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		log := logger.Get()
		notify := buildNotifier(a.cfg)
		notify.Start(ctx, a.bus)

		log.Infow("reelwatch starting", "workers", a.cfg.Jobs.WorkerCount, "storage", a.cfg.Storage.FilePath)
		if err := a.sched.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		log.Info("reelwatch shut down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
