package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print a snapshot of queue depth, job backlog, and dead letters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.mgr.Stats(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("queued:       %d\n", s.QueuedCount)
		fmt.Printf("downloading:  %d\n", s.DownloadingCount)
		fmt.Printf("pending jobs: %d\n", s.PendingJobs)
		fmt.Printf("leased jobs:  %d\n", s.LeasedJobs)
		fmt.Printf("dead letters: %d\n", s.DeadLetterCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
