package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/scheduler"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

var deadLetterCmd = &cobra.Command{
	Use:   "dead-letter",
	Short: "inspect and replay jobs that exhausted retries",
}

var deadLetterListStatus string

var deadLetterListCmd = &cobra.Command{
	Use:   "list",
	Short: "list dead letters by status (default: failed)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		status := domain.DeadLetterStatus(deadLetterListStatus)
		if status == "" {
			status = domain.DeadLetterFailed
		}

		dls, err := a.store.DeadLetters().List(ctx, status)
		if err != nil {
			return err
		}
		for _, dl := range dls {
			fmt.Printf("%d\t%s\t%s\t%s\n", dl.ID, dl.Kind, dl.Status, dl.LastError)
		}
		return nil
	},
}

var deadLetterIgnoreCmd = &cobra.Command{
	Use:   "ignore <id>",
	Short: "mark a dead letter as ignored, taking it out of consideration for replay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDeadLetterStatus(cmd, args[0], domain.DeadLetterIgnored)
	},
}

var deadLetterResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "mark a dead letter as resolved (e.g. fixed manually)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDeadLetterStatus(cmd, args[0], domain.DeadLetterResolved)
	},
}

// deadLetterRetryCmd re-enqueues the dead letter's original payload as a
// fresh job. A DeadLetter only records the coarse subsystem (download,
// import, search) it came from, not the exact scheduler.Kind, so the
// retry maps it back onto the one job kind per subsystem an operator would
// actually want replayed.
var deadLetterRetryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "re-enqueue a dead letter's payload as a new job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		dl, err := a.store.DeadLetters().Get(ctx, id)
		if err != nil {
			return err
		}

		kind, err := retryKindFor(dl.Kind)
		if err != nil {
			return err
		}

		jobID, err := a.store.Jobs().Enqueue(ctx, storageJob(kind, dl.Payload))
		if err != nil {
			return err
		}

		if err := a.store.DeadLetters().UpdateStatus(ctx, id, domain.DeadLetterRetrying); err != nil {
			return err
		}

		fmt.Printf("requeued dead letter %d as job %d (%s)\n", id, jobID, kind)
		return nil
	},
}

func setDeadLetterStatus(cmd *cobra.Command, arg string, status domain.DeadLetterStatus) error {
	ctx := cmd.Context()
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.store.DeadLetters().UpdateStatus(ctx, id, status)
}

func retryKindFor(kind domain.DeadLetterKind) (scheduler.Kind, error) {
	switch kind {
	case domain.DeadLetterDownload:
		return scheduler.KindMonitorDownload, nil
	case domain.DeadLetterImport:
		return scheduler.KindImportCompleted, nil
	case domain.DeadLetterSearch:
		return scheduler.KindSearchMovie, nil
	default:
		return "", fmt.Errorf("dead letter: no retry mapping for kind %q", kind)
	}
}

func storageJob(kind scheduler.Kind, payload []byte) storage.Job {
	return storage.Job{
		Kind:        string(kind),
		Payload:     payload,
		MaxAttempts: 3,
		RunAfter:    time.Now(),
	}
}

func parseID(arg string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", arg, err)
	}
	return id, nil
}

func init() {
	deadLetterListCmd.Flags().StringVar(&deadLetterListStatus, "status", string(domain.DeadLetterFailed), "failed|retrying|resolved|ignored")
	deadLetterCmd.AddCommand(deadLetterListCmd, deadLetterIgnoreCmd, deadLetterResolveCmd, deadLetterRetryCmd)
	rootCmd.AddCommand(deadLetterCmd)
}
