package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kasuboski/reelwatch/pkg/logger"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite"
)

// migrateCmd applies any pending embedded migrations and exits, letting
// operators run it separately from serve (e.g. before a rolling deploy).
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := sqlite.New(ctx, cfg.Storage.FilePath)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.RunMigrations(ctx); err != nil {
			return err
		}
		logger.Get().Infow("migrations applied", "storage", cfg.Storage.FilePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
