package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasuboski/reelwatch/pkg/pagination"
	"github.com/kasuboski/reelwatch/pkg/scheduler"
)

var movieCmd = &cobra.Command{
	Use:   "movie",
	Short: "manage monitored movies",
}

var (
	addProfileID int64
	addMonitored bool
)

var movieAddCmd = &cobra.Command{
	Use:   "add <tmdb-id>",
	Short: "look up a movie by TMDB id and start monitoring it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var tmdbID int64
		if _, err := fmt.Sscanf(args[0], "%d", &tmdbID); err != nil {
			return fmt.Errorf("invalid tmdb id %q: %w", args[0], err)
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		movie, err := a.mgr.AddMovie(ctx, tmdbID, addProfileID, addMonitored)
		if err != nil {
			return err
		}

		if addMonitored {
			if _, err := a.sched.Enqueue(ctx, scheduler.KindSearchMovie, scheduler.PriorityNormal,
				scheduler.SearchMoviePayload{MovieID: movie.ID}, 3, time.Time{}); err != nil {
				return fmt.Errorf("enqueue initial search: %w", err)
			}
		}

		fmt.Printf("added movie %d: %s (%d)\n", movie.ID, movie.Title, movie.Year)
		return nil
	},
}

var (
	listPage     int
	listPageSize int
)

var movieListCmd = &cobra.Command{
	Use:   "list",
	Short: "list monitored movies missing a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		movies, err := a.mgr.WantedMovies(ctx)
		if err != nil {
			return err
		}

		params := pagination.Params{Page: listPage, PageSize: listPageSize}
		offset, limit := params.CalculateOffsetLimit()
		page := paginate(movies, offset, limit)

		for _, m := range page {
			fmt.Printf("%d\t%s (%d)\n", m.ID, m.Title, m.Year)
		}
		if limit > 0 {
			meta := params.BuildMeta(len(movies))
			fmt.Printf("page %d/%d (%d total)\n", meta.Page, meta.TotalPages, meta.TotalItems)
		}
		return nil
	},
}

// paginate slices s to the [offset, offset+limit) window; a zero limit
// (PageSize unset) returns s unsliced, matching pagination.Params'
// own "no paging requested" convention.
func paginate[T any](s []T, offset, limit int) []T {
	if limit == 0 {
		return s
	}
	if offset >= len(s) {
		return nil
	}
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	return s[offset:end]
}

func init() {
	movieAddCmd.Flags().Int64Var(&addProfileID, "profile", 0, "quality profile id")
	movieAddCmd.Flags().BoolVar(&addMonitored, "monitored", true, "monitor for acquisition after adding")
	movieAddCmd.MarkFlagRequired("profile")

	movieListCmd.Flags().IntVar(&listPage, "page", 1, "page number, 1-indexed")
	movieListCmd.Flags().IntVar(&listPageSize, "page-size", 0, "rows per page, 0 prints every row")

	movieCmd.AddCommand(movieAddCmd, movieListCmd)
	rootCmd.AddCommand(movieCmd)
}
