package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kasuboski/reelwatch/pkg/decision"
	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/eventbus"
	"github.com/kasuboski/reelwatch/pkg/indexerclient"
	"github.com/kasuboski/reelwatch/pkg/logger"
	"github.com/kasuboski/reelwatch/pkg/parser"
	"github.com/kasuboski/reelwatch/pkg/quality"
	"github.com/kasuboski/reelwatch/pkg/resilience"
	"github.com/kasuboski/reelwatch/pkg/scheduler"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

// handleSearchMovie runs one search pass for a movie: query the indexer,
// parse and score every candidate, gate on the blocklist, and pick the
// best acceptable release. A miss (no acceptable
// release) is a successful job, not an error; the search sweep retries on
// its own cadence.
func (m *Manager) handleSearchMovie(ctx context.Context, job storage.Job) error {
	var payload scheduler.SearchMoviePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return handlerErr(domain.ReasonParseError, fmt.Errorf("unmarshal search payload: %w", err))
	}

	log := logger.FromCtx(ctx).With("movie_id", payload.MovieID)

	movie, err := m.store.Movies().Get(ctx, payload.MovieID)
	if err != nil {
		return handlerErr(domain.ReasonNetworkError, fmt.Errorf("get movie: %w", err))
	}
	if !movie.Monitored {
		return nil
	}

	profile, err := m.store.QualityProfiles().Get(ctx, movie.QualityProfileID)
	if err != nil {
		return handlerErr(domain.ReasonNetworkError, fmt.Errorf("get quality profile: %w", err))
	}

	var currentFile *domain.MovieFile
	if movie.MovieFileID != nil {
		if f, err := m.store.MovieFiles().Get(ctx, *movie.MovieFileID); err == nil {
			currentFile = &f
		}
	}

	releases, err := m.searchReleases(ctx, movie, profile)
	if err != nil {
		return err
	}

	best, ok := decision.PickBest(releases, decision.Input{
		Movie:          movie,
		Profile:        profile,
		CurrentFile:    currentFile,
		Now:            m.now(),
		FuzzyThreshold: m.cfg.FuzzyTitleThreshold,
	})

	m.recordSearchAttempt(ctx, movie, ok)

	if m.bus != nil {
		m.bus.Publish(ctx, eventbus.Event{
			Kind:      eventbus.KindSearchCompleted,
			Publisher: fmt.Sprintf("movie:%d", movie.ID),
			Payload:   map[string]any{"movie_id": movie.ID, "candidates": len(releases), "accepted": ok},
		})
	}

	if !ok {
		log.Debugw("search found no acceptable release", "candidates", len(releases))
		return nil
	}

	_, err = m.sched.Enqueue(ctx, scheduler.KindGrabRelease, scheduler.PriorityNormal, scheduler.GrabReleasePayload{
		MovieID:     movie.ID,
		IndexerID:   best.IndexerID,
		ReleaseGUID: best.GUID,
		Title:       best.Title,
		DownloadURL: best.DownloadURL,
		Size:        best.Size,
	}, 3, time.Time{})
	if err != nil {
		return handlerErr(domain.ReasonNetworkError, fmt.Errorf("enqueue grab: %w", err))
	}

	log.Infow("search selected release", "release_title", best.Title, "indexer_id", best.IndexerID)
	return nil
}

// searchReleases queries the indexer through the resilience pipeline, then
// parses every result's title and scores its custom formats so
// decision.PickBest sees a fully populated candidate set. Blocklisted
// releases are dropped up front rather than merely scored lower, since a
// blocklisted GUID must never be re-grabbed regardless of rank.
func (m *Manager) searchReleases(ctx context.Context, movie domain.Movie, profile quality.QualityProfile) ([]domain.Release, error) {
	criteria := indexerclient.SearchCriteria{
		Query:      movie.Title,
		Categories: m.cfg.SearchCategories,
		TMDBID:     movie.TMDBID,
	}

	results, err := resilience.Call(ctx, m.indexerPolicy, func(ctx context.Context) ([]domain.Release, error) {
		return m.indexer.Search(ctx, criteria)
	})
	if err != nil {
		return nil, handlerErr(classifyIndexerError(), fmt.Errorf("indexer search: %w", err))
	}

	formats, err := m.store.CustomFormats().List(ctx)
	if err != nil {
		return nil, handlerErr(domain.ReasonNetworkError, fmt.Errorf("list custom formats: %w", err))
	}

	enriched := make([]domain.Release, 0, len(results))
	for _, r := range results {
		blocked, err := m.blocklist.IsBlocked(ctx, r.IndexerID, r.GUID)
		if err != nil {
			return nil, handlerErr(domain.ReasonNetworkError, fmt.Errorf("check blocklist: %w", err))
		}
		if blocked {
			continue
		}

		d, perr := parser.Parse(filepath.Base(r.Title))
		if perr != nil {
			// Unparseable titles fall back to the Unknown tier rather than
			// being dropped; the profile's Allowed set decides acceptance.
			d.Title = r.Title
			d.Quality = quality.Unknown
		}

		score, matched := scoreFormats(d, formats, profile)

		// d.Title is the parser's cleaned title ("The Matrix"), not the raw
		// indexer string ("The.Matrix.1999.1080p.BluRay.x264-GROUP"); the
		// decision engine's movie-match heuristic compares against this.
		r.Title = d.Title
		r.Year = d.Year
		r.Quality = d.Quality
		r.ReleaseGroup = d.ReleaseGroup
		r.Language = d.Language
		r.MatchedFormats = matched
		r.Score = score

		enriched = append(enriched, r)
	}

	return enriched, nil
}

// classifyIndexerError is a placeholder classifier until a concrete
// indexer adapter's error shapes (rate limit, auth) are distinguished;
// resilience.Call already retries transient network failures on its own
// before this ever surfaces, so by the time a handler sees it retry budget
// is typically exhausted.
func classifyIndexerError() domain.BlockReason {
	return domain.ReasonNetworkError
}

// recordSearchAttempt stamps the movie's metadata bag with the last search
// time, the bookkeeping enqueueDueSearches uses to honor the cooldown
// without a dedicated column (Movie.Metadata exists for exactly
// this kind of supplemental state).
func (m *Manager) recordSearchAttempt(ctx context.Context, movie domain.Movie, hit bool) {
	if movie.Metadata == nil {
		movie.Metadata = map[string]any{}
	}
	movie.Metadata["last_searched_at"] = m.now().Format(time.RFC3339)
	movie.Metadata["last_search_hit"] = hit
	movie.UpdatedAt = m.now()
	_ = m.store.Movies().Update(ctx, movie.ID, movie)
}

// enqueueDueSearches is the registered search sweep: enumerate wanted
// movies and enqueue a SearchMovie job for any whose last attempt (if any)
// is older than the configured cooldown. Modeled on the
// movieIndexTicker/movieReconcileTicker sweep, generalized from a ticker
// callback into the scheduler's own gocron-driven sweep hook.
func (m *Manager) enqueueDueSearches(ctx context.Context) error {
	wanted, err := m.WantedMovies(ctx)
	if err != nil {
		return fmt.Errorf("list wanted movies: %w", err)
	}

	log := logger.FromCtx(ctx)
	enqueued := 0
	for _, movie := range wanted {
		if !m.searchDue(movie) {
			continue
		}
		if _, err := m.sched.Enqueue(ctx, scheduler.KindSearchMovie, scheduler.PriorityLow, scheduler.SearchMoviePayload{MovieID: movie.ID}, 1, time.Time{}); err != nil {
			log.Debugw("failed to enqueue search sweep job", "movie_id", movie.ID, "error", err)
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		log.Debugw("search sweep enqueued jobs", "count", enqueued)
	}
	return nil
}

func (m *Manager) searchDue(movie domain.Movie) bool {
	raw, ok := movie.Metadata["last_searched_at"]
	if !ok {
		return true
	}
	ts, ok := raw.(string)
	if !ok {
		return true
	}
	last, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return true
	}
	return m.now().Sub(last) >= m.cfg.SearchCooldown
}
