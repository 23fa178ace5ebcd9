// Package manager is the orchestrator wiring the decision engine, the
// scheduler's typed job handlers, the resilience-wrapped external clients,
// the blocklist, the import pipeline, and the event bus into the single
// acquisition loop: search -> grab -> monitor -> import.
// Modeled on a MediaManager-shaped reconcile loop (its reconcile
// functions and SearchIndexers fan-out), generalized from a single-media
// ticker-driven reconcile loop and DB-backed multi-indexer/multi-client
// registry into scheduler.Handler callbacks against this module's single
// statically-configured indexer, metadata, and download-client endpoints.
package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/kasuboski/reelwatch/pkg/blocklist"
	"github.com/kasuboski/reelwatch/pkg/cache"
	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/downloadclient"
	"github.com/kasuboski/reelwatch/pkg/eventbus"
	"github.com/kasuboski/reelwatch/pkg/importpipeline"
	"github.com/kasuboski/reelwatch/pkg/indexerclient"
	dio "github.com/kasuboski/reelwatch/pkg/io"
	"github.com/kasuboski/reelwatch/pkg/metadataclient"
	"github.com/kasuboski/reelwatch/pkg/resilience"
	"github.com/kasuboski/reelwatch/pkg/scheduler"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

// Config tunes the manager's non-client behavior. Cadences mirror
// config.Jobs so cmd/ can build this directly off the loaded configuration.
type Config struct {
	SearchCategories   []int
	DownloadCategory   string
	SearchCooldown     time.Duration // requeue delay after every search attempt
	MonitorInterval    time.Duration // delay between MonitorDownload re-enqueues while in flight
	StallWindow        time.Duration // no progress for this long while Downloading -> Stalled
	FuzzyTitleThreshold float64
	Import             importpipeline.Settings
}

func (c *Config) setDefaults() {
	if len(c.SearchCategories) == 0 {
		c.SearchCategories = []int{2000}
	}
	if c.SearchCooldown <= 0 {
		c.SearchCooldown = 6 * time.Hour
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = 30 * time.Second
	}
	if c.StallWindow <= 0 {
		c.StallWindow = 30 * time.Minute
	}
	if c.FuzzyTitleThreshold <= 0 {
		c.FuzzyTitleThreshold = 0.2
	}
}

// Manager owns the single indexer/download/metadata endpoint this module
// talks to and every piece of domain logic that reacts to a scheduler job.
type Manager struct {
	store     storage.Store
	indexer   indexerclient.Client
	downloads downloadclient.Client
	metadata  metadataclient.Client
	blocklist *blocklist.Service
	bus       *eventbus.Bus
	sched     *scheduler.Scheduler
	io        dio.FileIO
	cfg       Config
	now       func() time.Time

	indexerPolicy  resilience.Policy
	downloadPolicy resilience.Policy
	metadataPolicy resilience.Policy

	// stallTracker records, per queue item, the last byte count observed
	// and when it last changed, so handleMonitorDownload can detect a
	// download that stopped making progress without a dedicated storage
	// column for it.
	stallTracker *cache.Cache[int64, stallState]
}

type stallState struct {
	bytes       int64
	lastChanged time.Time
}

// New wires a Manager. Each Policy's Breaker/Limiter should already be
// constructed per endpoint by the caller (cmd/), with OnStateChange
// publishing eventbus.KindBreakerTransition through bus.
func New(
	store storage.Store,
	indexer indexerclient.Client,
	downloads downloadclient.Client,
	metadata metadataclient.Client,
	bl *blocklist.Service,
	bus *eventbus.Bus,
	sched *scheduler.Scheduler,
	io dio.FileIO,
	indexerPolicy, downloadPolicy, metadataPolicy resilience.Policy,
	cfg Config,
) *Manager {
	cfg.setDefaults()
	return &Manager{
		store:          store,
		indexer:        indexer,
		downloads:      downloads,
		metadata:       metadata,
		blocklist:      bl,
		bus:            bus,
		sched:          sched,
		io:             io,
		cfg:            cfg,
		now:            time.Now,
		indexerPolicy:  indexerPolicy,
		downloadPolicy: downloadPolicy,
		metadataPolicy: metadataPolicy,
		stallTracker:   cache.New[int64, stallState](),
	}
}

// RegisterHandlers binds every scheduler.Kind this package knows how to
// execute, plus the recurring search sweep. Call before sched.Run.
func (m *Manager) RegisterHandlers() {
	m.sched.Register(scheduler.KindSearchMovie, m.handleSearchMovie)
	m.sched.Register(scheduler.KindGrabRelease, m.handleGrabRelease)
	m.sched.Register(scheduler.KindMonitorDownload, m.handleMonitorDownload)
	m.sched.Register(scheduler.KindImportCompleted, m.handleImportCompleted)
	m.sched.Register(scheduler.KindRefreshMetadata, m.handleRefreshMetadata)
	m.sched.Register(scheduler.KindHealthCheckService, m.handleHealthCheckService)
	m.sched.RegisterSearchSweep(m.enqueueDueSearches)
}

// AddMovie looks the title up against the metadata provider and creates a
// monitored Movie row tracked against profileID. Mirrors the usual
// AddMovieRequest/AddMovieToLibrary flow, trimmed to this module's
// single-metadata-provider, movie-only scope.
func (m *Manager) AddMovie(ctx context.Context, tmdbID int64, profileID int64, monitored bool) (domain.Movie, error) {
	if existing, err := m.store.Movies().GetByTMDBID(ctx, tmdbID); err == nil {
		return existing, nil
	}

	meta, err := resilience.Call(ctx, m.metadataPolicy, func(ctx context.Context) (metadataclient.MovieMetadata, error) {
		return m.metadata.LookupByID(ctx, tmdbID)
	})
	if err != nil {
		return domain.Movie{}, fmt.Errorf("lookup metadata for tmdb %d: %w", tmdbID, err)
	}

	movie := domain.Movie{
		TMDBID:           &tmdbID,
		Title:            meta.Title,
		Year:             meta.Year,
		Monitored:        monitored,
		QualityProfileID: profileID,
		Metadata:         map[string]any{"overview": meta.Overview, "poster_path": meta.PosterPath},
		CreatedAt:        m.now(),
		UpdatedAt:        m.now(),
	}
	if meta.IMDBID != "" {
		movie.IMDBID = &meta.IMDBID
	}

	id, err := m.store.Movies().Create(ctx, movie)
	if err != nil {
		return domain.Movie{}, fmt.Errorf("create movie: %w", err)
	}
	movie.ID = id
	return movie, nil
}

// WantedMovies is the read-model backing the recurring search sweep:
// monitored movies without a file, grounded on owine-radarr-go's wanted
// movie query shape (movies with no current MovieFileID and Monitored=true).
func (m *Manager) WantedMovies(ctx context.Context) ([]domain.Movie, error) {
	t, f := true, false
	return m.store.Movies().List(ctx, storage.MovieFilter{Monitored: &t, HasFile: &f})
}

// Stats is the read-model backing a CLI status snapshot: active queue
// depth, job counts by state, and the dead-letter count.
type Stats struct {
	QueuedCount        int
	DownloadingCount   int
	PendingJobs        int
	LeasedJobs         int
	DeadLetterCount    int
}

// Stats computes the read-model above. Counts are best-effort: a failed
// sub-query only zeroes its own field rather than aborting the whole snapshot.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	var s Stats

	if items, err := m.store.QueueItems().ListByStatus(ctx, domain.QueueQueued); err == nil {
		s.QueuedCount = len(items)
	}
	if items, err := m.store.QueueItems().ListByStatus(ctx, domain.QueueDownloading); err == nil {
		s.DownloadingCount = len(items)
	}
	if n, err := m.store.Jobs().CountByStatus(ctx, "pending"); err == nil {
		s.PendingJobs = n
	}
	if n, err := m.store.Jobs().CountByStatus(ctx, "leased"); err == nil {
		s.LeasedJobs = n
	}
	if dls, err := m.store.DeadLetters().List(ctx, domain.DeadLetterFailed); err == nil {
		s.DeadLetterCount = len(dls)
	}
	return s, nil
}

// handlerErr wraps err as a scheduler.HandlerError carrying reason, the
// shared helper every handler in this package uses to classify failures.
func handlerErr(reason domain.BlockReason, err error) error {
	if err == nil {
		return nil
	}
	return &scheduler.HandlerError{Reason: reason, Err: err}
}

// blocklistRelease records a failed release against the blocklist and
// publishes KindBlocklistAdded, the one call site every handler that
// blocklists a release goes through so the event always follows the write.
func (m *Manager) blocklistRelease(ctx context.Context, indexerID int64, guid string, reason domain.BlockReason, detail string, movieID *int64, releaseTitle string, attempt int) error {
	if err := m.blocklist.Add(ctx, indexerID, guid, reason, detail, movieID, releaseTitle, attempt, 0); err != nil {
		return err
	}
	if m.bus != nil {
		m.bus.Publish(ctx, eventbus.Event{
			Kind:      eventbus.KindBlocklistAdded,
			Publisher: fmt.Sprintf("indexer:%d", indexerID),
			Payload: domain.BlocklistEntry{
				IndexerID:    indexerID,
				ReleaseGUID:  guid,
				Reason:       reason,
				Detail:       detail,
				MovieID:      movieID,
				ReleaseTitle: releaseTitle,
				RetryCount:   attempt,
			},
		})
	}
	return nil
}

