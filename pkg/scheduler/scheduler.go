// Package scheduler implements the durable job/queue scheduler: typed
// jobs, strict priority tiers with aging promotion, a bounded worker pool
// claiming work via CAS lease, retry/backoff through pkg/blocklist's
// reason taxonomy, and dead-lettering on exhaustion. Uses a ticker-driven
// scheduling loop with cache-tracked in-flight jobs and cancel-on-shutdown,
// backed by a lease-based worker pool so the queue can support concurrent
// claims across many workers.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/kasuboski/reelwatch/pkg/blocklist"
	"github.com/kasuboski/reelwatch/pkg/cache"
	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/eventbus"
	"github.com/kasuboski/reelwatch/pkg/logger"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

// Kind enumerates the typed job kinds the scheduler can run.
type Kind string

const (
	KindSearchMovie        Kind = "SearchMovie"
	KindGrabRelease        Kind = "GrabRelease"
	KindMonitorDownload    Kind = "MonitorDownload"
	KindImportCompleted    Kind = "ImportCompleted"
	KindRefreshMetadata    Kind = "RefreshMetadata"
	KindSyncList           Kind = "SyncList"
	KindHealthCheckService Kind = "HealthCheckService"
)

// Priority is one of the four ordering tiers; higher sorts first in Lease.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityVeryHigh
)

// SearchMoviePayload is KindSearchMovie's typed body.
type SearchMoviePayload struct {
	MovieID int64 `json:"movie_id"`
}

// GrabReleasePayload is KindGrabRelease's typed body.
type GrabReleasePayload struct {
	MovieID     int64  `json:"movie_id"`
	IndexerID   int64  `json:"indexer_id"`
	ReleaseGUID string `json:"release_guid"`
	Title       string `json:"title"`
	DownloadURL string `json:"download_url"`
	Size        int64  `json:"size"`
}

// MonitorDownloadPayload is KindMonitorDownload's typed body.
type MonitorDownloadPayload struct {
	QueueItemID int64 `json:"queue_item_id"`
}

// ImportCompletedPayload is KindImportCompleted's typed body.
type ImportCompletedPayload struct {
	QueueItemID int64  `json:"queue_item_id"`
	LocalPath   string `json:"local_path"`
}

// RefreshMetadataPayload is KindRefreshMetadata's typed body.
type RefreshMetadataPayload struct {
	MovieID int64 `json:"movie_id"`
}

// SyncListPayload is KindSyncList's typed body. Concrete list sources
// (Trakt/IMDb/TMDb) are out of scope; the executor registered for this
// kind, if any, only needs to honor the contract below.
type SyncListPayload struct {
	ListID string `json:"list_id"`
}

// HealthCheckServicePayload is KindHealthCheckService's typed body.
type HealthCheckServicePayload struct {
	ServiceID string `json:"service_id"`
}

// Handler executes one job's kind-specific work. A non-nil, non-Retryable
// error is terminal for that attempt regardless of remaining attempts
// (permanent-failure reasons skip retry); a HandlerError with
// Reason classifies the failure so backoff/blocklisting follow the right
// policy. Handlers must be idempotent on (kind, payload): a crash after a
// side effect but before Complete is always possible.
type Handler func(ctx context.Context, job storage.Job) error

// HandlerError carries a blocklist reason alongside the underlying error so
// Scheduler can compute the correct backoff and decide retry eligibility.
type HandlerError struct {
	Reason domain.BlockReason
	Err    error
}

func (e *HandlerError) Error() string { return e.Err.Error() }
func (e *HandlerError) Unwrap() error { return e.Err }

// Config tunes the worker pool and periodic sweeps.
type Config struct {
	Workers             int           // bound worker pool size, default 8
	PollInterval        time.Duration // how often idle workers poll for leasable jobs
	LeaseDuration       time.Duration // how long a claimed job's lease is held
	AgingThreshold      time.Duration // Low jobs pending longer than this promote to Normal
	AgingInterval       time.Duration // how often the aging sweep runs
	CleanupInterval     time.Duration // how often expired blocklist entries are purged
	SearchSweepInterval time.Duration // how often SearchSweep runs, 0 disables it
}

// ConfigFromSettings maps config.Jobs/config.Scheduler's cadence settings
// onto a scheduler.Config, keeping the worker pool's tuning and the
// gocron sweep intervals in one place for cmd's wiring.
func ConfigFromSettings(workerCount int, pollInterval, leaseDuration, lowPriorityAgeAfter, cleanupPeriod, searchSweepInterval time.Duration) Config {
	return Config{
		Workers:             workerCount,
		PollInterval:        pollInterval,
		LeaseDuration:       leaseDuration,
		AgingThreshold:      lowPriorityAgeAfter,
		AgingInterval:       cleanupPeriod,
		CleanupInterval:     cleanupPeriod,
		SearchSweepInterval: searchSweepInterval,
	}
}

func (c *Config) setDefaults() {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.LeaseDuration <= 0 {
		c.LeaseDuration = 5 * time.Minute
	}
	if c.AgingThreshold <= 0 {
		c.AgingThreshold = 10 * time.Minute
	}
	if c.AgingInterval <= 0 {
		c.AgingInterval = time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 15 * time.Minute
	}
}

// Scheduler runs the worker pool and periodic sweeps against a
// storage.Store-backed job queue.
type Scheduler struct {
	store      storage.Store
	blocklist  *blocklist.Service
	bus        *eventbus.Bus
	cfg        Config
	handlers   map[Kind]Handler
	owner      string
	running    *cache.Cache[int64, context.CancelFunc]

	// searchSweep, when set, is invoked on every SearchSweepInterval tick
	// to enqueue SearchMovie jobs for monitored movies due a recheck. The
	// manager wires this once it owns the movie catalog; the scheduler
	// itself has no notion of "which movies need searching".
	searchSweep func(ctx context.Context) error
}

// New constructs a Scheduler. Its lease owner is always a fresh uuid so
// two process instances never collide on lease ownership.
func New(store storage.Store, bl *blocklist.Service, bus *eventbus.Bus, cfg Config) *Scheduler {
	cfg.setDefaults()
	return &Scheduler{
		store:     store,
		blocklist: bl,
		bus:       bus,
		cfg:       cfg,
		handlers:  map[Kind]Handler{},
		owner:     uuid.NewString(),
		running:   cache.New[int64, context.CancelFunc](),
	}
}

// Register binds a Handler to a job Kind. Call before Run.
func (s *Scheduler) Register(kind Kind, h Handler) {
	s.handlers[kind] = h
}

// RegisterSearchSweep binds the periodic SearchMovie-enqueue sweep. Call
// before Run; a nil sweep (the default) leaves SearchSweepInterval inert.
func (s *Scheduler) RegisterSearchSweep(fn func(ctx context.Context) error) {
	s.searchSweep = fn
}

// Enqueue inserts a new job at the given priority, ready immediately unless
// runAfter is in the future.
func (s *Scheduler) Enqueue(ctx context.Context, kind Kind, priority Priority, payload any, maxAttempts int, runAfter time.Time) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal job payload: %w", err)
	}
	if runAfter.IsZero() {
		runAfter = time.Now()
	}
	return s.store.Jobs().Enqueue(ctx, storage.Job{
		Kind:        string(kind),
		Priority:    int(priority),
		Payload:     body,
		MaxAttempts: maxAttempts,
		RunAfter:    runAfter,
	})
}

// Run starts the worker pool and the recurring sweeps, blocking until ctx
// is cancelled. The worker pool polls continuously for leasable work;
// aging, blocklist cleanup, and (if registered) the search sweep run on
// gocron-scheduled intervals, matching the distinction drawn
// between continuous dequeue and periodic housekeeping.
func (s *Scheduler) Run(ctx context.Context) error {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create gocron scheduler: %w", err)
	}

	if _, err := gs.NewJob(
		gocron.DurationJob(s.cfg.AgingInterval),
		gocron.NewTask(func() { s.promoteAgedJobs(ctx) }),
		gocron.WithName("job-aging-sweep"),
	); err != nil {
		return fmt.Errorf("schedule aging sweep: %w", err)
	}

	if _, err := gs.NewJob(
		gocron.DurationJob(s.cfg.CleanupInterval),
		gocron.NewTask(func() { s.runCleanup(ctx) }),
		gocron.WithName("blocklist-cleanup-sweep"),
	); err != nil {
		return fmt.Errorf("schedule cleanup sweep: %w", err)
	}

	if s.searchSweep != nil && s.cfg.SearchSweepInterval > 0 {
		if _, err := gs.NewJob(
			gocron.DurationJob(s.cfg.SearchSweepInterval),
			gocron.NewTask(func() { s.runSearchSweep(ctx) }),
			gocron.WithName("search-sweep"),
		); err != nil {
			return fmt.Errorf("schedule search sweep: %w", err)
		}
	}

	gs.Start()
	defer gs.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.workerLoop(ctx, id)
		}(i)
	}

	wg.Wait()
	return nil
}

func (s *Scheduler) workerLoop(ctx context.Context, id int) {
	log := logger.FromCtx(ctx).With("worker", id)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jobs, err := s.store.Jobs().Lease(ctx, s.owner, 1, time.Now().Add(s.cfg.LeaseDuration))
			if err != nil {
				log.Debugw("lease failed", "error", err)
				continue
			}
			for _, job := range jobs {
				s.execute(ctx, job)
			}
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job storage.Job) {
	log := logger.FromCtx(ctx).With("job_id", job.ID, "kind", job.Kind)

	handler, ok := s.handlers[Kind(job.Kind)]
	if !ok {
		log.Errorw("no handler registered for job kind")
		s.store.Jobs().Fail(ctx, job.ID, "no handler registered", time.Now().Add(time.Hour))
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	s.running.Set(job.ID, cancel)
	defer func() {
		s.running.Delete(job.ID)
		cancel()
	}()

	err := handler(jobCtx, job)
	if err == nil {
		if compErr := s.store.Jobs().Complete(ctx, job.ID); compErr != nil {
			log.Errorw("failed to mark job complete", "error", compErr)
		}
		return
	}

	s.handleFailure(ctx, job, err)
}

// handleFailure classifies the error, decides retry vs. dead-letter, and
// publishes the corresponding event. A handler cancelled by shutdown (not
// an ordinary backend failure) skips classification/backoff entirely: its
// lease is released back to Pending for immediate pickup on restart, using
// a context detached from the cancelled one so the release write itself
// isn't cut short by the same shutdown.
func (s *Scheduler) handleFailure(ctx context.Context, job storage.Job, err error) {
	log := logger.FromCtx(ctx).With("job_id", job.ID, "kind", job.Kind)

	if errors.Is(err, context.Canceled) {
		release := context.WithoutCancel(ctx)
		if failErr := s.store.Jobs().Fail(release, job.ID, "released on shutdown", time.Now()); failErr != nil {
			log.Errorw("failed to release lease on shutdown", "error", failErr)
		}
		return
	}

	reason := domain.ReasonNetworkError
	var handlerErr *HandlerError
	if asHandlerError(err, &handlerErr) {
		reason = handlerErr.Reason
	}

	attempt := job.Attempts + 1
	retryable := blocklist.Retryable(reason, attempt) && (job.MaxAttempts <= 0 || attempt < job.MaxAttempts)

	if retryable {
		delay := blocklist.Delay(reason, attempt, 0)
		if failErr := s.store.Jobs().Fail(ctx, job.ID, err.Error(), time.Now().Add(delay)); failErr != nil {
			log.Errorw("failed to record job failure", "error", failErr)
		}
		return
	}

	if failErr := s.store.Jobs().Fail(ctx, job.ID, err.Error(), time.Now()); failErr != nil {
		log.Errorw("failed to record terminal job failure", "error", failErr)
	}
	s.deadLetter(ctx, job, err)
}

func (s *Scheduler) deadLetter(ctx context.Context, job storage.Job, err error) {
	log := logger.FromCtx(ctx).With("job_id", job.ID, "kind", job.Kind)

	history := []string{err.Error()}
	if job.LastError != "" && job.LastError != err.Error() {
		history = append([]string{job.LastError}, history...)
	}

	dl := domain.DeadLetter{
		Kind:         jobKindToDeadLetterKind(Kind(job.Kind)),
		LastError:    err.Error(),
		ErrorHistory: history,
		Payload:      job.Payload,
		Status:       domain.DeadLetterFailed,
		CreatedAt:    time.Now(),
	}
	id, dlErr := s.store.DeadLetters().Create(ctx, dl)
	if dlErr != nil {
		log.Errorw("failed to create dead letter", "error", dlErr)
		return
	}

	if s.bus != nil {
		s.bus.Publish(ctx, eventbus.Event{
			Kind:      eventbus.KindJobDeadLettered,
			Publisher: fmt.Sprintf("job:%d", job.ID),
			Payload:   map[string]any{"dead_letter_id": id, "job_id": job.ID, "kind": job.Kind},
		})
	}
}

func jobKindToDeadLetterKind(kind Kind) domain.DeadLetterKind {
	switch kind {
	case KindGrabRelease, KindMonitorDownload:
		return domain.DeadLetterDownload
	case KindImportCompleted:
		return domain.DeadLetterImport
	default:
		return domain.DeadLetterSearch
	}
}

// asHandlerError is a small errors.As wrapper kept local so callers don't
// need to import "errors" just to unwrap HandlerError.
func asHandlerError(err error, target **HandlerError) bool {
	for err != nil {
		if he, ok := err.(*HandlerError); ok {
			*target = he
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// promoteAgedJobs promotes long-pending Low-priority jobs to Normal to
// avoid starvation under strict tier ordering. Invoked by the
// gocron aging-sweep job.
func (s *Scheduler) promoteAgedJobs(ctx context.Context) {
	log := logger.FromCtx(ctx)
	cutoff := time.Now().Add(-s.cfg.AgingThreshold)
	n, err := s.store.Jobs().PromoteAged(ctx, int(PriorityLow), int(PriorityNormal), cutoff)
	if err != nil {
		log.Debugw("aging sweep failed", "error", err)
		return
	}
	if n > 0 {
		log.Debugw("aging sweep promoted jobs", "count", n)
	}
}

// runCleanup purges expired blocklist entries. Invoked by the gocron
// cleanup-sweep job.
func (s *Scheduler) runCleanup(ctx context.Context) {
	if s.blocklist == nil {
		return
	}
	log := logger.FromCtx(ctx)
	n, err := s.blocklist.Cleanup(ctx)
	if err != nil {
		log.Debugw("blocklist cleanup failed", "error", err)
		return
	}
	if n > 0 {
		log.Debugw("blocklist cleanup", "purged", n)
	}
}

// runSearchSweep invokes the registered search sweep, if any. Invoked by
// the gocron search-sweep job.
func (s *Scheduler) runSearchSweep(ctx context.Context) {
	log := logger.FromCtx(ctx)
	if err := s.searchSweep(ctx); err != nil {
		log.Debugw("search sweep failed", "error", err)
	}
}

// Cancel stops a running job's context, letting its handler observe
// cancellation and return promptly.
func (s *Scheduler) Cancel(jobID int64) bool {
	cancel, ok := s.running.Get(jobID)
	if !ok {
		return false
	}
	cancel()
	return true
}
