// Package storage defines the storage-agnostic repository ports used by the
// decision engine, scheduler, import pipeline, and manager. The sqlite
// implementation lives in pkg/storage/sqlite; callers depend only on these
// interfaces so the persistence layer stays swappable, the same separation
// the split between pkg/storage's interface and pkg/storage/sqlite's
// go-jet implementation.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/quality"
)

// ErrNotFound is returned when a lookup by ID/key finds nothing.
var ErrNotFound = errors.New("storage: not found")

// ErrConflict is returned by inserts that collide with a uniqueness
// constraint the caller didn't pre-check (e.g. a duplicate blocklist key).
var ErrConflict = errors.New("storage: conflict")

// MovieFilter narrows ListMovies; zero-value fields are unconstrained.
type MovieFilter struct {
	Monitored  *bool
	HasFile    *bool
	ProfileID  *int64
}

// MovieRepository persists the movie catalog.
type MovieRepository interface {
	Create(ctx context.Context, m domain.Movie) (int64, error)
	Get(ctx context.Context, id int64) (domain.Movie, error)
	GetByTMDBID(ctx context.Context, tmdbID int64) (domain.Movie, error)
	List(ctx context.Context, filter MovieFilter) ([]domain.Movie, error)
	Update(ctx context.Context, id int64, m domain.Movie) error
	Delete(ctx context.Context, id int64) error
}

// QualityProfileRepository persists quality profiles and their custom
// format score overrides.
type QualityProfileRepository interface {
	Create(ctx context.Context, p quality.QualityProfile) (int64, error)
	Get(ctx context.Context, id int64) (quality.QualityProfile, error)
	List(ctx context.Context) ([]quality.QualityProfile, error)
	Update(ctx context.Context, id int64, p quality.QualityProfile) error
	Delete(ctx context.Context, id int64) error
}

// CustomFormatRepository persists named scoring rules.
type CustomFormatRepository interface {
	Create(ctx context.Context, cf quality.CustomFormat) (int64, error)
	Get(ctx context.Context, id int64) (quality.CustomFormat, error)
	List(ctx context.Context) ([]quality.CustomFormat, error)
	Update(ctx context.Context, id int64, cf quality.CustomFormat) error
	Delete(ctx context.Context, id int64) error
}

// MovieFileRepository persists the one file a Movie owns once imported
//
type MovieFileRepository interface {
	Create(ctx context.Context, f domain.MovieFile) (int64, error)
	Get(ctx context.Context, id int64) (domain.MovieFile, error)
	GetByMovieID(ctx context.Context, movieID int64) (domain.MovieFile, error)
	Delete(ctx context.Context, id int64) error
}

// QueueItemRepository persists in-flight downloads.
type QueueItemRepository interface {
	Create(ctx context.Context, item domain.QueueItem) (int64, error)
	Get(ctx context.Context, id int64) (domain.QueueItem, error)
	ListByStatus(ctx context.Context, statuses ...domain.QueueStatus) ([]domain.QueueItem, error)
	ListByMovie(ctx context.Context, movieID int64) ([]domain.QueueItem, error)
	Update(ctx context.Context, id int64, item domain.QueueItem) error
	Delete(ctx context.Context, id int64) error
}

// JobPayload is the typed, serialized body of one scheduled unit of work
// (one of the scheduler's job kinds, e.g. SearchMovie, GrabRelease,
// ImportCompleted).
type JobPayload struct {
	Kind     string
	Priority int
	Payload  []byte
}

// Job is one row of the scheduler's durable work queue.
type Job struct {
	ID          int64
	Kind        string
	Priority    int
	Payload     []byte
	Status      string // pending|leased|done|failed
	LeaseOwner  string
	LeaseUntil  *time.Time
	Attempts    int
	MaxAttempts int
	LastError   string
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// JobRepository persists the scheduler's durable work queue.
type JobRepository interface {
	Enqueue(ctx context.Context, job Job) (int64, error)
	// Lease atomically claims up to n ready jobs (status=pending,
	// run_after<=now), ordered by priority tier then FIFO, and marks them
	// leased to owner until leaseUntil. Mirrors the CAS-lease semantics
	// keeps safe multi-worker dequeue.
	Lease(ctx context.Context, owner string, n int, leaseUntil time.Time) ([]Job, error)
	Complete(ctx context.Context, id int64) error
	Fail(ctx context.Context, id int64, lastError string, runAfter time.Time) error
	Get(ctx context.Context, id int64) (Job, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	// PromoteAged raises still-pending jobs at fromPriority to toPriority
	// once they've waited longer than olderThan, the starvation-avoidance
	// rule for strict priority ordering. Returns the
	// number of jobs promoted.
	PromoteAged(ctx context.Context, fromPriority, toPriority int, olderThan time.Time) (int64, error)
}

// BlocklistRepository is exactly pkg/blocklist.Store's shape, so the sqlite
// implementation backs blocklist.Service directly without an adapter.
type BlocklistRepository interface {
	Get(ctx context.Context, indexerID int64, guid string) (*domain.BlocklistEntry, error)
	Upsert(ctx context.Context, entry domain.BlocklistEntry) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Remove(ctx context.Context, indexerID int64, guid string) error
}

// DeadLetterRepository persists jobs/releases that exhausted retries
//
type DeadLetterRepository interface {
	Create(ctx context.Context, dl domain.DeadLetter) (int64, error)
	Get(ctx context.Context, id int64) (domain.DeadLetter, error)
	List(ctx context.Context, status domain.DeadLetterStatus) ([]domain.DeadLetter, error)
	UpdateStatus(ctx context.Context, id int64, status domain.DeadLetterStatus) error
}

// SceneGroupRepository persists observed release-group reputation
// statistics used for reputation scoring.
type SceneGroupRepository interface {
	Get(ctx context.Context, name string) (domain.SceneGroup, error)
	Upsert(ctx context.Context, g domain.SceneGroup) error
	List(ctx context.Context) ([]domain.SceneGroup, error)
}

// QualityHistoryRepository persists quality transitions recorded at import
// time.
type QualityHistoryRepository interface {
	Create(ctx context.Context, h domain.QualityHistory) (int64, error)
	ListByMovie(ctx context.Context, movieID int64) ([]domain.QualityHistory, error)
}

// Store aggregates every repository port behind a single
// storage.Store facade that cmd/ and pkg/manager depend on.
type Store interface {
	Movies() MovieRepository
	QualityProfiles() QualityProfileRepository
	CustomFormats() CustomFormatRepository
	MovieFiles() MovieFileRepository
	QueueItems() QueueItemRepository
	Jobs() JobRepository
	Blocklist() BlocklistRepository
	DeadLetters() DeadLetterRepository
	SceneGroups() SceneGroupRepository
	QualityHistory() QualityHistoryRepository

	RunMigrations(ctx context.Context) error
	Close() error
}
