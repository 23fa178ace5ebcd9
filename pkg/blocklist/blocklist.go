// Package blocklist implements the error-classification, retry-delay, and
// blocklist-TTL policy table.
package blocklist

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"github.com/kasuboski/reelwatch/pkg/domain"
)

// Class is the retry eligibility classification of a BlockReason.
type Class string

const (
	ClassTransient     Class = "transient"
	ClassSemiPermanent Class = "semi_permanent"
	ClassPermanent     Class = "permanent"
)

// Policy is one row of the error taxonomy table.
type Policy struct {
	Class         Class
	BaseDelay     time.Duration
	MaxRetries    int
	ExpBackoff    bool // doubles BaseDelay per attempt, up to a cap
	HonorRetryAfter bool
}

// Policies is the full taxonomy, keyed by reason.
var Policies = map[domain.BlockReason]Policy{
	domain.ReasonConnectionTimeout:  {Class: ClassTransient, BaseDelay: 2 * time.Hour, MaxRetries: 5, ExpBackoff: true},
	domain.ReasonNetworkError:       {Class: ClassTransient, BaseDelay: time.Hour, MaxRetries: 4},
	domain.ReasonServerError:        {Class: ClassTransient, BaseDelay: 30 * time.Minute, MaxRetries: 3},
	domain.ReasonRateLimited:        {Class: ClassTransient, BaseDelay: time.Hour, MaxRetries: 3, HonorRetryAfter: true},
	domain.ReasonAuthenticationFailed: {Class: ClassSemiPermanent, BaseDelay: 6 * time.Hour, MaxRetries: 2},
	domain.ReasonPermissionDenied:   {Class: ClassSemiPermanent, BaseDelay: 2 * time.Hour, MaxRetries: 2},
	domain.ReasonParseError:         {Class: ClassSemiPermanent, BaseDelay: 4 * time.Hour, MaxRetries: 3},
	domain.ReasonDownloadStalled:    {Class: ClassTransient, BaseDelay: 2 * time.Hour, MaxRetries: 4},
	domain.ReasonHashMismatch:       {Class: ClassTransient, BaseDelay: 4 * time.Hour, MaxRetries: 2},
	domain.ReasonCorruptedDownload:  {Class: ClassTransient, BaseDelay: 6 * time.Hour, MaxRetries: 3},
	domain.ReasonDownloadClientError: {Class: ClassTransient, BaseDelay: time.Hour, MaxRetries: 4},
	domain.ReasonDiskFull:           {Class: ClassTransient, BaseDelay: 30 * time.Minute, MaxRetries: 10},
	domain.ReasonQualityRejected:    {Class: ClassPermanent, BaseDelay: 7 * 24 * time.Hour, MaxRetries: 0},
	domain.ReasonSizeRejected:       {Class: ClassPermanent, BaseDelay: 3 * 24 * time.Hour, MaxRetries: 0},
	domain.ReasonExclusionMatched:   {Class: ClassPermanent, BaseDelay: 30 * 24 * time.Hour, MaxRetries: 0},
	domain.ReasonManuallyRejected:   {Class: ClassPermanent, BaseDelay: 30 * 24 * time.Hour, MaxRetries: 0},
	domain.ReasonReleasePurged:      {Class: ClassPermanent, BaseDelay: 7 * 24 * time.Hour, MaxRetries: 1},
	domain.ReasonImportUnsupportedFormat:       {Class: ClassPermanent, BaseDelay: 24 * time.Hour, MaxRetries: 0},
	domain.ReasonImportFileAlreadyExists:       {Class: ClassPermanent, BaseDelay: 24 * time.Hour, MaxRetries: 0},
	domain.ReasonImportFileMoveError:           {Class: ClassTransient, BaseDelay: 30 * time.Minute, MaxRetries: 3},
	domain.ReasonImportDirectoryCreationFailed: {Class: ClassTransient, BaseDelay: time.Hour, MaxRetries: 3},
	domain.ReasonImportQualityAnalysisFailed:   {Class: ClassTransient, BaseDelay: 6 * time.Hour, MaxRetries: 3},
	domain.ReasonImportMediaInfoFailed:         {Class: ClassTransient, BaseDelay: 6 * time.Hour, MaxRetries: 3},
	domain.ReasonImportFilenameParseFailed:     {Class: ClassSemiPermanent, BaseDelay: 12 * time.Hour, MaxRetries: 3},
	domain.ReasonMismatchedMovie:    {Class: ClassPermanent, BaseDelay: 24 * time.Hour, MaxRetries: 0},
	domain.ReasonCircuitOpen:        {Class: ClassTransient, BaseDelay: time.Minute, MaxRetries: 5},
	domain.ReasonRateLimitTimeout:   {Class: ClassTransient, BaseDelay: 5 * time.Minute, MaxRetries: 5},
}

// Retryable reports whether reason permits further retry (class != permanent
// and max retries not yet exhausted).
func Retryable(reason domain.BlockReason, attempt int) bool {
	p, ok := Policies[reason]
	if !ok {
		return false
	}
	if p.Class == ClassPermanent {
		return false
	}
	return attempt < p.MaxRetries
}

// Delay computes the retry delay for the given reason and attempt number
// (1-based), applying exponential backoff and ±20% jitter.
// retryAfter, when non-zero, overrides the computed delay for reasons that
// honor a server Retry-After header.
func Delay(reason domain.BlockReason, attempt int, retryAfter time.Duration) time.Duration {
	p, ok := Policies[reason]
	if !ok {
		return 0
	}
	if p.HonorRetryAfter && retryAfter > 0 {
		return retryAfter
	}

	base := p.BaseDelay
	if p.ExpBackoff && attempt > 1 {
		mult := math.Pow(2, float64(attempt-1))
		const capMultiplier = 8
		if mult > capMultiplier {
			mult = capMultiplier
		}
		base = time.Duration(float64(base) * mult)
	}

	jitterFrac := (rand.Float64()*2 - 1) * 0.2
	return base + time.Duration(float64(base)*jitterFrac)
}

// Store is the persistence contract pkg/storage implements for blocklist
// entries; blocklist logic itself stays storage-agnostic.
type Store interface {
	Get(ctx context.Context, indexerID int64, guid string) (*domain.BlocklistEntry, error)
	Upsert(ctx context.Context, entry domain.BlocklistEntry) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Remove(ctx context.Context, indexerID int64, guid string) error
}

// Service evaluates and maintains the blocklist.
type Service struct {
	store Store
	now   func() time.Time
}

// New constructs a Service. nowFn defaults to time.Now when nil.
func New(store Store, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{store: store, now: nowFn}
}

// IsBlocked reports whether (indexerID, guid) is currently active in the
// blocklist.
func (s *Service) IsBlocked(ctx context.Context, indexerID int64, guid string) (bool, error) {
	entry, err := s.store.Get(ctx, indexerID, guid)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	return s.now().Before(entry.BlockedUntil), nil
}

// Add records a failure, computing BlockedUntil from the reason's policy.
// attempt is the 1-based retry attempt number that triggered this block.
func (s *Service) Add(ctx context.Context, indexerID int64, guid string, reason domain.BlockReason, detail string, movieID *int64, releaseTitle string, attempt int, retryAfter time.Duration) error {
	if _, ok := Policies[reason]; !ok {
		return fmt.Errorf("blocklist: unknown reason %q", reason)
	}

	delay := Delay(reason, attempt, retryAfter)
	now := s.now()
	entry := domain.BlocklistEntry{
		IndexerID:    indexerID,
		ReleaseGUID:  guid,
		Reason:       reason,
		Detail:       detail,
		BlockedUntil: now.Add(delay),
		RetryCount:   attempt,
		MovieID:      movieID,
		ReleaseTitle: releaseTitle,
		CreatedAt:    now,
	}
	return s.store.Upsert(ctx, entry)
}

// Cleanup removes expired blocklist entries and returns how many were purged.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now())
}

// Remove clears a specific blocklist entry (manual unblock).
func (s *Service) Remove(ctx context.Context, indexerID int64, guid string) error {
	return s.store.Remove(ctx, indexerID, guid)
}
