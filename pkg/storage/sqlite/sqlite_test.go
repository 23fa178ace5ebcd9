package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

func jobFixture() storage.Job {
	return storage.Job{Kind: "search", Priority: 1, MaxAttempts: 3, RunAfter: time.Now().Add(-time.Minute)}
}

func timeNow() time.Time         { return time.Now() }
func timeNowPlusHour() time.Time { return time.Now().Add(time.Hour) }
func timePast() time.Time        { return time.Now().Add(-time.Hour) }

func initStore(t *testing.T) *SQLite {
	t.Helper()
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations(ctx))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMovieRepository_CreateGetUpdateDelete(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()

	profiles, err := store.QualityProfiles().List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 6)

	id, err := store.Movies().Create(ctx, domain.Movie{
		Title:            "Heat",
		Year:             1995,
		Monitored:        true,
		QualityProfileID: profiles[0].ID,
		Metadata:         map[string]any{"tmdb_vote": 8.1},
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := store.Movies().Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Heat", got.Title)
	require.Equal(t, 1995, got.Year)
	require.Equal(t, 8.1, got.Metadata["tmdb_vote"])

	got.Title = "Heat (1995)"
	require.NoError(t, store.Movies().Update(ctx, id, got))

	updated, err := store.Movies().Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Heat (1995)", updated.Title)

	require.NoError(t, store.Movies().Delete(ctx, id))
	_, err = store.Movies().Get(ctx, id)
	require.Error(t, err)
}

func TestQueueItemRepository_ListByStatus(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()

	profiles, err := store.QualityProfiles().List(ctx)
	require.NoError(t, err)

	movieID, err := store.Movies().Create(ctx, domain.Movie{Title: "Collateral", Year: 2004, QualityProfileID: profiles[0].ID})
	require.NoError(t, err)

	_, err = store.QueueItems().Create(ctx, domain.QueueItem{
		MovieID:      movieID,
		IndexerID:    1,
		ReleaseTitle: "Collateral 2004 1080p BluRay-GROUP",
		ReleaseGUID:  "guid-1",
		Status:       domain.QueueDownloading,
		MaxRetries:   3,
	})
	require.NoError(t, err)

	items, err := store.QueueItems().ListByStatus(ctx, domain.QueueDownloading)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "guid-1", items[0].ReleaseGUID)

	none, err := store.QueueItems().ListByStatus(ctx, domain.QueueCompleted)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestJobRepository_LeaseIsExclusive(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()

	for i := 0; i < 3; i++ {
		_, err := store.Jobs().Enqueue(ctx, jobFixture())
		require.NoError(t, err)
	}

	leased, err := store.Jobs().Lease(ctx, "worker-a", 2, timeNowPlusHour())
	require.NoError(t, err)
	require.Len(t, leased, 2)

	remaining, err := store.Jobs().CountByStatus(ctx, jobStatusPending)
	require.NoError(t, err)
	require.Equal(t, 1, remaining)

	leasedAgain, err := store.Jobs().Lease(ctx, "worker-b", 2, timeNowPlusHour())
	require.NoError(t, err)
	require.Len(t, leasedAgain, 1, "already-leased jobs must not be re-leased")
}

func TestBlocklistRepository_UpsertAndExpire(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()

	entry := domain.BlocklistEntry{
		IndexerID:    1,
		ReleaseGUID:  "guid-x",
		Reason:       domain.ReasonNetworkError,
		BlockedUntil: timePast(),
		ReleaseTitle: "Heat 1995",
	}
	require.NoError(t, store.Blocklist().Upsert(ctx, entry))

	got, err := store.Blocklist().Get(ctx, 1, "guid-x")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, domain.ReasonNetworkError, got.Reason)

	entry.RetryCount = 2
	require.NoError(t, store.Blocklist().Upsert(ctx, entry))
	got, err = store.Blocklist().Get(ctx, 1, "guid-x")
	require.NoError(t, err)
	require.Equal(t, 2, got.RetryCount)

	n, err := store.Blocklist().DeleteExpired(ctx, timeNow())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	missing, err := store.Blocklist().Get(ctx, 1, "guid-x")
	require.NoError(t, err)
	require.Nil(t, missing)
}
