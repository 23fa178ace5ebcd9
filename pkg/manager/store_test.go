package manager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kasuboski/reelwatch/pkg/blocklist"
	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/eventbus"
	dio "github.com/kasuboski/reelwatch/pkg/io"
	"github.com/kasuboski/reelwatch/pkg/quality"
	"github.com/kasuboski/reelwatch/pkg/resilience"
	"github.com/kasuboski/reelwatch/pkg/scheduler"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite"
)

func initStore(t *testing.T) *sqlite.SQLite {
	t.Helper()
	ctx := t.Context()
	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations(ctx))
	t.Cleanup(func() { store.Close() })
	return store
}

func seedProfile(t *testing.T, store *sqlite.SQLite, allowed ...int64) int64 {
	t.Helper()
	if len(allowed) == 0 {
		allowed = []int64{8, 9}
	}
	id, err := store.QualityProfiles().Create(t.Context(), quality.QualityProfile{
		Name:           "HD",
		Allowed:        allowed,
		CutoffID:       allowed[len(allowed)-1],
		UpgradeAllowed: true,
	})
	require.NoError(t, err)
	return id
}

func seedMovie(t *testing.T, store *sqlite.SQLite, profileID int64, monitored bool) domain.Movie {
	t.Helper()
	tmdbID := int64(603)
	movie := domain.Movie{
		TMDBID:           &tmdbID,
		Title:            "The Matrix",
		Year:             1999,
		Monitored:        monitored,
		QualityProfileID: profileID,
	}
	id, err := store.Movies().Create(t.Context(), movie)
	require.NoError(t, err)
	movie.ID = id
	return movie
}

// noRetryPolicy classifies every error as permanent so resilience.Call
// returns on the first failure instead of sleeping through backoff,
// keeping handler tests fast and deterministic.
func noRetryPolicy(endpoint string) resilience.Policy {
	return resilience.Policy{
		Endpoint: endpoint,
		Classify: func(err error) domain.BlockReason { return domain.ReasonManuallyRejected },
	}
}

// newTestManager wires a Manager against a real in-memory store, matching
// the "real stores over mocks" style the rest of this module's tests use.
func newTestManager(t *testing.T, store *sqlite.SQLite, indexer *fakeIndexer, downloads *fakeDownloader, meta *fakeMetadata) (*Manager, *eventbus.Bus) {
	t.Helper()
	bus := eventbus.New(16)
	bl := blocklist.New(store.Blocklist(), nil)
	sched := scheduler.New(store, bl, bus, scheduler.Config{Workers: 1})

	m := New(store, indexer, downloads, meta, bl, bus, sched,
		&dio.MediaFileSystem{},
		noRetryPolicy("indexer"), noRetryPolicy("download"), noRetryPolicy("metadata"),
		Config{
			SearchCategories: []int{2000},
			DownloadCategory: "movies",
			StallWindow:      30 * time.Minute,
			MonitorInterval:  30 * time.Second,
		},
	)
	return m, bus
}
