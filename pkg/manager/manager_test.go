package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/metadataclient"
)

func TestAddMovie_looksUpMetadataAndPersists(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	profileID := seedProfile(t, store, 8, 9)

	meta := &fakeMetadata{byID: map[int64]metadataclient.MovieMetadata{
		603: {TMDBID: 603, IMDBID: "tt0133093", Title: "The Matrix", Year: 1999, Overview: "A hacker discovers reality is a simulation."},
	}}
	m, _ := newTestManager(t, store, &fakeIndexer{}, &fakeDownloader{}, meta)

	movie, err := m.AddMovie(ctx, 603, profileID, true)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, 1999, movie.Year)
	assert.NotZero(t, movie.ID)

	again, err := m.AddMovie(ctx, 603, profileID, true)
	require.NoError(t, err)
	assert.Equal(t, movie.ID, again.ID)
	assert.Equal(t, 1, meta.lookupCalls())
}

func TestWantedMovies_onlyMonitoredWithoutFile(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	profileID := seedProfile(t, store, 8, 9)

	wanted := seedMovie(t, store, profileID, true)
	_, err := store.Movies().Create(ctx, domain.Movie{Title: "Has File", Year: 2020, Monitored: true, HasFile: true, QualityProfileID: profileID})
	require.NoError(t, err)
	_, err = store.Movies().Create(ctx, domain.Movie{Title: "Unmonitored", Year: 2020, Monitored: false, QualityProfileID: profileID})
	require.NoError(t, err)

	m, _ := newTestManager(t, store, &fakeIndexer{}, &fakeDownloader{}, &fakeMetadata{})
	movies, err := m.WantedMovies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, wanted.ID, movies[0].ID)
}

func TestStats_countsQueueAndJobs(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	profileID := seedProfile(t, store, 8, 9)
	movie := seedMovie(t, store, profileID, true)

	_, err := store.QueueItems().Create(ctx, domain.QueueItem{MovieID: movie.ID, Status: domain.QueueQueued})
	require.NoError(t, err)
	_, err = store.QueueItems().Create(ctx, domain.QueueItem{MovieID: movie.ID, Status: domain.QueueDownloading})
	require.NoError(t, err)

	m, _ := newTestManager(t, store, &fakeIndexer{}, &fakeDownloader{}, &fakeMetadata{})
	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.QueuedCount)
	assert.Equal(t, 1, stats.DownloadingCount)
}

func TestRegisterHandlers_bindsEverySchedulerKind(t *testing.T) {
	store := initStore(t)
	m, _ := newTestManager(t, store, &fakeIndexer{}, &fakeDownloader{}, &fakeMetadata{})
	m.RegisterHandlers()
}
