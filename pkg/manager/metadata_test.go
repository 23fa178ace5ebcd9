package manager

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/indexerclient"
	"github.com/kasuboski/reelwatch/pkg/metadataclient"
	"github.com/kasuboski/reelwatch/pkg/resilience"
	"github.com/kasuboski/reelwatch/pkg/scheduler"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

func TestHandleRefreshMetadata_mergesIntoMovie(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	profileID := seedProfile(t, store, 8, 9)
	movie := seedMovie(t, store, profileID, true)

	meta := &fakeMetadata{byID: map[int64]metadataclient.MovieMetadata{
		*movie.TMDBID: {TMDBID: *movie.TMDBID, Title: "The Matrix", Year: 1999, Overview: "A hacker discovers reality is a simulation.", PosterPath: "/poster.jpg", VoteAverage: 8.7},
	}}
	m, _ := newTestManager(t, store, &fakeIndexer{}, &fakeDownloader{}, meta)

	payload, err := json.Marshal(scheduler.RefreshMetadataPayload{MovieID: movie.ID})
	require.NoError(t, err)

	err = m.handleRefreshMetadata(ctx, storage.Job{Payload: payload})
	require.NoError(t, err)

	updated, err := store.Movies().Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, "A hacker discovers reality is a simulation.", updated.Metadata["overview"])
	assert.Equal(t, "/poster.jpg", updated.Metadata["poster_path"])
}

func TestHandleRefreshMetadata_noTMDBIDNoOps(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	profileID := seedProfile(t, store, 8, 9)

	id, err := store.Movies().Create(ctx, domain.Movie{
		Title:            "Unknown Movie",
		Year:             2020,
		Monitored:        true,
		QualityProfileID: profileID,
	})
	require.NoError(t, err)

	m, _ := newTestManager(t, store, &fakeIndexer{}, &fakeDownloader{}, &fakeMetadata{})

	payload, err := json.Marshal(scheduler.RefreshMetadataPayload{MovieID: id})
	require.NoError(t, err)

	err = m.handleRefreshMetadata(ctx, storage.Job{Payload: payload})
	require.NoError(t, err)
}

func TestHandleHealthCheckService_healthyRecordsBreakerSuccess(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()

	breaker := resilience.NewCircuitBreaker("indexer", resilience.BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, RecoveryTimeout: time.Minute})
	breaker.RecordFailure()
	require.Equal(t, resilience.Open, breaker.State())

	indexer := &fakeIndexer{health: indexerclient.HealthStatus{Healthy: true}}
	m, _ := newTestManager(t, store, indexer, &fakeDownloader{}, &fakeMetadata{})
	m.indexerPolicy.Breaker = breaker

	payload, err := json.Marshal(scheduler.HealthCheckServicePayload{ServiceID: "indexer"})
	require.NoError(t, err)

	err = m.handleHealthCheckService(ctx, storage.Job{Payload: payload})
	require.NoError(t, err)
}

func TestHandleHealthCheckService_unrecognizedServiceNoOps(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	m, _ := newTestManager(t, store, &fakeIndexer{}, &fakeDownloader{}, &fakeMetadata{})

	payload, err := json.Marshal(scheduler.HealthCheckServicePayload{ServiceID: "unknown"})
	require.NoError(t, err)

	err = m.handleHealthCheckService(ctx, storage.Job{Payload: payload})
	require.NoError(t, err)
}
