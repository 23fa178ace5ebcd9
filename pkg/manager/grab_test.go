package manager

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/reelwatch/pkg/cache"
	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/downloadclient"
	"github.com/kasuboski/reelwatch/pkg/eventbus"
	"github.com/kasuboski/reelwatch/pkg/scheduler"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

func TestHandleGrabRelease_createsQueueItemAndEnqueuesMonitor(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	profileID := seedProfile(t, store, 8, 9)
	movie := seedMovie(t, store, profileID, true)

	downloads := &fakeDownloader{addHandle: "handle-abc"}
	m, bus := newTestManager(t, store, &fakeIndexer{}, downloads, &fakeMetadata{})
	sub := bus.Subscribe(eventbus.KindGrabCompleted)

	payload, err := json.Marshal(scheduler.GrabReleasePayload{
		MovieID:     movie.ID,
		IndexerID:   1,
		ReleaseGUID: "guid-1",
		Title:       "The.Matrix.1999.1080p.BluRay.x264-GROUPB",
		DownloadURL: "magnet:1",
		Size:        10 << 30,
	})
	require.NoError(t, err)

	err = m.handleGrabRelease(ctx, storage.Job{Payload: payload})
	require.NoError(t, err)

	items, err := store.QueueItems().ListByStatus(ctx, domain.QueueQueued)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "handle-abc", items[0].DownloadClientID)
	assert.Equal(t, movie.ID, items[0].MovieID)

	select {
	case ev := <-sub:
		p, ok := ev.Payload.(eventbus.GrabCompletedPayload)
		require.True(t, ok)
		assert.Equal(t, items[0].ID, p.QueueItemID)
	default:
		t.Fatal("expected KindGrabCompleted to be published")
	}

	jobs, err := store.Jobs().Lease(ctx, "test", 10, time.Now())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, string(scheduler.KindMonitorDownload), jobs[0].Kind)
}

func TestHandleGrabRelease_downloadClientFailureBlocklistsRelease(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	profileID := seedProfile(t, store, 8, 9)
	movie := seedMovie(t, store, profileID, true)

	downloads := &fakeDownloader{addErr: assertErr}
	m, bus := newTestManager(t, store, &fakeIndexer{}, downloads, &fakeMetadata{})
	sub := bus.Subscribe(eventbus.KindBlocklistAdded)

	payload, err := json.Marshal(scheduler.GrabReleasePayload{
		MovieID:     movie.ID,
		IndexerID:   1,
		ReleaseGUID: "guid-1",
		Title:       "The.Matrix.1999.1080p.BluRay.x264-GROUPB",
		DownloadURL: "magnet:1",
	})
	require.NoError(t, err)

	err = m.handleGrabRelease(ctx, storage.Job{Payload: payload})
	require.Error(t, err)

	var herr *scheduler.HandlerError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, domain.ReasonDownloadClientError, herr.Reason)

	select {
	case ev := <-sub:
		assert.Equal(t, eventbus.KindBlocklistAdded, ev.Kind)
	default:
		t.Fatal("expected KindBlocklistAdded to be published")
	}

	blocked, err := m.blocklist.IsBlocked(ctx, 1, "guid-1")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestResolveStatus_invalidTransitionKeepsCurrent(t *testing.T) {
	m := &Manager{now: time.Now, stallTracker: cache.New[int64, stallState]()}
	got, stalledOut := m.resolveStatus(1, domain.QueueCompleted, downloadclient.Info{Status: domain.QueueDownloading})
	assert.Equal(t, domain.QueueCompleted, got)
	assert.False(t, stalledOut)
}

func TestResolveStatus_stallDetection(t *testing.T) {
	clock := time.Now()
	m := &Manager{
		now:          func() time.Time { return clock },
		stallTracker: cache.New[int64, stallState](),
		cfg:          Config{StallWindow: time.Millisecond},
	}
	got, stalledOut := m.resolveStatus(1, domain.QueueDownloading, downloadclient.Info{Status: domain.QueueDownloading, BytesDownloaded: 100})
	assert.Equal(t, domain.QueueDownloading, got)
	assert.False(t, stalledOut)

	clock = clock.Add(1500 * time.Microsecond)
	got, stalledOut = m.resolveStatus(1, domain.QueueDownloading, downloadclient.Info{Status: domain.QueueDownloading, BytesDownloaded: 100})
	assert.Equal(t, domain.QueueStalled, got)
	assert.False(t, stalledOut)
}

func TestResolveStatus_stallEscalatesToFailed(t *testing.T) {
	m := &Manager{
		now:          time.Now,
		stallTracker: cache.New[int64, stallState](),
		cfg:          Config{StallWindow: time.Millisecond},
	}
	_, _ = m.resolveStatus(1, domain.QueueDownloading, downloadclient.Info{Status: domain.QueueDownloading, BytesDownloaded: 100})

	time.Sleep(3 * time.Millisecond)
	got, stalledOut := m.resolveStatus(1, domain.QueueStalled, downloadclient.Info{Status: domain.QueueDownloading, BytesDownloaded: 100})
	assert.Equal(t, domain.QueueFailed, got)
	assert.True(t, stalledOut)
}

func TestHandleMonitorDownload_stallEscalationBlocklistsRelease(t *testing.T) {
	store := initStore(t)
	ctx := t.Context()
	profileID := seedProfile(t, store, 8, 9)
	movie := seedMovie(t, store, profileID, true)

	downloads := &fakeDownloader{status: downloadclient.Info{Status: domain.QueueDownloading, BytesDownloaded: 100}}
	m, bus := newTestManager(t, store, &fakeIndexer{}, downloads, &fakeMetadata{})
	m.cfg.StallWindow = time.Millisecond
	sub := bus.Subscribe(eventbus.KindBlocklistAdded)

	queueItemID, err := store.QueueItems().Create(ctx, domain.QueueItem{
		MovieID:          movie.ID,
		IndexerID:        1,
		ReleaseGUID:      "guid-stalled",
		DownloadClientID: "handle-1",
		Status:           domain.QueueStalled,
		BytesDownloaded:  100,
	})
	require.NoError(t, err)

	payload, err := json.Marshal(scheduler.MonitorDownloadPayload{QueueItemID: queueItemID})
	require.NoError(t, err)

	m.stallTracker.Set(queueItemID, stallState{bytes: 100, lastChanged: time.Now().Add(-3 * time.Millisecond)})

	err = m.handleMonitorDownload(ctx, storage.Job{Payload: payload, Attempts: 0})
	require.NoError(t, err)

	item, err := store.QueueItems().Get(ctx, queueItemID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueueFailed, item.Status)

	select {
	case ev := <-sub:
		p, ok := ev.Payload.(domain.BlocklistEntry)
		require.True(t, ok)
		assert.Equal(t, domain.ReasonDownloadStalled, p.Reason)
	default:
		t.Fatal("expected KindBlocklistAdded to be published")
	}

	blocked, err := m.blocklist.IsBlocked(ctx, 1, "guid-stalled")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestCommonDir(t *testing.T) {
	assert.Equal(t, "/downloads/movie", commonDir([]string{"/downloads/movie/a.mkv", "/downloads/movie/b.srt"}))
	assert.Equal(t, "", commonDir(nil))
}

type errString string

func (e errString) Error() string { return string(e) }

var assertErr = errString("download client unavailable")
