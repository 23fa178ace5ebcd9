package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/downloadclient"
	"github.com/kasuboski/reelwatch/pkg/eventbus"
	"github.com/kasuboski/reelwatch/pkg/logger"
	"github.com/kasuboski/reelwatch/pkg/machine"
	"github.com/kasuboski/reelwatch/pkg/resilience"
	"github.com/kasuboski/reelwatch/pkg/scheduler"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

// queueTransitions is the QueueStatus state machine: a
// download can stall and recover, and a Completed download may move to
// Seeding and back, but Failed/Cancelled are terminal once reached by this
// module (a fresh grab creates a new QueueItem rather than reviving an old
// one).
var queueTransitions = []machine.Allowable[domain.QueueStatus]{
	machine.From(domain.QueueQueued).To(domain.QueueDownloading, domain.QueueFailed, domain.QueueCancelled),
	machine.From(domain.QueueDownloading).To(domain.QueuePaused, domain.QueueStalled, domain.QueueCompleted, domain.QueueFailed, domain.QueueCancelled),
	machine.From(domain.QueuePaused).To(domain.QueueDownloading, domain.QueueCancelled, domain.QueueFailed),
	machine.From(domain.QueueStalled).To(domain.QueueDownloading, domain.QueueFailed, domain.QueueCancelled),
	machine.From(domain.QueueCompleted).To(domain.QueueSeeding),
	machine.From(domain.QueueSeeding).To(domain.QueueCompleted),
}

// handleGrabRelease submits a chosen release to the download client and
// creates its QueueItem, the hinge between the decision engine's pick and
// the download-monitoring loop.
func (m *Manager) handleGrabRelease(ctx context.Context, job storage.Job) error {
	var payload scheduler.GrabReleasePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return handlerErr(domain.ReasonParseError, fmt.Errorf("unmarshal grab payload: %w", err))
	}

	log := logger.FromCtx(ctx).With("movie_id", payload.MovieID, "release_title", payload.Title)

	handle, err := resilience.Call(ctx, m.downloadPolicy, func(ctx context.Context) (downloadclient.Handle, error) {
		return m.downloads.Add(ctx, payload.DownloadURL, m.cfg.DownloadCategory)
	})
	if err != nil {
		if blErr := m.blocklistRelease(ctx, payload.IndexerID, payload.ReleaseGUID, domain.ReasonDownloadClientError, err.Error(), &payload.MovieID, payload.Title, job.Attempts+1); blErr != nil {
			log.Debugw("failed to blocklist release after grab failure", "error", blErr)
		}
		return handlerErr(domain.ReasonDownloadClientError, fmt.Errorf("submit to download client: %w", err))
	}

	now := m.now()
	item := domain.QueueItem{
		MovieID:          payload.MovieID,
		IndexerID:        payload.IndexerID,
		ReleaseTitle:     payload.Title,
		ReleaseGUID:      payload.ReleaseGUID,
		DownloadClientID: string(handle),
		Status:           domain.QueueQueued,
		MaxRetries:       3,
		CreatedAt:        now,
	}
	id, err := m.store.QueueItems().Create(ctx, item)
	if err != nil {
		return handlerErr(domain.ReasonNetworkError, fmt.Errorf("persist queue item: %w", err))
	}

	if m.bus != nil {
		m.bus.Publish(ctx, eventbus.Event{
			Kind:      eventbus.KindGrabCompleted,
			Publisher: fmt.Sprintf("movie:%d", payload.MovieID),
			Payload: eventbus.GrabCompletedPayload{
				QueueItemID:  id,
				MovieID:      payload.MovieID,
				IndexerID:    payload.IndexerID,
				ReleaseTitle: payload.Title,
			},
		})
	}

	if _, err := m.sched.Enqueue(ctx, scheduler.KindMonitorDownload, scheduler.PriorityHigh, scheduler.MonitorDownloadPayload{QueueItemID: id}, 0, time.Time{}); err != nil {
		return handlerErr(domain.ReasonNetworkError, fmt.Errorf("enqueue monitor: %w", err))
	}

	log.Infow("grabbed release", "queue_item_id", id, "handle", handle)
	return nil
}

// handleMonitorDownload polls the download client for one queue item's
// progress, applies the monotonic-progress and stall-detection rules,
// validates the status transition, publishes on change, and hands off to
// import once Completed. A still-in-flight download re-enqueues its own
// next poll rather than returning an error, matching the usual
// ticker-driven reconcile loop generalized into a self-perpetuating job.
func (m *Manager) handleMonitorDownload(ctx context.Context, job storage.Job) error {
	var payload scheduler.MonitorDownloadPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return handlerErr(domain.ReasonParseError, fmt.Errorf("unmarshal monitor payload: %w", err))
	}

	log := logger.FromCtx(ctx).With("queue_item_id", payload.QueueItemID)

	item, err := m.store.QueueItems().Get(ctx, payload.QueueItemID)
	if err != nil {
		return handlerErr(domain.ReasonNetworkError, fmt.Errorf("get queue item: %w", err))
	}
	if item.Status == domain.QueueCompleted || item.Status == domain.QueueFailed || item.Status == domain.QueueCancelled {
		return nil
	}

	info, err := resilience.Call(ctx, m.downloadPolicy, func(ctx context.Context) (downloadclient.Info, error) {
		return m.downloads.Status(ctx, downloadclient.Handle(item.DownloadClientID))
	})
	if err != nil {
		return handlerErr(domain.ReasonDownloadClientError, fmt.Errorf("poll download status: %w", err))
	}

	next, stalledOut := m.resolveStatus(payload.QueueItemID, item.Status, info)

	from := item.Status
	item.Progress = info.Progress
	item.BytesDownloaded = info.BytesDownloaded
	item.DownloadSpeed = info.DownloadSpeed
	item.UploadSpeed = info.UploadSpeed
	item.Peers = info.Peers
	item.LastError = info.ErrorDetail
	if next != from {
		item.Status = next
		if next == domain.QueueDownloading && item.StartedAt == nil {
			now := m.now()
			item.StartedAt = &now
		}
		if next == domain.QueueCompleted {
			now := m.now()
			item.CompletedAt = &now
		}
	}

	if err := m.store.QueueItems().Update(ctx, item.ID, item); err != nil {
		return handlerErr(domain.ReasonNetworkError, fmt.Errorf("update queue item: %w", err))
	}

	if next != from {
		log.Infow("queue item transitioned", "from", from, "to", next)
		if m.bus != nil {
			m.bus.Publish(ctx, eventbus.Event{
				Kind:      eventbus.KindQueueTransition,
				Publisher: fmt.Sprintf("queue:%d", item.ID),
				Payload: eventbus.QueueTransitionPayload{
					QueueItemID: item.ID,
					MovieID:     item.MovieID,
					From:        string(from),
					To:          string(next),
				},
			})
		}
	}

	switch next {
	case domain.QueueCompleted:
		m.stallTracker.Delete(item.ID)
		var localPath string
		switch len(info.FilePaths) {
		case 0:
			return handlerErr(domain.ReasonImportUnsupportedFormat, fmt.Errorf("download client reported completion with no file paths"))
		case 1:
			localPath = info.FilePaths[0]
		default:
			// The import pipeline scans a directory for its largest video,
			// so pass the common parent rather than picking one file here.
			localPath = commonDir(info.FilePaths)
		}
		if _, err := m.sched.Enqueue(ctx, scheduler.KindImportCompleted, scheduler.PriorityHigh, scheduler.ImportCompletedPayload{
			QueueItemID: item.ID,
			LocalPath:   localPath,
		}, 3, time.Time{}); err != nil {
			return handlerErr(domain.ReasonNetworkError, fmt.Errorf("enqueue import: %w", err))
		}
		return nil
	case domain.QueueFailed, domain.QueueCancelled:
		m.stallTracker.Delete(item.ID)
		if stalledOut {
			if err := m.blocklistRelease(ctx, item.IndexerID, item.ReleaseGUID, domain.ReasonDownloadStalled, "no progress for twice the stall window", &item.MovieID, "", job.Attempts+1); err != nil {
				return handlerErr(domain.ReasonNetworkError, fmt.Errorf("blocklist stalled release: %w", err))
			}
		}
		return nil
	default:
		if _, err := m.sched.Enqueue(ctx, scheduler.KindMonitorDownload, scheduler.PriorityNormal, payload, 0, m.now().Add(m.cfg.MonitorInterval)); err != nil {
			return handlerErr(domain.ReasonNetworkError, fmt.Errorf("re-enqueue monitor: %w", err))
		}
		return nil
	}
}

// resolveStatus applies stall detection on top of the backend-reported
// status, then validates the transition through queueTransitions,
// returning the prior status unchanged if the backend's report would be
// an invalid transition (e.g. Completed reported twice). The second
// return reports whether this call is the one that escalated a long
// stall into a terminal Failed, so the caller knows to blocklist the
// release rather than treat it as an ordinary backend-reported failure.
func (m *Manager) resolveStatus(itemID int64, current domain.QueueStatus, info downloadclient.Info) (domain.QueueStatus, bool) {
	reported := info.Status
	stalledOut := false

	if reported == domain.QueueDownloading {
		reported, stalledOut = m.detectStall(itemID, info.BytesDownloaded)
	} else {
		m.stallTracker.Delete(itemID)
	}

	if reported == current {
		return current, false
	}

	sm := machine.New(current, queueTransitions...)
	if err := sm.ToState(reported); err != nil {
		return current, false
	}
	return reported, stalledOut
}

// detectStall promotes Downloading to Stalled once bytes haven't moved for
// cfg.StallWindow, and to a terminal Failed once stalled for a further
// StallWindow on top of that — no download backend reports "stalled" or
// "stuck forever" itself, so both thresholds are judged from byte-count
// stillness observed here.
func (m *Manager) detectStall(itemID int64, bytes int64) (domain.QueueStatus, bool) {
	prior, ok := m.stallTracker.Get(itemID)
	now := m.now()
	if !ok || bytes != prior.bytes {
		m.stallTracker.Set(itemID, stallState{bytes: bytes, lastChanged: now})
		return domain.QueueDownloading, false
	}

	stalledFor := now.Sub(prior.lastChanged)
	switch {
	case stalledFor >= 2*m.cfg.StallWindow:
		return domain.QueueFailed, true
	case stalledFor >= m.cfg.StallWindow:
		return domain.QueueStalled, false
	default:
		return domain.QueueDownloading, false
	}
}

func commonDir(paths []string) string {
	parent := func(p string) string {
		if idx := strings.LastIndexAny(p, `/\`); idx >= 0 {
			return p[:idx]
		}
		return ""
	}
	if len(paths) == 0 {
		return ""
	}
	dir := parent(paths[0])
	for _, p := range paths[1:] {
		for dir != "" && !strings.HasPrefix(p, dir+"/") && !strings.HasPrefix(p, dir+`\`) {
			dir = parent(dir)
		}
	}
	return dir
}
