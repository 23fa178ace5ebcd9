package manager

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/downloadclient"
	"github.com/kasuboski/reelwatch/pkg/eventbus"
	"github.com/kasuboski/reelwatch/pkg/importpipeline"
	"github.com/kasuboski/reelwatch/pkg/logger"
	"github.com/kasuboski/reelwatch/pkg/scheduler"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

// handleImportCompleted places a finished download under the library via
// importpipeline.Pipeline. The clients map is built fresh per
// call keyed on this item's own IndexerID, since this module wires exactly
// one download client regardless of how many indexers a release came from.
func (m *Manager) handleImportCompleted(ctx context.Context, job storage.Job) error {
	var payload scheduler.ImportCompletedPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return handlerErr(domain.ReasonParseError, fmt.Errorf("unmarshal import payload: %w", err))
	}

	item, err := m.store.QueueItems().Get(ctx, payload.QueueItemID)
	if err != nil {
		return handlerErr(domain.ReasonNetworkError, fmt.Errorf("get queue item: %w", err))
	}

	clients := map[int64]downloadclient.Client{item.IndexerID: m.downloads}
	pipeline := importpipeline.New(m.io, m.store, m.cfg.Import, clients)

	result, err := pipeline.Import(ctx, payload.QueueItemID, payload.LocalPath)
	if err != nil {
		var impErr *importpipeline.Error
		if asImportError(err, &impErr) {
			return handlerErr(impErr.Reason, impErr)
		}
		return handlerErr(domain.ReasonImportFileMoveError, err)
	}

	if m.bus != nil {
		m.bus.Publish(ctx, eventbus.Event{
			Kind:      eventbus.KindImportCompleted,
			Publisher: fmt.Sprintf("queue:%d", payload.QueueItemID),
			Payload: eventbus.QueueTransitionPayload{
				QueueItemID: payload.QueueItemID,
				MovieID:     item.MovieID,
				From:        string(item.Status),
				To:          string(domain.QueueCompleted),
			},
		})
	}

	logger.FromCtx(ctx).Infow("import completed", "queue_item_id", payload.QueueItemID, "movie_file_id", result.MovieFileID, "quality", result.Quality.Name)
	return nil
}

func asImportError(err error, target **importpipeline.Error) bool {
	for err != nil {
		if e, ok := err.(*importpipeline.Error); ok {
			*target = e
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
