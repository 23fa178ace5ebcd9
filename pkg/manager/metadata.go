package manager

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/logger"
	"github.com/kasuboski/reelwatch/pkg/metadataclient"
	"github.com/kasuboski/reelwatch/pkg/resilience"
	"github.com/kasuboski/reelwatch/pkg/scheduler"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

// serviceIndexer, serviceMetadata, and serviceDownload are the
// HealthCheckServicePayload.ServiceID values, one per statically-configured
// external endpoint. Only serviceIndexer has a probe; the other two are
// logged and skipped by handleHealthCheckService.
const (
	serviceIndexer  = "indexer"
	serviceMetadata = "metadata"
	serviceDownload = "download"
)

// handleRefreshMetadata re-fetches a movie's metadata provider record and
// merges it into Movie.Metadata via the RefreshMetadata job kind.
func (m *Manager) handleRefreshMetadata(ctx context.Context, job storage.Job) error {
	var payload scheduler.RefreshMetadataPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return handlerErr(domain.ReasonParseError, fmt.Errorf("unmarshal refresh payload: %w", err))
	}

	movie, err := m.store.Movies().Get(ctx, payload.MovieID)
	if err != nil {
		return handlerErr(domain.ReasonNetworkError, fmt.Errorf("get movie: %w", err))
	}
	if movie.TMDBID == nil {
		return nil
	}

	meta, err := resilience.Call(ctx, m.metadataPolicy, func(ctx context.Context) (metadataclient.MovieMetadata, error) {
		return m.metadata.LookupByID(ctx, *movie.TMDBID)
	})
	if err != nil {
		return handlerErr(domain.ReasonNetworkError, fmt.Errorf("lookup metadata: %w", err))
	}

	if movie.Metadata == nil {
		movie.Metadata = map[string]any{}
	}
	movie.Metadata["overview"] = meta.Overview
	movie.Metadata["poster_path"] = meta.PosterPath
	movie.Metadata["vote_average"] = meta.VoteAverage
	movie.Title = meta.Title
	movie.Year = meta.Year
	movie.UpdatedAt = m.now()

	if err := m.store.Movies().Update(ctx, movie.ID, movie); err != nil {
		return handlerErr(domain.ReasonNetworkError, fmt.Errorf("update movie: %w", err))
	}
	return nil
}

// handleHealthCheckService probes one external endpoint's health check.
// Only the indexer is probed; any other service id is logged and skipped.
// A healthy result calls RecordSuccess on the indexer breaker, which has no
// effect while that breaker is Open; an unhealthy result is only logged.
// The breakers themselves are driven by resilience.Call's own
// RecordSuccess/RecordFailure on every real request.
func (m *Manager) handleHealthCheckService(ctx context.Context, job storage.Job) error {
	var payload scheduler.HealthCheckServicePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return handlerErr(domain.ReasonParseError, fmt.Errorf("unmarshal health check payload: %w", err))
	}

	log := logger.FromCtx(ctx).With("service_id", payload.ServiceID)

	var healthy bool
	var detail string

	switch payload.ServiceID {
	case serviceIndexer:
		status, err := m.indexer.HealthCheck(ctx)
		if err != nil {
			detail = err.Error()
		} else {
			healthy, detail = status.Healthy, status.Detail
		}
	default:
		log.Debugw("no health check implemented for service", "service_id", payload.ServiceID)
		return nil
	}

	if healthy {
		if m.indexerPolicy.Breaker != nil {
			m.indexerPolicy.Breaker.RecordSuccess()
		}
		return nil
	}

	log.Debugw("health check reported unhealthy", "detail", detail)
	return nil
}
