package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/storage"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/model"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/table"
)

type queueItemRepo struct {
	s *SQLite
}

func toQueueItemModel(item domain.QueueItem) model.QueueItem {
	row := model.QueueItem{
		ID:               item.ID,
		MovieID:          item.MovieID,
		IndexerID:        item.IndexerID,
		ReleaseTitle:     item.ReleaseTitle,
		ReleaseGUID:      item.ReleaseGUID,
		DownloadClientID: item.DownloadClientID,
		Status:           string(item.Status),
		Progress:         item.Progress,
		BytesDownloaded:  item.BytesDownloaded,
		BytesUploaded:    item.BytesUploaded,
		DownloadSpeed:    item.DownloadSpeed,
		UploadSpeed:      item.UploadSpeed,
		Peers:            int32(item.Peers),
		RetryCount:       int32(item.RetryCount),
		MaxRetries:       int32(item.MaxRetries),
		CreatedAt:        item.CreatedAt,
		StartedAt:        item.StartedAt,
		CompletedAt:      item.CompletedAt,
	}
	if item.ETA != nil {
		secs := int64(item.ETA.Seconds())
		row.ETASeconds = &secs
	}
	if item.LastError != "" {
		row.LastError = &item.LastError
	}
	return row
}

func fromQueueItemModel(row model.QueueItem) domain.QueueItem {
	out := domain.QueueItem{
		ID:               row.ID,
		MovieID:          row.MovieID,
		IndexerID:        row.IndexerID,
		ReleaseTitle:     row.ReleaseTitle,
		ReleaseGUID:      row.ReleaseGUID,
		DownloadClientID: row.DownloadClientID,
		Status:           domain.QueueStatus(row.Status),
		Progress:         row.Progress,
		BytesDownloaded:  row.BytesDownloaded,
		BytesUploaded:    row.BytesUploaded,
		DownloadSpeed:    row.DownloadSpeed,
		UploadSpeed:      row.UploadSpeed,
		Peers:            int(row.Peers),
		RetryCount:       int(row.RetryCount),
		MaxRetries:       int(row.MaxRetries),
		CreatedAt:        row.CreatedAt,
		StartedAt:        row.StartedAt,
		CompletedAt:      row.CompletedAt,
	}
	if row.ETASeconds != nil {
		d := time.Duration(*row.ETASeconds) * time.Second
		out.ETA = &d
	}
	if row.LastError != nil {
		out.LastError = *row.LastError
	}
	return out
}

func (r *queueItemRepo) Create(ctx context.Context, item domain.QueueItem) (int64, error) {
	row := toQueueItemModel(item)
	stmt := table.QueueItem.INSERT(table.QueueItem.MutableColumns).MODEL(row).RETURNING(table.QueueItem.ID)
	result, err := r.s.handleInsert(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *queueItemRepo) Get(ctx context.Context, id int64) (domain.QueueItem, error) {
	stmt := table.QueueItem.SELECT(table.QueueItem.AllColumns).FROM(table.QueueItem).WHERE(table.QueueItem.ID.EQ(sqlite.Int64(id)))
	var row model.QueueItem
	if err := stmt.QueryContext(ctx, r.s.db, &row); err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return domain.QueueItem{}, storage.ErrNotFound
		}
		return domain.QueueItem{}, fmt.Errorf("get queue item: %w", err)
	}
	return fromQueueItemModel(row), nil
}

func (r *queueItemRepo) ListByStatus(ctx context.Context, statuses ...domain.QueueStatus) ([]domain.QueueItem, error) {
	stmt := table.QueueItem.SELECT(table.QueueItem.AllColumns).FROM(table.QueueItem)
	if len(statuses) > 0 {
		exprs := make([]sqlite.Expression, 0, len(statuses))
		for _, st := range statuses {
			exprs = append(exprs, sqlite.String(string(st)))
		}
		stmt = stmt.WHERE(table.QueueItem.Status.IN(exprs...))
	}
	stmt = stmt.ORDER_BY(table.QueueItem.CreatedAt.ASC())

	var rows []model.QueueItem
	if err := stmt.QueryContext(ctx, r.s.db, &rows); err != nil {
		return nil, fmt.Errorf("list queue items by status: %w", err)
	}
	out := make([]domain.QueueItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromQueueItemModel(row))
	}
	return out, nil
}

func (r *queueItemRepo) ListByMovie(ctx context.Context, movieID int64) ([]domain.QueueItem, error) {
	stmt := table.QueueItem.SELECT(table.QueueItem.AllColumns).
		FROM(table.QueueItem).
		WHERE(table.QueueItem.MovieID.EQ(sqlite.Int64(movieID))).
		ORDER_BY(table.QueueItem.CreatedAt.ASC())

	var rows []model.QueueItem
	if err := stmt.QueryContext(ctx, r.s.db, &rows); err != nil {
		return nil, fmt.Errorf("list queue items by movie: %w", err)
	}
	out := make([]domain.QueueItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromQueueItemModel(row))
	}
	return out, nil
}

func (r *queueItemRepo) Update(ctx context.Context, id int64, item domain.QueueItem) error {
	row := toQueueItemModel(item)
	stmt := table.QueueItem.UPDATE(table.QueueItem.MutableColumns).MODEL(row).WHERE(table.QueueItem.ID.EQ(sqlite.Int64(id)))
	_, err := r.s.handleUpdate(ctx, stmt)
	return err
}

func (r *queueItemRepo) Delete(ctx context.Context, id int64) error {
	stmt := table.QueueItem.DELETE().WHERE(table.QueueItem.ID.EQ(sqlite.Int64(id)))
	_, err := r.s.handleDelete(ctx, stmt)
	return err
}
