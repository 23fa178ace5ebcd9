package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/model"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/table"
)

type blocklistRepo struct {
	s *SQLite
}

func toBlocklistModel(e domain.BlocklistEntry) model.BlocklistEntry {
	return model.BlocklistEntry{
		IndexerID:    e.IndexerID,
		ReleaseGUID:  e.ReleaseGUID,
		Reason:       string(e.Reason),
		Detail:       e.Detail,
		BlockedUntil: e.BlockedUntil,
		RetryCount:   int32(e.RetryCount),
		MovieID:      e.MovieID,
		ReleaseTitle: e.ReleaseTitle,
		CreatedAt:    e.CreatedAt,
	}
}

func fromBlocklistModel(row model.BlocklistEntry) domain.BlocklistEntry {
	return domain.BlocklistEntry{
		IndexerID:    row.IndexerID,
		ReleaseGUID:  row.ReleaseGUID,
		Reason:       domain.BlockReason(row.Reason),
		Detail:       row.Detail,
		BlockedUntil: row.BlockedUntil,
		RetryCount:   int(row.RetryCount),
		MovieID:      row.MovieID,
		ReleaseTitle: row.ReleaseTitle,
		CreatedAt:    row.CreatedAt,
	}
}

// Get returns nil, nil (not ErrNotFound) when no entry exists, matching
// blocklist.Store's contract: an absent row means "not blocked", not an error.
func (r *blocklistRepo) Get(ctx context.Context, indexerID int64, guid string) (*domain.BlocklistEntry, error) {
	stmt := table.BlocklistEntry.SELECT(table.BlocklistEntry.AllColumns).
		FROM(table.BlocklistEntry).
		WHERE(table.BlocklistEntry.IndexerID.EQ(sqlite.Int64(indexerID)).AND(table.BlocklistEntry.ReleaseGUID.EQ(sqlite.String(guid))))

	var row model.BlocklistEntry
	if err := stmt.QueryContext(ctx, r.s.db, &row); err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get blocklist entry: %w", err)
	}
	entry := fromBlocklistModel(row)
	return &entry, nil
}

// Upsert sets the conflicting row's mutable columns to the literal values of
// entry (not the rejected EXCLUDED row): every caller passes the row it
// wants to exist, so there is nothing the EXCLUDED pseudo-table would add.
func (r *blocklistRepo) Upsert(ctx context.Context, entry domain.BlocklistEntry) error {
	row := toBlocklistModel(entry)

	var movieID sqlite.Expression = sqlite.NULL
	if row.MovieID != nil {
		movieID = sqlite.Int64(*row.MovieID)
	}

	stmt := table.BlocklistEntry.INSERT(table.BlocklistEntry.AllColumns).
		MODEL(row).
		ON_CONFLICT(table.BlocklistEntry.IndexerID, table.BlocklistEntry.ReleaseGUID).
		DO_UPDATE(sqlite.SET(
			table.BlocklistEntry.Reason.SET(sqlite.String(row.Reason)),
			table.BlocklistEntry.Detail.SET(sqlite.String(row.Detail)),
			table.BlocklistEntry.BlockedUntil.SET(sqlite.TimestampT(row.BlockedUntil)),
			table.BlocklistEntry.RetryCount.SET(sqlite.Int32(row.RetryCount)),
			table.BlocklistEntry.MovieID.SET(movieID),
			table.BlocklistEntry.ReleaseTitle.SET(sqlite.String(row.ReleaseTitle)),
		))
	_, err := r.s.handleInsert(ctx, stmt)
	return err
}

func (r *blocklistRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	stmt := table.BlocklistEntry.DELETE().WHERE(table.BlocklistEntry.BlockedUntil.LT(sqlite.TimestampT(now)))
	result, err := r.s.handleDelete(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *blocklistRepo) Remove(ctx context.Context, indexerID int64, guid string) error {
	stmt := table.BlocklistEntry.DELETE().
		WHERE(table.BlocklistEntry.IndexerID.EQ(sqlite.Int64(indexerID)).AND(table.BlocklistEntry.ReleaseGUID.EQ(sqlite.String(guid))))
	_, err := r.s.handleDelete(ctx, stmt)
	return err
}
