package sqlite

import (
	"context"
	"fmt"

	"github.com/go-jet/jet/v2/sqlite"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/quality"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/model"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/table"
)

type qualityHistoryRepo struct {
	s *SQLite
}

func (r *qualityHistoryRepo) Create(ctx context.Context, h domain.QualityHistory) (int64, error) {
	var oldID *int64
	if h.OldQuality != nil {
		oldID = &h.OldQuality.ID
	}
	row := model.QualityHistory{
		MovieID:      h.MovieID,
		OldQualityID: oldID,
		NewQualityID: h.NewQuality.ID,
		Reason:       string(h.Reason),
		Score:        int32(h.Score),
		CreatedAt:    h.CreatedAt,
	}
	stmt := table.QualityHistory.INSERT(table.QualityHistory.MutableColumns).MODEL(row).RETURNING(table.QualityHistory.ID)
	result, err := r.s.handleInsert(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *qualityHistoryRepo) ListByMovie(ctx context.Context, movieID int64) ([]domain.QualityHistory, error) {
	stmt := table.QualityHistory.SELECT(table.QualityHistory.AllColumns).
		FROM(table.QualityHistory).
		WHERE(table.QualityHistory.MovieID.EQ(sqlite.Int64(movieID))).
		ORDER_BY(table.QualityHistory.CreatedAt.DESC())

	var rows []model.QualityHistory
	if err := stmt.QueryContext(ctx, r.s.db, &rows); err != nil {
		return nil, fmt.Errorf("list quality history: %w", err)
	}

	out := make([]domain.QualityHistory, 0, len(rows))
	for _, row := range rows {
		newQ, _ := quality.ByID(row.NewQualityID)
		h := domain.QualityHistory{
			ID:         row.ID,
			MovieID:    row.MovieID,
			NewQuality: newQ,
			Reason:     domain.QualityHistoryReason(row.Reason),
			Score:      int(row.Score),
			CreatedAt:  row.CreatedAt,
		}
		if row.OldQualityID != nil {
			oldQ, _ := quality.ByID(*row.OldQualityID)
			h.OldQuality = &oldQ
		}
		out = append(out, h)
	}
	return out, nil
}
