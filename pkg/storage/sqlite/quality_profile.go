package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"

	"github.com/kasuboski/reelwatch/pkg/quality"
	"github.com/kasuboski/reelwatch/pkg/storage"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/model"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/table"
)

type qualityProfileRepo struct {
	s *SQLite
}

func (r *qualityProfileRepo) Create(ctx context.Context, p quality.QualityProfile) (int64, error) {
	var cutoff *int64
	if p.CutoffID != 0 {
		cutoff = &p.CutoffID
	}
	row := model.QualityProfile{
		Name:            p.Name,
		CutoffQualityID: cutoff,
		UpgradeAllowed:  p.UpgradeAllowed,
		MinSizeMB:       nullableInt64(p.MinSizeMB),
		MaxSizeMB:       nullableInt64(p.MaxSizeMB),
		Language:        p.Language,
	}

	stmt := table.QualityProfile.INSERT(table.QualityProfile.MutableColumns).MODEL(row).RETURNING(table.QualityProfile.ID)
	result, err := r.s.handleInsert(ctx, stmt)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := r.replaceAllowed(ctx, id, p.Allowed); err != nil {
		return 0, err
	}
	if err := r.replaceFormatScores(ctx, id, p.FormatScores); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *qualityProfileRepo) replaceAllowed(ctx context.Context, profileID int64, allowed []int64) error {
	delStmt := table.QualityProfileAllowed.DELETE().WHERE(table.QualityProfileAllowed.ProfileID.EQ(sqlite.Int64(profileID)))
	if _, err := r.s.handleDelete(ctx, delStmt); err != nil {
		return fmt.Errorf("clear allowed qualities: %w", err)
	}
	for _, qualityID := range allowed {
		row := model.QualityProfileAllowed{ProfileID: profileID, QualityID: qualityID}
		stmt := table.QualityProfileAllowed.INSERT(table.QualityProfileAllowed.AllColumns).MODEL(row)
		if _, err := r.s.handleInsert(ctx, stmt); err != nil {
			return fmt.Errorf("insert allowed quality: %w", err)
		}
	}
	return nil
}

func (r *qualityProfileRepo) replaceFormatScores(ctx context.Context, profileID int64, scores map[int64]int) error {
	delStmt := table.QualityProfileFormatScore.DELETE().WHERE(table.QualityProfileFormatScore.ProfileID.EQ(sqlite.Int64(profileID)))
	if _, err := r.s.handleDelete(ctx, delStmt); err != nil {
		return fmt.Errorf("clear format scores: %w", err)
	}
	for formatID, score := range scores {
		row := model.QualityProfileFormatScore{ProfileID: profileID, CustomFormatID: formatID, Score: int32(score)}
		stmt := table.QualityProfileFormatScore.INSERT(table.QualityProfileFormatScore.AllColumns).MODEL(row)
		if _, err := r.s.handleInsert(ctx, stmt); err != nil {
			return fmt.Errorf("insert format score: %w", err)
		}
	}
	return nil
}

func (r *qualityProfileRepo) Get(ctx context.Context, id int64) (quality.QualityProfile, error) {
	stmt := table.QualityProfile.SELECT(table.QualityProfile.AllColumns).FROM(table.QualityProfile).WHERE(table.QualityProfile.ID.EQ(sqlite.Int64(id)))
	var row model.QualityProfile
	if err := stmt.QueryContext(ctx, r.s.db, &row); err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return quality.QualityProfile{}, storage.ErrNotFound
		}
		return quality.QualityProfile{}, fmt.Errorf("get quality profile: %w", err)
	}

	allowed, err := r.listAllowed(ctx, id)
	if err != nil {
		return quality.QualityProfile{}, err
	}
	scores, err := r.listFormatScores(ctx, id)
	if err != nil {
		return quality.QualityProfile{}, err
	}

	return fromQualityProfileModel(row, allowed, scores), nil
}

func (r *qualityProfileRepo) listAllowed(ctx context.Context, profileID int64) ([]int64, error) {
	stmt := table.QualityProfileAllowed.SELECT(table.QualityProfileAllowed.QualityID).
		FROM(table.QualityProfileAllowed).
		WHERE(table.QualityProfileAllowed.ProfileID.EQ(sqlite.Int64(profileID)))

	var rows []model.QualityProfileAllowed
	if err := stmt.QueryContext(ctx, r.s.db, &rows); err != nil {
		return nil, fmt.Errorf("list allowed qualities: %w", err)
	}
	out := make([]int64, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.QualityID)
	}
	return out, nil
}

func (r *qualityProfileRepo) listFormatScores(ctx context.Context, profileID int64) (map[int64]int, error) {
	stmt := table.QualityProfileFormatScore.SELECT(table.QualityProfileFormatScore.AllColumns).
		FROM(table.QualityProfileFormatScore).
		WHERE(table.QualityProfileFormatScore.ProfileID.EQ(sqlite.Int64(profileID)))

	var rows []model.QualityProfileFormatScore
	if err := stmt.QueryContext(ctx, r.s.db, &rows); err != nil {
		return nil, fmt.Errorf("list format scores: %w", err)
	}
	out := make(map[int64]int, len(rows))
	for _, row := range rows {
		out[row.CustomFormatID] = int(row.Score)
	}
	return out, nil
}

func (r *qualityProfileRepo) List(ctx context.Context) ([]quality.QualityProfile, error) {
	stmt := table.QualityProfile.SELECT(table.QualityProfile.AllColumns).FROM(table.QualityProfile).ORDER_BY(table.QualityProfile.ID.ASC())
	var rows []model.QualityProfile
	if err := stmt.QueryContext(ctx, r.s.db, &rows); err != nil {
		return nil, fmt.Errorf("list quality profiles: %w", err)
	}

	out := make([]quality.QualityProfile, 0, len(rows))
	for _, row := range rows {
		allowed, err := r.listAllowed(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		scores, err := r.listFormatScores(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, fromQualityProfileModel(row, allowed, scores))
	}
	return out, nil
}

func (r *qualityProfileRepo) Update(ctx context.Context, id int64, p quality.QualityProfile) error {
	var cutoff *int64
	if p.CutoffID != 0 {
		cutoff = &p.CutoffID
	}
	row := model.QualityProfile{
		Name:            p.Name,
		CutoffQualityID: cutoff,
		UpgradeAllowed:  p.UpgradeAllowed,
		MinSizeMB:       nullableInt64(p.MinSizeMB),
		MaxSizeMB:       nullableInt64(p.MaxSizeMB),
		Language:        p.Language,
	}
	stmt := table.QualityProfile.UPDATE(table.QualityProfile.MutableColumns).MODEL(row).WHERE(table.QualityProfile.ID.EQ(sqlite.Int64(id)))
	if _, err := r.s.handleUpdate(ctx, stmt); err != nil {
		return err
	}
	if err := r.replaceAllowed(ctx, id, p.Allowed); err != nil {
		return err
	}
	return r.replaceFormatScores(ctx, id, p.FormatScores)
}

func (r *qualityProfileRepo) Delete(ctx context.Context, id int64) error {
	stmt := table.QualityProfile.DELETE().WHERE(table.QualityProfile.ID.EQ(sqlite.Int64(id)))
	_, err := r.s.handleDelete(ctx, stmt)
	return err
}

func fromQualityProfileModel(row model.QualityProfile, allowed []int64, scores map[int64]int) quality.QualityProfile {
	var cutoff int64
	if row.CutoffQualityID != nil {
		cutoff = *row.CutoffQualityID
	}
	return quality.QualityProfile{
		ID:             row.ID,
		Name:           row.Name,
		Allowed:        allowed,
		CutoffID:       cutoff,
		UpgradeAllowed: row.UpgradeAllowed,
		MinSizeMB:      int64Value(row.MinSizeMB),
		MaxSizeMB:      int64Value(row.MaxSizeMB),
		Language:       row.Language,
		FormatScores:   scores,
	}
}

func nullableInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func int64Value(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
