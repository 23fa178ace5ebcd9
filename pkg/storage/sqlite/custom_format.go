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

type customFormatRepo struct {
	s *SQLite
}

func (r *customFormatRepo) Create(ctx context.Context, cf quality.CustomFormat) (int64, error) {
	row := model.CustomFormat{Name: cf.Name, Score: int32(cf.Score), Enabled: cf.Enabled}
	stmt := table.CustomFormat.INSERT(table.CustomFormat.MutableColumns).MODEL(row).RETURNING(table.CustomFormat.ID)
	result, err := r.s.handleInsert(ctx, stmt)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := r.replaceSpecs(ctx, id, cf.Specs); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *customFormatRepo) replaceSpecs(ctx context.Context, formatID int64, specs []quality.Specification) error {
	delStmt := table.CustomFormatSpec.DELETE().WHERE(table.CustomFormatSpec.CustomFormatID.EQ(sqlite.Int64(formatID)))
	if _, err := r.s.handleDelete(ctx, delStmt); err != nil {
		return fmt.Errorf("clear custom format specs: %w", err)
	}
	for _, spec := range specs {
		row := model.CustomFormatSpec{
			CustomFormatID: formatID,
			Kind:           string(spec.Kind),
			Value:          spec.Value,
			Negate:         spec.Negate,
		}
		stmt := table.CustomFormatSpec.INSERT(table.CustomFormatSpec.MutableColumns).MODEL(row)
		if _, err := r.s.handleInsert(ctx, stmt); err != nil {
			return fmt.Errorf("insert custom format spec: %w", err)
		}
	}
	return nil
}

func (r *customFormatRepo) listSpecs(ctx context.Context, formatID int64) ([]quality.Specification, error) {
	stmt := table.CustomFormatSpec.SELECT(table.CustomFormatSpec.AllColumns).
		FROM(table.CustomFormatSpec).
		WHERE(table.CustomFormatSpec.CustomFormatID.EQ(sqlite.Int64(formatID)))

	var rows []model.CustomFormatSpec
	if err := stmt.QueryContext(ctx, r.s.db, &rows); err != nil {
		return nil, fmt.Errorf("list custom format specs: %w", err)
	}
	out := make([]quality.Specification, 0, len(rows))
	for _, row := range rows {
		out = append(out, quality.Specification{Kind: quality.SpecKind(row.Kind), Value: row.Value, Negate: row.Negate})
	}
	return out, nil
}

func (r *customFormatRepo) Get(ctx context.Context, id int64) (quality.CustomFormat, error) {
	stmt := table.CustomFormat.SELECT(table.CustomFormat.AllColumns).FROM(table.CustomFormat).WHERE(table.CustomFormat.ID.EQ(sqlite.Int64(id)))
	var row model.CustomFormat
	if err := stmt.QueryContext(ctx, r.s.db, &row); err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return quality.CustomFormat{}, storage.ErrNotFound
		}
		return quality.CustomFormat{}, fmt.Errorf("get custom format: %w", err)
	}
	specs, err := r.listSpecs(ctx, id)
	if err != nil {
		return quality.CustomFormat{}, err
	}
	return fromCustomFormatModel(row, specs), nil
}

func (r *customFormatRepo) List(ctx context.Context) ([]quality.CustomFormat, error) {
	stmt := table.CustomFormat.SELECT(table.CustomFormat.AllColumns).FROM(table.CustomFormat).ORDER_BY(table.CustomFormat.ID.ASC())
	var rows []model.CustomFormat
	if err := stmt.QueryContext(ctx, r.s.db, &rows); err != nil {
		return nil, fmt.Errorf("list custom formats: %w", err)
	}
	out := make([]quality.CustomFormat, 0, len(rows))
	for _, row := range rows {
		specs, err := r.listSpecs(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, fromCustomFormatModel(row, specs))
	}
	return out, nil
}

func (r *customFormatRepo) Update(ctx context.Context, id int64, cf quality.CustomFormat) error {
	row := model.CustomFormat{Name: cf.Name, Score: int32(cf.Score), Enabled: cf.Enabled}
	stmt := table.CustomFormat.UPDATE(table.CustomFormat.MutableColumns).MODEL(row).WHERE(table.CustomFormat.ID.EQ(sqlite.Int64(id)))
	if _, err := r.s.handleUpdate(ctx, stmt); err != nil {
		return err
	}
	return r.replaceSpecs(ctx, id, cf.Specs)
}

func (r *customFormatRepo) Delete(ctx context.Context, id int64) error {
	stmt := table.CustomFormat.DELETE().WHERE(table.CustomFormat.ID.EQ(sqlite.Int64(id)))
	_, err := r.s.handleDelete(ctx, stmt)
	return err
}

func fromCustomFormatModel(row model.CustomFormat, specs []quality.Specification) quality.CustomFormat {
	return quality.CustomFormat{
		ID:      row.ID,
		Name:    row.Name,
		Score:   int(row.Score),
		Enabled: row.Enabled,
		Specs:   specs,
	}
}
