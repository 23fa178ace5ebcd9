package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/storage"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/model"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/table"
)

type deadLetterRepo struct {
	s *SQLite
}

func toDeadLetterModel(dl domain.DeadLetter) (model.DeadLetter, error) {
	history, err := json.Marshal(dl.ErrorHistory)
	if err != nil {
		return model.DeadLetter{}, fmt.Errorf("marshal error history: %w", err)
	}
	return model.DeadLetter{
		ID:           dl.ID,
		Kind:         string(dl.Kind),
		LastError:    dl.LastError,
		ErrorHistory: string(history),
		Payload:      dl.Payload,
		Status:       string(dl.Status),
		CreatedAt:    dl.CreatedAt,
	}, nil
}

func fromDeadLetterModel(row model.DeadLetter) (domain.DeadLetter, error) {
	out := domain.DeadLetter{
		ID:        row.ID,
		Kind:      domain.DeadLetterKind(row.Kind),
		LastError: row.LastError,
		Payload:   row.Payload,
		Status:    domain.DeadLetterStatus(row.Status),
		CreatedAt: row.CreatedAt,
	}
	if row.ErrorHistory != "" {
		if err := json.Unmarshal([]byte(row.ErrorHistory), &out.ErrorHistory); err != nil {
			return domain.DeadLetter{}, fmt.Errorf("unmarshal error history: %w", err)
		}
	}
	return out, nil
}

func (r *deadLetterRepo) Create(ctx context.Context, dl domain.DeadLetter) (int64, error) {
	row, err := toDeadLetterModel(dl)
	if err != nil {
		return 0, err
	}
	stmt := table.DeadLetter.INSERT(table.DeadLetter.MutableColumns).MODEL(row).RETURNING(table.DeadLetter.ID)
	result, err := r.s.handleInsert(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *deadLetterRepo) Get(ctx context.Context, id int64) (domain.DeadLetter, error) {
	stmt := table.DeadLetter.SELECT(table.DeadLetter.AllColumns).FROM(table.DeadLetter).WHERE(table.DeadLetter.ID.EQ(sqlite.Int64(id)))
	var row model.DeadLetter
	if err := stmt.QueryContext(ctx, r.s.db, &row); err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return domain.DeadLetter{}, storage.ErrNotFound
		}
		return domain.DeadLetter{}, fmt.Errorf("get dead letter: %w", err)
	}
	return fromDeadLetterModel(row)
}

func (r *deadLetterRepo) List(ctx context.Context, status domain.DeadLetterStatus) ([]domain.DeadLetter, error) {
	stmt := table.DeadLetter.SELECT(table.DeadLetter.AllColumns).FROM(table.DeadLetter)
	if status != "" {
		stmt = stmt.WHERE(table.DeadLetter.Status.EQ(sqlite.String(string(status))))
	}
	stmt = stmt.ORDER_BY(table.DeadLetter.CreatedAt.DESC())

	var rows []model.DeadLetter
	if err := stmt.QueryContext(ctx, r.s.db, &rows); err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	out := make([]domain.DeadLetter, 0, len(rows))
	for _, row := range rows {
		dl, err := fromDeadLetterModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, dl)
	}
	return out, nil
}

func (r *deadLetterRepo) UpdateStatus(ctx context.Context, id int64, status domain.DeadLetterStatus) error {
	stmt := table.DeadLetter.UPDATE(table.DeadLetter.Status).
		SET(sqlite.String(string(status))).
		WHERE(table.DeadLetter.ID.EQ(sqlite.Int64(id)))
	_, err := r.s.handleUpdate(ctx, stmt)
	return err
}
