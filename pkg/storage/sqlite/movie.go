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

type movieRepo struct {
	s *SQLite
}

func toMovieModel(m domain.Movie) (model.Movie, error) {
	var metadata *string
	if len(m.Metadata) > 0 {
		b, err := json.Marshal(m.Metadata)
		if err != nil {
			return model.Movie{}, fmt.Errorf("marshal movie metadata: %w", err)
		}
		s := string(b)
		metadata = &s
	}
	return model.Movie{
		ID:               m.ID,
		TMDBID:           m.TMDBID,
		IMDBID:           m.IMDBID,
		Title:            m.Title,
		Year:             int32(m.Year),
		Monitored:        m.Monitored,
		QualityProfileID: m.QualityProfileID,
		HasFile:          m.HasFile,
		MovieFileID:      m.MovieFileID,
		Metadata:         metadata,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}

func fromMovieModel(m model.Movie) (domain.Movie, error) {
	out := domain.Movie{
		ID:               m.ID,
		TMDBID:           m.TMDBID,
		IMDBID:           m.IMDBID,
		Title:            m.Title,
		Year:             int(m.Year),
		Monitored:        m.Monitored,
		QualityProfileID: m.QualityProfileID,
		HasFile:          m.HasFile,
		MovieFileID:      m.MovieFileID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.Metadata != nil && *m.Metadata != "" {
		if err := json.Unmarshal([]byte(*m.Metadata), &out.Metadata); err != nil {
			return domain.Movie{}, fmt.Errorf("unmarshal movie metadata: %w", err)
		}
	}
	return out, nil
}

func (r *movieRepo) Create(ctx context.Context, m domain.Movie) (int64, error) {
	row, err := toMovieModel(m)
	if err != nil {
		return 0, err
	}
	stmt := table.Movie.INSERT(table.Movie.MutableColumns).MODEL(row).RETURNING(table.Movie.ID)
	result, err := r.s.handleInsert(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *movieRepo) Get(ctx context.Context, id int64) (domain.Movie, error) {
	stmt := table.Movie.SELECT(table.Movie.AllColumns).FROM(table.Movie).WHERE(table.Movie.ID.EQ(sqlite.Int64(id)))
	var row model.Movie
	if err := stmt.QueryContext(ctx, r.s.db, &row); err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return domain.Movie{}, storage.ErrNotFound
		}
		return domain.Movie{}, fmt.Errorf("get movie: %w", err)
	}
	return fromMovieModel(row)
}

func (r *movieRepo) GetByTMDBID(ctx context.Context, tmdbID int64) (domain.Movie, error) {
	stmt := table.Movie.SELECT(table.Movie.AllColumns).FROM(table.Movie).WHERE(table.Movie.TMDBID.EQ(sqlite.Int64(tmdbID)))
	var row model.Movie
	if err := stmt.QueryContext(ctx, r.s.db, &row); err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return domain.Movie{}, storage.ErrNotFound
		}
		return domain.Movie{}, fmt.Errorf("get movie by tmdb id: %w", err)
	}
	return fromMovieModel(row)
}

func (r *movieRepo) List(ctx context.Context, filter storage.MovieFilter) ([]domain.Movie, error) {
	stmt := table.Movie.SELECT(table.Movie.AllColumns).FROM(table.Movie)

	var conds []sqlite.BoolExpression
	if filter.Monitored != nil {
		conds = append(conds, table.Movie.Monitored.EQ(sqlite.Bool(*filter.Monitored)))
	}
	if filter.HasFile != nil {
		conds = append(conds, table.Movie.HasFile.EQ(sqlite.Bool(*filter.HasFile)))
	}
	if filter.ProfileID != nil {
		conds = append(conds, table.Movie.QualityProfileID.EQ(sqlite.Int64(*filter.ProfileID)))
	}
	if len(conds) > 0 {
		stmt = stmt.WHERE(sqlite.AND(conds...))
	}
	stmt = stmt.ORDER_BY(table.Movie.Title.ASC())

	var rows []model.Movie
	if err := stmt.QueryContext(ctx, r.s.db, &rows); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}

	out := make([]domain.Movie, 0, len(rows))
	for _, row := range rows {
		m, err := fromMovieModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *movieRepo) Update(ctx context.Context, id int64, m domain.Movie) error {
	row, err := toMovieModel(m)
	if err != nil {
		return err
	}
	stmt := table.Movie.UPDATE(table.Movie.MutableColumns).MODEL(row).WHERE(table.Movie.ID.EQ(sqlite.Int64(id)))
	_, err = r.s.handleUpdate(ctx, stmt)
	return err
}

func (r *movieRepo) Delete(ctx context.Context, id int64) error {
	stmt := table.Movie.DELETE().WHERE(table.Movie.ID.EQ(sqlite.Int64(id)))
	_, err := r.s.handleDelete(ctx, stmt)
	return err
}
