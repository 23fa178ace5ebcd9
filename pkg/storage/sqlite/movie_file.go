package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/quality"
	"github.com/kasuboski/reelwatch/pkg/storage"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/model"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/table"
)

type movieFileRepo struct {
	s *SQLite
}

func toMovieFileModel(f domain.MovieFile) model.MovieFile {
	row := model.MovieFile{
		ID:           f.ID,
		MovieID:      f.MovieID,
		RelativePath: f.RelativePath,
		Size:         f.Size,
		QualityID:    f.Quality.ID,
		QualityName:  f.Quality.Name,
		CreatedAt:    f.CreatedAt,
	}
	if f.MediaInfo != nil {
		durMS := f.MediaInfo.Duration.Milliseconds()
		row.MediaDurationMS = &durMS
		row.MediaBitrate = &f.MediaInfo.Bitrate
		row.MediaChannels = &f.MediaInfo.Channels
	}
	return row
}

func fromMovieFileModel(row model.MovieFile) domain.MovieFile {
	out := domain.MovieFile{
		ID:           row.ID,
		MovieID:      row.MovieID,
		RelativePath: row.RelativePath,
		Size:         row.Size,
		Quality:      quality.Quality{ID: row.QualityID, Name: row.QualityName},
		CreatedAt:    row.CreatedAt,
	}
	if row.MediaDurationMS != nil {
		out.MediaInfo = &domain.MediaInfo{
			Duration: time.Duration(*row.MediaDurationMS) * time.Millisecond,
		}
		if row.MediaBitrate != nil {
			out.MediaInfo.Bitrate = *row.MediaBitrate
		}
		if row.MediaChannels != nil {
			out.MediaInfo.Channels = *row.MediaChannels
		}
	}
	return out
}

func (r *movieFileRepo) Create(ctx context.Context, f domain.MovieFile) (int64, error) {
	row := toMovieFileModel(f)
	stmt := table.MovieFile.INSERT(table.MovieFile.MutableColumns).MODEL(row).RETURNING(table.MovieFile.ID)
	result, err := r.s.handleInsert(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *movieFileRepo) Get(ctx context.Context, id int64) (domain.MovieFile, error) {
	stmt := table.MovieFile.SELECT(table.MovieFile.AllColumns).FROM(table.MovieFile).WHERE(table.MovieFile.ID.EQ(sqlite.Int64(id)))
	var row model.MovieFile
	if err := stmt.QueryContext(ctx, r.s.db, &row); err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return domain.MovieFile{}, storage.ErrNotFound
		}
		return domain.MovieFile{}, fmt.Errorf("get movie file: %w", err)
	}
	return fromMovieFileModel(row), nil
}

func (r *movieFileRepo) GetByMovieID(ctx context.Context, movieID int64) (domain.MovieFile, error) {
	stmt := table.MovieFile.SELECT(table.MovieFile.AllColumns).FROM(table.MovieFile).WHERE(table.MovieFile.MovieID.EQ(sqlite.Int64(movieID)))
	var row model.MovieFile
	if err := stmt.QueryContext(ctx, r.s.db, &row); err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return domain.MovieFile{}, storage.ErrNotFound
		}
		return domain.MovieFile{}, fmt.Errorf("get movie file by movie id: %w", err)
	}
	return fromMovieFileModel(row), nil
}

func (r *movieFileRepo) Delete(ctx context.Context, id int64) error {
	stmt := table.MovieFile.DELETE().WHERE(table.MovieFile.ID.EQ(sqlite.Int64(id)))
	_, err := r.s.handleDelete(ctx, stmt)
	return err
}
