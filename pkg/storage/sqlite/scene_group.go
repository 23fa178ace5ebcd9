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

type sceneGroupRepo struct {
	s *SQLite
}

func marshalCounts(m map[string]int64) (string, error) {
	if m == nil {
		m = map[string]int64{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalCounts(s string) (map[string]int64, error) {
	out := map[string]int64{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toSceneGroupModel(g domain.SceneGroup) (model.SceneGroup, error) {
	res, err := marshalCounts(g.ResolutionCounts)
	if err != nil {
		return model.SceneGroup{}, err
	}
	codec, err := marshalCounts(g.CodecCounts)
	if err != nil {
		return model.SceneGroup{}, err
	}
	source, err := marshalCounts(g.SourceCounts)
	if err != nil {
		return model.SceneGroup{}, err
	}
	return model.SceneGroup{
		Name:             g.Name,
		Reputation:       int32(g.Reputation),
		Confidence:       g.Confidence,
		ReleaseCount:     g.ReleaseCount,
		FreeleechShare:   g.FreeleechShare,
		ResolutionCounts: res,
		CodecCounts:      codec,
		SourceCounts:     source,
		LastSeen:         g.LastSeen,
	}, nil
}

func fromSceneGroupModel(row model.SceneGroup) (domain.SceneGroup, error) {
	res, err := unmarshalCounts(row.ResolutionCounts)
	if err != nil {
		return domain.SceneGroup{}, err
	}
	codec, err := unmarshalCounts(row.CodecCounts)
	if err != nil {
		return domain.SceneGroup{}, err
	}
	source, err := unmarshalCounts(row.SourceCounts)
	if err != nil {
		return domain.SceneGroup{}, err
	}
	return domain.SceneGroup{
		Name:             row.Name,
		Reputation:       int(row.Reputation),
		Confidence:       row.Confidence,
		ReleaseCount:     row.ReleaseCount,
		FreeleechShare:   row.FreeleechShare,
		ResolutionCounts: res,
		CodecCounts:      codec,
		SourceCounts:     source,
		LastSeen:         row.LastSeen,
	}, nil
}

func (r *sceneGroupRepo) Get(ctx context.Context, name string) (domain.SceneGroup, error) {
	stmt := table.SceneGroup.SELECT(table.SceneGroup.AllColumns).FROM(table.SceneGroup).WHERE(table.SceneGroup.Name.EQ(sqlite.String(name)))
	var row model.SceneGroup
	if err := stmt.QueryContext(ctx, r.s.db, &row); err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return domain.SceneGroup{}, storage.ErrNotFound
		}
		return domain.SceneGroup{}, fmt.Errorf("get scene group: %w", err)
	}
	return fromSceneGroupModel(row)
}

func (r *sceneGroupRepo) Upsert(ctx context.Context, g domain.SceneGroup) error {
	row, err := toSceneGroupModel(g)
	if err != nil {
		return err
	}
	stmt := table.SceneGroup.INSERT(table.SceneGroup.AllColumns).
		MODEL(row).
		ON_CONFLICT(table.SceneGroup.Name).
		DO_UPDATE(sqlite.SET(
			table.SceneGroup.Reputation.SET(sqlite.Int32(row.Reputation)),
			table.SceneGroup.Confidence.SET(sqlite.Float(row.Confidence)),
			table.SceneGroup.ReleaseCount.SET(sqlite.Int64(row.ReleaseCount)),
			table.SceneGroup.FreeleechShare.SET(sqlite.Float(row.FreeleechShare)),
			table.SceneGroup.ResolutionCounts.SET(sqlite.String(row.ResolutionCounts)),
			table.SceneGroup.CodecCounts.SET(sqlite.String(row.CodecCounts)),
			table.SceneGroup.SourceCounts.SET(sqlite.String(row.SourceCounts)),
			table.SceneGroup.LastSeen.SET(sqlite.TimestampT(row.LastSeen)),
		))
	_, err = r.s.handleInsert(ctx, stmt)
	return err
}

func (r *sceneGroupRepo) List(ctx context.Context) ([]domain.SceneGroup, error) {
	stmt := table.SceneGroup.SELECT(table.SceneGroup.AllColumns).FROM(table.SceneGroup).ORDER_BY(table.SceneGroup.Name.ASC())
	var rows []model.SceneGroup
	if err := stmt.QueryContext(ctx, r.s.db, &rows); err != nil {
		return nil, fmt.Errorf("list scene groups: %w", err)
	}
	out := make([]domain.SceneGroup, 0, len(rows))
	for _, row := range rows {
		g, err := fromSceneGroupModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
