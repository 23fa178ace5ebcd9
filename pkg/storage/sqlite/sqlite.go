// Package sqlite is the go-jet-backed implementation of pkg/storage's
// repository ports: writes go through handleStatement's
// BeginTx/Exec/Commit wrapping with zap logging of the failed statement's
// DebugSql, except jobRepo.Lease, which runs its updates in its own
// transaction. qrm.ErrNoRows is mapped to storage.ErrNotFound at each
// repository's Get, except the blocklist's, which returns nil and no error
// for a missing entry.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/go-jet/jet/v2/sqlite"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/kasuboski/reelwatch/pkg/logger"
	"github.com/kasuboski/reelwatch/pkg/storage"
)

// SQLite is the concrete storage.Store backed by a single *sql.DB.
type SQLite struct {
	db *sql.DB
}

// New opens (without yet migrating) the sqlite database at filePath.
// Callers must call RunMigrations before using any repository.
func New(ctx context.Context, filePath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", filePath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// RunMigrations applies any pending embedded migrations.
func (s *SQLite) RunMigrations(ctx context.Context) error {
	return runMigrations(s.db)
}

// Close closes the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Movies() storage.MovieRepository                   { return &movieRepo{s} }
func (s *SQLite) QualityProfiles() storage.QualityProfileRepository { return &qualityProfileRepo{s} }
func (s *SQLite) CustomFormats() storage.CustomFormatRepository     { return &customFormatRepo{s} }
func (s *SQLite) MovieFiles() storage.MovieFileRepository           { return &movieFileRepo{s} }
func (s *SQLite) QueueItems() storage.QueueItemRepository           { return &queueItemRepo{s} }
func (s *SQLite) Jobs() storage.JobRepository                       { return &jobRepo{s} }
func (s *SQLite) Blocklist() storage.BlocklistRepository            { return &blocklistRepo{s} }
func (s *SQLite) DeadLetters() storage.DeadLetterRepository         { return &deadLetterRepo{s} }
func (s *SQLite) SceneGroups() storage.SceneGroupRepository         { return &sceneGroupRepo{s} }
func (s *SQLite) QualityHistory() storage.QualityHistoryRepository  { return &qualityHistoryRepo{s} }

func (s *SQLite) handleInsert(ctx context.Context, stmt sqlite.InsertStatement) (sql.Result, error) {
	return s.handleStatement(ctx, stmt)
}

func (s *SQLite) handleDelete(ctx context.Context, stmt sqlite.DeleteStatement) (sql.Result, error) {
	return s.handleStatement(ctx, stmt)
}

func (s *SQLite) handleUpdate(ctx context.Context, stmt sqlite.UpdateStatement) (sql.Result, error) {
	return s.handleStatement(ctx, stmt)
}

func (s *SQLite) handleStatement(ctx context.Context, stmt sqlite.Statement) (sql.Result, error) {
	log := logger.FromCtx(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	result, err := stmt.ExecContext(ctx, tx)
	if err != nil {
		log.Debugw("failed to execute statement", zap.String("query", stmt.DebugSql()), zap.Error(err))
		tx.Rollback()
		return result, err
	}

	return result, tx.Commit()
}
