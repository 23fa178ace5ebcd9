package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"

	"github.com/kasuboski/reelwatch/pkg/storage"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/model"
	"github.com/kasuboski/reelwatch/pkg/storage/sqlite/schema/gen/table"
)

type jobRepo struct {
	s *SQLite
}

func toJobModel(j storage.Job) model.Job {
	return model.Job{
		ID:          j.ID,
		Kind:        j.Kind,
		Priority:    int32(j.Priority),
		Payload:     j.Payload,
		Status:      j.Status,
		LeaseOwner:  j.LeaseOwner,
		LeaseUntil:  j.LeaseUntil,
		Attempts:    int32(j.Attempts),
		MaxAttempts: int32(j.MaxAttempts),
		LastError:   j.LastError,
		RunAfter:    j.RunAfter,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func fromJobModel(row model.Job) storage.Job {
	return storage.Job{
		ID:          row.ID,
		Kind:        row.Kind,
		Priority:    int(row.Priority),
		Payload:     row.Payload,
		Status:      row.Status,
		LeaseOwner:  row.LeaseOwner,
		LeaseUntil:  row.LeaseUntil,
		Attempts:    int(row.Attempts),
		MaxAttempts: int(row.MaxAttempts),
		LastError:   row.LastError,
		RunAfter:    row.RunAfter,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

const (
	jobStatusPending = "pending"
	jobStatusLeased  = "leased"
)

func (r *jobRepo) Enqueue(ctx context.Context, job storage.Job) (int64, error) {
	if job.Status == "" {
		job.Status = jobStatusPending
	}
	row := toJobModel(job)
	stmt := table.Job.INSERT(table.Job.MutableColumns).MODEL(row).RETURNING(table.Job.ID)
	result, err := r.s.handleInsert(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Lease claims up to n ready jobs (pending, run_after <= now), ordered by
// priority tier then FIFO, and marks them leased in a single transaction so
// two workers never claim the same job.
func (r *jobRepo) Lease(ctx context.Context, owner string, n int, leaseUntil time.Time) ([]storage.Job, error) {
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	selectStmt := table.Job.SELECT(table.Job.AllColumns).
		FROM(table.Job).
		WHERE(table.Job.Status.EQ(sqlite.String(jobStatusPending)).AND(table.Job.RunAfter.LT_EQ(sqlite.TimestampT(now)))).
		ORDER_BY(table.Job.Priority.DESC(), table.Job.CreatedAt.ASC()).
		LIMIT(int64(n))

	var candidates []model.Job
	if err := selectStmt.QueryContext(ctx, tx, &candidates); err != nil {
		return nil, fmt.Errorf("select leasable jobs: %w", err)
	}
	if len(candidates) == 0 {
		return nil, tx.Commit()
	}

	leased := make([]storage.Job, 0, len(candidates))
	for _, c := range candidates {
		updateStmt := table.Job.UPDATE(table.Job.Status, table.Job.LeaseOwner, table.Job.LeaseUntil, table.Job.UpdatedAt).
			SET(jobStatusLeased, owner, leaseUntil, now).
			WHERE(table.Job.ID.EQ(sqlite.Int64(c.ID)).AND(table.Job.Status.EQ(sqlite.String(jobStatusPending))))
		if _, err := updateStmt.ExecContext(ctx, tx); err != nil {
			return nil, fmt.Errorf("lease job %d: %w", c.ID, err)
		}
		c.Status = jobStatusLeased
		c.LeaseOwner = owner
		c.LeaseUntil = &leaseUntil
		leased = append(leased, fromJobModel(c))
	}

	return leased, tx.Commit()
}

func (r *jobRepo) Complete(ctx context.Context, id int64) error {
	stmt := table.Job.UPDATE(table.Job.Status, table.Job.UpdatedAt).
		SET("done", time.Now()).
		WHERE(table.Job.ID.EQ(sqlite.Int64(id)))
	_, err := r.s.handleUpdate(ctx, stmt)
	return err
}

func (r *jobRepo) Fail(ctx context.Context, id int64, lastError string, runAfter time.Time) error {
	job, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	status := jobStatusPending
	if job.Attempts+1 >= job.MaxAttempts && job.MaxAttempts > 0 {
		status = "failed"
	}
	stmt := table.Job.UPDATE(table.Job.Status, table.Job.Attempts, table.Job.LastError, table.Job.RunAfter, table.Job.UpdatedAt).
		SET(status, job.Attempts+1, lastError, runAfter, time.Now()).
		WHERE(table.Job.ID.EQ(sqlite.Int64(id)))
	_, err = r.s.handleUpdate(ctx, stmt)
	return err
}

func (r *jobRepo) Get(ctx context.Context, id int64) (storage.Job, error) {
	stmt := table.Job.SELECT(table.Job.AllColumns).FROM(table.Job).WHERE(table.Job.ID.EQ(sqlite.Int64(id)))
	var row model.Job
	if err := stmt.QueryContext(ctx, r.s.db, &row); err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return storage.Job{}, storage.ErrNotFound
		}
		return storage.Job{}, fmt.Errorf("get job: %w", err)
	}
	return fromJobModel(row), nil
}

// PromoteAged raises pending jobs at fromPriority that were created before
// olderThan to toPriority, the aging sweep's single write per run.
func (r *jobRepo) PromoteAged(ctx context.Context, fromPriority, toPriority int, olderThan time.Time) (int64, error) {
	stmt := table.Job.UPDATE(table.Job.Priority, table.Job.UpdatedAt).
		SET(int32(toPriority), time.Now()).
		WHERE(table.Job.Status.EQ(sqlite.String(jobStatusPending)).
			AND(table.Job.Priority.EQ(sqlite.Int32(int32(fromPriority)))).
			AND(table.Job.CreatedAt.LT(sqlite.TimestampT(olderThan))))
	result, err := r.s.handleUpdate(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("promote aged jobs: %w", err)
	}
	return result.RowsAffected()
}

func (r *jobRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	stmt := table.Job.SELECT(sqlite.COUNT(table.Job.ID).AS("count")).
		FROM(table.Job).
		WHERE(table.Job.Status.EQ(sqlite.String(status)))

	var result struct{ Count int64 }
	if err := stmt.QueryContext(ctx, r.s.db, &result); err != nil {
		return 0, fmt.Errorf("count jobs by status: %w", err)
	}
	return int(result.Count), nil
}
