package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/discfinder/discfinder/internal/data/pgxutil"
	"github.com/discfinder/discfinder/internal/domain/model"
)

// JobRepo provides database operations for search jobs.
//
// Status transitions are enforced by the UPDATE predicates: a job can only
// move pending -> running and running -> completed|failed. An UPDATE whose
// guard does not match affects zero rows and surfaces ErrJobConflict, so
// concurrent workers cannot double-run or resurrect a finished job.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// ErrJobConflict is returned when a status transition guard rejects an update.
var ErrJobConflict = errors.New("job is not in the required status")

// NewJobRepo creates a new JobRepo with real time provider.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewJobRepoWithTimeProvider creates a new JobRepo with a custom time provider (useful for tests).
func NewJobRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *JobRepo {
	return &JobRepo{DB: db, timeProvider: tp}
}

const (
	jobSelectColumns = `id, job_type, status, parameters, results, error_message,
		stores_found, credits_used, created_at, completed_at`

	jobGetByIDQuery = `
		SELECT id, job_type, status, parameters, results, error_message,
		       stores_found, credits_used, created_at, completed_at
		FROM jobs
		WHERE id = $1`

	jobListRecentQuery = `
		SELECT id, job_type, status, parameters, results, error_message,
		       stores_found, credits_used, created_at, completed_at
		FROM jobs
		ORDER BY created_at DESC
		LIMIT $1`

	jobCountActiveQuery = `
		SELECT COUNT(*) FROM jobs WHERE status IN ('pending', 'running')`
)

// Create inserts a new job in pending status.
func (r *JobRepo) Create(
	ctx context.Context,
	jobType model.JobType,
	parameters json.RawMessage,
) (*model.Job, error) {
	if !jobType.Valid() {
		return nil, fmt.Errorf("invalid job type: %s", jobType)
	}
	if len(parameters) == 0 {
		parameters = json.RawMessage("{}")
	}

	var out model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO jobs (id, job_type, status, parameters, stores_found, credits_used, created_at)
			VALUES ($1, $2, $3, $4, 0, 0, $5)
			RETURNING `+jobSelectColumns,
			uuid.NewString(),
			jobType,
			model.JobStatusPending,
			parameters,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Job])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a job by ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, jobGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		job, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Job])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job by ID: %w", err)
	}
	return &job, nil
}

// ListRecent returns the most recently created jobs, newest first.
func (r *JobRepo) ListRecent(ctx context.Context, limit int) ([]*model.Job, error) {
	if limit <= 0 {
		limit = 20
	}

	var rowsOut []model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, jobListRecentQuery, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Job])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	res := make([]*model.Job, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// CountActive returns the number of jobs that have not reached a terminal
// status. The stats endpoint derives its active-jobs figure from this count
// rather than any in-memory tracking.
func (r *JobRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, jobCountActiveQuery).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count active jobs: %w", err)
	}
	return count, nil
}

// MarkRunning transitions a pending job to running.
func (r *JobRepo) MarkRunning(ctx context.Context, id string) error {
	return r.guardedUpdate(ctx, id, `
		UPDATE jobs SET status = $2
		WHERE id = $1 AND status = $3`,
		model.JobStatusRunning, model.JobStatusPending)
}

// MarkCompleted transitions a running job to completed, recording its
// results, counters and completion time.
func (r *JobRepo) MarkCompleted(
	ctx context.Context,
	id string,
	results json.RawMessage,
	storesFound, creditsUsed int,
) error {
	if len(results) == 0 {
		results = json.RawMessage("{}")
	}
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `
			UPDATE jobs
			SET status = $2, results = $3, stores_found = $4, credits_used = $5, completed_at = $6
			WHERE id = $1 AND status = $7`,
			id,
			model.JobStatusCompleted,
			results,
			storesFound,
			creditsUsed,
			r.timeProvider.Now().UTC(),
			model.JobStatusRunning,
		)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if rows == 0 {
		return r.conflictOrNotFound(ctx, id)
	}
	return nil
}

// MarkFailed transitions a running job to failed, recording the error
// message and completion time.
func (r *JobRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `
			UPDATE jobs
			SET status = $2, error_message = $3, completed_at = $4
			WHERE id = $1 AND status = $5`,
			id,
			model.JobStatusFailed,
			errMsg,
			r.timeProvider.Now().UTC(),
			model.JobStatusRunning,
		)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	if rows == 0 {
		return r.conflictOrNotFound(ctx, id)
	}
	return nil
}

func (r *JobRepo) guardedUpdate(
	ctx context.Context,
	id string,
	query string,
	newStatus, requiredStatus model.JobStatus,
) error {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, query, id, newStatus, requiredStatus)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if rows == 0 {
		return r.conflictOrNotFound(ctx, id)
	}
	return nil
}

// conflictOrNotFound distinguishes a missing job from a guard rejection after
// a zero-row update.
func (r *JobRepo) conflictOrNotFound(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrJobConflict
}
