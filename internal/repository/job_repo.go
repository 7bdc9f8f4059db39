package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"metabarcoding-web/internal/model"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// Create persists a new job record inside a transaction. Either the record
// is fully durable or the transaction rolls back and no partial row remains.
func (r *JobRepository) Create(ctx context.Context, job model.AnalysisJob) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin job transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO analysis_jobs (job_id, user_id, type, file_path, parameters, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.JobID, job.UserID, job.Type, job.FilePath, job.Parameters, job.Status, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit job: %w", err)
	}
	return nil
}

func (r *JobRepository) ListByOwner(ctx context.Context, userID string) ([]model.JobSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT job_id, type, status, created_at
		 FROM analysis_jobs WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.JobSummary, 0)
	for rows.Next() {
		var j model.JobSummary
		if err := rows.Scan(&j.JobID, &j.Type, &j.Status, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// FindByOwner returns the job only when it is owned by userID. A job id
// alone is not sufficient authorization.
func (r *JobRepository) FindByOwner(ctx context.Context, userID string, jobID string) (model.AnalysisJob, error) {
	var j model.AnalysisJob
	err := r.pool.QueryRow(ctx,
		`SELECT job_id, user_id, type, file_path, parameters, status,
		        created_at, completed_at, result_path
		 FROM analysis_jobs WHERE job_id = $1 AND user_id = $2`, jobID, userID).
		Scan(&j.JobID, &j.UserID, &j.Type, &j.FilePath, &j.Parameters, &j.Status,
			&j.CreatedAt, &j.CompletedAt, &j.ResultPath)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.AnalysisJob{}, model.ErrJobNotFound
	}
	if err != nil {
		return model.AnalysisJob{}, fmt.Errorf("find job: %w", err)
	}
	return j, nil
}

// MarkCompleted and MarkFailed form the status-update contract for the
// external analysis worker. Both are idempotent: re-running the same update
// leaves the row in the same terminal state.

func (r *JobRepository) MarkCompleted(ctx context.Context, jobID string, resultPath string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE analysis_jobs
		 SET status = $2, completed_at = $3, result_path = $4
		 WHERE job_id = $1`,
		jobID, model.JobStatusCompleted, time.Now().UTC(), resultPath)
	if err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}
	return nil
}

func (r *JobRepository) MarkFailed(ctx context.Context, jobID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE analysis_jobs
		 SET status = $2, completed_at = $3
		 WHERE job_id = $1`,
		jobID, model.JobStatusFailed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}
	return nil
}
