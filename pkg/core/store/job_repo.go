package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"loanintel/pkg/models"
)

// JobRepo implements the in-database job queue. The table is the contract:
// workers can run in-process with the API or as separate binaries, and both
// coordinate only through these rows.
type JobRepo struct{}

// NewJobRepo creates a new repository instance.
func NewJobRepo() *JobRepo {
	return &JobRepo{}
}

// Enqueue creates one queued processing job for a document.
func (r *JobRepo) Enqueue(ctx context.Context, caseID, documentID int64, maxAttempts int) (*models.ProcessingJob, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	if maxAttempts <= 0 {
		maxAttempts = 2
	}

	job := &models.ProcessingJob{
		ID:          uuid.NewString(),
		CaseID:      caseID,
		DocumentID:  documentID,
		Status:      models.JobQueued,
		MaxAttempts: maxAttempts,
	}
	err := p.QueryRow(ctx, `
		INSERT INTO document_processing_jobs
			(id, case_id, document_id, status, attempts, max_attempts, created_at, updated_at)
		VALUES ($1,$2,$3,$4,0,$5,NOW(),NOW())
		RETURNING created_at, updated_at`,
		job.ID, job.CaseID, job.DocumentID, job.Status, job.MaxAttempts,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}
	return job, nil
}

// Lease atomically claims the oldest queued job for processing. The single
// UPDATE ... RETURNING gives the at-most-once lease: two workers can never
// claim the same row. Returns ErrNotFound when the queue is empty.
func (r *JobRepo) Lease(ctx context.Context) (*models.ProcessingJob, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var job models.ProcessingJob
	err := p.QueryRow(ctx, `
		UPDATE document_processing_jobs SET
			status = $1,
			attempts = attempts + 1,
			leased_at = NOW(),
			updated_at = NOW()
		WHERE id = (
			SELECT id FROM document_processing_jobs
			WHERE status = $2
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, case_id, document_id, status, attempts, max_attempts,
			last_error, leased_at, created_at, updated_at`,
		models.JobProcessing, models.JobQueued,
	).Scan(&job.ID, &job.CaseID, &job.DocumentID, &job.Status, &job.Attempts,
		&job.MaxAttempts, &job.LastError, &job.LeasedAt, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lease job: %w", err)
	}
	return &job, nil
}

// MarkDone records a successful terminal state.
func (r *JobRepo) MarkDone(ctx context.Context, jobID string) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}
	_, err := p.Exec(ctx,
		`UPDATE document_processing_jobs SET status = $2, updated_at = NOW() WHERE id = $1`,
		jobID, models.JobDone)
	return err
}

// MarkFailed records a failure. While the attempt budget is not exhausted the
// job goes back to queued for a retry; otherwise it is terminal-failed.
// Returns true when the job was requeued.
func (r *JobRepo) MarkFailed(ctx context.Context, job *models.ProcessingJob, jobErr error) (bool, error) {
	p := GetPool()
	if p == nil {
		return false, fmt.Errorf("database pool not initialized")
	}

	msg := jobErr.Error()
	status := models.JobFailed
	requeued := false
	if job.Attempts < job.MaxAttempts {
		status = models.JobQueued
		requeued = true
	}
	_, err := p.Exec(ctx, `
		UPDATE document_processing_jobs
		SET status = $2, last_error = $3, leased_at = NULL, updated_at = NOW()
		WHERE id = $1`,
		job.ID, status, msg)
	if err != nil {
		return false, fmt.Errorf("failed to mark job failed: %w", err)
	}
	return requeued, nil
}

// PendingCount returns the number of queued or processing jobs for a case.
// Feature extraction refuses to run while this is non-zero.
func (r *JobRepo) PendingCount(ctx context.Context, caseID int64) (int, error) {
	p := GetPool()
	if p == nil {
		return 0, fmt.Errorf("database pool not initialized")
	}
	var n int
	err := p.QueryRow(ctx, `
		SELECT COUNT(*) FROM document_processing_jobs
		WHERE case_id = $1 AND status IN ($2, $3)`,
		caseID, models.JobQueued, models.JobProcessing).Scan(&n)
	return n, err
}

// FailedCount returns the number of terminal-failed jobs for a case.
func (r *JobRepo) FailedCount(ctx context.Context, caseID int64) (int, error) {
	p := GetPool()
	if p == nil {
		return 0, fmt.Errorf("database pool not initialized")
	}
	var n int
	err := p.QueryRow(ctx,
		`SELECT COUNT(*) FROM document_processing_jobs WHERE case_id = $1 AND status = $2`,
		caseID, models.JobFailed).Scan(&n)
	return n, err
}
