package repository

import (
	"context"
	"time"

	"policyreview-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalysisJobRepository handles database operations for analysis jobs.
type AnalysisJobRepository struct {
	db *pgxpool.Pool
}

// NewAnalysisJobRepository creates a new analysis job repository.
func NewAnalysisJobRepository(db *pgxpool.Pool) *AnalysisJobRepository {
	return &AnalysisJobRepository{db: db}
}

// Create creates a new analysis job.
func (r *AnalysisJobRepository) Create(ctx context.Context, job *models.AnalysisJob) error {
	query := `
		INSERT INTO analysis_jobs (
			status, current_phase, steps, error_message
		) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		job.Status,
		job.CurrentPhase,
		job.Steps,
		job.ErrorMessage,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)

	return err
}

// GetByID retrieves an analysis job by ID.
func (r *AnalysisJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	job := &models.AnalysisJob{}
	query := `
		SELECT id, status, current_phase, steps, result, report_path, error_message,
			created_at, updated_at, completed_at
		FROM analysis_jobs
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.Status,
		&job.CurrentPhase,
		&job.Steps,
		&job.Result,
		&job.ReportPath,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	)

	if err != nil {
		return nil, err
	}

	// Ensure Steps is never nil (safeguard in case Scan didn't handle NULL properly)
	if job.Steps == nil {
		job.Steps = make(models.AnalysisSteps, 0)
	}

	return job, nil
}

// UpdateStatus updates the status of an analysis job.
func (r *AnalysisJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisJobStatus) error {
	query := `
		UPDATE analysis_jobs SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// UpdateProgress updates the current phase and phase list of an analysis job.
func (r *AnalysisJobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, currentPhase string, steps models.AnalysisSteps) error {
	query := `
		UPDATE analysis_jobs SET
			current_phase = $2,
			steps = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, currentPhase, steps)
	return err
}

// Complete marks an analysis job as completed and stores its result and
// rendered report path.
func (r *AnalysisJobRepository) Complete(ctx context.Context, id uuid.UUID, result models.AnalysisResult, reportPath string) error {
	now := time.Now()
	query := `
		UPDATE analysis_jobs SET
			status = $2,
			result = $3,
			report_path = $4,
			completed_at = $5,
			updated_at = $5
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.JobStatusCompleted, result, reportPath, now)
	return err
}

// Fail marks an analysis job as failed with an error message. A failed job
// may still carry a minimal result and report so callers have something to
// download.
func (r *AnalysisJobRepository) Fail(ctx context.Context, id uuid.UUID, errorMessage string, result models.AnalysisResult, reportPath string) error {
	query := `
		UPDATE analysis_jobs SET
			status = $2,
			error_message = $3,
			result = $4,
			report_path = NULLIF($5, ''),
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.JobStatusFailed, errorMessage, result, reportPath)
	return err
}
