package repository

import (
	"context"

	"policyreview-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRecordRepository handles database operations for uploaded documents.
type DocumentRecordRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRecordRepository creates a new document record repository.
func NewDocumentRecordRepository(db *pgxpool.Pool) *DocumentRecordRepository {
	return &DocumentRecordRepository{db: db}
}

// Create creates a new document record.
func (r *DocumentRecordRepository) Create(ctx context.Context, doc *models.DocumentRecord) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}

	query := `
		INSERT INTO analysis_documents (
			id, job_id, role, filename, mime_type, size, storage_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		doc.ID,
		doc.JobID,
		doc.Role,
		doc.Filename,
		doc.MimeType,
		doc.Size,
		doc.StoragePath,
	).Scan(&doc.CreatedAt)

	return err
}

// GetByID retrieves a document record by ID.
func (r *DocumentRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DocumentRecord, error) {
	doc := &models.DocumentRecord{}
	query := `
		SELECT id, job_id, role, filename, mime_type, size, storage_path, created_at
		FROM analysis_documents
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.JobID,
		&doc.Role,
		&doc.Filename,
		&doc.MimeType,
		&doc.Size,
		&doc.StoragePath,
		&doc.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// ListByJobID retrieves all document records attached to a job, reference
// documents first.
func (r *DocumentRecordRepository) ListByJobID(ctx context.Context, jobID uuid.UUID) ([]models.DocumentRecord, error) {
	query := `
		SELECT id, job_id, role, filename, mime_type, size, storage_path, created_at
		FROM analysis_documents
		WHERE job_id = $1
		ORDER BY role ASC, created_at ASC`

	rows, err := r.db.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.DocumentRecord
	for rows.Next() {
		var doc models.DocumentRecord
		err := rows.Scan(
			&doc.ID,
			&doc.JobID,
			&doc.Role,
			&doc.Filename,
			&doc.MimeType,
			&doc.Size,
			&doc.StoragePath,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}
