package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"loanintel/pkg/models"
)

// DocumentRepo handles persistence of uploaded documents.
type DocumentRepo struct{}

// NewDocumentRepo creates a new repository instance.
func NewDocumentRepo() *DocumentRepo {
	return &DocumentRepo{}
}

const documentColumns = `id, case_id, filename, storage_key, size_bytes, mime_type,
	file_hash, kind, kind_confidence, ocr_text, status, failure_reason,
	created_at, updated_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(
		&d.ID, &d.CaseID, &d.Filename, &d.StorageKey, &d.SizeBytes, &d.MimeType,
		&d.FileHash, &d.Kind, &d.KindConfidence, &d.OCRText, &d.Status,
		&d.FailureReason, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Insert persists a new document row with status=uploaded. Returns ErrConflict
// when a document with the same content hash already exists in the case, which
// intake treats as a silent duplicate skip.
func (r *DocumentRepo) Insert(ctx context.Context, d *models.Document) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}

	d.Status = models.DocUploaded
	if d.Kind == "" {
		d.Kind = models.KindUnknown
	}
	err := p.QueryRow(ctx, `
		INSERT INTO documents (case_id, filename, storage_key, size_bytes, mime_type,
			file_hash, kind, kind_confidence, ocr_text, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'',$9,NOW(),NOW())
		RETURNING id, created_at, updated_at`,
		d.CaseID, d.Filename, d.StorageKey, d.SizeBytes, d.MimeType,
		d.FileHash, d.Kind, d.KindConfidence, d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Get returns a document by id.
func (r *DocumentRepo) Get(ctx context.Context, id int64) (*models.Document, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	return scanDocument(p.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
}

// ListByCase returns all documents of a case, oldest first.
func (r *DocumentRepo) ListByCase(ctx context.Context, caseID int64) ([]*models.Document, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := p.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE case_id = $1 ORDER BY created_at`,
		caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// SetOCRText records the extracted text and marks the document ocr_complete.
func (r *DocumentRepo) SetOCRText(ctx context.Context, id int64, text string) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}
	_, err := p.Exec(ctx,
		`UPDATE documents SET ocr_text = $2, status = $3, updated_at = NOW() WHERE id = $1`,
		id, text, models.DocOCRComplete)
	return err
}

// SetClassification records the classifier verdict and marks the document
// classified.
func (r *DocumentRepo) SetClassification(ctx context.Context, id int64, kind models.DocumentKind, confidence float64) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}
	_, err := p.Exec(ctx, `
		UPDATE documents SET kind = $2, kind_confidence = $3, status = $4, updated_at = NOW()
		WHERE id = $1`,
		id, kind, confidence, models.DocClassified)
	return err
}

// MarkFailed records a terminal per-document failure. The document stays in
// the case; the case itself is not failed.
func (r *DocumentRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}
	_, err := p.Exec(ctx,
		`UPDATE documents SET status = $2, failure_reason = $3, updated_at = NOW() WHERE id = $1`,
		id, models.DocFailed, reason)
	return err
}

// CountByStatus returns per-status document counts for a case, used by the
// case status endpoint to surface failed documents.
func (r *DocumentRepo) CountByStatus(ctx context.Context, caseID int64) (map[models.DocumentStatus]int, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := p.Query(ctx,
		`SELECT status, COUNT(*) FROM documents WHERE case_id = $1 GROUP BY status`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.DocumentStatus]int)
	for rows.Next() {
		var status models.DocumentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
