package store

import (
	"context"
	"fmt"

	"loanintel/pkg/models"
)

// FieldRepo stores extracted evidence. The history is append-only: rows are
// never updated in place, and assembly reads the best row per field name.
type FieldRepo struct{}

// NewFieldRepo creates a new repository instance.
func NewFieldRepo() *FieldRepo {
	return &FieldRepo{}
}

// Append inserts one extracted field row.
func (r *FieldRepo) Append(ctx context.Context, f *models.ExtractedField) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}
	err := p.QueryRow(ctx, `
		INSERT INTO extracted_fields (case_id, document_id, name, value, confidence, source, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		RETURNING id, created_at`,
		f.CaseID, f.DocumentID, f.Name, f.Value, f.Confidence, f.Source,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append extracted field: %w", err)
	}
	return nil
}

// AppendAll inserts a batch of fields for one case/document.
func (r *FieldRepo) AppendAll(ctx context.Context, fields []*models.ExtractedField) error {
	for _, f := range fields {
		if err := r.Append(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// ListByCase returns every extracted field row for a case, oldest first.
func (r *FieldRepo) ListByCase(ctx context.Context, caseID int64) ([]*models.ExtractedField, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := p.Query(ctx, `
		SELECT id, case_id, document_id, name, value, confidence, source, created_at
		FROM extracted_fields WHERE case_id = $1 ORDER BY created_at, id`,
		caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted fields: %w", err)
	}
	defer rows.Close()

	var fields []*models.ExtractedField
	for rows.Next() {
		var f models.ExtractedField
		if err := rows.Scan(&f.ID, &f.CaseID, &f.DocumentID, &f.Name, &f.Value,
			&f.Confidence, &f.Source, &f.CreatedAt); err != nil {
			return nil, err
		}
		fields = append(fields, &f)
	}
	return fields, rows.Err()
}
