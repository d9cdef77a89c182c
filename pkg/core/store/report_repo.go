package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"loanintel/pkg/models"
)

// ReportRepo stores generated case reports, one row per version.
type ReportRepo struct{}

// NewReportRepo creates a new repository instance.
func NewReportRepo() *ReportRepo {
	return &ReportRepo{}
}

// Insert persists a new report version for a case (max existing version + 1).
func (r *ReportRepo) Insert(ctx context.Context, caseID int64, data json.RawMessage, pdfKey string) (*models.CaseReport, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rep := &models.CaseReport{CaseID: caseID, DataJSON: data, PDFKey: pdfKey}
	err := p.QueryRow(ctx, `
		INSERT INTO case_reports (case_id, version, data, pdf_key, created_at)
		VALUES ($1,
			(SELECT COALESCE(MAX(version), 0) + 1 FROM case_reports WHERE case_id = $1),
			$2, $3, NOW())
		RETURNING id, version, created_at`,
		caseID, data, pdfKey,
	).Scan(&rep.ID, &rep.Version, &rep.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert case report: %w", err)
	}
	return rep, nil
}

// Latest returns the newest report version for a case.
func (r *ReportRepo) Latest(ctx context.Context, caseID int64) (*models.CaseReport, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var rep models.CaseReport
	err := p.QueryRow(ctx, `
		SELECT id, case_id, version, data, pdf_key, created_at
		FROM case_reports WHERE case_id = $1
		ORDER BY version DESC LIMIT 1`, caseID,
	).Scan(&rep.ID, &rep.CaseID, &rep.Version, &rep.DataJSON, &rep.PDFKey, &rep.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load case report: %w", err)
	}
	return &rep, nil
}
