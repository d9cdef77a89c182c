package store

import (
	"context"
	"fmt"

	"loanintel/pkg/models"
)

// EligibilityRepo persists scored (case, product) rows. Scoring uses a
// replace-and-insert strategy so a re-run never leaves stale rows behind.
type EligibilityRepo struct{}

// NewEligibilityRepo creates a new repository instance.
func NewEligibilityRepo() *EligibilityRepo {
	return &EligibilityRepo{}
}

// ReplaceForCase deletes prior eligibility rows for the case and bulk-inserts
// the new ones inside one transaction.
func (r *EligibilityRepo) ReplaceForCase(ctx context.Context, caseID int64, results []*models.EligibilityResult) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}

	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM eligibility_results WHERE case_id = $1`, caseID); err != nil {
		return fmt.Errorf("failed to clear eligibility rows: %w", err)
	}

	for _, res := range results {
		err := tx.QueryRow(ctx, `
			INSERT INTO eligibility_results (case_id, lender_product_id, status,
				eligibility_score, approval_probability, expected_ticket_min,
				expected_ticket_max, confidence, rank, improvements, details, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
			RETURNING id, created_at`,
			res.CaseID, res.LenderProductID, res.Status, res.Score, res.Probability,
			res.ExpectedTicketMin, res.ExpectedTicketMax, res.Confidence, res.Rank,
			res.Improvements, res.DetailsJSON,
		).Scan(&res.ID, &res.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert eligibility row: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListByCase returns the persisted rows for a case, passing rows ranked first.
// Callers must post-process loaded rows to recompute the rejection narrative
// and dynamic recommendations; only the minimal verdict is stored.
func (r *EligibilityRepo) ListByCase(ctx context.Context, caseID int64) ([]*models.EligibilityResult, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := p.Query(ctx, `
		SELECT id, case_id, lender_product_id, status, eligibility_score,
			approval_probability, expected_ticket_min, expected_ticket_max,
			confidence, rank, improvements, details, created_at
		FROM eligibility_results
		WHERE case_id = $1
		ORDER BY rank NULLS LAST, id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligibility results: %w", err)
	}
	defer rows.Close()

	var out []*models.EligibilityResult
	for rows.Next() {
		var res models.EligibilityResult
		if err := rows.Scan(&res.ID, &res.CaseID, &res.LenderProductID, &res.Status,
			&res.Score, &res.Probability, &res.ExpectedTicketMin, &res.ExpectedTicketMax,
			&res.Confidence, &res.Rank, &res.Improvements, &res.DetailsJSON,
			&res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}
