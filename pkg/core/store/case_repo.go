package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"loanintel/pkg/models"
)

// CaseRepo handles persistence of loan application cases.
type CaseRepo struct{}

// NewCaseRepo creates a new repository instance.
func NewCaseRepo() *CaseRepo {
	return &CaseRepo{}
}

const caseColumns = `id, case_id, owner_id, organization_id, status, program_type,
	borrower_name, entity_type, industry_type, pincode, business_vintage_years,
	requested_amount, manual_cibil_score, manual_monthly_turnover,
	manual_vintage_years, gstin, gst_details, completeness_score,
	created_at, updated_at`

func scanCase(row pgx.Row) (*models.Case, error) {
	var c models.Case
	err := row.Scan(
		&c.ID, &c.CaseID, &c.OwnerID, &c.OrganizationID, &c.Status, &c.ProgramType,
		&c.BorrowerName, &c.EntityType, &c.IndustryType, &c.Pincode,
		&c.BusinessVintageYears, &c.RequestedAmount, &c.ManualCibilScore,
		&c.ManualMonthlyTurnover, &c.ManualVintageYears, &c.GSTIN,
		&c.GSTDetailsJSON, &c.CompletenessScore, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new case, assigning the next CASE-YYYYMMDD-NNNN id for the
// current UTC day. Concurrent creators serialize through the unique constraint
// on case_id: on a collision the counter is re-read and the insert retried.
func (r *CaseRepo) Create(ctx context.Context, c *models.Case) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}

	day := time.Now().UTC()
	prefix := "CASE-" + day.Format("20060102") + "-%"

	const maxRetries = 5
	for attempt := 0; attempt < maxRetries; attempt++ {
		var count int
		err := p.QueryRow(ctx,
			`SELECT COUNT(*) FROM cases WHERE case_id LIKE $1`, prefix).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count cases for day: %w", err)
		}

		c.CaseID = models.FormatCaseID(day, count+1)
		c.Status = models.CaseCreated

		err = p.QueryRow(ctx, `
			INSERT INTO cases (case_id, owner_id, organization_id, status, program_type,
				borrower_name, entity_type, industry_type, pincode, business_vintage_years,
				requested_amount, manual_cibil_score, manual_monthly_turnover,
				manual_vintage_years, completeness_score, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW(),NOW())
			RETURNING id, created_at, updated_at`,
			c.CaseID, c.OwnerID, c.OrganizationID, c.Status, c.ProgramType,
			c.BorrowerName, c.EntityType, c.IndustryType, c.Pincode,
			c.BusinessVintageYears, c.RequestedAmount, c.ManualCibilScore,
			c.ManualMonthlyTurnover, c.ManualVintageYears, c.CompletenessScore,
		).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) {
			continue // another creator took this sequence number
		}
		return fmt.Errorf("failed to create case: %w", err)
	}
	return fmt.Errorf("case id allocation exhausted retries for %s", prefix)
}

// Get returns a case by its human-readable id. When ownerID is non-empty the
// lookup is scoped to that owner; admin callers pass an organization scope
// instead via GetForOrganization.
func (r *CaseRepo) Get(ctx context.Context, caseID, ownerID string) (*models.Case, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	if ownerID != "" {
		return scanCase(p.QueryRow(ctx,
			`SELECT `+caseColumns+` FROM cases WHERE case_id = $1 AND owner_id = $2`,
			caseID, ownerID))
	}
	return scanCase(p.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE case_id = $1`, caseID))
}

// GetForOrganization returns a case visible to an organization (admin scope).
func (r *CaseRepo) GetForOrganization(ctx context.Context, caseID, orgID string) (*models.Case, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	return scanCase(p.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE case_id = $1 AND organization_id = $2`,
		caseID, orgID))
}

// GetByID returns a case by its surrogate key.
func (r *CaseRepo) GetByID(ctx context.Context, id int64) (*models.Case, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	return scanCase(p.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`, id))
}

// List returns the cases owned by an operator, newest first.
func (r *CaseRepo) List(ctx context.Context, ownerID string, limit int) ([]*models.Case, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := p.Query(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE owner_id = $1
		 ORDER BY created_at DESC LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// Update applies partial overrides to a case row. Nil fields on the patch are
// left untouched.
func (r *CaseRepo) Update(ctx context.Context, c *models.Case) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}

	tag, err := p.Exec(ctx, `
		UPDATE cases SET
			borrower_name = COALESCE($2, borrower_name),
			entity_type = COALESCE($3, entity_type),
			industry_type = COALESCE($4, industry_type),
			pincode = COALESCE($5, pincode),
			business_vintage_years = COALESCE($6, business_vintage_years),
			requested_amount = COALESCE($7, requested_amount),
			manual_cibil_score = COALESCE($8, manual_cibil_score),
			manual_monthly_turnover = COALESCE($9, manual_monthly_turnover),
			manual_vintage_years = COALESCE($10, manual_vintage_years),
			updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.BorrowerName, c.EntityType, c.IndustryType, c.Pincode,
		c.BusinessVintageYears, c.RequestedAmount, c.ManualCibilScore,
		c.ManualMonthlyTurnover, c.ManualVintageYears)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus transitions the case status. Case-row mutations from concurrent
// document jobs serialize through this single-row update.
func (r *CaseRepo) UpdateStatus(ctx context.Context, id int64, status models.CaseStatus) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}
	tag, err := p.Exec(ctx,
		`UPDATE cases SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update case status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCompleteness records the checklist completeness score.
func (r *CaseRepo) SetCompleteness(ctx context.Context, id int64, score float64) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}
	_, err := p.Exec(ctx,
		`UPDATE cases SET completeness_score = $2, updated_at = NOW() WHERE id = $1`,
		id, score)
	return err
}

// CacheGSTDetails stores the GSTIN and the authority response, but only when
// no GSTIN is cached yet. Returns true when this call won the cache slot, so
// that the GST authority is called exactly once per (case, gstin): a repeat of
// an already-cached GSTIN never reports a fresh win.
func (r *CaseRepo) CacheGSTDetails(ctx context.Context, id int64, gstin string, details []byte) (bool, error) {
	p := GetPool()
	if p == nil {
		return false, fmt.Errorf("database pool not initialized")
	}
	tag, err := p.Exec(ctx, `
		UPDATE cases SET gstin = $2, gst_details = $3, updated_at = NOW()
		WHERE id = $1 AND gstin IS NULL`,
		id, gstin, details)
	if err != nil {
		return false, fmt.Errorf("failed to cache GST details: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// HasGSTIN reports whether the case already cached the given GSTIN.
func (r *CaseRepo) HasGSTIN(ctx context.Context, id int64, gstin string) (bool, error) {
	p := GetPool()
	if p == nil {
		return false, fmt.Errorf("database pool not initialized")
	}
	var n int
	err := p.QueryRow(ctx,
		`SELECT COUNT(*) FROM cases WHERE id = $1 AND gstin = $2`, id, gstin).Scan(&n)
	return n > 0, err
}

// ApplyGSTProfile merges GST-sourced borrower descriptors into the case.
// GST values override manual entries for name, entity type, vintage, pincode
// and industry.
func (r *CaseRepo) ApplyGSTProfile(ctx context.Context, id int64, name, entityType, industry, pincode *string, vintageYears *float64) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}
	_, err := p.Exec(ctx, `
		UPDATE cases SET
			borrower_name = COALESCE($2, borrower_name),
			entity_type = COALESCE($3, entity_type),
			industry_type = COALESCE($4, industry_type),
			pincode = COALESCE($5, pincode),
			business_vintage_years = COALESCE($6, business_vintage_years),
			updated_at = NOW()
		WHERE id = $1`,
		id, name, entityType, industry, pincode, vintageYears)
	return err
}

// Delete hard-deletes a case. Documents, jobs, fields, features, eligibility
// rows and reports cascade via foreign keys.
func (r *CaseRepo) Delete(ctx context.Context, id int64) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}
	tag, err := p.Exec(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
