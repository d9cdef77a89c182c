package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"loanintel/pkg/models"
)

// LenderRepo stores lenders, their policy products and pincode coverage.
// Rows are mutated only by ingestion; eligibility scoring reads them.
type LenderRepo struct{}

// NewLenderRepo creates a new repository instance.
func NewLenderRepo() *LenderRepo {
	return &LenderRepo{}
}

// LenderSummary pairs a lender with its product and pincode counts.
type LenderSummary struct {
	Lender       models.Lender `json:"lender"`
	ProductCount int           `json:"product_count"`
	PincodeCount int           `json:"pincode_count"`
}

// UpsertLender inserts or refreshes a lender by code and returns its id.
func (r *LenderRepo) UpsertLender(ctx context.Context, name, code string) (int64, error) {
	p := GetPool()
	if p == nil {
		return 0, fmt.Errorf("database pool not initialized")
	}
	var id int64
	err := p.QueryRow(ctx, `
		INSERT INTO lenders (name, code, active, created_at)
		VALUES ($1, $2, TRUE, NOW())
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name, code).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert lender: %w", err)
	}
	return id, nil
}

// UpsertProduct inserts or updates a policy product keyed by
// (lender_id, name). Returns true when a new row was created.
func (r *LenderRepo) UpsertProduct(ctx context.Context, prod *models.LenderProduct) (bool, error) {
	p := GetPool()
	if p == nil {
		return false, fmt.Errorf("database pool not initialized")
	}

	var inserted bool
	err := p.QueryRow(ctx, `
		INSERT INTO lender_products (lender_id, name, program_type, policy_available,
			min_vintage_years, min_cibil_score, min_turnover_annual, max_ticket_size,
			min_abb, eligible_entity_types, age_min, age_max, dpd_30_rule, dpd_60_rule,
			dpd_90_rule, enquiry_rule, banking_months, gst_required, video_kyc_required,
			field_investigation, telephonic_required, tenor_min_months, tenor_max_months,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,NOW(),NOW())
		ON CONFLICT (lender_id, name) DO UPDATE SET
			program_type = EXCLUDED.program_type,
			policy_available = EXCLUDED.policy_available,
			min_vintage_years = EXCLUDED.min_vintage_years,
			min_cibil_score = EXCLUDED.min_cibil_score,
			min_turnover_annual = EXCLUDED.min_turnover_annual,
			max_ticket_size = EXCLUDED.max_ticket_size,
			min_abb = EXCLUDED.min_abb,
			eligible_entity_types = EXCLUDED.eligible_entity_types,
			age_min = EXCLUDED.age_min,
			age_max = EXCLUDED.age_max,
			dpd_30_rule = EXCLUDED.dpd_30_rule,
			dpd_60_rule = EXCLUDED.dpd_60_rule,
			dpd_90_rule = EXCLUDED.dpd_90_rule,
			enquiry_rule = EXCLUDED.enquiry_rule,
			banking_months = EXCLUDED.banking_months,
			gst_required = EXCLUDED.gst_required,
			video_kyc_required = EXCLUDED.video_kyc_required,
			field_investigation = EXCLUDED.field_investigation,
			telephonic_required = EXCLUDED.telephonic_required,
			tenor_min_months = EXCLUDED.tenor_min_months,
			tenor_max_months = EXCLUDED.tenor_max_months,
			updated_at = NOW()
		RETURNING id, (xmax = 0)`,
		prod.LenderID, prod.Name, prod.ProgramType, prod.PolicyAvailable,
		prod.MinVintageYears, prod.MinCibilScore, prod.MinTurnoverAnnual,
		prod.MaxTicketSize, prod.MinABB, prod.EligibleEntityTypes, prod.AgeMin,
		prod.AgeMax, prod.DPD30Rule, prod.DPD60Rule, prod.DPD90Rule,
		prod.EnquiryRule, prod.BankingMonths, prod.GSTRequired,
		prod.VideoKYCRequired, prod.FieldInvestigation, prod.TelephonicRequired,
		prod.TenorMinMonths, prod.TenorMaxMonths,
	).Scan(&prod.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert lender product: %w", err)
	}
	return inserted, nil
}

// UpsertPincode inserts a (lender, pincode) pair, ignoring duplicates via the
// unique constraint. Returns true when a new row was created.
func (r *LenderRepo) UpsertPincode(ctx context.Context, lenderID int64, pincode string) (bool, error) {
	p := GetPool()
	if p == nil {
		return false, fmt.Errorf("database pool not initialized")
	}
	tag, err := p.Exec(ctx, `
		INSERT INTO lender_pincodes (lender_id, pincode)
		VALUES ($1, $2)
		ON CONFLICT (lender_id, pincode) DO NOTHING`, lenderID, pincode)
	if err != nil {
		return false, fmt.Errorf("failed to upsert lender pincode: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListLenders returns all lenders with product and pincode counts.
func (r *LenderRepo) ListLenders(ctx context.Context) ([]*LenderSummary, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := p.Query(ctx, `
		SELECT l.id, l.name, l.code, l.active, l.created_at,
			(SELECT COUNT(*) FROM lender_products lp WHERE lp.lender_id = l.id),
			(SELECT COUNT(*) FROM lender_pincodes pc WHERE pc.lender_id = l.id)
		FROM lenders l ORDER BY l.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lenders: %w", err)
	}
	defer rows.Close()

	var out []*LenderSummary
	for rows.Next() {
		var s LenderSummary
		if err := rows.Scan(&s.Lender.ID, &s.Lender.Name, &s.Lender.Code,
			&s.Lender.Active, &s.Lender.CreatedAt, &s.ProductCount, &s.PincodeCount); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// GetLender returns one lender by id.
func (r *LenderRepo) GetLender(ctx context.Context, id int64) (*models.Lender, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	var l models.Lender
	err := p.QueryRow(ctx,
		`SELECT id, name, code, active, created_at FROM lenders WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.Code, &l.Active, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lender: %w", err)
	}
	return &l, nil
}

const productColumns = `id, lender_id, name, program_type, policy_available,
	min_vintage_years, min_cibil_score, min_turnover_annual, max_ticket_size,
	min_abb, eligible_entity_types, age_min, age_max, dpd_30_rule, dpd_60_rule,
	dpd_90_rule, enquiry_rule, banking_months, gst_required, video_kyc_required,
	field_investigation, telephonic_required, tenor_min_months, tenor_max_months,
	created_at, updated_at`

func scanProduct(row pgx.Row) (*models.LenderProduct, error) {
	var prod models.LenderProduct
	err := row.Scan(&prod.ID, &prod.LenderID, &prod.Name, &prod.ProgramType,
		&prod.PolicyAvailable, &prod.MinVintageYears, &prod.MinCibilScore,
		&prod.MinTurnoverAnnual, &prod.MaxTicketSize, &prod.MinABB,
		&prod.EligibleEntityTypes, &prod.AgeMin, &prod.AgeMax, &prod.DPD30Rule,
		&prod.DPD60Rule, &prod.DPD90Rule, &prod.EnquiryRule, &prod.BankingMonths,
		&prod.GSTRequired, &prod.VideoKYCRequired, &prod.FieldInvestigation,
		&prod.TelephonicRequired, &prod.TenorMinMonths, &prod.TenorMaxMonths,
		&prod.CreatedAt, &prod.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &prod, nil
}

// ListProducts returns all products of one lender.
func (r *LenderRepo) ListProducts(ctx context.Context, lenderID int64) ([]*models.LenderProduct, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	rows, err := p.Query(ctx,
		`SELECT `+productColumns+` FROM lender_products WHERE lender_id = $1 ORDER BY name`,
		lenderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ActiveProducts returns every product of an active lender with
// policy_available=true, optionally filtered by program type. This is the
// scoring-focused query the eligibility engine runs against.
func (r *LenderRepo) ActiveProducts(ctx context.Context, program models.ProgramType) ([]*models.LenderProduct, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT lp.id, lp.lender_id, lp.name, lp.program_type,
			lp.policy_available, lp.min_vintage_years, lp.min_cibil_score,
			lp.min_turnover_annual, lp.max_ticket_size, lp.min_abb,
			lp.eligible_entity_types, lp.age_min, lp.age_max, lp.dpd_30_rule,
			lp.dpd_60_rule, lp.dpd_90_rule, lp.enquiry_rule, lp.banking_months,
			lp.gst_required, lp.video_kyc_required, lp.field_investigation,
			lp.telephonic_required, lp.tenor_min_months, lp.tenor_max_months,
			lp.created_at, lp.updated_at
		FROM lender_products lp
		JOIN lenders l ON l.id = lp.lender_id
		WHERE l.active AND lp.policy_available`
	args := []interface{}{}
	if program != "" {
		query += ` AND lp.program_type = $1`
		args = append(args, program)
	}
	query += ` ORDER BY lp.id`

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]*models.LenderProduct, error) {
	var out []*models.LenderProduct
	for rows.Next() {
		prod, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, prod)
	}
	return out, rows.Err()
}

// LendersForPincode returns the lenders covering a pincode.
func (r *LenderRepo) LendersForPincode(ctx context.Context, pincode string) ([]*models.Lender, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	rows, err := p.Query(ctx, `
		SELECT l.id, l.name, l.code, l.active, l.created_at
		FROM lenders l
		JOIN lender_pincodes pc ON pc.lender_id = l.id
		WHERE pc.pincode = $1 ORDER BY l.name`, pincode)
	if err != nil {
		return nil, fmt.Errorf("failed to query lenders by pincode: %w", err)
	}
	defer rows.Close()

	var out []*models.Lender
	for rows.Next() {
		var l models.Lender
		if err := rows.Scan(&l.ID, &l.Name, &l.Code, &l.Active, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// CoversPincode reports whether a lender serves a pincode.
func (r *LenderRepo) CoversPincode(ctx context.Context, lenderID int64, pincode string) (bool, error) {
	p := GetPool()
	if p == nil {
		return false, fmt.Errorf("database pool not initialized")
	}
	var n int
	err := p.QueryRow(ctx,
		`SELECT COUNT(*) FROM lender_pincodes WHERE lender_id = $1 AND pincode = $2`,
		lenderID, pincode).Scan(&n)
	return n > 0, err
}

// PincodeSet returns every covered pincode of a lender as a set.
func (r *LenderRepo) PincodeSet(ctx context.Context, lenderID int64) (map[string]bool, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	rows, err := p.Query(ctx,
		`SELECT pincode FROM lender_pincodes WHERE lender_id = $1`, lenderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pincode set: %w", err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var pc string
		if err := rows.Scan(&pc); err != nil {
			return nil, err
		}
		set[pc] = true
	}
	return set, rows.Err()
}
