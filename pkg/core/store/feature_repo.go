package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"loanintel/pkg/models"
)

// FeatureRepo stores the per-case borrower feature vector (one row per case).
type FeatureRepo struct{}

// NewFeatureRepo creates a new repository instance.
func NewFeatureRepo() *FeatureRepo {
	return &FeatureRepo{}
}

// Upsert persists the feature vector, replacing any previous row for the case.
func (r *FeatureRepo) Upsert(ctx context.Context, f *models.BorrowerFeatures) error {
	p := GetPool()
	if p == nil {
		return fmt.Errorf("database pool not initialized")
	}

	err := p.QueryRow(ctx, `
		INSERT INTO borrower_features (case_id, borrower_name, pan_number, aadhaar_number,
			dob, entity_type, industry_type, business_vintage_years, pincode, gstin,
			gst_registration_date, annual_turnover, monthly_turnover, monthly_credit_avg,
			avg_monthly_balance, emi_outflow_monthly, bounce_count_12m, cash_deposit_ratio,
			net_profit, cibil_score, active_loan_count, enquiry_count_6m,
			feature_completeness, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,NOW())
		ON CONFLICT (case_id) DO UPDATE SET
			borrower_name = EXCLUDED.borrower_name,
			pan_number = EXCLUDED.pan_number,
			aadhaar_number = EXCLUDED.aadhaar_number,
			dob = EXCLUDED.dob,
			entity_type = EXCLUDED.entity_type,
			industry_type = EXCLUDED.industry_type,
			business_vintage_years = EXCLUDED.business_vintage_years,
			pincode = EXCLUDED.pincode,
			gstin = EXCLUDED.gstin,
			gst_registration_date = EXCLUDED.gst_registration_date,
			annual_turnover = EXCLUDED.annual_turnover,
			monthly_turnover = EXCLUDED.monthly_turnover,
			monthly_credit_avg = EXCLUDED.monthly_credit_avg,
			avg_monthly_balance = EXCLUDED.avg_monthly_balance,
			emi_outflow_monthly = EXCLUDED.emi_outflow_monthly,
			bounce_count_12m = EXCLUDED.bounce_count_12m,
			cash_deposit_ratio = EXCLUDED.cash_deposit_ratio,
			net_profit = EXCLUDED.net_profit,
			cibil_score = EXCLUDED.cibil_score,
			active_loan_count = EXCLUDED.active_loan_count,
			enquiry_count_6m = EXCLUDED.enquiry_count_6m,
			feature_completeness = EXCLUDED.feature_completeness,
			updated_at = NOW()
		RETURNING id, updated_at`,
		f.CaseID, f.BorrowerName, f.PANNumber, f.AadhaarNumber, f.DOB,
		f.EntityType, f.IndustryType, f.BusinessVintageYears, f.Pincode, f.GSTIN,
		f.GSTRegistrationDate, f.AnnualTurnover, f.MonthlyTurnover, f.MonthlyCreditAvg,
		f.AvgMonthlyBalance, f.EMIOutflowMonthly, f.BounceCount12M, f.CashDepositRatio,
		f.NetProfit, f.CibilScore, f.ActiveLoanCount, f.EnquiryCount6M,
		f.FeatureCompleteness,
	).Scan(&f.ID, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert borrower features: %w", err)
	}
	return nil
}

// Get returns the feature vector for a case.
func (r *FeatureRepo) Get(ctx context.Context, caseID int64) (*models.BorrowerFeatures, error) {
	p := GetPool()
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var f models.BorrowerFeatures
	err := p.QueryRow(ctx, `
		SELECT id, case_id, borrower_name, pan_number, aadhaar_number, dob,
			entity_type, industry_type, business_vintage_years, pincode, gstin,
			gst_registration_date, annual_turnover, monthly_turnover, monthly_credit_avg,
			avg_monthly_balance, emi_outflow_monthly, bounce_count_12m, cash_deposit_ratio,
			net_profit, cibil_score, active_loan_count, enquiry_count_6m,
			feature_completeness, updated_at
		FROM borrower_features WHERE case_id = $1`, caseID,
	).Scan(&f.ID, &f.CaseID, &f.BorrowerName, &f.PANNumber, &f.AadhaarNumber, &f.DOB,
		&f.EntityType, &f.IndustryType, &f.BusinessVintageYears, &f.Pincode, &f.GSTIN,
		&f.GSTRegistrationDate, &f.AnnualTurnover, &f.MonthlyTurnover, &f.MonthlyCreditAvg,
		&f.AvgMonthlyBalance, &f.EMIOutflowMonthly, &f.BounceCount12M, &f.CashDepositRatio,
		&f.NetProfit, &f.CibilScore, &f.ActiveLoanCount, &f.EnquiryCount6M,
		&f.FeatureCompleteness, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load borrower features: %w", err)
	}
	return &f, nil
}
