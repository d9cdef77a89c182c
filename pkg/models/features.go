package models

import (
	"math"
	"time"
)

// TotalFeatureSlots is the number of typed slots in the borrower feature
// vector. feature_completeness = filled / TotalFeatureSlots * 100.
const TotalFeatureSlots = 21

// BorrowerFeatures is the canonical per-case feature vector produced by the
// feature assembler. Exactly one row exists per case (upsert). Nil means the
// slot is unset.
type BorrowerFeatures struct {
	ID     int64 `json:"id"`
	CaseID int64 `json:"case_id"`

	// Identity (4)
	BorrowerName  *string `json:"borrower_name,omitempty"`
	PANNumber     *string `json:"pan_number,omitempty"`
	AadhaarNumber *string `json:"aadhaar_number,omitempty"`
	DOB           *time.Time `json:"dob,omitempty"`

	// Business (6)
	EntityType           *string  `json:"entity_type,omitempty"`
	IndustryType         *string  `json:"industry_type,omitempty"`
	BusinessVintageYears *float64 `json:"business_vintage_years,omitempty"`
	Pincode              *string  `json:"pincode,omitempty"`
	GSTIN                *string  `json:"gstin,omitempty"`
	GSTRegistrationDate  *time.Time `json:"gst_registration_date,omitempty"`

	// Financial (8)
	AnnualTurnover    *float64 `json:"annual_turnover,omitempty"` // in Lakhs
	MonthlyTurnover   *float64 `json:"monthly_turnover,omitempty"`
	MonthlyCreditAvg  *float64 `json:"monthly_credit_avg,omitempty"`
	AvgMonthlyBalance *float64 `json:"avg_monthly_balance,omitempty"`
	EMIOutflowMonthly *float64 `json:"emi_outflow_monthly,omitempty"`
	BounceCount12M    *int     `json:"bounce_count_12m,omitempty"`
	CashDepositRatio  *float64 `json:"cash_deposit_ratio,omitempty"`
	NetProfit         *float64 `json:"net_profit,omitempty"`

	// Credit (3)
	CibilScore      *int `json:"cibil_score,omitempty"`
	ActiveLoanCount *int `json:"active_loan_count,omitempty"`
	EnquiryCount6M  *int `json:"enquiry_count_6m,omitempty"`

	FeatureCompleteness float64   `json:"feature_completeness"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// FilledSlots counts how many of the 21 feature slots are set.
func (f *BorrowerFeatures) FilledSlots() int {
	n := 0
	for _, set := range []bool{
		f.BorrowerName != nil, f.PANNumber != nil, f.AadhaarNumber != nil, f.DOB != nil,
		f.EntityType != nil, f.IndustryType != nil, f.BusinessVintageYears != nil,
		f.Pincode != nil, f.GSTIN != nil, f.GSTRegistrationDate != nil,
		f.AnnualTurnover != nil, f.MonthlyTurnover != nil, f.MonthlyCreditAvg != nil,
		f.AvgMonthlyBalance != nil, f.EMIOutflowMonthly != nil, f.BounceCount12M != nil,
		f.CashDepositRatio != nil, f.NetProfit != nil,
		f.CibilScore != nil, f.ActiveLoanCount != nil, f.EnquiryCount6M != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// RecomputeCompleteness refreshes FeatureCompleteness from the filled slots,
// rounded to two decimals.
func (f *BorrowerFeatures) RecomputeCompleteness() {
	pct := float64(f.FilledSlots()) / float64(TotalFeatureSlots) * 100
	f.FeatureCompleteness = math.Round(pct*100) / 100
}

// AgeYearsAt returns the borrower age in whole years at the given time, or
// -1 when DOB is unset.
func (f *BorrowerFeatures) AgeYearsAt(at time.Time) int {
	if f.DOB == nil {
		return -1
	}
	years := at.Year() - f.DOB.Year()
	if at.YearDay() < f.DOB.YearDay() {
		years--
	}
	return years
}
