package models

import (
	"encoding/json"
	"time"
)

// =============================================================================
// LENDER KNOWLEDGE BASE
// =============================================================================

// Lender is a lending institution in the knowledge base.
type Lender struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// LenderProduct holds the full policy row for one lender x product program.
// A nil threshold means the policy does not constrain that dimension.
type LenderProduct struct {
	ID       int64  `json:"id"`
	LenderID int64  `json:"lender_id"`
	Name     string `json:"name"`

	ProgramType     ProgramType `json:"program_type"`
	PolicyAvailable bool        `json:"policy_available"`

	MinVintageYears   *float64 `json:"min_vintage_years,omitempty"`
	MinCibilScore     *int     `json:"min_cibil_score,omitempty"`
	MinTurnoverAnnual *float64 `json:"min_turnover_annual,omitempty"` // in Lakhs
	MaxTicketSize     *float64 `json:"max_ticket_size,omitempty"`     // in Lakhs
	MinABB            *float64 `json:"min_abb,omitempty"`

	EligibleEntityTypes []string `json:"eligible_entity_types,omitempty"`
	AgeMin              *int     `json:"age_min,omitempty"`
	AgeMax              *int     `json:"age_max,omitempty"`

	// Derogatory-history rules (free-text thresholds from the policy sheet)
	DPD30Rule     *string `json:"dpd_30_rule,omitempty"`
	DPD60Rule     *string `json:"dpd_60_rule,omitempty"`
	DPD90Rule     *string `json:"dpd_90_rule,omitempty"`
	EnquiryRule   *string `json:"enquiry_rule,omitempty"`
	BankingMonths *int    `json:"banking_months,omitempty"`

	// Verification requirements
	GSTRequired        bool `json:"gst_required"`
	VideoKYCRequired   bool `json:"video_kyc_required"`
	FieldInvestigation bool `json:"field_investigation"`
	TelephonicRequired bool `json:"telephonic_required"`

	TenorMinMonths *int `json:"tenor_min_months,omitempty"`
	TenorMaxMonths *int `json:"tenor_max_months,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LenderPincode is a (lender, pincode) coverage pair, unique per lender.
type LenderPincode struct {
	ID       int64  `json:"id"`
	LenderID int64  `json:"lender_id"`
	Pincode  string `json:"pincode"`
}

// =============================================================================
// ELIGIBILITY RESULT
// =============================================================================

// FilterStatus is the hard-filter outcome for one product.
type FilterStatus string

const (
	FilterPass FilterStatus = "pass"
	FilterFail FilterStatus = "fail"
)

// ApprovalProbability bands the weighted score: >=75 high, >=50 medium, else low.
type ApprovalProbability string

const (
	ProbabilityHigh   ApprovalProbability = "high"
	ProbabilityMedium ApprovalProbability = "medium"
	ProbabilityLow    ApprovalProbability = "low"
)

// ProbabilityForScore maps a weighted 0-100 score to its band.
func ProbabilityForScore(score float64) ApprovalProbability {
	switch {
	case score >= 75:
		return ProbabilityHigh
	case score >= 50:
		return ProbabilityMedium
	default:
		return ProbabilityLow
	}
}

// EligibilityResult is one scored (case, lender_product) pair. Failing rows
// keep Score and Rank nil; the rejection narrative is recomputed on load
// rather than cached here.
type EligibilityResult struct {
	ID              int64        `json:"id"`
	CaseID          int64        `json:"case_id"`
	LenderProductID int64        `json:"lender_product_id"`
	Status          FilterStatus `json:"status"`

	Score               *float64             `json:"eligibility_score,omitempty"`
	Probability         *ApprovalProbability `json:"approval_probability,omitempty"`
	ExpectedTicketMin   *float64             `json:"expected_ticket_min,omitempty"`
	ExpectedTicketMax   *float64             `json:"expected_ticket_max,omitempty"`
	Confidence          float64              `json:"confidence"`
	Rank                *int                 `json:"rank,omitempty"`
	Improvements        []string             `json:"suggested_improvements,omitempty"`
	DetailsJSON         json.RawMessage      `json:"details,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// CASE REPORT
// =============================================================================

// CaseReport is one generated report version: the serialized CaseReportData
// plus the storage key of the rendered PDF.
type CaseReport struct {
	ID         int64           `json:"id"`
	CaseID     int64           `json:"case_id"`
	Version    int             `json:"version"`
	DataJSON   json.RawMessage `json:"data"`
	PDFKey     string          `json:"pdf_key"`
	CreatedAt  time.Time       `json:"created_at"`
}
