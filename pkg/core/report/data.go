// Package report assembles the case intelligence report: strengths and risk
// rules over the feature vector, a submission strategy (LLM with a
// deterministic fallback), a PDF rendering and a WhatsApp-friendly summary.
package report

import (
	"time"

	"loanintel/pkg/core/eligibility"
	"loanintel/pkg/core/ledger"
	"loanintel/pkg/models"
)

// BorrowerProfile is the header block of the report.
type BorrowerProfile struct {
	BorrowerName         string   `json:"borrower_name,omitempty"`
	EntityType           string   `json:"entity_type,omitempty"`
	IndustryType         string   `json:"industry_type,omitempty"`
	Pincode              string   `json:"pincode,omitempty"`
	GSTIN                string   `json:"gstin,omitempty"`
	PANNumber            string   `json:"pan_number,omitempty"`
	BusinessVintageYears *float64 `json:"business_vintage_years,omitempty"`
	AnnualTurnover       *float64 `json:"annual_turnover,omitempty"` // Lakhs
	CibilScore           *int     `json:"cibil_score,omitempty"`
	FeatureCompleteness  float64  `json:"feature_completeness"`
}

// LenderMatch is one scored product in report form.
type LenderMatch struct {
	LenderName  string             `json:"lender_name"`
	ProductName string             `json:"product_name"`
	ProgramType models.ProgramType `json:"program_type"`

	Status      models.FilterStatus         `json:"status"`
	Score       *float64                    `json:"score,omitempty"`
	Probability *models.ApprovalProbability `json:"approval_probability,omitempty"`
	TicketMin   *float64                    `json:"expected_ticket_min,omitempty"`
	TicketMax   *float64                    `json:"expected_ticket_max,omitempty"`
	Rank        *int                        `json:"rank,omitempty"`

	SpecialRequirements []string `json:"special_requirements,omitempty"`
}

// LoanRange is the expected loan band across passing products, in Lakhs.
type LoanRange struct {
	MinLakhs float64 `json:"min_lakhs"`
	MaxLakhs float64 `json:"max_lakhs"`
}

// CaseReportData is the serialized report artifact, stored as JSON alongside
// the rendered PDF.
type CaseReportData struct {
	CaseID      string    `json:"case_id"`
	GeneratedAt time.Time `json:"generated_at"`

	BorrowerProfile BorrowerProfile        `json:"borrower_profile"`
	Checklist       []ledger.ChecklistItem `json:"checklist"`

	Strengths []string `json:"strengths,omitempty"`
	RiskFlags []string `json:"risk_flags,omitempty"`

	LenderMatches []LenderMatch `json:"lender_matches"`

	SubmissionStrategy string `json:"submission_strategy"`
	StrategySource     string `json:"strategy_source"` // "llm" or "fallback"

	MissingDataAdvisory []string                      `json:"missing_data_advisory,omitempty"`
	ExpectedLoanRange   *LoanRange                    `json:"expected_loan_range,omitempty"`
	Recommendations     []eligibility.Recommendation  `json:"recommendations,omitempty"`
}

func buildProfile(f *models.BorrowerFeatures) BorrowerProfile {
	p := BorrowerProfile{FeatureCompleteness: f.FeatureCompleteness}
	if f.BorrowerName != nil {
		p.BorrowerName = *f.BorrowerName
	}
	if f.EntityType != nil {
		p.EntityType = *f.EntityType
	}
	if f.IndustryType != nil {
		p.IndustryType = *f.IndustryType
	}
	if f.Pincode != nil {
		p.Pincode = *f.Pincode
	}
	if f.GSTIN != nil {
		p.GSTIN = *f.GSTIN
	}
	if f.PANNumber != nil {
		p.PANNumber = *f.PANNumber
	}
	p.BusinessVintageYears = f.BusinessVintageYears
	p.AnnualTurnover = f.AnnualTurnover
	p.CibilScore = f.CibilScore
	return p
}

// expectedLoanRange spans the ticket bands of passing products.
func expectedLoanRange(matches []LenderMatch) *LoanRange {
	var r *LoanRange
	for _, m := range matches {
		if m.Status != models.FilterPass || m.TicketMax == nil {
			continue
		}
		if r == nil {
			r = &LoanRange{MaxLakhs: *m.TicketMax}
			if m.TicketMin != nil {
				r.MinLakhs = *m.TicketMin
			}
			continue
		}
		if *m.TicketMax > r.MaxLakhs {
			r.MaxLakhs = *m.TicketMax
		}
		if m.TicketMin != nil && *m.TicketMin < r.MinLakhs {
			r.MinLakhs = *m.TicketMin
		}
	}
	return r
}
