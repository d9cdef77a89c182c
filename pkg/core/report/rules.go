package report

import (
	"fmt"
	"time"

	"loanintel/pkg/core/validate"
	"loanintel/pkg/models"
)

// =============================================================================
// STRENGTHS
// =============================================================================

// DetectStrengths evaluates the strength rules over the feature vector and
// the scored matches.
func DetectStrengths(f *models.BorrowerFeatures, matches []LenderMatch) []string {
	var out []string

	if f.CibilScore != nil && *f.CibilScore >= 700 {
		out = append(out, fmt.Sprintf("Excellent credit score: CIBIL %d", *f.CibilScore))
	}
	if f.AnnualTurnover != nil && *f.AnnualTurnover > 50 {
		out = append(out, fmt.Sprintf("Healthy scale: annual turnover %.1f Lakhs", *f.AnnualTurnover))
	}
	if f.BusinessVintageYears != nil && *f.BusinessVintageYears > 5 {
		out = append(out, fmt.Sprintf("Established business: %.1f years vintage", *f.BusinessVintageYears))
	}
	if f.BounceCount12M != nil && *f.BounceCount12M == 0 {
		out = append(out, "Clean banking: zero bounces in 12 months")
	}
	if f.CashDepositRatio != nil && *f.CashDepositRatio < 0.20 {
		out = append(out, "Formalized revenue: low cash deposit ratio")
	}
	if foir, ok := foirOf(f); ok && foir < 0.40 {
		out = append(out, fmt.Sprintf("Comfortable obligations: FOIR %.0f%%", foir*100))
	}

	high := 0
	for _, m := range matches {
		if m.Probability != nil && *m.Probability == models.ProbabilityHigh {
			high++
		}
	}
	if high >= 3 {
		out = append(out, fmt.Sprintf("%d lender products with high approval probability", high))
	}
	return out
}

// =============================================================================
// RISKS
// =============================================================================

// DetectRisks evaluates the risk rules, including cross-document consistency
// failures from the linkage checks.
func DetectRisks(f *models.BorrowerFeatures, missingDocs []models.DocumentKind,
	passedCount int, now time.Time) []string {

	var out []string

	if f.CibilScore != nil && *f.CibilScore < 650 {
		out = append(out, fmt.Sprintf("Low credit score: CIBIL %d below 650", *f.CibilScore))
	}
	if f.BusinessVintageYears != nil && *f.BusinessVintageYears < 2 {
		out = append(out, fmt.Sprintf("Young business: %.1f years vintage", *f.BusinessVintageYears))
	}
	if f.BounceCount12M != nil && *f.BounceCount12M > 3 {
		out = append(out, fmt.Sprintf("Banking stress: %d bounces in 12 months", *f.BounceCount12M))
	}
	if f.CashDepositRatio != nil && *f.CashDepositRatio > 0.40 {
		out = append(out, fmt.Sprintf("Heavy cash dependence: %.0f%% of deposits in cash", *f.CashDepositRatio*100))
	}
	if foir, ok := foirOf(f); ok && foir > 0.55 {
		out = append(out, fmt.Sprintf("Obligation overhang: FOIR %.0f%%", foir*100))
	}
	if len(missingDocs) > 0 {
		out = append(out, fmt.Sprintf("Incomplete documentation: %d required documents missing", len(missingDocs)))
	}

	linkage := validate.ValidateLinkages(f, now)
	if !linkage.AllPassed {
		for _, check := range linkage.FailedChecks {
			out = append(out, "Consistency: "+check)
		}
	}

	if passedCount == 0 {
		out = append(out, "No lender products passed hard filters")
		out = append(out, improvableDimensions(f)...)
	}
	return out
}

// improvableDimensions names the profile dimensions most likely responsible
// when every product fails.
func improvableDimensions(f *models.BorrowerFeatures) []string {
	var out []string
	if f.CibilScore == nil || *f.CibilScore < 700 {
		out = append(out, "Improve: credit score")
	}
	if f.BusinessVintageYears == nil || *f.BusinessVintageYears < 3 {
		out = append(out, "Improve: business vintage")
	}
	if f.AnnualTurnover == nil || *f.AnnualTurnover < 30 {
		out = append(out, "Improve: reported turnover")
	}
	if f.GSTIN == nil {
		out = append(out, "Improve: GST registration")
	}
	return out
}

func foirOf(f *models.BorrowerFeatures) (float64, bool) {
	if f.EMIOutflowMonthly == nil || f.MonthlyCreditAvg == nil || *f.MonthlyCreditAvg <= 0 {
		return 0, false
	}
	return *f.EMIOutflowMonthly / *f.MonthlyCreditAvg, true
}
