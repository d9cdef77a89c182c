// Package validate provides identifier validation utilities.
// This file implements cross-document linkage checks: identifiers and
// figures extracted from different documents must agree with each other.
package validate

import (
	"fmt"
	"math"
	"time"

	"loanintel/pkg/models"
)

// =============================================================================
// CROSS-DOCUMENT LINKAGE VALIDATION
// =============================================================================

// LinkageReport contains all cross-document validation results for a case.
type LinkageReport struct {
	PANToGSTIN       *PANLinkage      `json:"pan_to_gstin,omitempty"`
	TurnoverToBank   *TurnoverLinkage `json:"turnover_to_bank,omitempty"`
	VintageToGSTDate *VintageLinkage  `json:"vintage_to_gst_date,omitempty"`
	AllPassed        bool             `json:"all_passed"`
	FailedChecks     []string         `json:"failed_checks,omitempty"`
}

// PANLinkage validates: PAN card number == PAN embedded in the GSTIN.
type PANLinkage struct {
	CardPAN     string `json:"card_pan"`
	EmbeddedPAN string `json:"embedded_pan"`
	IsLinked    bool   `json:"is_linked"`
}

// TurnoverLinkage validates: declared annual turnover vs the bank-derived
// figure (monthly credit average x 12, in Lakhs).
type TurnoverLinkage struct {
	DeclaredAnnual float64 `json:"declared_annual"`
	BankAnnual     float64 `json:"bank_annual"`
	DeviationPct   float64 `json:"deviation_pct"`
	IsLinked       bool    `json:"is_linked"`
	TolerancePct   float64 `json:"tolerance_pct"`
}

// VintageLinkage validates: stated business vintage vs the age of the GST
// registration. GST registration can postdate incorporation, so only a
// vintage shorter than the registration age fails.
type VintageLinkage struct {
	StatedYears  float64 `json:"stated_years"`
	GSTAgeYears  float64 `json:"gst_age_years"`
	IsLinked     bool    `json:"is_linked"`
	ToleranceYrs float64 `json:"tolerance_years"`
}

// ValidateLinkages runs every applicable cross-document check over the
// assembled feature vector. Checks with missing inputs are skipped, not
// failed.
func ValidateLinkages(f *models.BorrowerFeatures, now time.Time) *LinkageReport {
	report := &LinkageReport{AllPassed: true}

	if f.PANNumber != nil && f.GSTIN != nil {
		report.PANToGSTIN = validatePANLinkage(*f.PANNumber, *f.GSTIN)
		if !report.PANToGSTIN.IsLinked {
			report.AllPassed = false
			report.FailedChecks = append(report.FailedChecks,
				fmt.Sprintf("PAN %s does not match GSTIN-embedded PAN %s",
					report.PANToGSTIN.CardPAN, report.PANToGSTIN.EmbeddedPAN))
		}
	}

	if f.AnnualTurnover != nil && f.MonthlyCreditAvg != nil {
		report.TurnoverToBank = validateTurnoverLinkage(*f.AnnualTurnover, *f.MonthlyCreditAvg)
		if !report.TurnoverToBank.IsLinked {
			report.AllPassed = false
			report.FailedChecks = append(report.FailedChecks,
				fmt.Sprintf("declared turnover deviates %.0f%% from banking evidence",
					report.TurnoverToBank.DeviationPct))
		}
	}

	if f.BusinessVintageYears != nil && f.GSTRegistrationDate != nil {
		report.VintageToGSTDate = validateVintageLinkage(*f.BusinessVintageYears, *f.GSTRegistrationDate, now)
		if !report.VintageToGSTDate.IsLinked {
			report.AllPassed = false
			report.FailedChecks = append(report.FailedChecks,
				"stated vintage is shorter than the GST registration age")
		}
	}

	return report
}

func validatePANLinkage(cardPAN, gstin string) *PANLinkage {
	embedded := PANFromGSTIN(gstin)
	return &PANLinkage{
		CardPAN:     cardPAN,
		EmbeddedPAN: embedded,
		IsLinked:    embedded != "" && cardPAN == embedded,
	}
}

func validateTurnoverLinkage(declaredAnnualLakhs, monthlyCreditAvg float64) *TurnoverLinkage {
	const tolerancePct = 50.0
	bankAnnual := monthlyCreditAvg * 12 / 100000

	link := &TurnoverLinkage{
		DeclaredAnnual: declaredAnnualLakhs,
		BankAnnual:     bankAnnual,
		TolerancePct:   tolerancePct,
	}
	if bankAnnual == 0 {
		link.IsLinked = declaredAnnualLakhs == 0
		return link
	}
	link.DeviationPct = math.Abs(declaredAnnualLakhs-bankAnnual) / bankAnnual * 100
	link.IsLinked = link.DeviationPct <= tolerancePct
	return link
}

func validateVintageLinkage(statedYears float64, gstDate, now time.Time) *VintageLinkage {
	const toleranceYears = 0.5
	gstAge := now.Sub(gstDate).Hours() / 24 / 365.25

	return &VintageLinkage{
		StatedYears:  statedYears,
		GSTAgeYears:  math.Round(gstAge*10) / 10,
		ToleranceYrs: toleranceYears,
		IsLinked:     statedYears+toleranceYears >= gstAge,
	}
}
