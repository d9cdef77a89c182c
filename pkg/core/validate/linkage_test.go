package validate

import (
	"testing"
	"time"

	"loanintel/pkg/models"
)

func strPtr(s string) *string     { return &s }
func f64Ptr(v float64) *float64   { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func TestPANToGSTINLinkage(t *testing.T) {
	f := &models.BorrowerFeatures{
		PANNumber: strPtr("AAPFU0939F"),
		GSTIN:     strPtr("27AAPFU0939F1ZV"),
	}
	report := ValidateLinkages(f, time.Now())
	if report.PANToGSTIN == nil || !report.PANToGSTIN.IsLinked {
		t.Fatalf("matching PAN/GSTIN failed linkage: %+v", report.PANToGSTIN)
	}
	if !report.AllPassed {
		t.Error("AllPassed = false for a consistent case")
	}

	f.PANNumber = strPtr("ABCPE1234F")
	report = ValidateLinkages(f, time.Now())
	if report.PANToGSTIN.IsLinked || report.AllPassed {
		t.Error("mismatched PAN/GSTIN passed linkage")
	}
	if len(report.FailedChecks) == 0 {
		t.Error("mismatch produced no failed-check entry")
	}
}

func TestTurnoverLinkage(t *testing.T) {
	// monthly credit 5L -> bank annual = 60L in Lakhs units
	f := &models.BorrowerFeatures{
		AnnualTurnover:   f64Ptr(60),
		MonthlyCreditAvg: f64Ptr(500000),
	}
	report := ValidateLinkages(f, time.Now())
	if !report.TurnoverToBank.IsLinked {
		t.Errorf("exact turnover match failed: %+v", report.TurnoverToBank)
	}

	// 200L declared against 60L of banking evidence is outside tolerance
	f.AnnualTurnover = f64Ptr(200)
	report = ValidateLinkages(f, time.Now())
	if report.TurnoverToBank.IsLinked {
		t.Errorf("3.3x overstatement passed linkage: %+v", report.TurnoverToBank)
	}
}

func TestVintageLinkage(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	gstDate := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC) // 5 years old

	// Vintage longer than GST age is fine: registration can postdate founding.
	f := &models.BorrowerFeatures{
		BusinessVintageYears: f64Ptr(8),
		GSTRegistrationDate:  timePtr(gstDate),
	}
	if report := ValidateLinkages(f, now); !report.VintageToGSTDate.IsLinked {
		t.Errorf("older business failed vintage linkage: %+v", report.VintageToGSTDate)
	}

	// Vintage well short of the registration age is inconsistent.
	f.BusinessVintageYears = f64Ptr(2)
	if report := ValidateLinkages(f, now); report.VintageToGSTDate.IsLinked {
		t.Errorf("understated vintage passed linkage: %+v", report.VintageToGSTDate)
	}
}

func TestLinkageSkipsMissingInputs(t *testing.T) {
	report := ValidateLinkages(&models.BorrowerFeatures{}, time.Now())
	if report.PANToGSTIN != nil || report.TurnoverToBank != nil || report.VintageToGSTDate != nil {
		t.Errorf("checks ran without inputs: %+v", report)
	}
	if !report.AllPassed {
		t.Error("empty vector should pass vacuously")
	}
}
