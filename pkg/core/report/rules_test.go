package report

import (
	"strings"
	"testing"
	"time"

	"loanintel/pkg/models"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
func sp(v string) *string   { return &v }

func prob(p models.ApprovalProbability) *models.ApprovalProbability { return &p }

func healthyFeatures() *models.BorrowerFeatures {
	return &models.BorrowerFeatures{
		CibilScore:           ip(742),
		AnnualTurnover:       fp(80),
		BusinessVintageYears: fp(6),
		BounceCount12M:       ip(0),
		CashDepositRatio:     fp(0.1),
		EMIOutflowMonthly:    fp(100000),
		MonthlyCreditAvg:     fp(500000), // FOIR 20%
	}
}

func TestDetectStrengthsAllRulesFire(t *testing.T) {
	matches := []LenderMatch{
		{Status: models.FilterPass, Probability: prob(models.ProbabilityHigh)},
		{Status: models.FilterPass, Probability: prob(models.ProbabilityHigh)},
		{Status: models.FilterPass, Probability: prob(models.ProbabilityHigh)},
	}
	got := DetectStrengths(healthyFeatures(), matches)
	if len(got) != 7 {
		t.Errorf("strengths = %d entries %v, want all 7 rules", len(got), got)
	}
}

func TestDetectStrengthsBoundaries(t *testing.T) {
	f := &models.BorrowerFeatures{
		CibilScore:           ip(699), // below 700
		AnnualTurnover:       fp(50),  // not strictly above 50
		BusinessVintageYears: fp(5),   // not strictly above 5
		BounceCount12M:       ip(1),
	}
	if got := DetectStrengths(f, nil); len(got) != 0 {
		t.Errorf("boundary values must not fire strengths, got %v", got)
	}
}

func TestDetectRisksFire(t *testing.T) {
	f := &models.BorrowerFeatures{
		CibilScore:           ip(600),
		BusinessVintageYears: fp(1),
		BounceCount12M:       ip(5),
		CashDepositRatio:     fp(0.6),
		EMIOutflowMonthly:    fp(300000),
		MonthlyCreditAvg:     fp(500000), // FOIR 60%
	}
	got := DetectRisks(f, []models.DocumentKind{models.KindCIBILReport}, 2, time.Now())
	if len(got) != 6 {
		t.Errorf("risks = %d entries %v, want 6", len(got), got)
	}
}

func TestStrengthAndRiskPhrasing(t *testing.T) {
	strengths := strings.Join(DetectStrengths(healthyFeatures(), nil), "\n")
	if !strings.Contains(strengths, "Excellent credit score") {
		t.Errorf("CIBIL 742 must read as excellent credit score, got %q", strengths)
	}

	weak := &models.BorrowerFeatures{CibilScore: ip(620)}
	risks := strings.Join(DetectRisks(weak, []models.DocumentKind{
		models.KindBankStatement, models.KindGSTCertificate,
	}, 1, time.Now()), "\n")
	if !strings.Contains(risks, "Low credit score") {
		t.Errorf("CIBIL 620 must read as low credit score, got %q", risks)
	}
	if !strings.Contains(risks, "Incomplete documentation") {
		t.Errorf("missing docs must read as incomplete documentation, got %q", risks)
	}
}

func TestDetectRisksZeroPassSuggestsImprovements(t *testing.T) {
	f := &models.BorrowerFeatures{CibilScore: ip(620)}
	got := DetectRisks(f, nil, 0, time.Now())

	joined := strings.Join(got, "\n")
	if !strings.Contains(joined, "No lender products passed") {
		t.Errorf("missing zero-pass flag in %v", got)
	}
	if !strings.Contains(joined, "Improve:") {
		t.Errorf("zero-pass must suggest improvable dimensions, got %v", got)
	}
}

func TestDetectRisksLinkageFailure(t *testing.T) {
	// Claimed turnover wildly above banking evidence trips the consistency check.
	f := &models.BorrowerFeatures{
		AnnualTurnover:   fp(500), // Lakhs
		MonthlyCreditAvg: fp(100000),
	}
	got := DetectRisks(f, nil, 1, time.Now())
	found := false
	for _, r := range got {
		if strings.HasPrefix(r, "Consistency:") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a consistency risk, got %v", got)
	}
}

func TestDetectRisksQuietOnHealthyProfile(t *testing.T) {
	if got := DetectRisks(healthyFeatures(), nil, 3, time.Now()); len(got) != 0 {
		t.Errorf("healthy profile produced risks %v", got)
	}
}

func TestExpectedLoanRangeSpansPassingProducts(t *testing.T) {
	matches := []LenderMatch{
		{Status: models.FilterPass, TicketMin: fp(3), TicketMax: fp(20)},
		{Status: models.FilterPass, TicketMin: fp(1.5), TicketMax: fp(10)},
		{Status: models.FilterFail, TicketMax: fp(99)},
	}
	r := expectedLoanRange(matches)
	if r == nil || r.MinLakhs != 1.5 || r.MaxLakhs != 20 {
		t.Errorf("range = %+v, want 1.5-20", r)
	}

	if expectedLoanRange([]LenderMatch{{Status: models.FilterFail}}) != nil {
		t.Error("no passing products must yield nil range")
	}
}
