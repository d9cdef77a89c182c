package eligibility

import (
	"testing"
	"time"

	"loanintel/pkg/models"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
func sp(v string) *string   { return &v }

func strongFeatures() *models.BorrowerFeatures {
	dob := time.Date(1985, 5, 12, 0, 0, 0, 0, time.UTC)
	return &models.BorrowerFeatures{
		BorrowerName:         sp("UMA ENTERPRISES"),
		PANNumber:            sp("ABCPE1234F"),
		AadhaarNumber:        sp("912345678901"),
		DOB:                  &dob,
		EntityType:           sp("proprietorship"),
		BusinessVintageYears: fp(6),
		Pincode:              sp("400001"),
		GSTIN:                sp("27ABCPE1234F1Z5"),
		AnnualTurnover:       fp(90), // Lakhs
		MonthlyCreditAvg:     fp(750000),
		AvgMonthlyBalance:    fp(250000),
		EMIOutflowMonthly:    fp(100000),
		BounceCount12M:       ip(0),
		CashDepositRatio:     fp(0.05),
		CibilScore:           ip(760),
	}
}

func baseProduct() *models.LenderProduct {
	return &models.LenderProduct{
		ID:                1,
		LenderID:          1,
		Name:              "Business Loan",
		ProgramType:       models.ProgramBanking,
		PolicyAvailable:   true,
		MinCibilScore:     ip(700),
		MinVintageYears:   fp(3),
		MinTurnoverAnnual: fp(30),
		MaxTicketSize:     fp(50),
		MinABB:            fp(100000),
		AgeMin:            ip(22),
		AgeMax:            ip(65),
	}
}

func evalAt(f *models.BorrowerFeatures, p *models.LenderProduct) *Verdict {
	return Evaluate(Input{
		Features: f,
		Product:  p,
		Now:      time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
	})
}

func TestStrongProfilePasses(t *testing.T) {
	v := evalAt(strongFeatures(), baseProduct())
	if v.Status != models.FilterPass {
		t.Fatalf("status = %s, reasons %v", v.Status, v.Details.FailureReasons)
	}
	if v.Score < 75 {
		t.Errorf("score = %.2f, expected high band for a strong profile", v.Score)
	}
	if v.Probability != models.ProbabilityHigh {
		t.Errorf("probability = %s", v.Probability)
	}
}

func TestHardFiltersAccumulate(t *testing.T) {
	f := strongFeatures()
	f.CibilScore = ip(620)
	f.BusinessVintageYears = fp(1)
	f.AnnualTurnover = fp(10)

	reasons := HardFilters(Input{Features: f, Product: baseProduct(), Now: time.Now()})
	if len(reasons) != 3 {
		t.Fatalf("got %d reasons %v, want cibil+vintage+turnover", len(reasons), reasons)
	}
	keys := map[string]bool{}
	for _, r := range reasons {
		keys[r.Key] = true
	}
	for _, k := range []string{"cibil", "vintage", "turnover"} {
		if !keys[k] {
			t.Errorf("missing failure key %s", k)
		}
	}
}

func TestMissingDataNeverFailsHardFilters(t *testing.T) {
	// Unknown values pass through; filters only fire on known violations.
	f := &models.BorrowerFeatures{}
	reasons := HardFilters(Input{Features: f, Product: baseProduct(), Now: time.Now()})
	if len(reasons) != 0 {
		t.Errorf("empty vector produced failures: %v", reasons)
	}
}

func TestPincodeFilter(t *testing.T) {
	f := strongFeatures()
	in := Input{
		Features:   f,
		Product:    baseProduct(),
		PincodeSet: map[string]bool{"110001": true},
		Now:        time.Now(),
	}
	reasons := HardFilters(in)
	if len(reasons) != 1 || reasons[0].Key != "pincode" {
		t.Errorf("reasons = %v, want single pincode failure", reasons)
	}

	// nil set means the lender publishes no pincode table: no filter.
	in.PincodeSet = nil
	if reasons := HardFilters(in); len(reasons) != 0 {
		t.Errorf("nil pincode set must not filter, got %v", reasons)
	}
}

func TestEntityEquivalence(t *testing.T) {
	f := strongFeatures()
	f.EntityType = sp("huf")
	p := baseProduct()
	p.EligibleEntityTypes = []string{"proprietorship"}

	if reasons := HardFilters(Input{Features: f, Product: p, Now: time.Now()}); len(reasons) != 0 {
		t.Errorf("huf should satisfy proprietorship policy, got %v", reasons)
	}

	f.EntityType = sp("trust")
	reasons := HardFilters(Input{Features: f, Product: p, Now: time.Now()})
	if len(reasons) != 1 || reasons[0].Key != "entity_type" {
		t.Errorf("trust vs proprietorship-only = %v", reasons)
	}
}

func TestAgeBounds(t *testing.T) {
	f := strongFeatures()
	dob := time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC) // 18 in 2026
	f.DOB = &dob

	reasons := HardFilters(Input{Features: f, Product: baseProduct(),
		Now: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)})
	if len(reasons) != 1 || reasons[0].Key != "age" {
		t.Errorf("underage applicant = %v", reasons)
	}
}

func TestCibilBandBoundaries(t *testing.T) {
	tests := map[int]float64{
		750: 100, 749: 90,
		725: 90, 724: 75,
		700: 75, 699: 60,
		675: 60, 674: 40,
		650: 40, 649: 20,
	}
	for score, want := range tests {
		if got := cibilBand(score); got != want {
			t.Errorf("cibilBand(%d) = %v, want %v", score, got, want)
		}
	}
}

func TestFoirBandBoundaries(t *testing.T) {
	tests := map[float64]float64{
		0.29: 100, 0.30: 75,
		0.44: 75, 0.45: 50,
		0.54: 50, 0.55: 30,
		0.64: 30, 0.65: 0,
	}
	for ratio, want := range tests {
		if got := foirBand(ratio); got != want {
			t.Errorf("foirBand(%v) = %v, want %v", ratio, got, want)
		}
	}
}

func TestWeightRenormalization(t *testing.T) {
	// Only CIBIL and documentation present: weights 0.25 and 0.10 renormalize
	// to 5/7 and 2/7.
	f := &models.BorrowerFeatures{CibilScore: ip(760)}
	score, components := WeightedScore(Input{Features: f, Product: baseProduct()})

	if len(components) != 2 {
		t.Fatalf("components = %v", components)
	}
	// cibil 100 * 0.25 + docs 0 * 0.10 over 0.35 = 71.43
	if score != 71.43 {
		t.Errorf("score = %v, want 71.43", score)
	}
}

func TestBankingStrengthAveraging(t *testing.T) {
	f := &models.BorrowerFeatures{
		AvgMonthlyBalance: fp(200000),
		BounceCount12M:    ip(0),
		CashDepositRatio:  fp(0.15),
	}
	p := baseProduct() // MinABB 100000 -> ratio 2.0 -> 100
	got, ok := bankingStrength(f, p)
	if !ok {
		t.Fatal("banking strength should be computable")
	}
	// (100 + 100 + 80) / 3
	if got < 93.3 || got > 93.4 {
		t.Errorf("banking strength = %v, want ~93.33", got)
	}

	if _, ok := bankingStrength(&models.BorrowerFeatures{}, p); ok {
		t.Error("no banking data must drop the component")
	}
}

func TestTicketRangeCappedByProduct(t *testing.T) {
	f := strongFeatures() // 90L turnover
	p := baseProduct()    // 50L max ticket

	lo, hi := ticketRange(f, p, models.ProbabilityHigh)
	// 90 * 0.25 = 22.5, below the 50L cap
	if hi == nil || *hi != 22.5 {
		t.Fatalf("hi = %v, want 22.5", hi)
	}
	if lo == nil || *lo != 22.5*0.15 {
		t.Errorf("lo = %v, want 15%% of upper", lo)
	}

	f.AnnualTurnover = fp(400)
	_, hi = ticketRange(f, p, models.ProbabilityHigh)
	// 400 * 0.25 = 100 caps at 50
	if hi == nil || *hi != 50 {
		t.Errorf("hi = %v, want capped at 50", hi)
	}
}

func TestTicketMultiplierByBand(t *testing.T) {
	f := strongFeatures()
	p := baseProduct()
	_, high := ticketRange(f, p, models.ProbabilityHigh)
	_, med := ticketRange(f, p, models.ProbabilityMedium)
	_, low := ticketRange(f, p, models.ProbabilityLow)
	if *high != 22.5 || *med != 13.5 || *low != 9 {
		t.Errorf("tickets = %v/%v/%v, want 22.5/13.5/9", *high, *med, *low)
	}
}

func TestFailedVerdictHasNoScore(t *testing.T) {
	f := strongFeatures()
	f.CibilScore = ip(600)
	v := evalAt(f, baseProduct())
	if v.Status != models.FilterFail {
		t.Fatalf("status = %s", v.Status)
	}
	if v.Score != 0 || v.Probability != "" || v.TicketMax != nil {
		t.Error("failing verdict must not carry score, probability or ticket")
	}
	if len(v.Details.FailureReasons) == 0 {
		t.Error("failing verdict must carry failure reasons")
	}
}

func TestImprovementSuggestions(t *testing.T) {
	f := strongFeatures()
	f.CibilScore = ip(690)
	f.BounceCount12M = ip(4)
	f.GSTIN = nil
	f.CashDepositRatio = fp(0.55)
	f.BusinessVintageYears = fp(2)

	got := improvements(f)
	if len(got) != 5 {
		t.Errorf("improvements = %d entries %v, want all five triggers", len(got), got)
	}
}

func TestRankPassing(t *testing.T) {
	verdicts := []*Verdict{
		{Status: models.FilterPass, Score: 62},
		{Status: models.FilterFail},
		{Status: models.FilterPass, Score: 88},
		{Status: models.FilterPass, Score: 71},
	}
	rankPassing(verdicts)

	if verdicts[2].rank == nil || *verdicts[2].rank != 1 {
		t.Errorf("highest score should rank 1, got %v", verdicts[2].rank)
	}
	if verdicts[3].rank == nil || *verdicts[3].rank != 2 {
		t.Errorf("score 71 should rank 2, got %v", verdicts[3].rank)
	}
	if verdicts[0].rank == nil || *verdicts[0].rank != 3 {
		t.Errorf("score 62 should rank 3, got %v", verdicts[0].rank)
	}
	if verdicts[1].rank != nil {
		t.Error("failed verdict must stay unranked")
	}
}

func TestDocumentationScore(t *testing.T) {
	f := &models.BorrowerFeatures{PANNumber: sp("ABCPE1234F")}
	docs := map[models.DocumentKind]bool{models.KindAadhaar: true}
	if got := documentationScore(f, docs); got != 50 {
		t.Errorf("documentationScore = %v, want 50 for 2 of 4 families", got)
	}
}
