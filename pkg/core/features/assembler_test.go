package features

import (
	"testing"

	"loanintel/pkg/models"
)

func ev(name, value string, confidence float64) *models.ExtractedField {
	return &models.ExtractedField{Name: name, Value: value, Confidence: confidence}
}

func TestMergeOrderConfidentEvidenceBeatsOverride(t *testing.T) {
	manual := 650
	c := &models.Case{ManualCibilScore: &manual}
	fields := []*models.ExtractedField{ev("cibil_score", "742", 0.85)}

	f := Assemble(c, fields, 0.5)
	if f.CibilScore == nil || *f.CibilScore != 742 {
		t.Errorf("CibilScore = %v, want extracted 742 over manual 650", f.CibilScore)
	}
}

func TestMergeOrderOverrideBeatsWeakEvidence(t *testing.T) {
	manual := 650
	c := &models.Case{ManualCibilScore: &manual}
	fields := []*models.ExtractedField{ev("cibil_score", "299", 0.3)}

	f := Assemble(c, fields, 0.5)
	if f.CibilScore == nil || *f.CibilScore != 650 {
		t.Errorf("CibilScore = %v, want manual 650 over low-confidence 299", f.CibilScore)
	}
}

func TestMergeOrderWeakEvidenceBeatsNothing(t *testing.T) {
	c := &models.Case{}
	fields := []*models.ExtractedField{ev("cibil_score", "710", 0.3)}

	f := Assemble(c, fields, 0.5)
	if f.CibilScore == nil || *f.CibilScore != 710 {
		t.Errorf("CibilScore = %v, want weak-evidence 710 over unset", f.CibilScore)
	}
}

func TestHighestConfidenceWinsPerField(t *testing.T) {
	c := &models.Case{}
	fields := []*models.ExtractedField{
		ev("pan_number", "ABCPE1234F", 0.6),
		ev("pan_number", "XXXPX9999X", 0.85),
	}
	f := Assemble(c, fields, 0.5)
	if f.PANNumber == nil || *f.PANNumber != "XXXPX9999X" {
		t.Errorf("PANNumber = %v, want the 0.85 row", f.PANNumber)
	}
}

func TestDerivations(t *testing.T) {
	c := &models.Case{}
	fields := []*models.ExtractedField{ev("monthly_credit_avg", "500000", 0.8)}

	f := Assemble(c, fields, 0.5)
	if f.MonthlyTurnover == nil || *f.MonthlyTurnover != 500000 {
		t.Fatalf("MonthlyTurnover = %v, want mirrored 500000", f.MonthlyTurnover)
	}
	// 500000 * 12 / 100000 = 60 Lakhs
	if f.AnnualTurnover == nil || *f.AnnualTurnover != 60 {
		t.Errorf("AnnualTurnover = %v, want 60", f.AnnualTurnover)
	}
}

func TestAnnualTurnoverNotOverwritten(t *testing.T) {
	c := &models.Case{}
	fields := []*models.ExtractedField{
		ev("annual_turnover", "80", 0.8),
		ev("monthly_credit_avg", "500000", 0.8),
	}
	f := Assemble(c, fields, 0.5)
	if f.AnnualTurnover == nil || *f.AnnualTurnover != 80 {
		t.Errorf("AnnualTurnover = %v, extracted 80 must win over derivation", f.AnnualTurnover)
	}
}

func TestCoercions(t *testing.T) {
	c := &models.Case{}
	fields := []*models.ExtractedField{
		ev("annual_turnover", "2,40,00,000", 0.8), // commas stripped
		ev("bounce_count_12m", "3.0", 0.8),        // trailing .0 tolerated
		ev("dob", "12-05-1985", 0.8),              // dash date variant
	}
	f := Assemble(c, fields, 0.5)
	if f.AnnualTurnover == nil || *f.AnnualTurnover != 24000000 {
		t.Errorf("AnnualTurnover = %v", f.AnnualTurnover)
	}
	if f.BounceCount12M == nil || *f.BounceCount12M != 3 {
		t.Errorf("BounceCount12M = %v", f.BounceCount12M)
	}
	if f.DOB == nil || f.DOB.Year() != 1985 || f.DOB.Day() != 12 {
		t.Errorf("DOB = %v", f.DOB)
	}
}

func TestEntityTypeNormalization(t *testing.T) {
	tests := map[string]string{
		"Pvt Ltd":                   "pvt_ltd",
		"PRIVATE LIMITED":           "pvt_ltd",
		"Shree Traders Partnership": "partnership",
		"Sole Proprietorship":       "proprietorship",
		"LLP":                       "llp",
		"Some New Thing":            "some_new_thing",
	}
	for raw, want := range tests {
		if got := NormalizeEntityType(raw); got != want {
			t.Errorf("NormalizeEntityType(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestCaseDescriptorsFillBusinessSlots(t *testing.T) {
	name := "UMA ENTERPRISES"
	entity := "Pvt Ltd"
	pin := "400001"
	vintage := 6.5
	c := &models.Case{
		BorrowerName:         &name,
		EntityType:           &entity,
		Pincode:              &pin,
		BusinessVintageYears: &vintage,
	}
	f := Assemble(c, nil, 0.5)
	if f.BorrowerName == nil || *f.BorrowerName != name {
		t.Errorf("BorrowerName = %v", f.BorrowerName)
	}
	if f.EntityType == nil || *f.EntityType != "pvt_ltd" {
		t.Errorf("EntityType = %v", f.EntityType)
	}
	if f.BusinessVintageYears == nil || *f.BusinessVintageYears != 6.5 {
		t.Errorf("BusinessVintageYears = %v", f.BusinessVintageYears)
	}
}

func TestCompletenessRounding(t *testing.T) {
	c := &models.Case{}
	fields := []*models.ExtractedField{ev("pan_number", "ABCPE1234F", 0.8)}
	f := Assemble(c, fields, 0.5)
	// 1/21 * 100 = 4.761904... -> 4.76
	if f.FeatureCompleteness != 4.76 {
		t.Errorf("FeatureCompleteness = %v, want 4.76", f.FeatureCompleteness)
	}
}

func TestIdempotentAssembly(t *testing.T) {
	c := &models.Case{}
	fields := []*models.ExtractedField{
		ev("cibil_score", "742", 0.85),
		ev("monthly_credit_avg", "500000", 0.8),
		ev("pan_number", "ABCPE1234F", 0.85),
	}
	a := Assemble(c, fields, 0.5)
	b := Assemble(c, fields, 0.5)
	if *a.CibilScore != *b.CibilScore || *a.AnnualTurnover != *b.AnnualTurnover ||
		a.FeatureCompleteness != b.FeatureCompleteness {
		t.Error("re-running assembly on unchanged inputs changed the vector")
	}
}
