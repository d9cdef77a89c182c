package ledger

import (
	"testing"

	"loanintel/pkg/models"
)

func doc(kind models.DocumentKind) *models.Document {
	return &models.Document{Kind: kind, Status: models.DocClassified}
}

func TestCompletenessFullCoverage(t *testing.T) {
	c := &models.Case{ProgramType: models.ProgramBanking}
	docs := []*models.Document{
		doc(models.KindBankStatement),
		doc(models.KindPANPersonal),
		doc(models.KindAadhaar),
		doc(models.KindGSTCertificate),
		doc(models.KindCIBILReport),
	}
	score := CompletenessScore(BuildChecklist(c, docs))
	if score != 100 {
		t.Errorf("score = %v, want 100", score)
	}
}

func TestCompletenessPartial(t *testing.T) {
	c := &models.Case{ProgramType: models.ProgramBanking}
	docs := []*models.Document{
		doc(models.KindBankStatement),
		doc(models.KindPANPersonal),
	}
	// 2 of 5 covered
	score := CompletenessScore(BuildChecklist(c, docs))
	if score != 40 {
		t.Errorf("score = %v, want 40", score)
	}
}

func TestManualOverridesCoverSlots(t *testing.T) {
	cibil := 720
	turnover := 500000.0
	vintage := 4.0
	c := &models.Case{
		ProgramType:           models.ProgramBanking,
		ManualCibilScore:      &cibil,
		ManualMonthlyTurnover: &turnover,
		ManualVintageYears:    &vintage,
	}
	items := BuildChecklist(c, nil)

	covered := map[models.DocumentKind]bool{}
	for _, item := range items {
		if item.Present {
			if !item.ViaOverride {
				t.Errorf("%s marked present without a document or override", item.Kind)
			}
			covered[item.Kind] = true
		}
	}
	for _, kind := range []models.DocumentKind{
		models.KindCIBILReport, models.KindBankStatement, models.KindGSTCertificate,
	} {
		if !covered[kind] {
			t.Errorf("override did not cover %s", kind)
		}
	}
	// 3 of 5 via overrides
	if score := CompletenessScore(items); score != 60 {
		t.Errorf("score = %v, want 60", score)
	}
}

func TestBusinessPANSatisfiesPANSlot(t *testing.T) {
	c := &models.Case{ProgramType: models.ProgramBanking}
	items := BuildChecklist(c, []*models.Document{doc(models.KindPANBusiness)})
	for _, item := range items {
		if item.Kind == models.KindPANPersonal && !item.Present {
			t.Error("business PAN should satisfy the PAN slot")
		}
	}
}

func TestFailedDocumentsDoNotCount(t *testing.T) {
	c := &models.Case{ProgramType: models.ProgramBanking}
	failed := doc(models.KindBankStatement)
	failed.Status = models.DocFailed
	items := BuildChecklist(c, []*models.Document{failed})
	for _, item := range items {
		if item.Kind == models.KindBankStatement && item.Present {
			t.Error("failed document counted as coverage")
		}
	}
}

func TestCompletenessMovesWithClassification(t *testing.T) {
	// An uploaded document starts unclassified; once the worker classifies it
	// into a required slot the recomputed score must rise.
	c := &models.Case{ProgramType: models.ProgramBanking}
	d := &models.Document{Kind: models.KindUnknown, Status: models.DocUploaded}

	before := CompletenessScore(BuildChecklist(c, []*models.Document{d}))
	if before != 0 {
		t.Fatalf("unclassified score = %v, want 0", before)
	}

	d.Kind = models.KindBankStatement
	d.Status = models.DocClassified
	after := CompletenessScore(BuildChecklist(c, []*models.Document{d}))
	if after != 20 {
		t.Errorf("classified score = %v, want 20", after)
	}
}

func TestHybridRequiresUnion(t *testing.T) {
	got := len(RequiredDocuments(models.ProgramHybrid))
	banking := len(RequiredDocuments(models.ProgramBanking))
	income := len(RequiredDocuments(models.ProgramIncome))
	if got <= banking || got <= income {
		t.Errorf("hybrid set (%d) must be larger than banking (%d) and income (%d)",
			got, banking, income)
	}
}

func TestMissingDocuments(t *testing.T) {
	c := &models.Case{ProgramType: models.ProgramIncome}
	items := BuildChecklist(c, []*models.Document{doc(models.KindITR)})
	missing := MissingDocuments(items)
	if len(missing) != len(items)-1 {
		t.Errorf("missing = %d, want %d", len(missing), len(items)-1)
	}
}
