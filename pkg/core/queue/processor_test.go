package queue

import (
	"context"
	"testing"

	"loanintel/pkg/core/gst"
	"loanintel/pkg/models"
)

type fakeGSTStore struct {
	gstin      string
	cacheCalls int
	applyCalls int
}

func (f *fakeGSTStore) HasGSTIN(_ context.Context, _ int64, gstin string) (bool, error) {
	return f.gstin != "" && f.gstin == gstin, nil
}

func (f *fakeGSTStore) CacheGSTDetails(_ context.Context, _ int64, gstin string, _ []byte) (bool, error) {
	f.cacheCalls++
	if f.gstin != "" {
		return false, nil
	}
	f.gstin = gstin
	return true, nil
}

func (f *fakeGSTStore) ApplyGSTProfile(_ context.Context, _ int64, _, _, _, _ *string, _ *float64) error {
	f.applyCalls++
	return nil
}

type fakeGSTLookup struct {
	calls int
}

func (f *fakeGSTLookup) FetchCompanyDetails(_ context.Context, _ string) (*gst.CompanyDetails, error) {
	f.calls++
	return &gst.CompanyDetails{BorrowerName: "Umang Traders", EntityType: "partnership"}, nil
}

func TestAutofillFetchesAuthorityOncePerCase(t *testing.T) {
	cases := &fakeGSTStore{}
	lookup := &fakeGSTLookup{}
	p := &Processor{cases: cases, gst: lookup}

	doc1 := &models.Document{ID: 1, CaseID: 7, Filename: "gst_certificate_27AAPFU0939F1ZV.pdf"}
	doc2 := &models.Document{ID: 2, CaseID: 7, Filename: "gstr3b_27AAPFU0939F1ZV.pdf"}

	p.autofillFromGST(context.Background(), 7, doc1, "")
	if lookup.calls != 1 {
		t.Fatalf("first document: authority calls = %d, want 1", lookup.calls)
	}
	if cases.cacheCalls != 1 || cases.applyCalls != 1 {
		t.Fatalf("first document: cache=%d apply=%d, want 1/1", cases.cacheCalls, cases.applyCalls)
	}

	// A second document with the same GSTIN must not hit the authority or
	// re-apply the profile.
	p.autofillFromGST(context.Background(), 7, doc2, "")
	if lookup.calls != 1 {
		t.Errorf("second document: authority calls = %d, want 1", lookup.calls)
	}
	if cases.cacheCalls != 1 {
		t.Errorf("second document: cache calls = %d, want 1", cases.cacheCalls)
	}
	if cases.applyCalls != 1 {
		t.Errorf("second document: apply calls = %d, want 1", cases.applyCalls)
	}
}

func TestAutofillLosingRaceNeverApplies(t *testing.T) {
	// Another worker cached a different GSTIN between the check and the update.
	cases := &fakeGSTStore{}
	lookup := &fakeGSTLookup{}
	p := &Processor{cases: cases, gst: lookup}

	cases.gstin = "29AAPFU0939F1ZV"
	doc := &models.Document{ID: 3, CaseID: 8, Filename: "gst_certificate_27AAPFU0939F1ZV.pdf"}
	p.autofillFromGST(context.Background(), 8, doc, "")

	if cases.applyCalls != 0 {
		t.Errorf("losing cache race: apply calls = %d, want 0", cases.applyCalls)
	}
	if cases.gstin != "29AAPFU0939F1ZV" {
		t.Errorf("losing cache race overwrote gstin: %s", cases.gstin)
	}
}

func TestAutofillNoGSTINNoCalls(t *testing.T) {
	cases := &fakeGSTStore{}
	lookup := &fakeGSTLookup{}
	p := &Processor{cases: cases, gst: lookup}

	doc := &models.Document{ID: 4, CaseID: 9, Filename: "pan_card.pdf"}
	p.autofillFromGST(context.Background(), 9, doc, "no identifiers here")

	if lookup.calls != 0 || cases.cacheCalls != 0 {
		t.Errorf("no GSTIN: fetch=%d cache=%d, want 0/0", lookup.calls, cases.cacheCalls)
	}
}
