package classifier

import (
	"testing"

	"loanintel/pkg/models"
)

func TestClassifyFilename(t *testing.T) {
	c := New(nil)

	tests := []struct {
		filename string
		want     models.DocumentKind
	}{
		{"bank_statement_hdfc_jan.pdf", models.KindBankStatement},
		{"GSTR-3B_FY2024.pdf", models.KindGSTReturns},
		{"gst_registration.pdf", models.KindGSTCertificate},
		{"aadhar_front.jpg", models.KindAadhaar},
		{"pan_card.jpg", models.KindPANPersonal},
		{"ITR_AY2024.pdf", models.KindITR},
		{"cibil_report.pdf", models.KindCIBILReport},
		{"audited_financials.pdf", models.KindFinancials},
		{"udyam_certificate.pdf", models.KindUdyamLicense},
		{"holiday_photo.jpg", models.KindUnknown},
	}
	for _, tc := range tests {
		got := c.ClassifyFilename(tc.filename)
		if got.Kind != tc.want {
			t.Errorf("ClassifyFilename(%q) = %s, want %s", tc.filename, got.Kind, tc.want)
		}
		if tc.want != models.KindUnknown && got.Confidence != FilenameConfidence {
			t.Errorf("ClassifyFilename(%q) confidence = %v, want %v",
				tc.filename, got.Confidence, FilenameConfidence)
		}
	}
}

func TestClassifyTextShortInput(t *testing.T) {
	c := New(nil)
	for _, text := range []string{"", "   ", "abc"} {
		got := c.ClassifyText(text)
		if got.Kind != models.KindUnknown || got.Confidence != 0 {
			t.Errorf("ClassifyText(%q) = %+v, want unknown/0", text, got)
		}
	}
}

func TestClassifyTextKeywords(t *testing.T) {
	c := New(nil)

	bankText := `Statement of Account
	Opening Balance 45,000.00 Closing Balance 52,310.00
	Date Narration Withdrawal Deposit Balance
	IFSC HDFC0001234`
	got := c.ClassifyText(bankText)
	if got.Kind != models.KindBankStatement {
		t.Fatalf("bank text classified as %s (conf %.2f)", got.Kind, got.Confidence)
	}
	if got.Method != "keyword" {
		t.Errorf("method = %s, want keyword", got.Method)
	}
	if got.Confidence < 0.35 {
		t.Errorf("confidence %.2f below keyword threshold", got.Confidence)
	}
}

func TestClassifyAgreementBlendsConfidence(t *testing.T) {
	c := New(nil)

	text := `Statement of Account for period 01/01/2024 to 31/03/2024
	Opening Balance 10,000 Closing Balance 12,000 Withdrawal Deposit IFSC`
	got := c.Classify("bank_statement.pdf", text)
	if got.Kind != models.KindBankStatement {
		t.Fatalf("kind = %s, want bank_statement", got.Kind)
	}
	if got.Method != "combined" {
		t.Errorf("method = %s, want combined", got.Method)
	}
	if got.Confidence > 0.95 {
		t.Errorf("confidence %.2f exceeds cap", got.Confidence)
	}
	// blended confidence must sit above the filename layer alone can be beaten
	// by a strong keyword agreement
	if got.Confidence <= 0.54 {
		t.Errorf("combined confidence %.2f too low", got.Confidence)
	}
}

func TestClassifyContentBeatsMisleadingFilename(t *testing.T) {
	c := New(nil)

	// Filename says bank statement (0.90); content is clearly a CIBIL report.
	text := `TransUnion CIBIL Report
	Credit Score: 742
	Accounts Summary Enquiries in last 6 months: 2
	Days Past Due: 000`
	got := c.Classify("bank_statement_scan.pdf", text)
	if got.Kind != models.KindCIBILReport {
		// filename only wins with a 0.20 lead; a 4/5 keyword hit denies that
		t.Errorf("kind = %s, want cibil_report", got.Kind)
	}
}

func TestClassifyFilenameWinsWithMargin(t *testing.T) {
	c := New(nil)

	// Weak content signal: exactly at the bank-statement threshold but far
	// below the filename confidence.
	text := `some scanned page mentioning a deposit and a withdrawal entry
	with narration text but nothing else recognizable here at all`
	got := c.Classify("ITR_acknowledgement_2024.pdf", text)
	if got.Kind != models.KindITR {
		t.Errorf("kind = %s, want itr", got.Kind)
	}
}

func TestPANDisambiguation(t *testing.T) {
	c := New(nil)

	text := `Income Tax Department Permanent Account Number
	AAACR5055K
	SHREE GANESH TRADERS PRIVATE LIMITED`
	got := c.Classify("pan_card.pdf", text)
	if got.Kind != models.KindPANBusiness {
		t.Errorf("kind = %s, want pan_business", got.Kind)
	}

	personal := `Income Tax Department Permanent Account Number
	ABCPE1234F
	Rahul Sharma Father's Name: Suresh Sharma Date of Birth: 12/05/1985`
	got = c.Classify("pan_card.pdf", personal)
	if got.Kind != models.KindPANPersonal {
		t.Errorf("kind = %s, want pan_personal", got.Kind)
	}
}

type fixedScorer struct {
	kind string
	prob float64
}

func (s fixedScorer) Score(string) (string, float64) { return s.kind, s.prob }

func TestModelLayerShortCircuitsKeywords(t *testing.T) {
	c := New(fixedScorer{kind: "itr", prob: 0.82})

	got := c.ClassifyText("this text is long enough to pass the length gate easily")
	if got.Kind != models.KindITR || got.Method != "model" {
		t.Errorf("got %+v, want model verdict itr", got)
	}

	// Below the acceptance threshold the model is ignored.
	c = New(fixedScorer{kind: "itr", prob: 0.60})
	got = c.ClassifyText("this text is long enough to pass the length gate easily")
	if got.Method == "model" {
		t.Errorf("low-probability model verdict was accepted: %+v", got)
	}
}
