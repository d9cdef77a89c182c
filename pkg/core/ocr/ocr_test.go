package ocr

import (
	"strings"
	"testing"

	"loanintel/pkg/models"
)

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		filename string
		kind     models.DocumentKind
		want     bool
	}{
		{"bank_statement_jan.pdf", models.KindBankStatement, true},
		{"GSTR3B_27AAPFU0939F1ZV.pdf", models.KindGSTReturns, true},
		{"gstr3b_march.pdf", models.KindGSTReturns, false}, // no GSTIN in name
		{"shop_photo.jpg", models.KindUnknown, true},
		{"photo_of_shop.png", models.KindUnknown, true},
		{"shop_photo.pdf", models.KindUnknown, false}, // not an image
		{"pan_card.jpg", models.KindPANPersonal, false},
		{"itr_2024.pdf", models.KindITR, false},
	}
	for _, tc := range tests {
		if got := ShouldSkip(tc.filename, tc.kind); got != tc.want {
			t.Errorf("ShouldSkip(%q, %s) = %v, want %v", tc.filename, tc.kind, got, tc.want)
		}
	}
}

func TestFlattenHOCRPlainPassthrough(t *testing.T) {
	text, pages := FlattenHOCR("just plain text output")
	if text != "just plain text output" || pages != 1 {
		t.Errorf("got (%q, %d), want passthrough", text, pages)
	}
}

func TestFlattenHOCR(t *testing.T) {
	raw := `<html><body>
	<div class="ocr_page">
		<span class="ocr_line">
			<span class="ocrx_word">Statement</span>
			<span class="ocrx_word">of</span>
			<span class="ocrx_word">Account</span>
		</span>
		<span class="ocr_line"><span class="ocrx_word">Opening</span><span class="ocrx_word">Balance</span></span>
	</div>
	<div class="ocr_page">
		<span class="ocr_line">Page two line</span>
	</div>
	</body></html>`

	text, pages := FlattenHOCR(raw)
	if pages != 2 {
		t.Errorf("pages = %d, want 2", pages)
	}
	if !strings.Contains(text, "Statement of Account") {
		t.Errorf("words not joined: %q", text)
	}
	if !strings.Contains(text, "Page two line") {
		t.Errorf("line without word spans missing: %q", text)
	}
}
