package lenderkb

import (
	"testing"

	"loanintel/pkg/models"
)

func TestCanonicalLenderName(t *testing.T) {
	tests := map[string]string{
		"TATA PL":       "Tata Capital",
		"tata bl":       "Tata Capital",
		"BAJAJ":         "Bajaj Finserv",
		"Unknown House": "Unknown House",
	}
	for raw, want := range tests {
		if got := CanonicalLenderName(raw); got != want {
			t.Errorf("CanonicalLenderName(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestLenderCode(t *testing.T) {
	if got := LenderCode("Tata Capital"); got != "tata_capital" {
		t.Errorf("LenderCode = %q", got)
	}
	if got := LenderCode("SMFG India Credit"); got != "smfg_india_credit" {
		t.Errorf("LenderCode = %q", got)
	}
}

func TestParseNumericCell(t *testing.T) {
	tests := []struct {
		cell string
		want float64
		nil_ bool
	}{
		{"25L", 25, false},
		{"25 L or 10% of EMI", 25, false},
		{">= 3", 3, false},
		{"> 700", 700, false},
		{"50K", 0.5, false}, // K = 1/100 lakh
		{"1,00,000", 100000, false},
		{"", 0, true},
		{"Policy not available", 0, true},
		{"NA", 0, true},
	}
	for _, tc := range tests {
		got := ParseNumericCell(tc.cell)
		if tc.nil_ {
			if got != nil {
				t.Errorf("ParseNumericCell(%q) = %v, want nil", tc.cell, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Errorf("ParseNumericCell(%q) = %v, want %v", tc.cell, got, tc.want)
		}
	}
}

func TestParseEntityCell(t *testing.T) {
	got := ParseEntityCell("Prop, Pvt Ltd & LLP")
	want := map[string]bool{"proprietorship": true, "pvt_ltd": true, "llp": true}
	if len(got) != 3 {
		t.Fatalf("ParseEntityCell = %v", got)
	}
	for _, e := range got {
		if !want[e] {
			t.Errorf("unexpected entity %q", e)
		}
	}

	if got := ParseEntityCell("All"); got != nil {
		t.Errorf("'All' should mean no constraint, got %v", got)
	}
	if got := ParseEntityCell(""); got != nil {
		t.Errorf("empty cell should mean no constraint, got %v", got)
	}
}

func TestParseAgeCell(t *testing.T) {
	lo, hi := ParseAgeCell("22-65")
	if lo == nil || *lo != 22 || hi == nil || *hi != 65 {
		t.Errorf("22-65 = (%v, %v)", lo, hi)
	}

	// degenerate 65-65: upper bound only
	lo, hi = ParseAgeCell("65-65")
	if lo != nil || hi == nil || *hi != 65 {
		t.Errorf("65-65 = (%v, %v), want (nil, 65)", lo, hi)
	}

	// degenerate 21-21: lower bound only
	lo, hi = ParseAgeCell("21-21")
	if lo == nil || *lo != 21 || hi != nil {
		t.Errorf("21-21 = (%v, %v), want (21, nil)", lo, hi)
	}

	lo, hi = ParseAgeCell("")
	if lo != nil || hi != nil {
		t.Errorf("empty cell = (%v, %v)", lo, hi)
	}

	lo, hi = ParseAgeCell("25 to 60")
	if lo == nil || *lo != 25 || hi == nil || *hi != 60 {
		t.Errorf("'25 to 60' = (%v, %v)", lo, hi)
	}
}

func TestParseBoolCell(t *testing.T) {
	for cell, want := range map[string]bool{
		"Yes": true, "required": true, "Mandatory": true,
		"No": false, "": false, "optional": false,
	} {
		if got := ParseBoolCell(cell); got != want {
			t.Errorf("ParseBoolCell(%q) = %v, want %v", cell, got, want)
		}
	}
}

func TestInferProgramType(t *testing.T) {
	tests := map[string]models.ProgramType{
		"Banking BL":           models.ProgramBanking,
		"Income Program":       models.ProgramIncome,
		"ITR Based BL":         models.ProgramIncome,
		"Hybrid Assessment":    models.ProgramHybrid,
		"Plain Business Loan":  models.ProgramBanking,
	}
	for name, want := range tests {
		if got := InferProgramType(name); got != want {
			t.Errorf("InferProgramType(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestRowHasUnavailableSentinel(t *testing.T) {
	if !RowHasUnavailableSentinel([]string{"Tata", "BL", "Policy Not Available"}) {
		t.Error("sentinel row not detected")
	}
	if RowHasUnavailableSentinel([]string{"Tata", "BL", "25L"}) {
		t.Error("clean row flagged")
	}
}
