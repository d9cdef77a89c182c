package validate

import "testing"

func TestIsValidPAN(t *testing.T) {
	tests := []struct {
		pan  string
		want bool
	}{
		{"ABCPE1234F", true},  // personal
		{"AAACR5055K", true},  // company
		{"ABCXE1234F", false}, // 4th char X not a holder type
		{"ABCP1234F", false},  // too short
		{"abcpe1234f", false}, // lowercase
		{"ABCPE12345", false}, // last char digit
	}
	for _, tc := range tests {
		if got := IsValidPAN(tc.pan); got != tc.want {
			t.Errorf("IsValidPAN(%q) = %v, want %v", tc.pan, got, tc.want)
		}
	}
}

func TestIsBusinessPAN(t *testing.T) {
	if IsBusinessPAN("ABCPE1234F") {
		t.Error("personal PAN flagged as business")
	}
	if !IsBusinessPAN("AAACR5055K") {
		t.Error("company PAN not flagged as business")
	}
}

func TestIsValidGSTIN(t *testing.T) {
	tests := []struct {
		gstin string
		want  bool
	}{
		{"27AAPFU0939F1ZV", true},
		{"99AAPFU0939F1ZV", false}, // state code 99 does not exist
		{"27AAPXU0939F1ZV", false}, // embedded PAN has bad holder type
		{"27AAPFU0939F1Z", false},  // 14 chars
		{"00AAPFU0939F1ZV", false}, // state code 00
	}
	for _, tc := range tests {
		if got := IsValidGSTIN(tc.gstin); got != tc.want {
			t.Errorf("IsValidGSTIN(%q) = %v, want %v", tc.gstin, got, tc.want)
		}
	}
}

func TestGSTINState(t *testing.T) {
	if s := GSTINState("27AAPFU0939F1ZV"); s != "Maharashtra" {
		t.Errorf("state = %q, want Maharashtra", s)
	}
	if s := GSTINState("29AAPFU0939F1ZV"); s != "Karnataka" {
		t.Errorf("state = %q, want Karnataka", s)
	}
}

func TestPANFromGSTIN(t *testing.T) {
	if pan := PANFromGSTIN("27AAPFU0939F1ZV"); pan != "AAPFU0939F" {
		t.Errorf("embedded PAN = %q", pan)
	}
}

func TestFindGSTIN(t *testing.T) {
	got := FindGSTIN("GSTR3B_27aapfu0939f1zv_march.pdf")
	if got != "27AAPFU0939F1ZV" {
		t.Errorf("FindGSTIN = %q", got)
	}
	if got := FindGSTIN("no identifier here"); got != "" {
		t.Errorf("FindGSTIN on junk = %q, want empty", got)
	}
	// structurally shaped but invalid state code must not match
	if got := FindGSTIN("99AAPFU0939F1ZV"); got != "" {
		t.Errorf("invalid state code accepted: %q", got)
	}
}

func TestIsValidPincode(t *testing.T) {
	for pin, want := range map[string]bool{
		"400001":  true,
		"110001":  true,
		"040001":  false, // leading zero
		"4000011": false,
		"40001":   false,
	} {
		if got := IsValidPincode(pin); got != want {
			t.Errorf("IsValidPincode(%q) = %v, want %v", pin, got, want)
		}
	}
}

func TestIsValidAadhaar(t *testing.T) {
	for aadhaar, want := range map[string]bool{
		"2345 6789 0123": true,
		"234567890123":   true,
		"123456789012":   false, // starts with 1
		"034567890123":   false, // starts with 0
		"23456789012":    false, // 11 digits
	} {
		if got := IsValidAadhaar(aadhaar); got != want {
			t.Errorf("IsValidAadhaar(%q) = %v, want %v", aadhaar, got, want)
		}
	}
}

func TestIsValidCibilScore(t *testing.T) {
	for score, want := range map[int]bool{300: true, 900: true, 742: true, 299: false, 901: false, 0: false} {
		if got := IsValidCibilScore(score); got != want {
			t.Errorf("IsValidCibilScore(%d) = %v, want %v", score, got, want)
		}
	}
}
