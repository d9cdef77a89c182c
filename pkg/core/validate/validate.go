// Package validate provides reusable identifier and range validation for the
// Indian lending domain. These functions are called from the extractor, the
// OCR skip heuristics, API handlers, and tests.
package validate

import (
	"regexp"
	"strings"
)

// =============================================================================
// PAN (PERMANENT ACCOUNT NUMBER)
// =============================================================================

// PANPattern matches a 10-character PAN anywhere in a string.
var PANPattern = regexp.MustCompile(`[A-Z]{5}\d{4}[A-Z]`)

var panStrict = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)

// panHolderTypes are the legal 4th characters of a PAN: person, company,
// firm, HUF, AOP, trust, BOI, local authority, artificial juridical person,
// government.
const panHolderTypes = "PCFHATBLJG"

// IsValidPAN reports whether s is a structurally valid PAN, including the
// holder-type check on the 4th character.
func IsValidPAN(s string) bool {
	if !panStrict.MatchString(s) {
		return false
	}
	return strings.ContainsRune(panHolderTypes, rune(s[3]))
}

// IsBusinessPAN reports whether a valid PAN belongs to a non-individual
// holder (anything but P).
func IsBusinessPAN(s string) bool {
	return IsValidPAN(s) && s[3] != 'P'
}

// =============================================================================
// GSTIN
// =============================================================================

// GSTINPattern matches a 15-character GSTIN anywhere in a string.
var GSTINPattern = regexp.MustCompile(`\d{2}[A-Z]{5}\d{4}[A-Z]\d[A-Z][0-9A-Z]`)

var gstinStrict = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z]\d[A-Z][0-9A-Z]$`)

// gstStateCodes are the GST state and union-territory codes in force.
var gstStateCodes = map[string]bool{
	"01": true, "02": true, "03": true, "04": true, "05": true, "06": true,
	"07": true, "08": true, "09": true, "10": true, "11": true, "12": true,
	"13": true, "14": true, "15": true, "16": true, "17": true, "18": true,
	"19": true, "20": true, "21": true, "22": true, "23": true, "24": true,
	"26": true, "27": true, "28": true, "29": true, "30": true, "31": true,
	"32": true, "33": true, "34": true, "35": true, "36": true, "37": true,
	"38": true,
}

// gstStateNames maps state codes to names for the derived state field.
var gstStateNames = map[string]string{
	"01": "Jammu and Kashmir", "02": "Himachal Pradesh", "03": "Punjab",
	"04": "Chandigarh", "05": "Uttarakhand", "06": "Haryana", "07": "Delhi",
	"08": "Rajasthan", "09": "Uttar Pradesh", "10": "Bihar", "11": "Sikkim",
	"12": "Arunachal Pradesh", "13": "Nagaland", "14": "Manipur",
	"15": "Mizoram", "16": "Tripura", "17": "Meghalaya", "18": "Assam",
	"19": "West Bengal", "20": "Jharkhand", "21": "Odisha",
	"22": "Chhattisgarh", "23": "Madhya Pradesh", "24": "Gujarat",
	"26": "Dadra and Nagar Haveli and Daman and Diu", "27": "Maharashtra",
	"28": "Andhra Pradesh", "29": "Karnataka", "30": "Goa",
	"31": "Lakshadweep", "32": "Kerala", "33": "Tamil Nadu",
	"34": "Puducherry", "35": "Andaman and Nicobar Islands",
	"36": "Telangana", "37": "Andhra Pradesh", "38": "Ladakh",
}

// IsValidGSTIN reports whether s is a structurally valid GSTIN: shape, a
// known state code, and a valid embedded PAN at positions 3-12.
func IsValidGSTIN(s string) bool {
	if !gstinStrict.MatchString(s) {
		return false
	}
	if !gstStateCodes[s[:2]] {
		return false
	}
	return IsValidPAN(s[2:12])
}

// GSTINState returns the state name for a GSTIN's leading code, or "".
func GSTINState(gstin string) string {
	if len(gstin) < 2 {
		return ""
	}
	return gstStateNames[gstin[:2]]
}

// PANFromGSTIN extracts the embedded PAN, or "" for a malformed GSTIN.
func PANFromGSTIN(gstin string) string {
	if len(gstin) != 15 {
		return ""
	}
	return gstin[2:12]
}

// FindGSTIN returns the first structurally valid GSTIN in s, or "".
func FindGSTIN(s string) string {
	for _, cand := range GSTINPattern.FindAllString(strings.ToUpper(s), -1) {
		if IsValidGSTIN(cand) {
			return cand
		}
	}
	return ""
}

// =============================================================================
// OTHER IDENTIFIERS AND RANGES
// =============================================================================

var pincodeStrict = regexp.MustCompile(`^[1-9]\d{5}$`)

// IsValidPincode reports whether s is a six-digit Indian postal code.
func IsValidPincode(s string) bool {
	return pincodeStrict.MatchString(s)
}

var aadhaarStrict = regexp.MustCompile(`^\d{12}$`)

// IsValidAadhaar reports whether s (spaces stripped) is a 12-digit Aadhaar
// number not starting with 0 or 1.
func IsValidAadhaar(s string) bool {
	s = strings.ReplaceAll(s, " ", "")
	if !aadhaarStrict.MatchString(s) {
		return false
	}
	return s[0] != '0' && s[0] != '1'
}

// IsValidCibilScore reports whether the score is in the bureau's range.
func IsValidCibilScore(score int) bool {
	return score >= 300 && score <= 900
}
