// Package lenderkb ingests the lender policy and pincode CSV tables into the
// knowledge base, and exposes the query surface eligibility scoring reads.
package lenderkb

import (
	"regexp"
	"strconv"
	"strings"

	"loanintel/pkg/models"
)

// PolicyUnavailableSentinel in any cell marks the product row as having no
// usable policy.
const PolicyUnavailableSentinel = "policy not available"

// lenderAliases collapse sheet-level lender spellings to one canonical name.
var lenderAliases = map[string]string{
	"TATA PL":        "Tata Capital",
	"TATA BL":        "Tata Capital",
	"TATA CAPITAL":   "Tata Capital",
	"ABFL":           "Aditya Birla Finance",
	"AB FINANCE":     "Aditya Birla Finance",
	"BAJAJ":          "Bajaj Finserv",
	"BAJAJ FINSERV":  "Bajaj Finserv",
	"HDB":            "HDB Financial Services",
	"HDB FIN":        "HDB Financial Services",
	"LKART":          "Lendingkart",
	"LENDINGKART":    "Lendingkart",
	"NEO":            "NeoGrowth",
	"NEOGROWTH":      "NeoGrowth",
	"FULLERTON":      "SMFG India Credit",
	"SMFG":           "SMFG India Credit",
	"IIFL BL":        "IIFL Finance",
	"IIFL":           "IIFL Finance",
}

// CanonicalLenderName resolves aliases; unknown names are title-trimmed as-is.
func CanonicalLenderName(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if canonical, ok := lenderAliases[key]; ok {
		return canonical
	}
	return strings.TrimSpace(raw)
}

// LenderCode derives a stable code from the canonical name.
func LenderCode(name string) string {
	code := strings.ToLower(strings.TrimSpace(name))
	code = strings.ReplaceAll(code, " ", "_")
	return regexp.MustCompile(`[^a-z0-9_]`).ReplaceAllString(code, "")
}

// =============================================================================
// CELL PARSERS
// =============================================================================

var firstNumber = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([LlKk])?`)

// ParseNumericCell extracts the first numeric token from a policy cell,
// applying L (lakh, the base unit) and K (1/100 lakh) suffixes and tolerating
// comparison operators and trailing free text. Returns nil for empty or
// non-numeric cells.
func ParseNumericCell(cell string) *float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" || isUnavailable(cell) {
		return nil
	}
	cell = strings.TrimLeft(cell, ">=< ")
	cell = strings.ReplaceAll(cell, ",", "")

	m := firstNumber.FindStringSubmatch(cell)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	if strings.EqualFold(m[2], "k") {
		v /= 100
	}
	return &v
}

// ParseIntCell extracts the first integer from a cell.
func ParseIntCell(cell string) *int {
	v := ParseNumericCell(cell)
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

// entityKeywords map policy-sheet entity phrasing to canonical tokens.
var entityKeywords = []struct {
	keyword, canonical string
}{
	{"pvt", "pvt_ltd"},
	{"private", "pvt_ltd"},
	{"public", "public_ltd"},
	{"llp", "llp"},
	{"partnership", "partnership"},
	{"proprietor", "proprietorship"},
	{"individual", "proprietorship"},
	{"huf", "huf"},
	{"trust", "trust"},
	{"society", "society"},
}

// ParseEntityCell parses a free-text entity list ("Prop, Pvt Ltd & LLP") into
// the canonical entity set. An empty result means no entity constraint.
func ParseEntityCell(cell string) []string {
	cell = strings.ToLower(strings.TrimSpace(cell))
	if cell == "" || isUnavailable(cell) || cell == "all" {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	for _, e := range entityKeywords {
		if strings.Contains(cell, e.keyword) && !seen[e.canonical] {
			seen[e.canonical] = true
			out = append(out, e.canonical)
		}
	}
	return out
}

var ageRange = regexp.MustCompile(`(\d{2})\s*[-to]+\s*(\d{2})`)

// ParseAgeCell parses an age range "22-65". A degenerate X-X cell is
// normalized defensively: values of 45 and above are treated as an upper
// bound only, lower ones as a lower bound only.
func ParseAgeCell(cell string) (min, max *int) {
	cell = strings.TrimSpace(cell)
	if cell == "" || isUnavailable(cell) {
		return nil, nil
	}

	if m := ageRange.FindStringSubmatch(cell); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo == hi {
			if lo >= 45 {
				return nil, &hi
			}
			return &lo, nil
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		return &lo, &hi
	}

	if n := ParseIntCell(cell); n != nil {
		if *n >= 45 {
			return nil, n
		}
		return n, nil
	}
	return nil, nil
}

// ParseBoolCell reads yes/required/mandatory-style cells.
func ParseBoolCell(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "yes", "y", "required", "mandatory", "true", "1", "applicable":
		return true
	}
	return false
}

// InferProgramType reads the program from the product name.
func InferProgramType(productName string) models.ProgramType {
	name := strings.ToLower(productName)
	switch {
	case strings.Contains(name, "hybrid"):
		return models.ProgramHybrid
	case strings.Contains(name, "income"), strings.Contains(name, "itr"),
		strings.Contains(name, "financial"):
		return models.ProgramIncome
	default:
		return models.ProgramBanking
	}
}

func isUnavailable(cell string) bool {
	lower := strings.ToLower(cell)
	return strings.Contains(lower, PolicyUnavailableSentinel) ||
		lower == "na" || lower == "n/a" || lower == "-"
}

// RowHasUnavailableSentinel reports whether any cell of a policy row carries
// the "Policy not available" marker.
func RowHasUnavailableSentinel(cells []string) bool {
	for _, cell := range cells {
		if strings.Contains(strings.ToLower(cell), PolicyUnavailableSentinel) {
			return true
		}
	}
	return false
}
