package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"loanintel/pkg/core/validate"
)

// =============================================================================
// SHARED PATTERNS AND HELPERS
// =============================================================================

var (
	amountPattern = `([0-9][0-9,]*(?:\.\d+)?)`
	datePattern   = `(\d{1,2}[/-]\d{1,2}[/-]\d{4})`

	namePattern = regexp.MustCompile(`(?im)^\s*name\s*[:\-]?\s*([A-Z][A-Za-z .]{2,60})\s*$`)
	dobPattern  = regexp.MustCompile(`(?i)(?:date of birth|dob|d\.o\.b\.?)\s*[:\-]?\s*` + datePattern)
)

// anchored builds a case-insensitive regex matching any of the anchors
// followed by a capture.
func anchored(capture string, anchors ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:` + strings.Join(anchors, "|") + `)\s*[:\-]?\s*(?:rs\.?|inr|₹)?\s*` + capture)
}

func firstMatch(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// numericValid reports whether a captured amount parses as a float once
// commas are stripped.
func numericValid(s string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return err == nil
}

func dateValid(s string) bool {
	norm := strings.ReplaceAll(s, "-", "/")
	_, err := time.Parse("02/01/2006", norm)
	if err != nil {
		_, err = time.Parse("2/1/2006", norm)
	}
	return err == nil
}

// field emits with base confidence, halved when valid is false.
func field(name, value string, confidence float64, valid bool) Field {
	if !valid {
		confidence /= 2
	}
	return Field{Name: name, Value: value, Confidence: confidence}
}

// =============================================================================
// PAN CARD
// =============================================================================

func extractPAN(text string) []Field {
	var out []Field
	upper := strings.ToUpper(text)

	if pan := validate.PANPattern.FindString(upper); pan != "" {
		out = append(out, field("pan_number", pan, 0.85, validate.IsValidPAN(pan)))
	}
	if name, ok := firstMatch(namePattern, text); ok {
		out = append(out, field("full_name", name, 0.7, true))
	}
	if dob, ok := firstMatch(dobPattern, text); ok {
		out = append(out, field("dob", dob, 0.8, dateValid(dob)))
	}
	return out
}

// =============================================================================
// AADHAAR
// =============================================================================

var aadhaarNumber = regexp.MustCompile(`\b(\d{4}\s?\d{4}\s?\d{4})\b`)
var addressPattern = regexp.MustCompile(`(?is)address\s*[:\-]?\s*(.{10,200}?)(?:\n\n|\z)`)

func extractAadhaar(text string) []Field {
	var out []Field

	if num, ok := firstMatch(aadhaarNumber, text); ok {
		out = append(out, field("aadhaar_number", num, 0.85, validate.IsValidAadhaar(num)))
	}
	if name, ok := firstMatch(namePattern, text); ok {
		out = append(out, field("full_name", name, 0.7, true))
	}
	if dob, ok := firstMatch(dobPattern, text); ok {
		out = append(out, field("dob", dob, 0.8, dateValid(dob)))
	}
	if addr, ok := firstMatch(addressPattern, text); ok {
		out = append(out, field("address", strings.Join(strings.Fields(addr), " "), 0.6, true))
	}
	return out
}

// =============================================================================
// GST CERTIFICATE
// =============================================================================

var (
	businessNamePattern = anchored(`([A-Z][A-Za-z0-9 .&\-]{2,80})`, "legal name", "trade name", "name of business")
	gstRegDatePattern   = anchored(datePattern, "date of liability", "registration date", "date of registration", "liability to pay tax")
)

func extractGSTCertificate(text string) []Field {
	var out []Field
	upper := strings.ToUpper(text)

	if gstin := validate.GSTINPattern.FindString(upper); gstin != "" {
		// structural validation decides between the two confidence tiers
		conf := 0.6
		if validate.IsValidGSTIN(gstin) {
			conf = 0.9
		}
		out = append(out, Field{Name: "gstin", Value: gstin, Confidence: conf})
		if state := validate.GSTINState(gstin); state != "" {
			out = append(out, Field{Name: "state", Value: state, Confidence: conf})
		}
	}
	if name, ok := firstMatch(businessNamePattern, text); ok {
		out = append(out, field("business_name", name, 0.75, true))
	}
	if date, ok := firstMatch(gstRegDatePattern, text); ok {
		out = append(out, field("gst_registration_date", date, 0.8, dateValid(date)))
	}
	return out
}

// =============================================================================
// GST RETURNS
// =============================================================================

var (
	taxableValuePattern = anchored(amountPattern, "total taxable value", "taxable value")
	cgstPattern         = anchored(amountPattern, `\bcgst\b`, "central tax")
	sgstPattern         = anchored(amountPattern, `\bsgst\b`, "state(?:/ut)? tax")
	filingPeriodPattern = anchored(`((?:0[1-9]|1[0-2])[-/]\d{4}|[A-Za-z]{3,9}\s+\d{4})`, "return period", "tax period", "period")
)

func extractGSTReturns(text string) []Field {
	var out []Field
	for _, spec := range []struct {
		name string
		re   *regexp.Regexp
	}{
		{"gst_taxable_value", taxableValuePattern},
		{"gst_cgst_amount", cgstPattern},
		{"gst_sgst_amount", sgstPattern},
	} {
		if v, ok := firstMatch(spec.re, text); ok {
			out = append(out, field(spec.name, v, 0.8, numericValid(v)))
		}
	}
	if period, ok := firstMatch(filingPeriodPattern, text); ok {
		out = append(out, field("gst_filing_period", period, 0.7, true))
	}
	return out
}

// =============================================================================
// CIBIL REPORT
// =============================================================================

var (
	cibilScorePattern  = anchored(`(\d{3})`, "cibil\\s*(?:trans)?union\\s*score", "cibil score", "credit score", "score")
	activeLoanPattern  = anchored(`(\d{1,3})`, "active (?:loan|account)s?", "open accounts?")
	overduePattern     = anchored(`(\d{1,3})`, "overdue accounts?", "accounts? overdue")
	enquiry6mPattern   = anchored(`(\d{1,3})`, "enquir(?:y|ies)[^\\n]{0,30}6 months?", "enquir(?:y|ies) \\(6m\\)")
)

func extractCIBIL(text string) []Field {
	var out []Field

	if s, ok := firstMatch(cibilScorePattern, text); ok {
		score, _ := strconv.Atoi(s)
		out = append(out, field("cibil_score", s, 0.85, validate.IsValidCibilScore(score)))
	}
	for _, spec := range []struct {
		name string
		re   *regexp.Regexp
	}{
		{"active_loan_count", activeLoanPattern},
		{"overdue_count", overduePattern},
		{"enquiry_count_6m", enquiry6mPattern},
	} {
		if v, ok := firstMatch(spec.re, text); ok {
			out = append(out, field(spec.name, v, 0.75, numericValid(v)))
		}
	}
	return out
}

// =============================================================================
// ITR
// =============================================================================

var (
	assessmentYearPattern = regexp.MustCompile(`(?i)assessment year\s*[:\-]?\s*(20\d\d-\d\d)`)
	totalIncomePattern    = anchored(amountPattern, "gross total income", "total income")
	taxPaidPattern        = anchored(amountPattern, "total tax(?:es)? paid", "tax paid")
	businessIncomePattern = anchored(amountPattern, "(?:income from )?business (?:or profession|income)", "profits and gains")
)

func extractITR(text string) []Field {
	var out []Field
	for _, spec := range []struct {
		name string
		re   *regexp.Regexp
	}{
		{"itr_total_income", totalIncomePattern},
		{"itr_tax_paid", taxPaidPattern},
		{"itr_business_income", businessIncomePattern},
	} {
		if v, ok := firstMatch(spec.re, text); ok {
			out = append(out, field(spec.name, v, 0.8, numericValid(v)))
		}
	}
	if ay, ok := firstMatch(assessmentYearPattern, text); ok {
		out = append(out, field("itr_assessment_year", ay, 0.85, true))
	}
	return out
}

// =============================================================================
// FINANCIAL STATEMENTS
// =============================================================================

var (
	turnoverPattern  = anchored(amountPattern, "total revenue", "revenue from operations", "turnover", "gross sales")
	netProfitPattern = anchored(amountPattern, "net profit", "profit after tax", "\\bpat\\b")
	netWorthPattern  = anchored(amountPattern, "net worth", "shareholders?'? funds?", "total equity")
)

func extractFinancials(text string) []Field {
	var out []Field
	for _, spec := range []struct {
		name string
		re   *regexp.Regexp
	}{
		{"annual_turnover", turnoverPattern},
		{"net_profit", netProfitPattern},
		{"net_worth", netWorthPattern},
	} {
		if v, ok := firstMatch(spec.re, text); ok {
			out = append(out, field(spec.name, v, 0.8, numericValid(v)))
		}
	}
	return out
}
