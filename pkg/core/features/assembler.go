// Package features assembles the per-case borrower feature vector from
// extracted evidence, manual overrides and GST-sourced case descriptors.
package features

import (
	"strconv"
	"strings"
	"time"

	"loanintel/pkg/models"
)

// DefaultConfidenceThreshold gates rule 1 of the merge order.
const DefaultConfidenceThreshold = 0.5

// evidence is the best extracted row per field name at two tiers: the best
// confident row (>= threshold) and the best row overall.
type evidence struct {
	confident map[string]*models.ExtractedField
	any       map[string]*models.ExtractedField
}

func indexFields(fields []*models.ExtractedField, threshold float64) *evidence {
	ev := &evidence{
		confident: map[string]*models.ExtractedField{},
		any:       map[string]*models.ExtractedField{},
	}
	for _, f := range fields {
		// fields arrive oldest first; >= keeps the latest among equals
		if cur, ok := ev.any[f.Name]; !ok || f.Confidence >= cur.Confidence {
			ev.any[f.Name] = f
		}
		if f.Confidence >= threshold {
			if cur, ok := ev.confident[f.Name]; !ok || f.Confidence >= cur.Confidence {
				ev.confident[f.Name] = f
			}
		}
	}
	return ev
}

// resolve applies the four-step merge order for one slot: confident evidence,
// then the manual override, then any evidence, then unset.
func (ev *evidence) resolve(name string, override *string) (string, bool) {
	if f, ok := ev.confident[name]; ok {
		return f.Value, true
	}
	if override != nil {
		return *override, true
	}
	if f, ok := ev.any[name]; ok {
		return f.Value, true
	}
	return "", false
}

// Assemble builds the feature vector for a case. It is a pure function of its
// inputs; persistence is the caller's job.
func Assemble(c *models.Case, fields []*models.ExtractedField, threshold float64) *models.BorrowerFeatures {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	ev := indexFields(fields, threshold)
	f := &models.BorrowerFeatures{CaseID: c.ID}

	// Identity
	f.BorrowerName = resolveString(ev, "full_name", c.BorrowerName)
	f.PANNumber = resolveString(ev, "pan_number", nil)
	f.AadhaarNumber = resolveString(ev, "aadhaar_number", nil)
	f.DOB = resolveDate(ev, "dob", nil)

	// Business
	f.EntityType = normalizeEntityPtr(resolveString(ev, "entity_type", c.EntityType))
	f.IndustryType = resolveString(ev, "industry_type", c.IndustryType)
	f.BusinessVintageYears = resolveFloat(ev, "business_vintage_years",
		coalesceFloat(c.ManualVintageYears, c.BusinessVintageYears))
	f.Pincode = resolveString(ev, "pincode", c.Pincode)
	f.GSTIN = resolveString(ev, "gstin", c.GSTIN)
	f.GSTRegistrationDate = resolveDate(ev, "gst_registration_date", nil)

	// Financial
	f.AnnualTurnover = resolveFloat(ev, "annual_turnover", nil)
	f.MonthlyTurnover = resolveFloat(ev, "monthly_turnover", c.ManualMonthlyTurnover)
	f.MonthlyCreditAvg = resolveFloat(ev, "monthly_credit_avg", nil)
	f.AvgMonthlyBalance = resolveFloat(ev, "avg_monthly_balance", nil)
	f.EMIOutflowMonthly = resolveFloat(ev, "emi_outflow_monthly", nil)
	f.BounceCount12M = resolveInt(ev, "bounce_count_12m", nil)
	f.CashDepositRatio = resolveFloat(ev, "cash_deposit_ratio", nil)
	f.NetProfit = resolveFloat(ev, "net_profit", nil)

	// Credit
	f.CibilScore = resolveInt(ev, "cibil_score", c.ManualCibilScore)
	f.ActiveLoanCount = resolveInt(ev, "active_loan_count", nil)
	f.EnquiryCount6M = resolveInt(ev, "enquiry_count_6m", nil)

	applyDerivations(f)
	f.RecomputeCompleteness()
	return f
}

// applyDerivations runs the two post-merge rules: banking turnover mirrors
// the credit average, and annual turnover is derived from monthly when
// absent. Annual turnover is carried in Lakhs while monthly figures are
// rupees, hence the 100000 divisor.
func applyDerivations(f *models.BorrowerFeatures) {
	if f.MonthlyCreditAvg != nil {
		v := *f.MonthlyCreditAvg
		f.MonthlyTurnover = &v
	}
	if f.AnnualTurnover == nil && f.MonthlyTurnover != nil && *f.MonthlyTurnover > 0 {
		annual := *f.MonthlyTurnover * 12 / 100000
		f.AnnualTurnover = &annual
	}
}

// =============================================================================
// TYPED RESOLUTION AND COERCION
// =============================================================================

func resolveString(ev *evidence, name string, override *string) *string {
	v, ok := ev.resolve(name, override)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	v = strings.TrimSpace(v)
	return &v
}

func resolveFloat(ev *evidence, name string, override *float64) *float64 {
	var overrideStr *string
	if override != nil {
		s := strconv.FormatFloat(*override, 'f', -1, 64)
		overrideStr = &s
	}
	v, ok := ev.resolve(name, overrideStr)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func resolveInt(ev *evidence, name string, override *int) *int {
	var overrideStr *string
	if override != nil {
		s := strconv.Itoa(*override)
		overrideStr = &s
	}
	v, ok := ev.resolve(name, overrideStr)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	// extraction sometimes yields "3.0" for counts
	v = strings.TrimSuffix(v, ".0")
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &parsed
}

func resolveDate(ev *evidence, name string, override *time.Time) *time.Time {
	v, ok := ev.resolve(name, nil)
	if !ok {
		return override
	}
	norm := strings.ReplaceAll(strings.TrimSpace(v), "-", "/")
	for _, layout := range []string{"02/01/2006", "2/1/2006"} {
		if t, err := time.Parse(layout, norm); err == nil {
			return &t
		}
	}
	return override
}

func coalesceFloat(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// entityAliases normalizes free-text entity types to the canonical set.
// Order matters: more specific aliases come before their substrings.
var entityAliases = []struct {
	alias, canonical string
}{
	{"pvt ltd", "pvt_ltd"},
	{"pvt. ltd", "pvt_ltd"},
	{"private limited", "pvt_ltd"},
	{"pvt_ltd", "pvt_ltd"},
	{"limited liability partnership", "llp"},
	{"llp", "llp"},
	{"public limited", "public_ltd"},
	{"ltd", "public_ltd"},
	{"partnership", "partnership"},
	{"sole proprietorship", "proprietorship"},
	{"proprietorship", "proprietorship"},
	{"proprietor", "proprietorship"},
	{"individual", "proprietorship"},
	{"huf", "huf"},
	{"trust", "trust"},
	{"society", "society"},
}

// NormalizeEntityType maps a free-text entity description to its canonical
// token. Unrecognized values are lowercased with spaces collapsed to
// underscores.
func NormalizeEntityType(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, e := range entityAliases {
		if strings.Contains(key, e.alias) {
			return e.canonical
		}
	}
	return strings.ReplaceAll(key, " ", "_")
}

func normalizeEntityPtr(v *string) *string {
	if v == nil {
		return nil
	}
	norm := NormalizeEntityType(*v)
	return &norm
}
