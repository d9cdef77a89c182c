// Package eligibility scores a case's feature vector against every active
// lender product: hard filters first, weighted scoring for survivors, then
// ticket sizing, improvement hints and ranking.
package eligibility

import (
	"fmt"
	"math"
	"time"

	"loanintel/pkg/models"
)

// FailureReason is one hard-filter miss, structured so the rejection
// analyzer can aggregate by key.
type FailureReason struct {
	Key     string `json:"key"`
	Message string `json:"message"`
	Current string `json:"current,omitempty"`
	Target  string `json:"target,omitempty"`
}

// ComponentScore is one weighted-scoring component.
type ComponentScore struct {
	Name     string  `json:"name"`
	SubScore float64 `json:"sub_score"`
	Weight   float64 `json:"weight"`
}

// Details is the explainability payload persisted with each result.
type Details struct {
	FailureReasons []FailureReason  `json:"failure_reasons,omitempty"`
	Components     []ComponentScore `json:"score_breakdown,omitempty"`
	MatchedSignals []string         `json:"matched_signals,omitempty"`
	LenderTerms    *LenderTerms     `json:"lender_terms,omitempty"`
}

// LenderTerms echoes the thresholds and terms the borrower was held to.
type LenderTerms struct {
	MinCibilScore     *int     `json:"min_cibil_score,omitempty"`
	MinVintageYears   *float64 `json:"min_vintage_years,omitempty"`
	MinTurnoverAnnual *float64 `json:"min_turnover_annual,omitempty"`
	MinABB            *float64 `json:"min_abb,omitempty"`
	MaxTicketSize     *float64 `json:"max_ticket_size,omitempty"`
	TenorMinMonths    *int     `json:"tenor_min_months,omitempty"`
	TenorMaxMonths    *int     `json:"tenor_max_months,omitempty"`
}

// Input is everything needed to evaluate one case against one product.
type Input struct {
	Features    *models.BorrowerFeatures
	Product     *models.LenderProduct
	PincodeSet  map[string]bool             // nil when the lender has no pincode table
	DocsPresent map[models.DocumentKind]bool
	Now         time.Time
}

// Verdict is the full evaluation outcome for one product before persistence.
type Verdict struct {
	Product     *models.LenderProduct
	Status      models.FilterStatus
	Score       float64
	Probability models.ApprovalProbability
	TicketMin   *float64
	TicketMax   *float64
	Confidence  float64
	Details     Details
	Improvements []string

	rank *int // assigned after ranking, passing verdicts only
}

// =============================================================================
// LAYER 1: HARD FILTERS
// =============================================================================

// entityEquivalence widens borrower entity tokens to the policy tokens they
// satisfy.
var entityEquivalence = map[string][]string{
	"proprietorship": {"proprietorship"},
	"partnership":    {"partnership"},
	"llp":            {"llp", "partnership"},
	"pvt_ltd":        {"pvt_ltd"},
	"public_ltd":     {"public_ltd", "pvt_ltd"},
	"huf":            {"huf", "proprietorship"},
	"trust":          {"trust"},
	"society":        {"society"},
}

// HardFilters accumulates every failure instead of stopping at the first, so
// the rejection narrative sees the full picture.
func HardFilters(in Input) []FailureReason {
	f, p := in.Features, in.Product
	var reasons []FailureReason

	if f.Pincode != nil && in.PincodeSet != nil && !in.PincodeSet[*f.Pincode] {
		reasons = append(reasons, FailureReason{
			Key:     "pincode",
			Message: fmt.Sprintf("pincode %s not serviced", *f.Pincode),
			Current: *f.Pincode,
		})
	}

	if p.MinCibilScore != nil && f.CibilScore != nil && *f.CibilScore < *p.MinCibilScore {
		reasons = append(reasons, FailureReason{
			Key:     "cibil",
			Message: fmt.Sprintf("CIBIL %d < required %d", *f.CibilScore, *p.MinCibilScore),
			Current: fmt.Sprintf("%d", *f.CibilScore),
			Target:  fmt.Sprintf("%d", *p.MinCibilScore),
		})
	}

	if len(p.EligibleEntityTypes) > 0 && f.EntityType != nil {
		if !entityEligible(*f.EntityType, p.EligibleEntityTypes) {
			reasons = append(reasons, FailureReason{
				Key:     "entity_type",
				Message: fmt.Sprintf("entity type %s not eligible", *f.EntityType),
				Current: *f.EntityType,
			})
		}
	}

	if p.MinVintageYears != nil && f.BusinessVintageYears != nil &&
		*f.BusinessVintageYears < *p.MinVintageYears {
		reasons = append(reasons, FailureReason{
			Key:     "vintage",
			Message: fmt.Sprintf("vintage %.1fy < required %.1fy", *f.BusinessVintageYears, *p.MinVintageYears),
			Current: fmt.Sprintf("%.1f", *f.BusinessVintageYears),
			Target:  fmt.Sprintf("%.1f", *p.MinVintageYears),
		})
	}

	if p.MinTurnoverAnnual != nil && f.AnnualTurnover != nil &&
		*f.AnnualTurnover < *p.MinTurnoverAnnual {
		reasons = append(reasons, FailureReason{
			Key:     "turnover",
			Message: fmt.Sprintf("annual turnover %.1fL < required %.1fL", *f.AnnualTurnover, *p.MinTurnoverAnnual),
			Current: fmt.Sprintf("%.1f", *f.AnnualTurnover),
			Target:  fmt.Sprintf("%.1f", *p.MinTurnoverAnnual),
		})
	}

	if f.DOB != nil && (p.AgeMin != nil || p.AgeMax != nil) {
		age := f.AgeYearsAt(in.Now)
		if p.AgeMin != nil && age < *p.AgeMin {
			reasons = append(reasons, FailureReason{
				Key:     "age",
				Message: fmt.Sprintf("age %d below minimum %d", age, *p.AgeMin),
				Current: fmt.Sprintf("%d", age),
				Target:  fmt.Sprintf("%d", *p.AgeMin),
			})
		}
		if p.AgeMax != nil && age > *p.AgeMax {
			reasons = append(reasons, FailureReason{
				Key:     "age",
				Message: fmt.Sprintf("age %d above maximum %d", age, *p.AgeMax),
				Current: fmt.Sprintf("%d", age),
				Target:  fmt.Sprintf("%d", *p.AgeMax),
			})
		}
	}

	if p.MinABB != nil && f.AvgMonthlyBalance != nil && *f.AvgMonthlyBalance < *p.MinABB {
		reasons = append(reasons, FailureReason{
			Key:     "abb",
			Message: fmt.Sprintf("average balance %.0f < required %.0f", *f.AvgMonthlyBalance, *p.MinABB),
			Current: fmt.Sprintf("%.0f", *f.AvgMonthlyBalance),
			Target:  fmt.Sprintf("%.0f", *p.MinABB),
		})
	}

	return reasons
}

func entityEligible(borrower string, eligible []string) bool {
	satisfies := entityEquivalence[borrower]
	if satisfies == nil {
		satisfies = []string{borrower}
	}
	for _, tok := range satisfies {
		for _, e := range eligible {
			if tok == e {
				return true
			}
		}
	}
	return false
}

// =============================================================================
// LAYER 2: WEIGHTED SCORING
// =============================================================================

func cibilBand(score int) float64 {
	switch {
	case score >= 750:
		return 100
	case score >= 725:
		return 90
	case score >= 700:
		return 75
	case score >= 675:
		return 60
	case score >= 650:
		return 40
	default:
		return 20
	}
}

func turnoverBand(ratio float64) float64 {
	switch {
	case ratio >= 3:
		return 100
	case ratio >= 2:
		return 80
	case ratio >= 1.5:
		return 60
	case ratio >= 1:
		return 40
	default:
		return 20
	}
}

func vintageBand(years float64) float64 {
	switch {
	case years >= 5:
		return 100
	case years >= 3:
		return 80
	case years >= 2:
		return 60
	case years >= 1:
		return 40
	default:
		return 20
	}
}

func foirBand(ratio float64) float64 {
	switch {
	case ratio < 0.30:
		return 100
	case ratio < 0.45:
		return 75
	case ratio < 0.55:
		return 50
	case ratio < 0.65:
		return 30
	default:
		return 0
	}
}

func balanceRatioBand(ratio float64) float64 {
	switch {
	case ratio >= 2:
		return 100
	case ratio >= 1.5:
		return 80
	case ratio >= 1:
		return 60
	case ratio >= 0.5:
		return 30
	default:
		return 0
	}
}

func bounceBand(count int) float64 {
	switch {
	case count == 0:
		return 100
	case count <= 1:
		return 80
	case count <= 3:
		return 50
	case count <= 5:
		return 25
	default:
		return 0
	}
}

func cashRatioBand(ratio float64) float64 {
	switch {
	case ratio < 0.10:
		return 100
	case ratio < 0.20:
		return 80
	case ratio < 0.40:
		return 50
	case ratio < 0.60:
		return 25
	default:
		return 0
	}
}

// bankingStrength averages the available banking sub-scores. ok=false when
// no banking data exists at all.
func bankingStrength(f *models.BorrowerFeatures, p *models.LenderProduct) (float64, bool) {
	var subs []float64
	if f.AvgMonthlyBalance != nil && p.MinABB != nil && *p.MinABB > 0 {
		subs = append(subs, balanceRatioBand(*f.AvgMonthlyBalance / *p.MinABB))
	}
	if f.BounceCount12M != nil {
		subs = append(subs, bounceBand(*f.BounceCount12M))
	}
	if f.CashDepositRatio != nil {
		subs = append(subs, cashRatioBand(*f.CashDepositRatio))
	}
	if len(subs) == 0 {
		return 0, false
	}
	var sum float64
	for _, s := range subs {
		sum += s
	}
	return sum / float64(len(subs)), true
}

// documentationScore is the share of the four lender doc families present:
// GST, ownership proof, PAN, Aadhaar.
func documentationScore(f *models.BorrowerFeatures, docs map[models.DocumentKind]bool) float64 {
	present := 0
	if f.GSTIN != nil || docs[models.KindGSTCertificate] {
		present++
	}
	if docs[models.KindUdyamLicense] || docs[models.KindPropertyDocs] {
		present++
	}
	if f.PANNumber != nil || docs[models.KindPANPersonal] || docs[models.KindPANBusiness] {
		present++
	}
	if f.AadhaarNumber != nil || docs[models.KindAadhaar] {
		present++
	}
	return float64(present) / 4 * 100
}

// WeightedScore computes the composite 0-100 score. Components without data
// drop out and the remaining weights renormalize.
func WeightedScore(in Input) (float64, []ComponentScore) {
	f, p := in.Features, in.Product
	var components []ComponentScore
	add := func(name string, sub, weight float64) {
		components = append(components, ComponentScore{Name: name, SubScore: sub, Weight: weight})
	}

	if f.CibilScore != nil {
		add("cibil", cibilBand(*f.CibilScore), 0.25)
	}
	if f.AnnualTurnover != nil && p.MinTurnoverAnnual != nil && *p.MinTurnoverAnnual > 0 {
		add("turnover", turnoverBand(*f.AnnualTurnover / *p.MinTurnoverAnnual), 0.20)
	}
	if f.BusinessVintageYears != nil {
		add("vintage", vintageBand(*f.BusinessVintageYears), 0.15)
	}
	if banking, ok := bankingStrength(f, p); ok {
		add("banking", banking, 0.20)
	}
	if f.EMIOutflowMonthly != nil && f.MonthlyCreditAvg != nil && *f.MonthlyCreditAvg > 0 {
		add("foir", foirBand(*f.EMIOutflowMonthly / *f.MonthlyCreditAvg), 0.10)
	}
	add("documentation", documentationScore(f, in.DocsPresent), 0.10)

	var weighted, totalWeight float64
	for _, c := range components {
		weighted += c.SubScore * c.Weight
		totalWeight += c.Weight
	}
	if totalWeight == 0 {
		return 0, components
	}
	return math.Round(weighted/totalWeight*100) / 100, components
}

// =============================================================================
// LAYER 3: POST-PROCESSING
// =============================================================================

var ticketMultiplier = map[models.ApprovalProbability]float64{
	models.ProbabilityHigh:   0.25,
	models.ProbabilityMedium: 0.15,
	models.ProbabilityLow:    0.10,
}

// ticketRange derives the expected ticket from turnover and the probability
// band, capped by the product's maximum. Both bounds are in Lakhs.
func ticketRange(f *models.BorrowerFeatures, p *models.LenderProduct, prob models.ApprovalProbability) (*float64, *float64) {
	var upper float64
	switch {
	case f.AnnualTurnover != nil:
		upper = *f.AnnualTurnover * ticketMultiplier[prob]
		if p.MaxTicketSize != nil && upper > *p.MaxTicketSize {
			upper = *p.MaxTicketSize
		}
	case p.MaxTicketSize != nil:
		upper = *p.MaxTicketSize
	default:
		return nil, nil
	}
	lower := upper * 0.15
	return &lower, &upper
}

func improvements(f *models.BorrowerFeatures) []string {
	var out []string
	if f.CibilScore != nil && *f.CibilScore < 725 {
		out = append(out, fmt.Sprintf("Improve CIBIL score from %d towards 725+ for better rates", *f.CibilScore))
	}
	if f.BusinessVintageYears != nil && *f.BusinessVintageYears < 3 {
		out = append(out, "Business vintage under 3 years limits lender options; reapply as vintage grows")
	}
	if f.BounceCount12M != nil && *f.BounceCount12M > 2 {
		out = append(out, fmt.Sprintf("Reduce cheque/NACH bounces (%d in 12 months) by maintaining balance on EMI dates", *f.BounceCount12M))
	}
	if f.GSTIN == nil {
		out = append(out, "Add GST registration to unlock GST-program lenders")
	}
	if f.CashDepositRatio != nil && *f.CashDepositRatio > 0.40 {
		out = append(out, "Route more revenue through banking channels; high cash deposits weaken banking strength")
	}
	return out
}

func matchedSignals(in Input) []string {
	f, p := in.Features, in.Product
	var signals []string
	if f.CibilScore != nil && p.MinCibilScore != nil {
		signals = append(signals, fmt.Sprintf("CIBIL %d meets minimum %d", *f.CibilScore, *p.MinCibilScore))
	}
	if f.AnnualTurnover != nil && p.MinTurnoverAnnual != nil {
		signals = append(signals, fmt.Sprintf("Turnover %.1fL meets minimum %.1fL", *f.AnnualTurnover, *p.MinTurnoverAnnual))
	}
	if f.BusinessVintageYears != nil && p.MinVintageYears != nil {
		signals = append(signals, fmt.Sprintf("Vintage %.1fy meets minimum %.1fy", *f.BusinessVintageYears, *p.MinVintageYears))
	}
	if f.Pincode != nil && in.PincodeSet != nil && in.PincodeSet[*f.Pincode] {
		signals = append(signals, fmt.Sprintf("Pincode %s is serviced", *f.Pincode))
	}
	return signals
}

func lenderTerms(p *models.LenderProduct) *LenderTerms {
	return &LenderTerms{
		MinCibilScore:     p.MinCibilScore,
		MinVintageYears:   p.MinVintageYears,
		MinTurnoverAnnual: p.MinTurnoverAnnual,
		MinABB:            p.MinABB,
		MaxTicketSize:     p.MaxTicketSize,
		TenorMinMonths:    p.TenorMinMonths,
		TenorMaxMonths:    p.TenorMaxMonths,
	}
}

// Evaluate runs all three layers for one product.
func Evaluate(in Input) *Verdict {
	if in.Now.IsZero() {
		in.Now = time.Now().UTC()
	}

	v := &Verdict{
		Product:    in.Product,
		Confidence: dataConfidence(in.Features),
	}

	reasons := HardFilters(in)
	if len(reasons) > 0 {
		v.Status = models.FilterFail
		v.Details = Details{FailureReasons: reasons}
		v.Improvements = improvements(in.Features)
		return v
	}

	score, components := WeightedScore(in)
	v.Status = models.FilterPass
	v.Score = score
	v.Probability = models.ProbabilityForScore(score)
	v.TicketMin, v.TicketMax = ticketRange(in.Features, in.Product, v.Probability)
	v.Improvements = improvements(in.Features)
	v.Details = Details{
		Components:     components,
		MatchedSignals: matchedSignals(in),
		LenderTerms:    lenderTerms(in.Product),
	}
	return v
}

// dataConfidence scales with how much of the vector backs the verdict.
func dataConfidence(f *models.BorrowerFeatures) float64 {
	return math.Round(float64(f.FilledSlots())/float64(models.TotalFeatureSlots)*100) / 100
}
