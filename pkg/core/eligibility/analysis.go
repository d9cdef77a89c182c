package eligibility

import (
	"fmt"
	"sort"
	"strconv"
)

// RejectionAnalysis aggregates hard-filter failures across all evaluated
// products into a human-readable narrative. It is recomputed from the
// persisted details on every load, never cached.
type RejectionAnalysis struct {
	TotalProducts int      `json:"total_products"`
	FailedCount   int      `json:"failed_count"`
	Narrative     []string `json:"narrative"`
}

// Recommendation is one actionable fix derived from the failure pattern.
// Priority ranks the fixes, 1 being the most impactful.
type Recommendation struct {
	Priority        int    `json:"priority"`
	Issue           string `json:"issue"`
	Current         string `json:"current,omitempty"`
	Target          string `json:"target,omitempty"`
	Impact          string `json:"impact"`
	Action          string `json:"action"`
	LendersAffected int    `json:"lenders_affected"`
}

type failureGroup struct {
	key     string
	count   int
	sample  FailureReason
	targets []string
}

// recommendationActions are the canned fixes per failure dimension.
var recommendationActions = map[string]string{
	"cibil":       "Clear overdue amounts and reduce credit utilization, then re-pull the CIBIL report",
	"vintage":     "Wait for business vintage to cross the threshold or apply under a co-applicant with longer vintage",
	"turnover":    "Route all business revenue through the current account to lift reported turnover",
	"pincode":     "Apply with lenders servicing this pincode or provide an alternate business address",
	"entity_type": "Consider lenders whose policy covers this entity type",
	"age":         "Add a co-applicant within the lender age band",
	"abb":         "Maintain a higher average bank balance across the statement period",
}

var recommendationIssues = map[string]string{
	"cibil":       "CIBIL Score Too Low",
	"vintage":     "Business Vintage Too Low",
	"turnover":    "Turnover Below Requirement",
	"pincode":     "Location Not Serviceable",
	"entity_type": "Entity Type Not Covered",
	"age":         "Age Outside Lender Band",
	"abb":         "Average Balance Too Low",
}

func groupFailures(verdicts []*Verdict) []failureGroup {
	byKey := map[string]*failureGroup{}
	var order []string
	for _, v := range verdicts {
		seen := map[string]bool{}
		for _, reason := range v.Details.FailureReasons {
			if seen[reason.Key] {
				continue
			}
			seen[reason.Key] = true
			g, ok := byKey[reason.Key]
			if !ok {
				g = &failureGroup{key: reason.Key, sample: reason}
				byKey[reason.Key] = g
				order = append(order, reason.Key)
			}
			g.count++
			if reason.Target != "" {
				g.targets = append(g.targets, reason.Target)
			}
		}
	}

	groups := make([]failureGroup, 0, len(byKey))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].count > groups[j].count })
	return groups
}

// AnalyzeRejections builds the narrative from the evaluated verdicts. Returns
// nil when nothing failed.
func AnalyzeRejections(verdicts []*Verdict) *RejectionAnalysis {
	failed := 0
	for _, v := range verdicts {
		if len(v.Details.FailureReasons) > 0 {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}

	analysis := &RejectionAnalysis{
		TotalProducts: len(verdicts),
		FailedCount:   failed,
	}
	for _, g := range groupFailures(verdicts) {
		scope := fmt.Sprintf("%d of %d lenders", g.count, len(verdicts))
		if g.count == len(verdicts) {
			scope = "All lenders"
		}
		analysis.Narrative = append(analysis.Narrative,
			fmt.Sprintf("%s (%s)", g.sample.Message, scope))
	}
	return analysis
}

// easiestTarget picks the most lenient threshold among the failing lenders,
// the smallest step that unlocks at least one product.
func easiestTarget(targets []string) string {
	best := ""
	bestVal := 0.0
	for _, t := range targets {
		v, err := strconv.ParseFloat(t, 64)
		if err != nil {
			if best == "" {
				best = t
			}
			continue
		}
		if best == "" || v < bestVal {
			best, bestVal = t, v
		}
	}
	return best
}

// BuildRecommendations turns the failure pattern into ranked fixes, most
// impactful first.
func BuildRecommendations(verdicts []*Verdict) []Recommendation {
	var out []Recommendation
	for i, g := range groupFailures(verdicts) {
		rec := Recommendation{
			Priority:        i + 1,
			Issue:           recommendationIssues[g.key],
			Current:         g.sample.Current,
			Target:          easiestTarget(g.targets),
			Impact:          fmt.Sprintf("unlocks up to %d lender products", g.count),
			Action:          recommendationActions[g.key],
			LendersAffected: g.count,
		}
		if rec.Issue == "" {
			rec.Issue = g.sample.Message
		}
		out = append(out, rec)
	}
	return out
}
