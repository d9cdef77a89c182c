package report

import (
	"context"
	"fmt"
	"strings"

	"loanintel/pkg/core/llm"
	"loanintel/pkg/models"
)

const strategySystemPrompt = `You are a loan advisor at an Indian lending marketplace.
Given a borrower profile and ranked lender matches, write a concise submission
strategy for the broker: where to apply first, realistic ticket expectations,
and the operational requirements to prepare for. Reply in markdown, under 250
words. Do not invent lenders or numbers not present in the input.`

// strategyInputs is the distilled context handed to the LLM and to the
// deterministic fallback alike.
type strategyInputs struct {
	Top        *LenderMatch
	Alternates []LenderMatch // up to five, rank order
	Passed     int
}

func buildStrategyInputs(matches []LenderMatch) strategyInputs {
	in := strategyInputs{}
	for i := range matches {
		m := matches[i]
		if m.Status != models.FilterPass {
			continue
		}
		in.Passed++
		if in.Top == nil {
			in.Top = &m
			continue
		}
		if len(in.Alternates) < 5 {
			in.Alternates = append(in.Alternates, m)
		}
	}
	return in
}

func describeMatch(m LenderMatch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s / %s (%s program", m.LenderName, m.ProductName, m.ProgramType)
	if m.Score != nil {
		fmt.Fprintf(&b, ", score %.0f", *m.Score)
	}
	if m.Probability != nil {
		fmt.Fprintf(&b, ", %s probability", *m.Probability)
	}
	b.WriteString(")")
	if m.TicketMax != nil {
		fmt.Fprintf(&b, ", expected ticket up to %.1fL", *m.TicketMax)
	}
	if len(m.SpecialRequirements) > 0 {
		fmt.Fprintf(&b, "; requires %s", strings.Join(m.SpecialRequirements, ", "))
	}
	return b.String()
}

func strategyPrompt(profile BorrowerProfile, in strategyInputs) string {
	var b strings.Builder
	b.WriteString("Borrower profile:\n")
	if profile.BorrowerName != "" {
		fmt.Fprintf(&b, "- Name: %s\n", profile.BorrowerName)
	}
	if profile.EntityType != "" {
		fmt.Fprintf(&b, "- Entity: %s\n", profile.EntityType)
	}
	if profile.BusinessVintageYears != nil {
		fmt.Fprintf(&b, "- Vintage: %.1f years\n", *profile.BusinessVintageYears)
	}
	if profile.AnnualTurnover != nil {
		fmt.Fprintf(&b, "- Annual turnover: %.1f Lakhs\n", *profile.AnnualTurnover)
	}
	if profile.CibilScore != nil {
		fmt.Fprintf(&b, "- CIBIL: %d\n", *profile.CibilScore)
	}

	b.WriteString("\nRecommended lender:\n")
	if in.Top != nil {
		fmt.Fprintf(&b, "- %s\n", describeMatch(*in.Top))
	} else {
		b.WriteString("- none passed hard filters\n")
	}
	if len(in.Alternates) > 0 {
		b.WriteString("\nAlternates:\n")
		for _, m := range in.Alternates {
			fmt.Fprintf(&b, "- %s\n", describeMatch(m))
		}
	}
	return b.String()
}

// fallbackStrategy is the deterministic template used whenever the LLM is
// unreachable, unconfigured or slow.
func fallbackStrategy(in strategyInputs) string {
	var b strings.Builder
	if in.Top == nil {
		b.WriteString("## Submission Strategy\n\n")
		b.WriteString("- No lender products passed hard filters for this profile.\n")
		b.WriteString("- Address the flagged risks and recommendations, then re-run eligibility.\n")
		return b.String()
	}

	b.WriteString("## Submission Strategy\n\n")
	fmt.Fprintf(&b, "- Apply first with %s.\n", describeMatch(*in.Top))
	for _, m := range in.Alternates {
		fmt.Fprintf(&b, "- Backup option: %s.\n", describeMatch(m))
	}
	fmt.Fprintf(&b, "- %d products passed in total; submit to at most 2-3 lenders in parallel to limit bureau enquiries.\n", in.Passed)
	return b.String()
}

// BuildStrategy produces the submission strategy. The LLM path runs with the
// provider's own short timeout and zero retries; any failure falls back to the
// deterministic template.
func BuildStrategy(ctx context.Context, provider llm.Provider, profile BorrowerProfile, matches []LenderMatch) (text, source string) {
	in := buildStrategyInputs(matches)
	if provider == nil {
		return fallbackStrategy(in), "fallback"
	}

	reply, err := provider.GenerateResponse(ctx, strategyPrompt(profile, in),
		strategySystemPrompt, map[string]interface{}{"max_tokens": 600})
	if err != nil {
		fmt.Printf("[report] LLM strategy failed, using fallback: %v\n", err)
		return fallbackStrategy(in), "fallback"
	}

	cleaned := CleanNarrative(reply)
	if !ValidNarrative(cleaned) {
		return fallbackStrategy(in), "fallback"
	}
	return cleaned, "llm"
}
