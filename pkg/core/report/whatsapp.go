package report

import (
	"fmt"
	"strings"

	"loanintel/pkg/models"
)

// WhatsAppSummary renders the report as a plaintext message. No markdown
// tables, asterisk-bold only, short lines.
func WhatsAppSummary(data *CaseReportData) string {
	var b strings.Builder

	name := data.BorrowerProfile.BorrowerName
	if name == "" {
		name = data.CaseID
	}
	fmt.Fprintf(&b, "*Loan Report: %s*\n", name)
	fmt.Fprintf(&b, "Case %s\n\n", data.CaseID)

	passed := 0
	for _, m := range data.LenderMatches {
		if m.Status == models.FilterPass {
			passed++
		}
	}
	fmt.Fprintf(&b, "Eligible with %d of %d lender products\n", passed, len(data.LenderMatches))
	if data.ExpectedLoanRange != nil {
		fmt.Fprintf(&b, "Expected loan: %.1fL - %.1fL\n", data.ExpectedLoanRange.MinLakhs, data.ExpectedLoanRange.MaxLakhs)
	}

	top := topMatches(data.LenderMatches, 3)
	if len(top) > 0 {
		b.WriteString("\n*Top matches:*\n")
		for _, m := range top {
			line := fmt.Sprintf("%d. %s %s", deref(m.Rank), m.LenderName, m.ProductName)
			if m.Probability != nil {
				line += fmt.Sprintf(" (%s)", *m.Probability)
			}
			b.WriteString(line + "\n")
		}
	}

	if len(data.Strengths) > 0 {
		b.WriteString("\n*Strengths:*\n")
		for _, s := range firstN(data.Strengths, 3) {
			b.WriteString("+ " + s + "\n")
		}
	}
	if len(data.RiskFlags) > 0 {
		b.WriteString("\n*Watch-outs:*\n")
		for _, r := range firstN(data.RiskFlags, 3) {
			b.WriteString("- " + r + "\n")
		}
	}
	if len(data.MissingDataAdvisory) > 0 {
		b.WriteString("\n*Still needed:*\n")
		for _, m := range data.MissingDataAdvisory {
			b.WriteString("- " + m + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func topMatches(matches []LenderMatch, n int) []LenderMatch {
	var out []LenderMatch
	for _, m := range matches {
		if m.Status == models.FilterPass && m.Rank != nil && *m.Rank <= n {
			out = append(out, m)
		}
	}
	return out
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// ParseCommand splits a WhatsApp text into a command verb and a case id.
// Supported: "report CASE-YYYYMMDD-NNNN", "status CASE-YYYYMMDD-NNNN".
// Returns ok=false for anything else.
func ParseCommand(text string) (verb, caseID string, ok bool) {
	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) != 2 {
		return "", "", false
	}
	verb = strings.ToLower(parts[0])
	caseID = strings.ToUpper(parts[1])
	if verb != "report" && verb != "status" {
		return "", "", false
	}
	if !models.CaseIDPattern.MatchString(caseID) {
		return "", "", false
	}
	return verb, caseID, true
}

// HelpText is returned for unrecognized commands.
const HelpText = "Commands:\n" +
	"report CASE-YYYYMMDD-NNNN - latest case report summary\n" +
	"status CASE-YYYYMMDD-NNNN - processing status"
