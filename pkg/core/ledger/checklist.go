// Package ledger is the case lifecycle service: creation, scoped reads,
// partial updates, hard delete, and the document checklist that drives the
// case completeness score.
package ledger

import (
	"math"

	"loanintel/pkg/models"
)

// requiredDocs maps a program type to the documents a submittable case needs.
// Hybrid requires the union of the banking and income sets.
var requiredDocs = map[models.ProgramType][]models.DocumentKind{
	models.ProgramBanking: {
		models.KindBankStatement,
		models.KindPANPersonal,
		models.KindAadhaar,
		models.KindGSTCertificate,
		models.KindCIBILReport,
	},
	models.ProgramIncome: {
		models.KindITR,
		models.KindFinancials,
		models.KindPANPersonal,
		models.KindAadhaar,
		models.KindGSTCertificate,
		models.KindCIBILReport,
	},
	models.ProgramHybrid: {
		models.KindBankStatement,
		models.KindITR,
		models.KindFinancials,
		models.KindPANPersonal,
		models.KindAadhaar,
		models.KindGSTCertificate,
		models.KindCIBILReport,
	},
}

// RequiredDocuments returns the required-document set for a program type.
// Unknown program types fall back to the hybrid set.
func RequiredDocuments(program models.ProgramType) []models.DocumentKind {
	if docs, ok := requiredDocs[program]; ok {
		return docs
	}
	return requiredDocs[models.ProgramHybrid]
}

// ChecklistItem is one required-document slot and whether it is covered.
type ChecklistItem struct {
	Kind        models.DocumentKind `json:"kind"`
	Present     bool                `json:"present"`
	ViaOverride bool                `json:"via_override"`
}

// overrideCovers maps a manual override on the case to the document slot it
// substitutes for.
func overrideCovers(c *models.Case) map[models.DocumentKind]bool {
	covered := map[models.DocumentKind]bool{}
	if c.ManualCibilScore != nil {
		covered[models.KindCIBILReport] = true
	}
	if c.ManualMonthlyTurnover != nil {
		covered[models.KindBankStatement] = true
	}
	// Business vintage is normally derived from the GST registration date.
	if c.ManualVintageYears != nil {
		covered[models.KindGSTCertificate] = true
	}
	return covered
}

// BuildChecklist evaluates the required-document set against the uploaded
// documents and the case's manual overrides. A business PAN satisfies the
// personal-PAN slot.
func BuildChecklist(c *models.Case, docs []*models.Document) []ChecklistItem {
	present := map[models.DocumentKind]bool{}
	for _, d := range docs {
		if d.Status == models.DocFailed {
			continue
		}
		present[d.Kind] = true
	}
	if present[models.KindPANBusiness] {
		present[models.KindPANPersonal] = true
	}
	overrides := overrideCovers(c)

	items := make([]ChecklistItem, 0, len(RequiredDocuments(c.ProgramType)))
	for _, kind := range RequiredDocuments(c.ProgramType) {
		item := ChecklistItem{Kind: kind, Present: present[kind]}
		if !item.Present && overrides[kind] {
			item.Present = true
			item.ViaOverride = true
		}
		items = append(items, item)
	}
	return items
}

// CompletenessScore is covered/required * 100, rounded to two decimals.
func CompletenessScore(items []ChecklistItem) float64 {
	if len(items) == 0 {
		return 0
	}
	covered := 0
	for _, item := range items {
		if item.Present {
			covered++
		}
	}
	pct := float64(covered) / float64(len(items)) * 100
	return math.Round(pct*100) / 100
}

// MissingDocuments lists the uncovered required kinds, for the report
// assembler's missing-data advisory.
func MissingDocuments(items []ChecklistItem) []models.DocumentKind {
	var missing []models.DocumentKind
	for _, item := range items {
		if !item.Present {
			missing = append(missing, item.Kind)
		}
	}
	return missing
}
