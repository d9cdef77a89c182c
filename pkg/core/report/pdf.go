package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"loanintel/pkg/models"
)

// probability band colors for the lender match table
var bandFill = map[models.ApprovalProbability][3]int{
	models.ProbabilityHigh:   {198, 239, 206},
	models.ProbabilityMedium: {255, 235, 156},
	models.ProbabilityLow:    {255, 199, 206},
}

// RenderPDF renders the report as a PDF document.
func RenderPDF(data *CaseReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)

	renderCover(pdf, data)
	renderProfile(pdf, data)
	renderChecklist(pdf, data)
	renderStrengthsRisks(pdf, data)
	renderMatchTable(pdf, data)
	renderRecommendations(pdf, data)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func renderCover(pdf *gofpdf.Fpdf, data *CaseReportData) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 24)
	pdf.Ln(60)
	pdf.CellFormat(0, 12, "Loan Application Intelligence Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.Ln(8)
	name := data.BorrowerProfile.BorrowerName
	if name == "" {
		name = "(borrower name pending)"
	}
	pdf.CellFormat(0, 10, name, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, data.CaseID, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "I", 10)
	pdf.Ln(4)
	pdf.CellFormat(0, 6, "Generated "+data.GeneratedAt.Format("02 Jan 2006 15:04 MST"), "", 1, "C", false, 0, "")
}

func sectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 9, title, "", 1, "L", true, 0, "")
	pdf.Ln(2)
}

func profileRow(pdf *gofpdf.Fpdf, label, value string) {
	if value == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func renderProfile(pdf *gofpdf.Fpdf, data *CaseReportData) {
	pdf.AddPage()
	sectionHeader(pdf, "Borrower Profile")

	p := data.BorrowerProfile
	profileRow(pdf, "Borrower", p.BorrowerName)
	profileRow(pdf, "Entity type", p.EntityType)
	profileRow(pdf, "Industry", p.IndustryType)
	profileRow(pdf, "Pincode", p.Pincode)
	profileRow(pdf, "GSTIN", p.GSTIN)
	profileRow(pdf, "PAN", p.PANNumber)
	if p.BusinessVintageYears != nil {
		profileRow(pdf, "Business vintage", fmt.Sprintf("%.1f years", *p.BusinessVintageYears))
	}
	if p.AnnualTurnover != nil {
		profileRow(pdf, "Annual turnover", fmt.Sprintf("%.1f Lakhs", *p.AnnualTurnover))
	}
	if p.CibilScore != nil {
		profileRow(pdf, "CIBIL score", fmt.Sprintf("%d", *p.CibilScore))
	}
	profileRow(pdf, "Data completeness", fmt.Sprintf("%.1f%%", p.FeatureCompleteness))
}

func renderChecklist(pdf *gofpdf.Fpdf, data *CaseReportData) {
	pdf.Ln(6)
	sectionHeader(pdf, "Document Status")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range data.Checklist {
		status := "MISSING"
		if item.Present {
			status = "Received"
			if item.ViaOverride {
				status = "Covered by manual input"
			}
		}
		label := strings.ReplaceAll(string(item.Kind), "_", " ")
		pdf.CellFormat(80, 7, label, "B", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, status, "B", 1, "L", false, 0, "")
	}
}

func renderStrengthsRisks(pdf *gofpdf.Fpdf, data *CaseReportData) {
	pdf.Ln(6)
	sectionHeader(pdf, "Strengths")
	pdf.SetFont("Helvetica", "", 10)
	if len(data.Strengths) == 0 {
		pdf.CellFormat(0, 7, "None detected", "", 1, "L", false, 0, "")
	}
	for _, s := range data.Strengths {
		pdf.MultiCell(0, 6, "+ "+s, "", "L", false)
	}

	pdf.Ln(4)
	sectionHeader(pdf, "Risk Flags")
	pdf.SetFont("Helvetica", "", 10)
	if len(data.RiskFlags) == 0 {
		pdf.CellFormat(0, 7, "None detected", "", 1, "L", false, 0, "")
	}
	for _, r := range data.RiskFlags {
		pdf.MultiCell(0, 6, "- "+r, "", "L", false)
	}
}

func renderMatchTable(pdf *gofpdf.Fpdf, data *CaseReportData) {
	pdf.AddPage()
	sectionHeader(pdf, "Lender Matches")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(64, 64, 64)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(45, 8, "Lender", "1", 0, "L", true, 0, "")
	pdf.CellFormat(45, 8, "Product", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Score", "1", 0, "C", true, 0, "")
	pdf.CellFormat(28, 8, "Probability", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 8, "Expected Ticket", "1", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 9)
	for _, m := range data.LenderMatches {
		fill := false
		if m.Status == models.FilterPass && m.Probability != nil {
			if rgb, ok := bandFill[*m.Probability]; ok {
				pdf.SetFillColor(rgb[0], rgb[1], rgb[2])
				fill = true
			}
		}

		score, prob, ticket := "-", "filtered out", "-"
		if m.Score != nil {
			score = fmt.Sprintf("%.0f", *m.Score)
		}
		if m.Probability != nil {
			prob = string(*m.Probability)
		}
		if m.TicketMin != nil && m.TicketMax != nil {
			ticket = fmt.Sprintf("%.1fL - %.1fL", *m.TicketMin, *m.TicketMax)
		}

		pdf.CellFormat(45, 7, m.LenderName, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(45, 7, m.ProductName, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(20, 7, score, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(28, 7, prob, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(0, 7, ticket, "1", 1, "C", fill, 0, "")
	}
}

func renderRecommendations(pdf *gofpdf.Fpdf, data *CaseReportData) {
	pdf.Ln(6)
	sectionHeader(pdf, "Submission Strategy")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, data.SubmissionStrategy, "", "L", false)

	if len(data.Recommendations) > 0 {
		pdf.Ln(4)
		sectionHeader(pdf, "Recommendations")
		pdf.SetFont("Helvetica", "", 10)
		for _, rec := range data.Recommendations {
			line := rec.Issue
			if rec.Action != "" {
				line += ": " + rec.Action
			}
			if rec.LendersAffected > 0 {
				line += fmt.Sprintf(" (unlocks %d products)", rec.LendersAffected)
			}
			pdf.MultiCell(0, 6, "- "+line, "", "L", false)
		}
	}

	if len(data.MissingDataAdvisory) > 0 {
		pdf.Ln(4)
		sectionHeader(pdf, "Missing Data")
		pdf.SetFont("Helvetica", "", 10)
		for _, m := range data.MissingDataAdvisory {
			pdf.MultiCell(0, 6, "- "+m, "", "L", false)
		}
	}
}
