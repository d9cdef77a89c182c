package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"loanintel/pkg/core/eligibility"
	"loanintel/pkg/core/ledger"
	"loanintel/pkg/core/llm"
	"loanintel/pkg/core/storage"
	"loanintel/pkg/core/store"
	"loanintel/pkg/models"
)

// Service assembles, persists and serves case reports.
type Service struct {
	cases    *store.CaseRepo
	docs     *store.DocumentRepo
	feats    *store.FeatureRepo
	lenders  *store.LenderRepo
	reports  *store.ReportRepo
	files    storage.Storage
	elig     *eligibility.Service
	provider llm.Provider
}

// NewService creates the report service. provider may be nil: every LLM use
// has a deterministic fallback.
func NewService(files storage.Storage, elig *eligibility.Service, provider llm.Provider) *Service {
	return &Service{
		cases:    store.NewCaseRepo(),
		docs:     store.NewDocumentRepo(),
		feats:    store.NewFeatureRepo(),
		lenders:  store.NewLenderRepo(),
		reports:  store.NewReportRepo(),
		files:    files,
		elig:     elig,
		provider: provider,
	}
}

// Generate builds a fresh report version for a scored case.
func (s *Service) Generate(ctx context.Context, c *models.Case) (*CaseReportData, *models.CaseReport, error) {
	feats, err := s.feats.Get(ctx, c.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("features not assembled for case %s: %w", c.CaseID, err)
	}
	summary, err := s.elig.Results(ctx, c.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("eligibility not scored for case %s: %w", c.CaseID, err)
	}

	docs, err := s.docs.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	checklist := ledger.BuildChecklist(c, docs)
	missingDocs := ledger.MissingDocuments(checklist)

	matches, err := s.buildMatches(ctx, summary)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	data := &CaseReportData{
		CaseID:          c.CaseID,
		GeneratedAt:     now,
		BorrowerProfile: buildProfile(feats),
		Checklist:       checklist,
		Strengths:       DetectStrengths(feats, matches),
		RiskFlags:       DetectRisks(feats, missingDocs, summary.PassedCount, now),
		LenderMatches:   matches,
		Recommendations: summary.Recommendations,
	}
	data.ExpectedLoanRange = expectedLoanRange(matches)
	data.MissingDataAdvisory = missingAdvisory(feats, missingDocs)
	data.SubmissionStrategy, data.StrategySource = BuildStrategy(ctx, s.provider, data.BorrowerProfile, matches)

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize report: %w", err)
	}

	pdfBytes, err := RenderPDF(data)
	if err != nil {
		return nil, nil, err
	}
	pdfKey := fmt.Sprintf("%s/report-%s.pdf", c.CaseID, now.Format("20060102150405"))
	if err := s.files.Put(pdfKey, pdfBytes); err != nil {
		return nil, nil, fmt.Errorf("failed to store report PDF: %w", err)
	}

	rep, err := s.reports.Insert(ctx, c.ID, raw, pdfKey)
	if err != nil {
		return nil, nil, err
	}
	if err := s.cases.UpdateStatus(ctx, c.ID, models.CaseReportGenerated); err != nil {
		return nil, nil, err
	}

	fmt.Printf("[report] Case %s: report v%d generated (%s strategy, %d matches)\n",
		c.CaseID, rep.Version, data.StrategySource, len(matches))
	return data, rep, nil
}

// Latest returns the newest persisted report for a case.
func (s *Service) Latest(ctx context.Context, caseID int64) (*CaseReportData, *models.CaseReport, error) {
	rep, err := s.reports.Latest(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}
	var data CaseReportData
	if err := json.Unmarshal(rep.DataJSON, &data); err != nil {
		return nil, nil, fmt.Errorf("corrupt report %d: %w", rep.ID, err)
	}
	return &data, rep, nil
}

// PDF returns the rendered bytes for a persisted report.
func (s *Service) PDF(ctx context.Context, caseID int64) ([]byte, error) {
	rep, err := s.reports.Latest(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return s.files.Get(rep.PDFKey)
}

// Dispatch handles a WhatsApp-style text command and returns the reply text.
func (s *Service) Dispatch(ctx context.Context, text string) string {
	verb, caseID, ok := ParseCommand(text)
	if !ok {
		return HelpText
	}

	c, err := s.cases.Get(ctx, caseID, "")
	if err != nil {
		return fmt.Sprintf("Case %s not found", caseID)
	}

	switch verb {
	case "status":
		return s.statusReply(ctx, c)
	case "report":
		data, _, err := s.Latest(ctx, c.ID)
		if err != nil {
			return fmt.Sprintf("No report generated yet for %s (status: %s)", c.CaseID, c.Status)
		}
		return WhatsAppSummary(data)
	}
	return HelpText
}

func (s *Service) statusReply(ctx context.Context, c *models.Case) string {
	counts, err := s.docs.CountByStatus(ctx, c.ID)
	if err != nil {
		return fmt.Sprintf("Case %s: %s", c.CaseID, c.Status)
	}
	total, failed := 0, counts[models.DocFailed]
	for _, n := range counts {
		total += n
	}
	reply := fmt.Sprintf("Case %s\nStatus: %s\nDocuments: %d (%d failed)\nCompleteness: %.0f%%",
		c.CaseID, c.Status, total, failed, c.CompletenessScore)
	return reply
}

// buildMatches joins persisted eligibility rows with product policy details.
func (s *Service) buildMatches(ctx context.Context, summary *eligibility.Summary) ([]LenderMatch, error) {
	products, err := s.lenders.ActiveProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	byID := map[int64]*models.LenderProduct{}
	for _, p := range products {
		byID[p.ID] = p
	}

	matches := make([]LenderMatch, 0, len(summary.Results))
	for _, r := range summary.Results {
		m := LenderMatch{
			LenderName:  r.LenderName,
			ProductName: r.ProductName,
			ProgramType: r.ProgramType,
			Status:      r.Status,
			Score:       r.Score,
			Probability: r.Probability,
			TicketMin:   r.ExpectedTicketMin,
			TicketMax:   r.ExpectedTicketMax,
			Rank:        r.Rank,
		}
		if p := byID[r.LenderProductID]; p != nil {
			m.SpecialRequirements = specialRequirements(p)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func specialRequirements(p *models.LenderProduct) []string {
	var out []string
	if p.GSTRequired {
		out = append(out, "GST mandatory")
	}
	if p.VideoKYCRequired {
		out = append(out, "video KYC")
	}
	if p.FieldInvestigation {
		out = append(out, "field investigation")
	}
	if p.TelephonicRequired {
		out = append(out, "telephonic verification")
	}
	return out
}

func missingAdvisory(f *models.BorrowerFeatures, missingDocs []models.DocumentKind) []string {
	var out []string
	for _, kind := range missingDocs {
		out = append(out, "Upload "+strings.ReplaceAll(string(kind), "_", " "))
	}
	if f.CibilScore == nil {
		out = append(out, "Provide CIBIL score or upload the CIBIL report")
	}
	if f.GSTIN == nil {
		out = append(out, "Provide GSTIN for automatic business profile fill")
	}
	return out
}
