package bankstmt

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"loanintel/pkg/core/storage"
	"loanintel/pkg/core/store"
	"loanintel/pkg/models"
)

// Options bound the analyzer's resource usage.
type Options struct {
	Timeout       time.Duration
	MaxPDFBytes   int64
	MaxStatements int
}

// Result is the structured outcome of a case analysis. Timeouts and parser
// failures land here as FailureReason, never as a panic or a lost job.
type Result struct {
	Success       bool      `json:"success"`
	FailureReason string    `json:"failure_reason,omitempty"`
	Analysis      *Analysis `json:"analysis,omitempty"`
}

// Service runs statement parsing and analysis for a case and persists the
// resulting evidence fields.
type Service struct {
	remote Parser
	local  Parser
	files  storage.Storage
	fields *store.FieldRepo
	opts   Options
}

// NewService creates the analyzer service. remote may be nil, in which case
// every statement goes through the local parser.
func NewService(remote Parser, files storage.Storage, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	return &Service{
		remote: remote,
		local:  &LocalCSVParser{},
		files:  files,
		fields: store.NewFieldRepo(),
		opts:   opts,
	}
}

// AnalyzeCase parses every bank-statement document of the case, analyzes the
// merged transaction list under the wall-clock timeout, and appends the
// bank_analysis evidence fields.
func (s *Service) AnalyzeCase(ctx context.Context, caseID int64, docs []*models.Document) (*Result, error) {
	var statements []*models.Document
	for _, d := range docs {
		if d.Kind == models.KindBankStatement && d.Status != models.DocFailed {
			statements = append(statements, d)
		}
	}
	if len(statements) == 0 {
		return &Result{Success: false, FailureReason: "no bank statements in case"}, nil
	}
	statements = s.capStatements(statements)

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	txns, err := s.parseAll(ctx, statements)
	if ctx.Err() == context.DeadlineExceeded {
		return &Result{Success: false, FailureReason: "analysis timed out"}, nil
	}
	if err != nil {
		return &Result{Success: false, FailureReason: err.Error()}, nil
	}
	if len(txns) == 0 {
		return &Result{Success: false, FailureReason: "no transactions parsed"}, nil
	}

	analysis := Analyze(txns)
	if err := s.fields.AppendAll(ctx, s.evidenceFields(caseID, analysis)); err != nil {
		return nil, fmt.Errorf("failed to persist bank analysis fields: %w", err)
	}

	fmt.Printf("[bankstmt] Case %d: %d txns over %d months, confidence %.2f\n",
		caseID, analysis.TransactionCount, analysis.StatementMonths, analysis.Confidence)
	return &Result{Success: true, Analysis: analysis}, nil
}

// capStatements enforces the per-case count limit, keeping the largest files:
// a bigger statement carries more transaction history.
func (s *Service) capStatements(docs []*models.Document) []*models.Document {
	if s.opts.MaxStatements <= 0 || len(docs) <= s.opts.MaxStatements {
		return docs
	}
	sorted := make([]*models.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SizeBytes > sorted[j].SizeBytes })
	return sorted[:s.opts.MaxStatements]
}

func (s *Service) parseAll(ctx context.Context, docs []*models.Document) ([]Transaction, error) {
	var all []Transaction
	var lastErr error
	for _, d := range docs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if s.opts.MaxPDFBytes > 0 && d.SizeBytes > s.opts.MaxPDFBytes {
			fmt.Printf("[bankstmt] Skipping %s: %d bytes over limit\n", d.Filename, d.SizeBytes)
			continue
		}

		data, err := s.files.Get(d.StorageKey)
		if err != nil {
			lastErr = err
			continue
		}

		txns, err := s.parseOne(ctx, d.Filename, data)
		if err != nil {
			lastErr = err
			fmt.Printf("[bankstmt] Failed to parse %s: %v\n", d.Filename, err)
			continue
		}
		all = append(all, txns...)
	}
	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return all, nil
}

// parseOne prefers the remote parser for non-CSV statements and always falls
// back to the local parser when the remote is missing or fails. Some banks
// hand out CSV exports under a .pdf or .xlsx name, so the local attempt is
// worth making even for those.
func (s *Service) parseOne(ctx context.Context, filename string, data []byte) ([]Transaction, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return s.local.Parse(ctx, filename, data)
	}
	if s.remote != nil {
		txns, err := s.remote.Parse(ctx, filename, data)
		if err == nil {
			return txns, nil
		}
		fmt.Printf("[bankstmt] Remote parse failed for %s, trying local: %v\n", filename, err)
	}
	return s.local.Parse(ctx, filename, data)
}

func (s *Service) evidenceFields(caseID int64, a *Analysis) []*models.ExtractedField {
	mk := func(name string, value string, confidence float64) *models.ExtractedField {
		return &models.ExtractedField{
			CaseID:     caseID,
			Name:       name,
			Value:      value,
			Confidence: confidence,
			Source:     models.SourceBankAnalysis,
		}
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

	annualTurnoverLakhs := a.MonthlyCreditAvg * 12 / 100000

	return []*models.ExtractedField{
		mk("avg_monthly_balance", f(a.AvgMonthlyBalance), a.Confidence),
		mk("monthly_credit_avg", f(a.MonthlyCreditAvg), a.Confidence),
		mk("monthly_turnover", f(a.MonthlyCreditAvg), a.Confidence),
		mk("annual_turnover", f(annualTurnoverLakhs), a.Confidence),
		mk("emi_outflow_monthly", f(a.EMIOutflowMonthly), a.Confidence),
		mk("bounce_count_12m", strconv.Itoa(a.BounceCount), a.Confidence),
		mk("cash_deposit_ratio", strconv.FormatFloat(a.CashDepositRatio, 'f', 4, 64), a.Confidence),
		mk("bank_statement_months", strconv.Itoa(a.StatementMonths), a.Confidence),
		mk("bank_transaction_count", strconv.Itoa(a.TransactionCount), a.Confidence),
		mk("bank_peak_balance", f(a.PeakBalance), a.Confidence),
		mk("bank_min_balance", f(a.MinBalance), a.Confidence),
		mk("bank_total_credits", f(a.TotalCredits), a.Confidence),
		mk("bank_total_debits", f(a.TotalDebits), a.Confidence),
	}
}
