package eligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"loanintel/pkg/core/store"
	"loanintel/pkg/models"
)

// Service orchestrates scoring a case against every active lender product and
// persists the outcome with replace-and-insert semantics.
type Service struct {
	cases   *store.CaseRepo
	feats   *store.FeatureRepo
	docs    *store.DocumentRepo
	lenders *store.LenderRepo
	results *store.EligibilityRepo
}

// NewService creates the eligibility service.
func NewService() *Service {
	return &Service{
		cases:   store.NewCaseRepo(),
		feats:   store.NewFeatureRepo(),
		docs:    store.NewDocumentRepo(),
		lenders: store.NewLenderRepo(),
		results: store.NewEligibilityRepo(),
	}
}

// ResultView joins one persisted result with its lender and product names.
type ResultView struct {
	*models.EligibilityResult
	LenderName  string `json:"lender_name"`
	ProductName string `json:"product_name"`
	ProgramType models.ProgramType `json:"program_type"`
}

// Summary is the full scoring outcome for one case.
type Summary struct {
	CaseID          int64              `json:"case_id"`
	ScoredAt        time.Time          `json:"scored_at"`
	PassedCount     int                `json:"passed_count"`
	Results         []*ResultView      `json:"results"`
	Rejections      *RejectionAnalysis `json:"rejection_analysis,omitempty"`
	Recommendations []Recommendation   `json:"recommendations,omitempty"`
}

// ScoreCase evaluates the case feature vector against every scoreable product
// and replaces the case's eligibility rows with the new verdicts.
func (s *Service) ScoreCase(ctx context.Context, c *models.Case) (*Summary, error) {
	feats, err := s.feats.Get(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("features not assembled for case %s: %w", c.CaseID, err)
	}

	products, err := s.lenders.ActiveProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no active lender products in the knowledge base")
	}

	docsPresent, err := s.presentDocKinds(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pincodeSets := map[int64]map[string]bool{}
	verdicts := make([]*Verdict, 0, len(products))
	for _, p := range products {
		set, ok := pincodeSets[p.LenderID]
		if !ok {
			set, err = s.lenders.PincodeSet(ctx, p.LenderID)
			if err != nil {
				return nil, err
			}
			if len(set) == 0 {
				set = nil // no pincode table means no geographic filter
			}
			pincodeSets[p.LenderID] = set
		}

		verdicts = append(verdicts, Evaluate(Input{
			Features:    feats,
			Product:     p,
			PincodeSet:  set,
			DocsPresent: docsPresent,
			Now:         now,
		}))
	}

	rankPassing(verdicts)

	rows := make([]*models.EligibilityResult, 0, len(verdicts))
	for _, v := range verdicts {
		row, err := toRow(c.ID, v)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := s.results.ReplaceForCase(ctx, c.ID, rows); err != nil {
		return nil, err
	}
	if err := s.cases.UpdateStatus(ctx, c.ID, models.CaseEligibilityScored); err != nil {
		return nil, err
	}

	summary, err := s.summarize(ctx, c.ID, now, verdicts, rows, products)
	if err != nil {
		return nil, err
	}
	fmt.Printf("[eligibility] Case %s: %d/%d products passed\n",
		c.CaseID, summary.PassedCount, len(products))
	return summary, nil
}

// Results loads the persisted verdicts and recomputes the rejection narrative
// and recommendations from the stored details.
func (s *Service) Results(ctx context.Context, caseID int64) (*Summary, error) {
	rows, err := s.results.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}

	products, err := s.lenders.ActiveProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	names, err := s.lenderNames(ctx)
	if err != nil {
		return nil, err
	}
	byID := map[int64]*models.LenderProduct{}
	for _, p := range products {
		byID[p.ID] = p
	}

	summary := &Summary{CaseID: caseID}
	verdicts := make([]*Verdict, 0, len(rows))
	for _, row := range rows {
		if !row.CreatedAt.IsZero() && row.CreatedAt.After(summary.ScoredAt) {
			summary.ScoredAt = row.CreatedAt
		}
		view := &ResultView{EligibilityResult: row}
		if p := byID[row.LenderProductID]; p != nil {
			view.ProductName = p.Name
			view.ProgramType = p.ProgramType
			view.LenderName = names[p.LenderID]
		}
		summary.Results = append(summary.Results, view)
		if row.Status == models.FilterPass {
			summary.PassedCount++
		}

		v := &Verdict{Status: row.Status}
		if len(row.DetailsJSON) > 0 {
			if err := json.Unmarshal(row.DetailsJSON, &v.Details); err != nil {
				return nil, fmt.Errorf("corrupt details for result %d: %w", row.ID, err)
			}
		}
		verdicts = append(verdicts, v)
	}

	summary.Rejections = AnalyzeRejections(verdicts)
	summary.Recommendations = BuildRecommendations(verdicts)
	return summary, nil
}

// rankPassing orders passing verdicts by score descending and assigns ranks
// starting at 1. Failing verdicts stay unranked.
func rankPassing(verdicts []*Verdict) {
	passing := make([]*Verdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Status == models.FilterPass {
			passing = append(passing, v)
		}
	}
	sort.SliceStable(passing, func(i, j int) bool { return passing[i].Score > passing[j].Score })
	for i, v := range passing {
		rank := i + 1
		v.rank = &rank
	}
}

func toRow(caseID int64, v *Verdict) (*models.EligibilityResult, error) {
	details, err := json.Marshal(v.Details)
	if err != nil {
		return nil, err
	}

	row := &models.EligibilityResult{
		CaseID:          caseID,
		LenderProductID: v.Product.ID,
		Status:          v.Status,
		Confidence:      v.Confidence,
		Improvements:    v.Improvements,
		DetailsJSON:     details,
	}
	if v.Status == models.FilterPass {
		score := v.Score
		prob := v.Probability
		row.Score = &score
		row.Probability = &prob
		row.ExpectedTicketMin = v.TicketMin
		row.ExpectedTicketMax = v.TicketMax
		row.Rank = v.rank
	}
	return row, nil
}

func (s *Service) summarize(ctx context.Context, caseID int64, at time.Time, verdicts []*Verdict,
	rows []*models.EligibilityResult, products []*models.LenderProduct) (*Summary, error) {

	names, err := s.lenderNames(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{CaseID: caseID, ScoredAt: at}
	for i, row := range rows {
		view := &ResultView{
			EligibilityResult: row,
			ProductName:       products[i].Name,
			ProgramType:       products[i].ProgramType,
			LenderName:        names[products[i].LenderID],
		}
		summary.Results = append(summary.Results, view)
		if row.Status == models.FilterPass {
			summary.PassedCount++
		}
	}
	summary.Rejections = AnalyzeRejections(verdicts)
	summary.Recommendations = BuildRecommendations(verdicts)
	return summary, nil
}

func (s *Service) presentDocKinds(ctx context.Context, caseID int64) (map[models.DocumentKind]bool, error) {
	docs, err := s.docs.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	present := map[models.DocumentKind]bool{}
	for _, d := range docs {
		if d.Status == models.DocFailed || d.Kind == models.KindUnknown {
			continue
		}
		present[d.Kind] = true
	}
	return present, nil
}

func (s *Service) lenderNames(ctx context.Context) (map[int64]string, error) {
	names := map[int64]string{}
	lenders, err := s.lenders.ListLenders(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range lenders {
		names[l.Lender.ID] = l.Lender.Name
	}
	return names, nil
}
