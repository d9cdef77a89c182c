package features

import (
	"context"
	"fmt"

	"loanintel/pkg/core/store"
	"loanintel/pkg/models"
)

// ErrJobsPending is returned when feature assembly is requested while
// document jobs are still queued or processing. The API maps it to 409.
var ErrJobsPending = fmt.Errorf("document processing still in progress")

// Service assembles and persists the borrower feature vector.
type Service struct {
	cases     *store.CaseRepo
	fields    *store.FieldRepo
	feats     *store.FeatureRepo
	jobs      *store.JobRepo
	threshold float64
}

// NewService creates the assembler service.
func NewService(threshold float64) *Service {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Service{
		cases:     store.NewCaseRepo(),
		fields:    store.NewFieldRepo(),
		feats:     store.NewFeatureRepo(),
		jobs:      store.NewJobRepo(),
		threshold: threshold,
	}
}

// AssembleCase merges all evidence for the case into the feature vector,
// persists it, and advances the case status. Refuses to run while jobs are
// pending so that a half-processed case never freezes into features.
func (s *Service) AssembleCase(ctx context.Context, caseID int64) (*models.BorrowerFeatures, error) {
	pending, err := s.jobs.PendingCount(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, ErrJobsPending
	}

	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	fields, err := s.fields.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	vector := Assemble(c, fields, s.threshold)
	if err := s.feats.Upsert(ctx, vector); err != nil {
		return nil, err
	}
	if err := s.cases.UpdateStatus(ctx, caseID, models.CaseFeaturesExtracted); err != nil {
		return nil, err
	}

	fmt.Printf("[features] Case %s: %d/%d slots filled (%.2f%%)\n",
		c.CaseID, vector.FilledSlots(), models.TotalFeatureSlots, vector.FeatureCompleteness)
	return vector, nil
}

// Get returns the persisted feature vector for a case.
func (s *Service) Get(ctx context.Context, caseID int64) (*models.BorrowerFeatures, error) {
	return s.feats.Get(ctx, caseID)
}
