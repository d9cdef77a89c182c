package ledger

import (
	"context"
	"fmt"

	"loanintel/pkg/core/storage"
	"loanintel/pkg/core/store"
	"loanintel/pkg/models"
)

// Service wires case persistence, the checklist and the file store together.
type Service struct {
	cases *store.CaseRepo
	docs  *store.DocumentRepo
	files storage.Storage
}

// NewService creates the case ledger service.
func NewService(files storage.Storage) *Service {
	return &Service{
		cases: store.NewCaseRepo(),
		docs:  store.NewDocumentRepo(),
		files: files,
	}
}

// CreateParams carries the operator-supplied fields for a new case.
type CreateParams struct {
	OwnerID        string
	OrganizationID *string
	ProgramType    models.ProgramType

	BorrowerName         *string
	EntityType           *string
	IndustryType         *string
	Pincode              *string
	BusinessVintageYears *float64
	RequestedAmount      *float64

	ManualCibilScore      *int
	ManualMonthlyTurnover *float64
	ManualVintageYears    *float64
}

// CreateCase allocates the next case id for today and persists the case. The
// initial completeness reflects any manual overrides supplied at creation.
func (s *Service) CreateCase(ctx context.Context, params CreateParams) (*models.Case, error) {
	if params.ProgramType == "" {
		params.ProgramType = models.ProgramHybrid
	}
	c := &models.Case{
		OwnerID:              params.OwnerID,
		OrganizationID:       params.OrganizationID,
		ProgramType:          params.ProgramType,
		BorrowerName:         params.BorrowerName,
		EntityType:           params.EntityType,
		IndustryType:         params.IndustryType,
		Pincode:              params.Pincode,
		BusinessVintageYears: params.BusinessVintageYears,
		RequestedAmount:      params.RequestedAmount,
		ManualCibilScore:     params.ManualCibilScore,
		ManualMonthlyTurnover: params.ManualMonthlyTurnover,
		ManualVintageYears:   params.ManualVintageYears,
	}
	c.CompletenessScore = CompletenessScore(BuildChecklist(c, nil))

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}
	fmt.Printf("[ledger] Created case %s for owner %s\n", c.CaseID, c.OwnerID)
	return c, nil
}

// GetCase returns a case scoped to its owner.
func (s *Service) GetCase(ctx context.Context, caseID, ownerID string) (*models.Case, error) {
	return s.cases.Get(ctx, caseID, ownerID)
}

// GetCaseForOrganization returns a case in admin (organization) scope.
func (s *Service) GetCaseForOrganization(ctx context.Context, caseID, orgID string) (*models.Case, error) {
	return s.cases.GetForOrganization(ctx, caseID, orgID)
}

// ListCases returns the operator's cases, newest first.
func (s *Service) ListCases(ctx context.Context, ownerID string, limit int) ([]*models.Case, error) {
	return s.cases.List(ctx, ownerID, limit)
}

// UpdateCase applies partial overrides and recomputes completeness, since a
// new manual override can cover a document slot.
func (s *Service) UpdateCase(ctx context.Context, caseID, ownerID string, patch *models.Case) (*models.Case, error) {
	c, err := s.cases.Get(ctx, caseID, ownerID)
	if err != nil {
		return nil, err
	}
	patch.ID = c.ID
	if err := s.cases.Update(ctx, patch); err != nil {
		return nil, err
	}
	if err := s.RecomputeCompleteness(ctx, c.ID); err != nil {
		return nil, err
	}
	return s.cases.Get(ctx, caseID, ownerID)
}

// Checklist returns the evaluated checklist for a case.
func (s *Service) Checklist(ctx context.Context, c *models.Case) ([]ChecklistItem, error) {
	docs, err := s.docs.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return BuildChecklist(c, docs), nil
}

// RecomputeCompleteness refreshes the stored completeness score from the
// current checklist. Called after any mutation that can change coverage.
func (s *Service) RecomputeCompleteness(ctx context.Context, caseID int64) error {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return err
	}
	items, err := s.Checklist(ctx, c)
	if err != nil {
		return err
	}
	return s.cases.SetCompleteness(ctx, caseID, CompletenessScore(items))
}

// DeleteCase hard-deletes a case. Stored files are removed best-effort;
// storage failures are logged and never roll back the delete.
func (s *Service) DeleteCase(ctx context.Context, caseID, ownerID string) error {
	c, err := s.cases.Get(ctx, caseID, ownerID)
	if err != nil {
		return err
	}

	docs, err := s.docs.ListByCase(ctx, c.ID)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.files.Delete(d.StorageKey); err != nil {
			fmt.Printf("[ledger] WARNING: failed to delete %s: %v\n", d.StorageKey, err)
		}
	}

	if err := s.cases.Delete(ctx, c.ID); err != nil {
		return err
	}
	fmt.Printf("[ledger] Deleted case %s (%d documents)\n", c.CaseID, len(docs))
	return nil
}
