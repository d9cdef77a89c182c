package lenderkb

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"loanintel/pkg/core/store"
	"loanintel/pkg/core/validate"
	"loanintel/pkg/models"
)

// Service owns knowledge-base ingestion and queries.
type Service struct {
	repo *store.LenderRepo
}

// NewService creates the knowledge-base service.
func NewService() *Service {
	return &Service{repo: store.NewLenderRepo()}
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Lenders         int `json:"lenders"`
	ProductsCreated int `json:"products_created"`
	ProductsUpdated int `json:"products_updated"`
	PincodesAdded   int `json:"pincodes_added"`
	RowsSkipped     int `json:"rows_skipped"`
}

// policyColumns maps canonical column ids to the header names used in the
// policy sheet.
var policyColumns = map[string][]string{
	"lender":        {"lender"},
	"product":       {"product program", "product", "program"},
	"min_vintage":   {"min. vintage", "min vintage", "vintage"},
	"min_score":     {"min. score", "min score", "cibil"},
	"min_turnover":  {"min. turnover", "min turnover", "turnover"},
	"max_ticket":    {"max ticket size", "max ticket", "ticket size"},
	"abb":           {"abb", "avg bank balance"},
	"entity":        {"entity"},
	"age":           {"age"},
	"dpd30":         {"no 30+", "30+"},
	"dpd60":         {"60+"},
	"dpd90":         {"90+"},
	"banking":       {"banking statement", "banking"},
	"gst":           {"gst"},
	"video_kyc":     {"video kyc", "vkyc"},
	"fi":            {"fi", "field investigation"},
	"td":            {"td", "telephonic"},
	"tenor_min":     {"tenor min"},
	"tenor_max":     {"tenor max"},
}

func indexPolicyHeader(header []string) map[string]int {
	cols := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		for canonical, names := range policyColumns {
			if _, taken := cols[canonical]; taken {
				continue
			}
			for _, name := range names {
				if key == name {
					cols[canonical] = i
				}
			}
		}
	}
	return cols
}

// IngestPolicyCSV loads the policy table, one row per lender x product.
// Rows carrying the "Policy not available" sentinel are stored with
// policy_available=false so the product stays visible but never scores.
func (s *Service) IngestPolicyCSV(ctx context.Context, data []byte) (*IngestStats, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read policy CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("policy CSV has no data rows")
	}

	cols := indexPolicyHeader(records[0])
	if _, ok := cols["lender"]; !ok {
		return nil, fmt.Errorf("policy CSV has no Lender column")
	}

	stats := &IngestStats{}
	lenderIDs := map[string]int64{}

	cell := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	for _, row := range records[1:] {
		lenderName := CanonicalLenderName(cell(row, "lender"))
		if lenderName == "" {
			stats.RowsSkipped++
			continue
		}

		lenderID, ok := lenderIDs[lenderName]
		if !ok {
			lenderID, err = s.repo.UpsertLender(ctx, lenderName, LenderCode(lenderName))
			if err != nil {
				return nil, err
			}
			lenderIDs[lenderName] = lenderID
			stats.Lenders++
		}

		productName := cell(row, "product")
		if productName == "" {
			productName = "Business Loan"
		}

		prod := &models.LenderProduct{
			LenderID:        lenderID,
			Name:            productName,
			ProgramType:     InferProgramType(productName),
			PolicyAvailable: !RowHasUnavailableSentinel(row),

			MinVintageYears:   ParseNumericCell(cell(row, "min_vintage")),
			MinCibilScore:     ParseIntCell(cell(row, "min_score")),
			MinTurnoverAnnual: ParseNumericCell(cell(row, "min_turnover")),
			MaxTicketSize:     ParseNumericCell(cell(row, "max_ticket")),
			MinABB:            ParseNumericCell(cell(row, "abb")),

			EligibleEntityTypes: ParseEntityCell(cell(row, "entity")),

			DPD30Rule:   optionalText(cell(row, "dpd30")),
			DPD60Rule:   optionalText(cell(row, "dpd60")),
			DPD90Rule:   optionalText(cell(row, "dpd90")),
			BankingMonths: ParseIntCell(cell(row, "banking")),

			GSTRequired:        ParseBoolCell(cell(row, "gst")),
			VideoKYCRequired:   ParseBoolCell(cell(row, "video_kyc")),
			FieldInvestigation: ParseBoolCell(cell(row, "fi")),
			TelephonicRequired: ParseBoolCell(cell(row, "td")),

			TenorMinMonths: ParseIntCell(cell(row, "tenor_min")),
			TenorMaxMonths: ParseIntCell(cell(row, "tenor_max")),
		}
		prod.AgeMin, prod.AgeMax = ParseAgeCell(cell(row, "age"))

		created, err := s.repo.UpsertProduct(ctx, prod)
		if err != nil {
			return nil, err
		}
		if created {
			stats.ProductsCreated++
		} else {
			stats.ProductsUpdated++
		}
	}

	fmt.Printf("[lenderkb] Policy ingest: %d lenders, %d created, %d updated, %d skipped\n",
		stats.Lenders, stats.ProductsCreated, stats.ProductsUpdated, stats.RowsSkipped)
	return stats, nil
}

// IngestPincodeCSV loads the column-wise pincode table: every header is a
// lender name, every cell a six-digit pincode. Non-numeric cells are skipped.
func (s *Service) IngestPincodeCSV(ctx context.Context, data []byte) (*IngestStats, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read pincode CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("pincode CSV has no data rows")
	}

	stats := &IngestStats{}
	lenderByCol := map[int]int64{}
	for i, header := range records[0] {
		name := CanonicalLenderName(header)
		if name == "" {
			continue
		}
		id, err := s.repo.UpsertLender(ctx, name, LenderCode(name))
		if err != nil {
			return nil, err
		}
		lenderByCol[i] = id
		stats.Lenders++
	}

	for _, row := range records[1:] {
		for i, cell := range row {
			lenderID, ok := lenderByCol[i]
			if !ok {
				continue
			}
			pin := strings.TrimSpace(cell)
			if !validate.IsValidPincode(pin) {
				if pin != "" {
					stats.RowsSkipped++
				}
				continue
			}
			created, err := s.repo.UpsertPincode(ctx, lenderID, pin)
			if err != nil {
				return nil, err
			}
			if created {
				stats.PincodesAdded++
			}
		}
	}

	fmt.Printf("[lenderkb] Pincode ingest: %d lenders, %d pincodes added, %d cells skipped\n",
		stats.Lenders, stats.PincodesAdded, stats.RowsSkipped)
	return stats, nil
}

func optionalText(cell string) *string {
	cell = strings.TrimSpace(cell)
	if cell == "" || isUnavailable(cell) {
		return nil
	}
	return &cell
}

// =============================================================================
// QUERY SURFACE
// =============================================================================

// ListLenders returns all lenders with product and pincode counts.
func (s *Service) ListLenders(ctx context.Context) ([]*store.LenderSummary, error) {
	return s.repo.ListLenders(ctx)
}

// GetLender returns one lender.
func (s *Service) GetLender(ctx context.Context, id int64) (*models.Lender, error) {
	return s.repo.GetLender(ctx, id)
}

// GetProducts returns a lender's products.
func (s *Service) GetProducts(ctx context.Context, lenderID int64) ([]*models.LenderProduct, error) {
	return s.repo.ListProducts(ctx, lenderID)
}

// ActiveProducts returns every scoreable product, optionally filtered by
// program type ("" means all).
func (s *Service) ActiveProducts(ctx context.Context, program models.ProgramType) ([]*models.LenderProduct, error) {
	return s.repo.ActiveProducts(ctx, program)
}

// LendersForPincode returns the lenders covering a pincode.
func (s *Service) LendersForPincode(ctx context.Context, pincode string) ([]*models.Lender, error) {
	return s.repo.LendersForPincode(ctx, pincode)
}

// CoversPincode checks one lender's coverage of a pincode.
func (s *Service) CoversPincode(ctx context.Context, lenderID int64, pincode string) (bool, error) {
	return s.repo.CoversPincode(ctx, lenderID, pincode)
}
