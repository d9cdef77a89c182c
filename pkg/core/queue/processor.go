// Package queue runs the document worker pool: lease a job, process its
// document end-to-end (classify, OCR, extract, analyze, GST autofill), record
// the terminal state.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"loanintel/pkg/core/bankstmt"
	"loanintel/pkg/core/classifier"
	"loanintel/pkg/core/extract"
	"loanintel/pkg/core/gst"
	"loanintel/pkg/core/ledger"
	"loanintel/pkg/core/ocr"
	"loanintel/pkg/core/storage"
	"loanintel/pkg/core/store"
	"loanintel/pkg/core/validate"
	"loanintel/pkg/models"
)

// caseGSTStore is the slice of the case repo the GST autofill needs.
type caseGSTStore interface {
	HasGSTIN(ctx context.Context, id int64, gstin string) (bool, error)
	CacheGSTDetails(ctx context.Context, id int64, gstin string, details []byte) (bool, error)
	ApplyGSTProfile(ctx context.Context, id int64, name, entityType, industry, pincode *string, vintageYears *float64) error
}

// gstLookup is the authority call the autofill makes at most once per
// (case, gstin).
type gstLookup interface {
	FetchCompanyDetails(ctx context.Context, gstin string) (*gst.CompanyDetails, error)
}

// Processor handles one document job end-to-end. All collaborators except the
// repos may be nil; a nil OCR engine means filename-only classification, a nil
// GST client disables autofill.
type Processor struct {
	cases     caseGSTStore
	docs      *store.DocumentRepo
	fields    *store.FieldRepo
	checklist *ledger.Service

	cls    *classifier.Classifier
	engine ocr.Engine
	bank   *bankstmt.Service
	gst    gstLookup
	files  storage.Storage
}

// NewProcessor wires the per-document pipeline.
func NewProcessor(cls *classifier.Classifier, engine ocr.Engine, bank *bankstmt.Service,
	gstClient *gst.Client, files storage.Storage) *Processor {
	p := &Processor{
		cases:     store.NewCaseRepo(),
		docs:      store.NewDocumentRepo(),
		fields:    store.NewFieldRepo(),
		checklist: ledger.NewService(files),
		cls:       cls,
		engine:    engine,
		bank:      bank,
		files:     files,
	}
	if gstClient != nil {
		p.gst = gstClient
	}
	return p
}

// Process runs the pipeline for one leased job. Returned errors mark the job
// failed (with retry while the attempt budget lasts).
func (p *Processor) Process(ctx context.Context, job *models.ProcessingJob) error {
	doc, err := p.docs.Get(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("document %d not found: %w", job.DocumentID, err)
	}

	// Layer 1: filename-first classification decides whether OCR can be skipped.
	fnRes := p.cls.ClassifyFilename(doc.Filename)

	text := ""
	if ocr.ShouldSkip(doc.Filename, fnRes.Kind) {
		ocrSkipped.Inc()
	} else {
		text = p.runOCR(ctx, doc)
	}

	// Content reclassification when OCR produced text; otherwise the filename
	// verdict stands.
	final := fnRes
	if text != "" {
		final = p.cls.Classify(doc.Filename, text)
	}
	if err := p.docs.SetClassification(ctx, doc.ID, final.Kind, final.Confidence); err != nil {
		return err
	}
	doc.Kind = final.Kind

	// Classification can move the document into a checklist slot, so the stored
	// completeness must follow.
	if err := p.checklist.RecomputeCompleteness(ctx, job.CaseID); err != nil {
		return err
	}

	if text != "" && extract.HasExtractor(final.Kind) {
		if err := p.extractFields(ctx, doc, text); err != nil {
			return err
		}
	}

	if final.Kind == models.KindBankStatement && p.bank != nil {
		caseDocs, err := p.docs.ListByCase(ctx, job.CaseID)
		if err != nil {
			return err
		}
		if _, err := p.bank.AnalyzeCase(ctx, job.CaseID, caseDocs); err != nil {
			return err
		}
	}

	if final.Kind == models.KindGSTCertificate || final.Kind == models.KindGSTReturns {
		p.autofillFromGST(ctx, job.CaseID, doc, text)
	}

	return nil
}

// runOCR fetches the file bytes and runs the engine. Any failure is logged
// and yields empty text: the document stays classified from its filename.
func (p *Processor) runOCR(ctx context.Context, doc *models.Document) string {
	if p.engine == nil {
		return ""
	}
	data, err := p.files.Get(doc.StorageKey)
	if err != nil {
		fmt.Printf("[queue] WARNING: fetch %s for OCR failed: %v\n", doc.StorageKey, err)
		return ""
	}
	res, err := p.engine.Recognize(ctx, data, doc.MimeType)
	if err != nil {
		fmt.Printf("[queue] WARNING: OCR failed for document %d: %v\n", doc.ID, err)
		return ""
	}
	if err := p.docs.SetOCRText(ctx, doc.ID, res.Text); err != nil {
		fmt.Printf("[queue] WARNING: persist OCR text for document %d: %v\n", doc.ID, err)
	}
	return res.Text
}

func (p *Processor) extractFields(ctx context.Context, doc *models.Document, text string) error {
	extracted := extract.Extract(doc.Kind, text)
	if len(extracted) == 0 {
		return nil
	}
	rows := make([]*models.ExtractedField, 0, len(extracted))
	for _, f := range extracted {
		docID := doc.ID
		rows = append(rows, &models.ExtractedField{
			CaseID:     doc.CaseID,
			DocumentID: &docID,
			Name:       f.Name,
			Value:      f.Value,
			Confidence: f.Confidence,
			Source:     models.SourceExtraction,
		})
	}
	return p.fields.AppendAll(ctx, rows)
}

// autofillFromGST extracts a GSTIN from the filename or the OCR text, caches
// it on the case exactly once, and merges the authority's borrower profile.
// Failures never fail the job: the GSTIN is persisted without borrower fields.
func (p *Processor) autofillFromGST(ctx context.Context, caseID int64, doc *models.Document, text string) {
	gstin := validate.FindGSTIN(doc.Filename)
	if gstin == "" {
		gstin = validate.FindGSTIN(text)
	}
	if gstin == "" {
		return
	}

	// A cached GSTIN means a previous document already paid for the authority
	// round trip; later documents carrying the same GSTIN are a no-op.
	known, err := p.cases.HasGSTIN(ctx, caseID, gstin)
	if err != nil {
		fmt.Printf("[queue] WARNING: check cached GSTIN for case %d: %v\n", caseID, err)
		return
	}
	if known {
		return
	}

	details := p.fetchGSTDetails(ctx, gstin)
	var payload []byte
	if details != nil {
		payload, _ = json.Marshal(details)
	}

	// The conditional update is the exactly-once gate: only the first document
	// carrying a GSTIN wins the cache and applies the profile.
	won, err := p.cases.CacheGSTDetails(ctx, caseID, gstin, payload)
	if err != nil {
		fmt.Printf("[queue] WARNING: cache GSTIN for case %d: %v\n", caseID, err)
		return
	}
	if !won || details == nil {
		return
	}

	if err := p.cases.ApplyGSTProfile(ctx, caseID,
		optional(details.BorrowerName), optional(details.EntityType),
		optional(details.IndustryType), optional(details.Pincode),
		details.BusinessVintageYears); err != nil {
		fmt.Printf("[queue] WARNING: apply GST profile for case %d: %v\n", caseID, err)
	}
}

func (p *Processor) fetchGSTDetails(ctx context.Context, gstin string) *gst.CompanyDetails {
	if p.gst == nil {
		return nil
	}
	details, err := p.gst.FetchCompanyDetails(ctx, gstin)
	if err != nil {
		fmt.Printf("[queue] WARNING: GST authority lookup failed for %s: %v\n", gstin, err)
		return nil
	}
	return details
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
