// Package models defines the persistent entities of the loan-application
// intelligence pipeline: cases, documents, processing jobs, extracted
// evidence, borrower features, lender policies and eligibility results.
package models

import (
	"fmt"
	"regexp"
	"time"
)

// =============================================================================
// CASE
// =============================================================================

// CaseStatus tracks the lifecycle of a loan application case.
type CaseStatus string

const (
	CaseCreated           CaseStatus = "created"
	CaseProcessing        CaseStatus = "processing"
	CaseFeaturesExtracted CaseStatus = "features_extracted"
	CaseEligibilityScored CaseStatus = "eligibility_scored"
	CaseReportGenerated   CaseStatus = "report_generated"
	CaseFailed            CaseStatus = "failed"
)

// ProgramType determines the required-document set for a case.
type ProgramType string

const (
	ProgramBanking ProgramType = "banking"
	ProgramIncome  ProgramType = "income"
	ProgramHybrid  ProgramType = "hybrid"
)

// CaseIDPattern is the canonical case id format: CASE-YYYYMMDD-NNNN.
var CaseIDPattern = regexp.MustCompile(`^CASE-\d{8}-\d{4}$`)

// FormatCaseID builds a case id from a UTC date and a same-day sequence number.
func FormatCaseID(day time.Time, seq int) string {
	return fmt.Sprintf("CASE-%s-%04d", day.UTC().Format("20060102"), seq)
}

// Case is a single loan application owned by an operator.
type Case struct {
	ID             int64      `json:"id"`
	CaseID         string     `json:"case_id"`
	OwnerID        string     `json:"owner_id"`
	OrganizationID *string    `json:"organization_id,omitempty"`
	Status         CaseStatus `json:"status"`
	ProgramType    ProgramType `json:"program_type"`

	// Borrower descriptors (operator-supplied or GST-sourced)
	BorrowerName         *string  `json:"borrower_name,omitempty"`
	EntityType           *string  `json:"entity_type,omitempty"`
	IndustryType         *string  `json:"industry_type,omitempty"`
	Pincode              *string  `json:"pincode,omitempty"`
	BusinessVintageYears *float64 `json:"business_vintage_years,omitempty"`
	RequestedAmount      *float64 `json:"requested_amount,omitempty"`

	// Manual overrides (count as covering their document slot)
	ManualCibilScore      *int     `json:"manual_cibil_score,omitempty"`
	ManualMonthlyTurnover *float64 `json:"manual_monthly_turnover,omitempty"`
	ManualVintageYears    *float64 `json:"manual_vintage_years,omitempty"`

	// GST authority cache
	GSTIN          *string `json:"gstin,omitempty"`
	GSTDetailsJSON []byte  `json:"-"`

	CompletenessScore float64   `json:"completeness_score"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// =============================================================================
// DOCUMENT
// =============================================================================

// DocumentKind is the closed set of recognized document categories.
type DocumentKind string

const (
	KindAadhaar         DocumentKind = "aadhaar"
	KindPANPersonal     DocumentKind = "pan_personal"
	KindPANBusiness     DocumentKind = "pan_business"
	KindGSTCertificate  DocumentKind = "gst_certificate"
	KindGSTReturns      DocumentKind = "gst_returns"
	KindBankStatement   DocumentKind = "bank_statement"
	KindITR             DocumentKind = "itr"
	KindFinancials      DocumentKind = "financial_statements"
	KindCIBILReport     DocumentKind = "cibil_report"
	KindUdyamLicense    DocumentKind = "udyam_shop_license"
	KindPropertyDocs    DocumentKind = "property_documents"
	KindUnknown         DocumentKind = "unknown"
)

// AllDocumentKinds lists every classifiable kind except unknown.
var AllDocumentKinds = []DocumentKind{
	KindAadhaar, KindPANPersonal, KindPANBusiness, KindGSTCertificate,
	KindGSTReturns, KindBankStatement, KindITR, KindFinancials,
	KindCIBILReport, KindUdyamLicense, KindPropertyDocs,
}

// DocumentStatus tracks per-document processing state.
type DocumentStatus string

const (
	DocUploaded    DocumentStatus = "uploaded"
	DocOCRComplete DocumentStatus = "ocr_complete"
	DocClassified  DocumentStatus = "classified"
	DocFailed      DocumentStatus = "failed"
)

// Document is one uploaded file belonging to exactly one case.
// FileHash is unique within the owning case.
type Document struct {
	ID               int64          `json:"id"`
	CaseID           int64          `json:"case_id"`
	Filename         string         `json:"filename"`
	StorageKey       string         `json:"storage_key"`
	SizeBytes        int64          `json:"size_bytes"`
	MimeType         string         `json:"mime_type"`
	FileHash         string         `json:"file_hash"`
	Kind             DocumentKind   `json:"kind"`
	KindConfidence   float64        `json:"kind_confidence"`
	OCRText          string         `json:"-"`
	Status           DocumentStatus `json:"status"`
	FailureReason    *string        `json:"failure_reason,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// =============================================================================
// PROCESSING JOB
// =============================================================================

// JobStatus is the queue state of a document processing job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// ProcessingJob owns the OCR -> classification -> extraction ordering for one
// document. The job table is the queue contract: workers lease the oldest
// queued row and record the terminal state.
type ProcessingJob struct {
	ID          string     `json:"id"`
	CaseID      int64      `json:"case_id"`
	DocumentID  int64      `json:"document_id"`
	Status      JobStatus  `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	LastError   *string    `json:"last_error,omitempty"`
	LeasedAt    *time.Time `json:"leased_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// =============================================================================
// EXTRACTED FIELD
// =============================================================================

// FieldSource tags where an extracted field came from.
type FieldSource string

const (
	SourceExtraction   FieldSource = "extraction"
	SourceBankAnalysis FieldSource = "bank_analysis"
)

// ExtractedField is one piece of evidence scoped to a case. The history is
// append-only; readers take the latest row with the highest confidence per
// field name.
type ExtractedField struct {
	ID         int64       `json:"id"`
	CaseID     int64       `json:"case_id"`
	DocumentID *int64      `json:"document_id,omitempty"`
	Name       string      `json:"name"`
	Value      string      `json:"value"`
	Confidence float64     `json:"confidence"`
	Source     FieldSource `json:"source"`
	CreatedAt  time.Time   `json:"created_at"`
}
