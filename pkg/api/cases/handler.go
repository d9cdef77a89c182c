// Package cases exposes the case-facing HTTP surface: CRUD, uploads, status,
// feature assembly, eligibility scoring, reports and the WhatsApp webhook.
package cases

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"loanintel/pkg/api/respond"
	"loanintel/pkg/core/eligibility"
	"loanintel/pkg/core/features"
	"loanintel/pkg/core/intake"
	"loanintel/pkg/core/ledger"
	"loanintel/pkg/core/report"
	"loanintel/pkg/core/store"
	"loanintel/pkg/models"
)

var (
	ledgerSvc   *ledger.Service
	intakeSvc   *intake.Service
	featuresSvc *features.Service
	eligSvc     *eligibility.Service
	reportSvc   *report.Service
	jobRepo     *store.JobRepo
	docRepo     *store.DocumentRepo
)

// InitHandler wires the case handlers to their services.
func InitHandler(l *ledger.Service, in *intake.Service, f *features.Service,
	e *eligibility.Service, r *report.Service) {
	ledgerSvc = l
	intakeSvc = in
	featuresSvc = f
	eligSvc = e
	reportSvc = r
	jobRepo = store.NewJobRepo()
	docRepo = store.NewDocumentRepo()
}

// Register binds every case route on the mux.
func Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/cases", handleCreate)
	mux.HandleFunc("GET /v1/cases", handleList)
	mux.HandleFunc("GET /v1/cases/{caseID}", handleGet)
	mux.HandleFunc("PATCH /v1/cases/{caseID}", handleUpdate)
	mux.HandleFunc("DELETE /v1/cases/{caseID}", handleDelete)
	mux.HandleFunc("GET /v1/cases/{caseID}/checklist", handleChecklist)
	mux.HandleFunc("GET /v1/cases/{caseID}/status", handleStatus)
	mux.HandleFunc("POST /v1/cases/{caseID}/documents", handleUpload)
	mux.HandleFunc("POST /v1/cases/{caseID}/features", handleAssemble)
	mux.HandleFunc("GET /v1/cases/{caseID}/features", handleFeatures)
	mux.HandleFunc("POST /v1/cases/{caseID}/eligibility", handleScore)
	mux.HandleFunc("GET /v1/cases/{caseID}/eligibility", handleResults)
	mux.HandleFunc("POST /v1/cases/{caseID}/report", handleGenerateReport)
	mux.HandleFunc("GET /v1/cases/{caseID}/report", handleGetReport)
	mux.HandleFunc("GET /v1/cases/{caseID}/report/pdf", handleReportPDF)
	mux.HandleFunc("POST /v1/whatsapp", handleWhatsApp)
}

// ownerOf reads the operator scope. Auth proper is out of scope; the header
// is the contract with the gateway.
func ownerOf(r *http.Request) string {
	if owner := r.Header.Get("X-Owner-ID"); owner != "" {
		return owner
	}
	return "default"
}

func loadCase(w http.ResponseWriter, r *http.Request) (*models.Case, bool) {
	caseID := r.PathValue("caseID")
	if !models.CaseIDPattern.MatchString(caseID) {
		respond.BadRequest(w, "malformed case id")
		return nil, false
	}
	c, err := ledgerSvc.GetCase(r.Context(), caseID, ownerOf(r))
	if err != nil {
		respond.Error(w, err)
		return nil, false
	}
	return c, true
}

type createRequest struct {
	ProgramType    models.ProgramType `json:"program_type"`
	OrganizationID *string            `json:"organization_id"`

	BorrowerName         *string  `json:"borrower_name"`
	EntityType           *string  `json:"entity_type"`
	IndustryType         *string  `json:"industry_type"`
	Pincode              *string  `json:"pincode"`
	BusinessVintageYears *float64 `json:"business_vintage_years"`
	RequestedAmount      *float64 `json:"requested_amount"`

	ManualCibilScore      *int     `json:"manual_cibil_score"`
	ManualMonthlyTurnover *float64 `json:"manual_monthly_turnover"`
	ManualVintageYears    *float64 `json:"manual_vintage_years"`
}

func handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}

	c, err := ledgerSvc.CreateCase(r.Context(), ledger.CreateParams{
		OwnerID:               ownerOf(r),
		OrganizationID:        req.OrganizationID,
		ProgramType:           req.ProgramType,
		BorrowerName:          req.BorrowerName,
		EntityType:            req.EntityType,
		IndustryType:          req.IndustryType,
		Pincode:               req.Pincode,
		BusinessVintageYears:  req.BusinessVintageYears,
		RequestedAmount:       req.RequestedAmount,
		ManualCibilScore:      req.ManualCibilScore,
		ManualMonthlyTurnover: req.ManualMonthlyTurnover,
		ManualVintageYears:    req.ManualVintageYears,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}

func handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cases, err := ledgerSvc.ListCases(r.Context(), ownerOf(r), limit)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, cases)
}

func handleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

func handleUpdate(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	patch := *c
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	updated, err := ledgerSvc.UpdateCase(r.Context(), c.CaseID, ownerOf(r), &patch)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

func handleDelete(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	if err := ledgerSvc.DeleteCase(r.Context(), c.CaseID, ownerOf(r)); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleChecklist(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	items, err := ledgerSvc.Checklist(r.Context(), c)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"case_id":      c.CaseID,
		"program_type": c.ProgramType,
		"items":        items,
		"completeness": ledger.CompletenessScore(items),
		"missing":      ledger.MissingDocuments(items),
	})
}

// handleStatus is the quick-scan surface: case status plus document and job
// counters.
func handleStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	docCounts, err := docRepo.CountByStatus(r.Context(), c.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	pending, err := jobRepo.PendingCount(r.Context(), c.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	failed, err := jobRepo.FailedCount(r.Context(), c.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	total := 0
	for _, n := range docCounts {
		total += n
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"case_id":           c.CaseID,
		"status":            c.Status,
		"completeness":      c.CompletenessScore,
		"documents_total":   total,
		"documents_failed":  docCounts[models.DocFailed],
		"jobs_pending":      pending,
		"jobs_failed":       failed,
	})
}

// handleUpload accepts multipart form files under the "files" field.
func handleUpload(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		respond.BadRequest(w, "invalid multipart body")
		return
	}

	var files []intake.File
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			respond.BadRequest(w, fmt.Sprintf("failed to read %s", header.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respond.BadRequest(w, fmt.Sprintf("failed to read %s", header.Filename))
			return
		}
		files = append(files, intake.File{Name: header.Filename, Data: data})
	}

	result, err := intakeSvc.Upload(r.Context(), c, files)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusAccepted, result)
}

func handleAssemble(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	feats, err := featuresSvc.AssembleCase(r.Context(), c.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, feats)
}

func handleFeatures(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	feats, err := featuresSvc.Get(r.Context(), c.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, feats)
}

func handleScore(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	summary, err := eligSvc.ScoreCase(r.Context(), c)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, summary)
}

func handleResults(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	summary, err := eligSvc.Results(r.Context(), c.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, summary)
}

func handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	data, rep, err := reportSvc.Generate(r.Context(), c)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]interface{}{
		"version": rep.Version,
		"pdf_key": rep.PDFKey,
		"report":  data,
	})
}

func handleGetReport(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	data, rep, err := reportSvc.Latest(r.Context(), c.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"version": rep.Version,
		"report":  data,
	})
}

func handleReportPDF(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCase(w, r)
	if !ok {
		return
	}
	pdf, err := reportSvc.PDF(r.Context(), c.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s-report.pdf", c.CaseID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

type whatsAppRequest struct {
	Text string `json:"text"`
}

// handleWhatsApp is the inbound webhook: transport is out of scope, the
// command contract is not.
func handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	var req whatsAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid JSON body")
		return
	}
	reply := reportSvc.Dispatch(r.Context(), req.Text)
	respond.JSON(w, http.StatusOK, map[string]string{"reply": reply})
}
