// Package lenders exposes the knowledge-base HTTP surface: CSV ingestion and
// lender/product/pincode queries.
package lenders

import (
	"io"
	"net/http"
	"strconv"

	"loanintel/pkg/api/respond"
	"loanintel/pkg/core/lenderkb"
	"loanintel/pkg/core/validate"
)

var kbSvc *lenderkb.Service

// InitHandler wires the lender handlers to the knowledge-base service.
func InitHandler(kb *lenderkb.Service) {
	kbSvc = kb
}

// Register binds every lender route on the mux.
func Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/lenders/policies", handleIngestPolicies)
	mux.HandleFunc("POST /v1/lenders/pincodes", handleIngestPincodes)
	mux.HandleFunc("GET /v1/lenders", handleList)
	mux.HandleFunc("GET /v1/lenders/{lenderID}/products", handleProducts)
	mux.HandleFunc("GET /v1/pincodes/{pincode}/lenders", handleLendersForPincode)
}

func handleIngestPolicies(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		respond.BadRequest(w, "empty CSV body")
		return
	}
	stats, err := kbSvc.IngestPolicyCSV(r.Context(), data)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}

func handleIngestPincodes(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		respond.BadRequest(w, "empty CSV body")
		return
	}
	stats, err := kbSvc.IngestPincodeCSV(r.Context(), data)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}

func handleList(w http.ResponseWriter, r *http.Request) {
	lenders, err := kbSvc.ListLenders(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, lenders)
}

func handleProducts(w http.ResponseWriter, r *http.Request) {
	lenderID, err := strconv.ParseInt(r.PathValue("lenderID"), 10, 64)
	if err != nil {
		respond.BadRequest(w, "malformed lender id")
		return
	}
	products, err := kbSvc.GetProducts(r.Context(), lenderID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, products)
}

func handleLendersForPincode(w http.ResponseWriter, r *http.Request) {
	pincode := r.PathValue("pincode")
	if !validate.IsValidPincode(pincode) {
		respond.BadRequest(w, "invalid pincode")
		return
	}
	lenders, err := kbSvc.LendersForPincode(r.Context(), pincode)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, lenders)
}
