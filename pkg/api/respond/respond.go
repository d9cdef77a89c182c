// Package respond holds the shared HTTP response helpers and the error
// taxonomy mapping for the API handlers.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"loanintel/pkg/core/features"
	"loanintel/pkg/core/intake"
	"loanintel/pkg/core/store"
)

// JSON writes a JSON body with the given status.
func JSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			fmt.Printf("[api] WARNING: encode response: %v\n", err)
		}
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// Error maps an error onto the API taxonomy: validation 400, not-found 404,
// jobs-pending 409, everything else 500.
func Error(w http.ResponseWriter, err error) {
	switch {
	case intake.IsValidation(err):
		JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound):
		JSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, features.ErrJobsPending):
		JSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		fmt.Printf("[api] internal error: %v\n", err)
		JSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// BadRequest writes a 400 with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
