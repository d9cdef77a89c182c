// Package ocr orchestrates text extraction for uploaded documents. The engine
// itself is an external collaborator; this side decides when OCR can be
// skipped and normalizes engine output (plain text or hOCR) into flat text.
package ocr

import (
	"context"
	"regexp"
	"strings"

	"loanintel/pkg/core/validate"
	"loanintel/pkg/models"
)

// Result is the engine output for one document.
type Result struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

// Engine is the external OCR collaborator. Timeouts and retries are the
// orchestrator's responsibility, not the engine's.
type Engine interface {
	Recognize(ctx context.Context, data []byte, mimeType string) (*Result, error)
}

var imageExt = regexp.MustCompile(`(?i)\.(png|jpe?g)$`)

// ShouldSkip reports whether OCR can be skipped for a document given its
// filename-first classification. Bank statements go to the analyzer as raw
// PDFs; a GST return whose filename already carries a valid GSTIN needs no
// text; borrower photos carry no extractable fields.
func ShouldSkip(filename string, filenameKind models.DocumentKind) bool {
	switch {
	case filenameKind == models.KindBankStatement:
		return true
	case filenameKind == models.KindGSTReturns && validate.FindGSTIN(filename) != "":
		return true
	case imageExt.MatchString(filename) && strings.Contains(strings.ToLower(filename), "photo"):
		return true
	}
	return false
}
