// Package extract pulls structured fields out of OCR text with anchored
// regex patterns, one extractor per document kind. Every emitted field
// carries a confidence; validation failures halve confidence but keep the
// field, since downstream assembly prefers weak evidence over none.
package extract

import (
	"strings"

	"loanintel/pkg/models"
)

// Field is one extracted {name, value, confidence} triple.
type Field struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// extractor pulls fields from the OCR text of one document kind.
type extractor func(text string) []Field

var extractors = map[models.DocumentKind]extractor{
	models.KindPANPersonal:    extractPAN,
	models.KindPANBusiness:    extractPAN,
	models.KindAadhaar:        extractAadhaar,
	models.KindGSTCertificate: extractGSTCertificate,
	models.KindGSTReturns:     extractGSTReturns,
	models.KindCIBILReport:    extractCIBIL,
	models.KindITR:            extractITR,
	models.KindFinancials:     extractFinancials,
}

// Extract runs the kind-specific extractor. Kinds without an extractor
// (bank statements go through the analyzer instead) yield no fields.
func Extract(kind models.DocumentKind, text string) []Field {
	fn, ok := extractors[kind]
	if !ok || strings.TrimSpace(text) == "" {
		return nil
	}
	return fn(text)
}

// HasExtractor reports whether a kind has a regex extractor.
func HasExtractor(kind models.DocumentKind) bool {
	_, ok := extractors[kind]
	return ok
}
