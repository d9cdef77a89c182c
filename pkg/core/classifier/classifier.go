package classifier

import (
	"math"
	"strings"

	"loanintel/pkg/models"
)

// minTextLength is the shortest OCR text worth classifying by content.
const minTextLength = 20

// filenameMargin is how much a filename verdict must beat the content verdict
// by before it overrides a disagreeing content classification.
const filenameMargin = 0.20

// Result is one classification verdict.
type Result struct {
	Kind       models.DocumentKind `json:"kind"`
	Confidence float64             `json:"confidence"`
	Method     string              `json:"method"` // filename | model | keyword | combined | none
}

// Classifier combines filename patterns, an optional trained model and
// keyword rules into one verdict.
type Classifier struct {
	scorer Scorer
}

// New creates a classifier. scorer may be nil; the keyword layer then carries
// content classification alone.
func New(scorer Scorer) *Classifier {
	return &Classifier{scorer: scorer}
}

// filenameOrder fixes the evaluation order of filename patterns, most
// specific kinds first so "gst_returns_fy24.pdf" never lands on the
// certificate bucket.
var filenameOrder = []models.DocumentKind{
	models.KindGSTReturns,
	models.KindGSTCertificate,
	models.KindBankStatement,
	models.KindAadhaar,
	models.KindITR,
	models.KindCIBILReport,
	models.KindFinancials,
	models.KindUdyamLicense,
	models.KindPropertyDocs,
	models.KindPANPersonal,
}

// ClassifyFilename applies filename patterns only. No match yields unknown
// with confidence 0.
func (c *Classifier) ClassifyFilename(filename string) Result {
	for _, kind := range filenameOrder {
		for _, re := range filenamePatterns[kind] {
			if re.MatchString(filename) {
				return Result{Kind: kind, Confidence: FilenameConfidence, Method: "filename"}
			}
		}
	}
	return Result{Kind: models.KindUnknown, Confidence: 0, Method: "none"}
}

// ClassifyText applies the model layer (when present and confident) and falls
// back to keyword rules. Empty or very short text yields unknown with
// confidence 0.
func (c *Classifier) ClassifyText(text string) Result {
	if len(strings.TrimSpace(text)) < minTextLength {
		return Result{Kind: models.KindUnknown, Confidence: 0, Method: "none"}
	}

	if c.scorer != nil {
		if kind, p := c.scorer.Score(text); p >= ModelAcceptThreshold {
			return Result{Kind: models.DocumentKind(kind), Confidence: p, Method: "model"}
		}
	}

	bestKind := models.KindUnknown
	bestScore := 0.0
	for kind, rule := range keywordRules {
		matched := 0
		for _, re := range rule.Patterns {
			if re.MatchString(text) {
				matched++
			}
		}
		score := float64(matched) / float64(len(rule.Patterns))
		if score >= rule.Threshold && score > bestScore {
			bestKind, bestScore = kind, score
		}
	}
	if bestKind == models.KindUnknown {
		return Result{Kind: models.KindUnknown, Confidence: 0, Method: "none"}
	}
	return Result{Kind: bestKind, Confidence: bestScore, Method: "keyword"}
}

// Classify combines the filename and content verdicts.
//
// Agreement blends the two confidences (capped at 0.95). On disagreement the
// content verdict wins unless the filename verdict leads by at least the
// margin: a misleading filename must not beat clear content evidence.
func (c *Classifier) Classify(filename, text string) Result {
	fres := c.ClassifyFilename(filename)
	cres := c.ClassifyText(text)

	var out Result
	switch {
	case fres.Kind == models.KindUnknown:
		out = cres
	case cres.Kind == models.KindUnknown:
		out = fres
	case fres.Kind == cres.Kind:
		out = Result{
			Kind:       fres.Kind,
			Confidence: math.Min(0.95, 0.6*fres.Confidence+0.4*cres.Confidence),
			Method:     "combined",
		}
	case fres.Confidence >= cres.Confidence+filenameMargin:
		out = fres
	default:
		out = cres
	}

	return disambiguatePAN(out, text)
}

// disambiguatePAN flips a personal-PAN verdict to business PAN when the text
// carries a corporate entity suffix.
func disambiguatePAN(res Result, text string) Result {
	if res.Kind == models.KindPANPersonal && corporateSuffixes.MatchString(text) {
		res.Kind = models.KindPANBusiness
	}
	return res
}
