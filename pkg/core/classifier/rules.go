// Package classifier identifies the document kind of an upload from its
// filename, its OCR text, and an optional trained model. Three layers apply
// in order with early exit on high confidence: filename patterns, model
// scores, keyword rules.
package classifier

import (
	"fmt"
	"os"
	"regexp"

	hjson "github.com/hjson/hjson-go/v4"

	"loanintel/pkg/models"
)

// FilenameConfidence is assigned to any filename-pattern match.
const FilenameConfidence = 0.90

// ModelAcceptThreshold is the minimum model probability that short-circuits
// the keyword layer.
const ModelAcceptThreshold = 0.75

// filenamePatterns maps document kinds to filename regexes.
var filenamePatterns = map[models.DocumentKind][]*regexp.Regexp{
	models.KindGSTReturns: {
		regexp.MustCompile(`(?i)gstr[-_]?[139]b?`),
		regexp.MustCompile(`(?i)gst[-_]?returns?`),
	},
	models.KindGSTCertificate: {
		regexp.MustCompile(`(?i)gst[-_]?(reg|cert)`),
		regexp.MustCompile(`(?i)registration[-_]?certificate`),
	},
	models.KindBankStatement: {
		regexp.MustCompile(`(?i)bank[-_ ]?(stmt|statement)`),
		regexp.MustCompile(`(?i)statement[-_ ]?of[-_ ]?account`),
		regexp.MustCompile(`(?i)account[-_ ]?statement`),
	},
	models.KindAadhaar: {
		regexp.MustCompile(`(?i)aadhaa?r`),
		regexp.MustCompile(`(?i)uidai`),
	},
	models.KindPANPersonal: {
		regexp.MustCompile(`(?i)\bpan\b`),
		regexp.MustCompile(`(?i)pan[-_ ]?card`),
	},
	models.KindITR: {
		regexp.MustCompile(`(?i)\bitr\b`),
		regexp.MustCompile(`(?i)income[-_ ]?tax[-_ ]?return`),
	},
	models.KindCIBILReport: {
		regexp.MustCompile(`(?i)cibil`),
		regexp.MustCompile(`(?i)credit[-_ ]?report`),
	},
	models.KindFinancials: {
		regexp.MustCompile(`(?i)balance[-_ ]?sheet`),
		regexp.MustCompile(`(?i)profit[-_ ]?(and|&)?[-_ ]?loss`),
		regexp.MustCompile(`(?i)financials?`),
		regexp.MustCompile(`(?i)audited`),
	},
	models.KindUdyamLicense: {
		regexp.MustCompile(`(?i)udyam`),
		regexp.MustCompile(`(?i)shop[-_ ]?(act|license|licence)`),
	},
	models.KindPropertyDocs: {
		regexp.MustCompile(`(?i)property`),
		regexp.MustCompile(`(?i)sale[-_ ]?deed`),
		regexp.MustCompile(`(?i)registry`),
	},
}

// keywordRule holds the content keywords for one kind plus the share of
// keywords that must match.
type keywordRule struct {
	Patterns  []*regexp.Regexp
	Threshold float64
}

var keywordRules = map[models.DocumentKind]*keywordRule{
	models.KindAadhaar: {
		Threshold: 0.40,
		Patterns: compileAll(
			`(?i)unique identification authority`,
			`(?i)aadhaa?r`,
			`(?i)\buidai\b`,
			`(?i)government of india`,
			`\b\d{4}\s?\d{4}\s?\d{4}\b`,
		),
	},
	models.KindPANPersonal: {
		Threshold: 0.40,
		Patterns: compileAll(
			`(?i)permanent account number`,
			`(?i)income tax department`,
			`[A-Z]{5}\d{4}[A-Z]`,
			`(?i)father'?s name`,
			`(?i)date of birth`,
		),
	},
	models.KindGSTCertificate: {
		Threshold: 0.40,
		Patterns: compileAll(
			`(?i)certificate of registration`,
			`(?i)goods and services tax`,
			`(?i)registration number`,
			`\d{2}[A-Z]{5}\d{4}[A-Z]\d[A-Z][0-9A-Z]`,
			`(?i)(legal|trade) name`,
		),
	},
	models.KindGSTReturns: {
		Threshold: 0.40,
		Patterns: compileAll(
			`(?i)gstr[- ]?[139]`,
			`(?i)taxable value`,
			`(?i)\bcgst\b`,
			`(?i)\bsgst\b`,
			`(?i)return period`,
		),
	},
	models.KindBankStatement: {
		Threshold: 0.35,
		Patterns: compileAll(
			`(?i)statement of account`,
			`(?i)opening balance`,
			`(?i)closing balance`,
			`(?i)withdrawal`,
			`(?i)deposit`,
			`(?i)\bifsc\b`,
			`(?i)narration|description|particulars`,
		),
	},
	models.KindITR: {
		Threshold: 0.40,
		Patterns: compileAll(
			`(?i)income tax return`,
			`(?i)assessment year`,
			`(?i)acknowledgement`,
			`(?i)gross total income`,
			`(?i)tax paid`,
		),
	},
	models.KindFinancials: {
		Threshold: 0.40,
		Patterns: compileAll(
			`(?i)balance sheet`,
			`(?i)profit (and|&) loss`,
			`(?i)total revenue|turnover`,
			`(?i)net worth`,
			`(?i)auditor`,
		),
	},
	models.KindCIBILReport: {
		Threshold: 0.40,
		Patterns: compileAll(
			`(?i)\bcibil\b|transunion`,
			`(?i)credit score`,
			`(?i)enquir(y|ies)`,
			`(?i)account(s)? summary`,
			`(?i)days past due|\bdpd\b`,
		),
	},
	models.KindUdyamLicense: {
		Threshold: 0.45,
		Patterns: compileAll(
			`(?i)udyam registration`,
			`(?i)micro, small and medium`,
			`(?i)\bmsme\b`,
			`(?i)enterprise`,
		),
	},
	models.KindPropertyDocs: {
		Threshold: 0.45,
		Patterns: compileAll(
			`(?i)sale deed`,
			`(?i)conveyance`,
			`(?i)sub[- ]?registrar`,
			`(?i)schedule of property`,
		),
	},
}

// corporateSuffixes disambiguate business PAN cards from personal ones.
var corporateSuffixes = regexp.MustCompile(
	`(?i)\b(pvt|private|ltd|limited|llp|enterprises|industries|traders|corporation|company|firm|partnership)\b`)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// =============================================================================
// RULE OVERRIDES (hjson resource file)
// =============================================================================

// ruleOverrides is the on-disk shape for keyword tuning. Hjson so the rules
// file can carry comments.
type ruleOverrides struct {
	Keywords map[string]struct {
		Threshold float64  `json:"threshold"`
		Patterns  []string `json:"patterns"`
	} `json:"keywords"`
}

// LoadRuleOverrides replaces keyword rules for the kinds present in the hjson
// file at path. Unknown kinds are rejected.
func LoadRuleOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rules file: %w", err)
	}

	var raw ruleOverrides
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse rules file: %w", err)
	}

	for kindStr, spec := range raw.Keywords {
		kind := models.DocumentKind(kindStr)
		if _, ok := keywordRules[kind]; !ok {
			return fmt.Errorf("unknown document kind %q in rules file", kindStr)
		}
		compiled := make([]*regexp.Regexp, 0, len(spec.Patterns))
		for _, p := range spec.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("bad pattern %q for %s: %w", p, kindStr, err)
			}
			compiled = append(compiled, re)
		}
		rule := &keywordRule{Patterns: compiled, Threshold: spec.Threshold}
		if rule.Threshold == 0 {
			rule.Threshold = keywordRules[kind].Threshold
		}
		keywordRules[kind] = rule
	}
	fmt.Printf("[classifier] Loaded keyword overrides from %s\n", path)
	return nil
}
