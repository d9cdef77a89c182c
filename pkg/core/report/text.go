package report

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// CleanNarrative strips wrapping code fences and surrounding whitespace from
// an LLM reply so the remainder is plain markdown.
func CleanNarrative(input string) string {
	cleaned := strings.TrimSpace(input)

	if strings.HasPrefix(cleaned, "```markdown") && strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```markdown")
		cleaned = strings.TrimSuffix(cleaned, "```")
		return strings.TrimSpace(cleaned)
	}
	if strings.HasPrefix(cleaned, "```") && strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		return strings.TrimSpace(cleaned)
	}
	return cleaned
}

// ValidNarrative reports whether the text parses as markdown. Goldmark is
// permissive, so this mostly guards against empty or binary replies.
func ValidNarrative(input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}
	parser := goldmark.DefaultParser()
	doc := parser.Parse(text.NewReader([]byte(input)))
	return doc != nil
}

// DecodeStructuredReply repairs common LLM JSON defects (single quotes,
// trailing commas, markdown fences) and unmarshals into out.
func DecodeStructuredReply(reply string, out interface{}) error {
	repaired, err := jsonrepair.RepairJSON(reply)
	if err != nil {
		return fmt.Errorf("failed to repair structured reply: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("failed to decode structured reply: %w", err)
	}
	return nil
}
