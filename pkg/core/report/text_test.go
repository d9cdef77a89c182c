package report

import "testing"

func TestCleanNarrative(t *testing.T) {
	tests := map[string]string{
		"```markdown\n## Plan\n```":  "## Plan",
		"```\nplain fenced\n```":     "plain fenced",
		"  already clean  ":          "already clean",
		"## Heading\n- bullet":       "## Heading\n- bullet",
	}
	for in, want := range tests {
		if got := CleanNarrative(in); got != want {
			t.Errorf("CleanNarrative(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidNarrative(t *testing.T) {
	if ValidNarrative("") || ValidNarrative("   \n  ") {
		t.Error("blank input must be invalid")
	}
	if !ValidNarrative("## Strategy\n\nApply with the top lender.") {
		t.Error("plain markdown must be valid")
	}
}

func TestDecodeStructuredReplyRepairsDefects(t *testing.T) {
	var out struct {
		Strategy string   `json:"strategy"`
		Points   []string `json:"points"`
	}
	// single quotes, trailing comma, markdown fence
	reply := "```json\n{'strategy': 'apply first with Tata', 'points': ['limit enquiries',],}\n```"
	if err := DecodeStructuredReply(reply, &out); err != nil {
		t.Fatalf("DecodeStructuredReply: %v", err)
	}
	if out.Strategy != "apply first with Tata" || len(out.Points) != 1 {
		t.Errorf("decoded = %+v", out)
	}
}
