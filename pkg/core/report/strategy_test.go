package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"loanintel/pkg/models"
)

type fakeProvider struct {
	reply string
	err   error
}

func (f *fakeProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	return f.reply, f.err
}

func passingMatches() []LenderMatch {
	one, two := 1, 2
	score1, score2 := 82.0, 71.0
	return []LenderMatch{
		{
			LenderName: "Tata Capital", ProductName: "Business Loan",
			ProgramType: models.ProgramBanking, Status: models.FilterPass,
			Score: &score1, Probability: prob(models.ProbabilityHigh),
			TicketMax: fp(22.5), Rank: &one,
			SpecialRequirements: []string{"video KYC"},
		},
		{
			LenderName: "Bajaj Finserv", ProductName: "Flexi BL",
			ProgramType: models.ProgramHybrid, Status: models.FilterPass,
			Score: &score2, Probability: prob(models.ProbabilityMedium),
			TicketMax: fp(15), Rank: &two,
		},
		{LenderName: "IIFL Finance", ProductName: "BL", Status: models.FilterFail},
	}
}

func TestFallbackStrategyWithoutProvider(t *testing.T) {
	text, source := BuildStrategy(context.Background(), nil, BorrowerProfile{}, passingMatches())
	if source != "fallback" {
		t.Fatalf("source = %s", source)
	}
	if !strings.Contains(text, "Tata Capital") {
		t.Errorf("fallback must lead with the top-ranked lender:\n%s", text)
	}
	if !strings.Contains(text, "Bajaj Finserv") {
		t.Errorf("fallback must list alternates:\n%s", text)
	}
	if !strings.Contains(text, "video KYC") {
		t.Errorf("fallback must surface special requirements:\n%s", text)
	}
}

func TestFallbackStrategyZeroPasses(t *testing.T) {
	text, source := BuildStrategy(context.Background(), nil, BorrowerProfile{},
		[]LenderMatch{{Status: models.FilterFail}})
	if source != "fallback" || !strings.Contains(text, "No lender products passed") {
		t.Errorf("source=%s text=%q", source, text)
	}
}

func TestLLMStrategyUsed(t *testing.T) {
	p := &fakeProvider{reply: "```markdown\n## Strategy\nApply with Tata Capital first.\n```"}
	text, source := BuildStrategy(context.Background(), p, BorrowerProfile{}, passingMatches())
	if source != "llm" {
		t.Fatalf("source = %s", source)
	}
	if strings.Contains(text, "```") {
		t.Errorf("code fences must be stripped:\n%s", text)
	}
	if !strings.Contains(text, "Apply with Tata Capital") {
		t.Errorf("unexpected text:\n%s", text)
	}
}

func TestLLMErrorFallsBack(t *testing.T) {
	p := &fakeProvider{err: errors.New("timeout")}
	_, source := BuildStrategy(context.Background(), p, BorrowerProfile{}, passingMatches())
	if source != "fallback" {
		t.Errorf("source = %s, errors must route to fallback", source)
	}
}

func TestEmptyLLMReplyFallsBack(t *testing.T) {
	p := &fakeProvider{reply: "   "}
	_, source := BuildStrategy(context.Background(), p, BorrowerProfile{}, passingMatches())
	if source != "fallback" {
		t.Errorf("source = %s, blank replies must route to fallback", source)
	}
}

func TestStrategyInputsCapAlternates(t *testing.T) {
	var matches []LenderMatch
	for i := 0; i < 10; i++ {
		matches = append(matches, LenderMatch{Status: models.FilterPass})
	}
	in := buildStrategyInputs(matches)
	if in.Top == nil || len(in.Alternates) != 5 || in.Passed != 10 {
		t.Errorf("inputs = top=%v alternates=%d passed=%d", in.Top, len(in.Alternates), in.Passed)
	}
}
