package llm

import (
	"testing"
	"time"
)

func TestNewAppliesConfigOverrides(t *testing.T) {
	p := New("openai", "https://llm.internal", "gpt-4.1-mini", 3*time.Second)
	chat, ok := p.(*ChatProvider)
	if !ok {
		t.Fatalf("provider = %T, want *ChatProvider", p)
	}
	if chat.BaseURL != "https://llm.internal" {
		t.Errorf("base URL = %q", chat.BaseURL)
	}
	if chat.Model != "gpt-4.1-mini" {
		t.Errorf("model = %q", chat.Model)
	}
	if chat.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", chat.Timeout)
	}
}

func TestNewDefaultsWhenOverridesEmpty(t *testing.T) {
	p := New("deepseek", "", "", 0)
	chat, ok := p.(*ChatProvider)
	if !ok {
		t.Fatalf("provider = %T, want *ChatProvider", p)
	}
	if chat.BaseURL != "https://api.deepseek.com" || chat.Model != "deepseek-chat" {
		t.Errorf("defaults not kept: %+v", chat)
	}
}

func TestNewGeminiAndUnknown(t *testing.T) {
	if _, ok := New("gemini", "", "flash-custom", 0).(*GeminiProvider); !ok {
		t.Error("gemini name must build a GeminiProvider")
	}
	if p := New("", "", "", 0); p != nil {
		t.Errorf("empty name must disable the LLM, got %T", p)
	}
	if p := New("watsonx", "", "", 0); p != nil {
		t.Errorf("unknown name must disable the LLM, got %T", p)
	}
}
