package llm

import (
	"testing"
)

func TestResolvePrefersFirstConfiguredProvider(t *testing.T) {
	cfg := &ProviderConfig{
		OpenAIAPIKey: "sk-test",
		OpenAIModel:  "gpt-4o-mini",
	}
	r := NewProviderRegistry(cfg, []string{ProviderOpenAI, ProviderOllama})

	key, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Provider != ProviderOpenAI || key.APIKey != "sk-test" || key.Model != "gpt-4o-mini" {
		t.Errorf("Resolve = %+v, want openai with configured key and model", key)
	}
}

func TestResolveSkipsUnconfiguredProvider(t *testing.T) {
	// Anthropic is first but has no key; ollama works with a model set.
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := &ProviderConfig{OllamaModel: "aya:8b"}
	r := NewProviderRegistry(cfg, []string{ProviderAnthropic, ProviderOllama})

	key, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Provider != ProviderOllama {
		t.Errorf("Resolve picked %s, want ollama fallback", key.Provider)
	}
	if key.Host != "http://localhost:11434" {
		t.Errorf("ollama host = %q, want default", key.Host)
	}
}

func TestResolveAnthropicDefaults(t *testing.T) {
	cfg := &ProviderConfig{AnthropicAPIKey: "sk-ant"}
	r := NewProviderRegistry(cfg, []string{ProviderAnthropic})

	key, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Model == "" {
		t.Error("anthropic model default not applied")
	}
}

func TestResolveNoProviders(t *testing.T) {
	r := NewProviderRegistry(&ProviderConfig{}, nil)
	if _, err := r.Resolve(); err == nil {
		t.Error("Resolve with no enabled providers returned nil error")
	}
}

func TestResolveOllamaRequiresModel(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "")
	r := NewProviderRegistry(&ProviderConfig{}, []string{ProviderOllama})
	if _, err := r.Resolve(); err == nil {
		t.Error("Resolve with ollama but no model returned nil error")
	}
}

func TestEnvFallbackForOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	r := NewProviderRegistry(&ProviderConfig{}, []string{ProviderOpenAI})

	if !r.IsProviderConfigured(ProviderOpenAI) {
		t.Fatal("openai not considered configured with env key")
	}
	key, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.APIKey != "sk-env" {
		t.Errorf("APIKey = %q, want env fallback", key.APIKey)
	}
}
