package llm

import (
	"fmt"
	"os"
	"sync"
)

// ClientKey uniquely identifies an LLM client configuration.
type ClientKey struct {
	Provider     string
	Model        string
	APIKey       string // For credential-based providers
	Host         string // For Ollama
	BaseURL      string // For OpenAI
	Organization string // For OpenAI
}

// ProviderConfig holds the configuration needed for provider resolution.
// This avoids import cycles by not importing the config package.
type ProviderConfig struct {
	AnthropicAPIKey string
	AnthropicModel  string
	OllamaHost      string
	OllamaModel     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIOrg       string
}

// ProviderRegistry manages LLM provider selection and configuration
// resolution. Client creation is handled by the caller.
type ProviderRegistry struct {
	enabledProviders []string // Ordered: first enabled+configured provider wins
	mu               sync.RWMutex
	config           *ProviderConfig
}

// NewProviderRegistry creates a new ProviderRegistry with the given config
// and enabled providers, in preference order.
func NewProviderRegistry(providerConfig *ProviderConfig, enabledProviders []string) *ProviderRegistry {
	return &ProviderRegistry{
		enabledProviders: enabledProviders,
		config:           providerConfig,
	}
}

// IsProviderConfigured checks if a provider has the required configuration
// (API keys, hosts, etc.), consulting the environment as a fallback.
func (r *ProviderRegistry) IsProviderConfigured(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isProviderConfiguredUnlocked(provider)
}

// Resolve returns a ClientKey for the first enabled and configured
// provider, or an error if none is available.
func (r *ProviderRegistry) Resolve() (*ClientKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.enabledProviders) == 0 {
		return nil, fmt.Errorf("no providers enabled")
	}

	var attempted []string
	for _, provider := range r.enabledProviders {
		attempted = append(attempted, provider)
		if !r.isProviderConfiguredUnlocked(provider) {
			continue
		}
		key, err := r.resolveProviderConfig(provider)
		if err != nil {
			continue
		}
		return key, nil
	}

	return nil, fmt.Errorf("no available provider among %v", attempted)
}

// isProviderConfiguredUnlocked is the unlocked version of IsProviderConfigured.
// Must be called with r.mu already locked.
func (r *ProviderRegistry) isProviderConfiguredUnlocked(provider string) bool {
	switch provider {
	case ProviderAnthropic:
		apiKey := r.config.AnthropicAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		return apiKey != ""
	case ProviderOllama:
		// Ollama doesn't require an API key, just a host (which has a default)
		return true
	case ProviderOpenAI:
		apiKey := r.config.OpenAIAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return apiKey != ""
	default:
		return false
	}
}

// resolveProviderConfig resolves provider-specific configuration and returns a ClientKey.
func (r *ProviderRegistry) resolveProviderConfig(provider string) (*ClientKey, error) {
	key := &ClientKey{Provider: provider}

	switch provider {
	case ProviderAnthropic:
		apiKey := r.config.AnthropicAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic API key not configured")
		}
		key.APIKey = apiKey
		key.Model = r.config.AnthropicModel
		if key.Model == "" {
			key.Model = "claude-haiku-4-5"
		}

	case ProviderOllama:
		host := r.config.OllamaHost
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = "http://localhost:11434"
		}
		key.Host = host

		key.Model = r.config.OllamaModel
		if key.Model == "" {
			key.Model = os.Getenv("OLLAMA_MODEL")
		}
		if key.Model == "" {
			return nil, fmt.Errorf("ollama model not specified and no default configured")
		}

	case ProviderOpenAI:
		apiKey := r.config.OpenAIAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		key.APIKey = apiKey

		baseURL := r.config.OpenAIBaseURL
		if baseURL == "" {
			baseURL = os.Getenv("OPENAI_BASE_URL")
		}
		key.BaseURL = baseURL

		org := r.config.OpenAIOrg
		if org == "" {
			org = os.Getenv("OPENAI_ORG_ID")
		}
		key.Organization = org

		key.Model = r.config.OpenAIModel
		if key.Model == "" {
			key.Model = os.Getenv("OPENAI_MODEL")
		}
		if key.Model == "" {
			key.Model = "gpt-4o-mini"
		}

	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	return key, nil
}
