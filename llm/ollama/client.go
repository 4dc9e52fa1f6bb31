package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/otzaria/acronymizer/llm"
)

// OllamaClient implements the llm.Client interface for Ollama's API.
// Ollama runs locally, so no rate-limit conversion is needed; any error
// from the daemon is surfaced as a provider error.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates a new OllamaClient.
// If host is empty, it will use the default from environment
// (OLLAMA_HOST or http://localhost:11434).
func NewOllamaClient(host, model string) (*OllamaClient, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var client *api.Client
	if host != "" {
		baseURL, err := parseHost(host)
		if err != nil {
			return nil, fmt.Errorf("invalid host: %w", err)
		}
		client = api.NewClient(baseURL, &http.Client{})
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	return &OllamaClient{
		client: client,
		model:  model,
	}, nil
}

// parseHost parses a host string into a URL.
func parseHost(host string) (*url.URL, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

// ExtractAcronyms implements llm.Client.ExtractAcronyms.
func (c *OllamaClient) ExtractAcronyms(ctx context.Context, text string) (*llm.Extraction, error) {
	content, err := c.complete(ctx, llm.ExtractSystemPrompt, text)
	if err != nil {
		return nil, err
	}
	return llm.ParseExtraction(content)
}

// Uniformize implements llm.Client.Uniformize.
func (c *OllamaClient) Uniformize(ctx context.Context, entries []llm.Extraction) ([]llm.Extraction, error) {
	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal uniformize entries: %w", err)
	}

	content, err := c.complete(ctx, llm.UniformizeSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}
	return llm.ParseExtractions(content)
}

// complete makes a single non-streaming chat call with JSON output format.
func (c *OllamaClient) complete(ctx context.Context, system, user string) (string, error) {
	chatReq := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: new(bool), // false for non-streaming
		Format: json.RawMessage(`"json"`),
	}

	var sb strings.Builder
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", llm.NewProviderError("Ollama API error", err)
	}

	if sb.Len() == 0 {
		return "", llm.NewSchemaError("no content in response", nil)
	}
	return sb.String(), nil
}

var _ llm.Client = (*OllamaClient)(nil)
