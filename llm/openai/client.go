package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/otzaria/acronymizer/llm"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAI API errors don't directly expose retry-after headers here; the
// retry layer falls back to parsing the error message or exponential
// backoff, so no default hint is attached.
const extractMaxTokens = 1024

// OpenAIClient implements the llm.Client interface for OpenAI's API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAIClient.
// If apiKey is empty, it will return an error.
// If baseURL is empty, it will use the default OpenAI API endpoint.
func NewOpenAIClient(apiKey, baseURL, model, organization string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if organization != "" {
		config.OrgID = organization
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// ExtractAcronyms implements llm.Client.ExtractAcronyms.
func (c *OpenAIClient) ExtractAcronyms(ctx context.Context, text string) (*llm.Extraction, error) {
	content, err := c.complete(ctx, llm.ExtractSystemPrompt, text, extractMaxTokens)
	if err != nil {
		return nil, err
	}
	return llm.ParseExtraction(content)
}

// Uniformize implements llm.Client.Uniformize.
func (c *OpenAIClient) Uniformize(ctx context.Context, entries []llm.Extraction) ([]llm.Extraction, error) {
	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal uniformize entries: %w", err)
	}

	// Batch responses scale with input size; give the model room.
	maxTokens := extractMaxTokens * (1 + len(entries))
	content, err := c.complete(ctx, llm.UniformizeSystemPrompt, string(payload), maxTokens)
	if err != nil {
		return nil, err
	}
	return llm.ParseExtractions(content)
}

// complete makes a single non-streaming chat completion with JSON output
// enforced by the API's response format.
func (c *OpenAIClient) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	chatResp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", convertOpenAIError(err)
	}

	if len(chatResp.Choices) == 0 {
		return "", llm.NewSchemaError("no choices in response", nil)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// convertOpenAIError converts OpenAI API errors to llm.Error types.
func convertOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return llm.NewProviderError("OpenAI API error", err)
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusTooManyRequests:
		// The message often carries a "try again in Ns" hint; the retry
		// layer parses that, so no RetryAfter is synthesized here.
		return llm.NewRateLimitError(
			fmt.Sprintf("OpenAI rate limit: %s", apiErr.Message),
			nil,
			err,
		)
	case http.StatusBadRequest:
		return &llm.Error{
			Type:        llm.ErrorTypeInvalidRequest,
			Message:     fmt.Sprintf("OpenAI invalid request: %s", apiErr.Message),
			Retryable:   false,
			StatusCode:  apiErr.HTTPStatusCode,
			ProviderErr: err,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     fmt.Sprintf("OpenAI server error: %s", apiErr.Message),
			Retryable:   true,
			StatusCode:  apiErr.HTTPStatusCode,
			ProviderErr: err,
		}
	default:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     fmt.Sprintf("OpenAI API error: %s", apiErr.Message),
			Retryable:   false,
			StatusCode:  apiErr.HTTPStatusCode,
			ProviderErr: err,
		}
	}
}

var _ llm.Client = (*OpenAIClient)(nil)
