package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/otzaria/acronymizer/llm"
	"github.com/rs/zerolog"
)

const extractMaxTokens = 1024

// AnthropicClient implements the llm.Client interface for Anthropic's API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger zerolog.Logger
}

// NewAnthropicClient creates a new AnthropicClient with the given API key.
func NewAnthropicClient(apiKey, model string, logger zerolog.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{
		client: &client,
		model:  model,
		logger: logger.With().Str("component", "anthropicClient").Logger(),
	}, nil
}

// ExtractAcronyms implements llm.Client.ExtractAcronyms.
func (c *AnthropicClient) ExtractAcronyms(ctx context.Context, text string) (*llm.Extraction, error) {
	content, err := c.complete(ctx, llm.ExtractSystemPrompt, text, extractMaxTokens)
	if err != nil {
		return nil, err
	}
	return llm.ParseExtraction(content)
}

// Uniformize implements llm.Client.Uniformize.
func (c *AnthropicClient) Uniformize(ctx context.Context, entries []llm.Extraction) ([]llm.Extraction, error) {
	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal uniformize entries: %w", err)
	}

	maxTokens := extractMaxTokens * (1 + len(entries))
	content, err := c.complete(ctx, llm.UniformizeSystemPrompt, string(payload), maxTokens)
	if err != nil {
		return nil, err
	}
	return llm.ParseExtractions(content)
}

// complete makes a single Messages API call and concatenates the text
// blocks of the response.
func (c *AnthropicClient) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		System: []anthropic.TextBlockParam{
			{Text: system, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", convertAnthropicError(err)
	}

	var sb strings.Builder
	for _, blockUnion := range message.Content {
		if block, ok := blockUnion.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(block.Text)
		}
	}

	c.logger.Debug().
		Int64("input_tokens", message.Usage.InputTokens).
		Int64("output_tokens", message.Usage.OutputTokens).
		Msg("Messages API call complete")

	if sb.Len() == 0 {
		return "", llm.NewSchemaError("no text content in response", nil)
	}
	return sb.String(), nil
}

// convertAnthropicError converts Anthropic API errors to llm.Error types.
func convertAnthropicError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return llm.NewProviderError("Anthropic API error", err)
	}

	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		retryAfter := retryAfterFromResponse(apiErr.Response)
		return llm.NewRateLimitError(
			fmt.Sprintf("Anthropic rate limit (HTTP %d)", apiErr.StatusCode),
			retryAfter,
			err,
		)
	case http.StatusBadRequest:
		return &llm.Error{
			Type:        llm.ErrorTypeInvalidRequest,
			Message:     fmt.Sprintf("Anthropic invalid request (HTTP %d)", apiErr.StatusCode),
			Retryable:   false,
			StatusCode:  apiErr.StatusCode,
			ProviderErr: err,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, 529:
		// 529 is Anthropic's "overloaded" status
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     fmt.Sprintf("Anthropic server error (HTTP %d)", apiErr.StatusCode),
			Retryable:   true,
			StatusCode:  apiErr.StatusCode,
			ProviderErr: err,
		}
	default:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     fmt.Sprintf("Anthropic API error (HTTP %d)", apiErr.StatusCode),
			Retryable:   false,
			StatusCode:  apiErr.StatusCode,
			ProviderErr: err,
		}
	}
}

// retryAfterFromResponse extracts the Retry-After header as a duration,
// accepting either a seconds value or an HTTP date. Returns nil if absent
// or unparseable.
func retryAfterFromResponse(resp *http.Response) *time.Duration {
	if resp == nil {
		return nil
	}
	retryAfterStr := resp.Header.Get("Retry-After")
	if retryAfterStr == "" {
		return nil
	}

	if seconds, err := strconv.Atoi(retryAfterStr); err == nil {
		d := time.Duration(seconds) * time.Second
		return &d
	}
	if retryTime, err := time.Parse(time.RFC1123, retryAfterStr); err == nil {
		if d := time.Until(retryTime); d > 0 {
			return &d
		}
	}
	return nil
}

var _ llm.Client = (*AnthropicClient)(nil)
