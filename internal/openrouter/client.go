// Package openrouter talks to OpenRouter's OpenAI-compatible chat
// completions endpoint.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jusunglee/shittracker/internal/llm"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "openrouter/auto"
	DefaultTimeout = 30 * time.Second

	defaultMaxTokens   = 150
	defaultTemperature = 0.7
	appTitle           = "Discord Shit Tracker Bot"
	appReferer         = "https://github.com/jusunglee/shittracker"
)

var ErrNoChoices = errors.New("no choices in response")

type Client struct {
	client openai.Client
	model  string
}

// NewClient builds a client for baseURL, falling back to DefaultBaseURL and
// DefaultModel when empty. Retries are disabled; a failed call is reported
// to the caller as-is.
func NewClient(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
			option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
			option.WithMaxRetries(0),
			option.WithHeader("HTTP-Referer", appReferer),
			option.WithHeader("X-Title", appTitle),
		),
		model: model,
	}
}

func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(defaultMaxTokens),
		Temperature: openai.Float(defaultTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("openrouter API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return llm.StripMarkdownCodeBlocks(resp.Choices[0].Message.Content), nil
}
