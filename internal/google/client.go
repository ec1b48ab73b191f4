package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jusunglee/shittracker/internal/llm"
	"google.golang.org/genai"
)

// Model represents a Google AI model identifier
type Model string

const (
	ModelGemma3_27B     Model = "gemma-3-27b-it"
	ModelGemini2Flash   Model = "gemini-2.0-flash"
	ModelGemini2_5Flash Model = "gemini-2.5-flash"
)

var DefaultModel Model = ModelGemini2Flash

const (
	maxOutputTokens = 150
	temperature     = 0.7
)

var ErrNoText = errors.New("no text in google response")

type Client struct {
	client *genai.Client
	model  Model
}

// NewClient builds a Gemini API client. An empty baseURL uses the SDK default.
func NewClient(ctx context.Context, apiKey string, model Model, baseURL string) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating google client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// supportsSystemInstruction is false for Gemma, which rejects the field.
func (c *Client) supportsSystemInstruction() bool {
	return !strings.HasPrefix(string(c.model), "gemma")
}

func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: maxOutputTokens,
		Temperature:     genai.Ptr[float32](temperature),
	}
	if c.supportsSystemInstruction() {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	} else {
		prompt = system + "\n\n" + prompt
	}

	result, err := c.client.Models.GenerateContent(ctx, string(c.model),
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("generating google content: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", ErrNoText
	}
	return llm.StripMarkdownCodeBlocks(text), nil
}
