package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client is the completion service used by intent classification
type Client interface {
	// GenerateContent returns free text for prompt
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON returns a JSON document for prompt with code fences removed
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GetModel returns the provider model name for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a client for the configured provider. An empty API key
// yields a client whose every call fails with ErrNotConfigured.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if apiKey == "" {
		return Unconfigured{}, nil
	}
	return NewGeminiClient(ctx, config, apiKey)
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, config: config}, nil
}

func (c *GeminiClient) model(tier ModelTier, jsonOutput bool) (*genai.GenerativeModel, error) {
	name := c.config.GetModel(tier)
	if name == "" {
		return nil, &Error{Kind: KindUnavailable, Message: fmt.Sprintf("no model configured for tier %s", tier)}
	}
	model := c.client.GenerativeModel(name)
	// Classification must be repeatable
	model.SetTemperature(0)
	if jsonOutput {
		model.ResponseMIMEType = "application/json"
	}
	return model, nil
}

// GenerateContent implements Client
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := c.model(tier, false)
	if err != nil {
		return "", err
	}
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", wrapError("generate content", err)
	}
	return extractTextFromResponse(resp)
}

// GenerateJSON implements Client
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := c.model(tier, true)
	if err != nil {
		return "", err
	}
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", wrapError("generate json", err)
	}
	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel implements Client
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close implements Client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &Error{Kind: KindMalformed, Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", &Error{Kind: KindMalformed, Message: "no content in response"}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", &Error{Kind: KindMalformed, Message: "no text parts in response"}
	}
	return strings.Join(parts, ""), nil
}

// Unconfigured is the Client used when no provider credentials exist
type Unconfigured struct{}

func (Unconfigured) GenerateContent(context.Context, string, ModelTier) (string, error) {
	return "", &Error{Kind: KindUnavailable, Message: "completion", Cause: ErrNotConfigured}
}

func (Unconfigured) GenerateJSON(context.Context, string, ModelTier) (string, error) {
	return "", &Error{Kind: KindUnavailable, Message: "completion", Cause: ErrNotConfigured}
}

func (Unconfigured) GetModel(ModelTier) string { return "" }

func (Unconfigured) Close() error { return nil }

// timeoutClient bounds every call with its own deadline
type timeoutClient struct {
	Client
	timeout time.Duration
}

// WithTimeout wraps c so each call is cancelled after d. A non-positive d returns c unchanged.
func WithTimeout(c Client, d time.Duration) Client {
	if d <= 0 {
		return c
	}
	return &timeoutClient{Client: c, timeout: d}
}

func (c *timeoutClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	text, err := c.Client.GenerateContent(ctx, prompt, tier)
	if err != nil && ctx.Err() != nil {
		return "", &Error{Kind: KindTimeout, Message: fmt.Sprintf("no response within %s", c.timeout), Cause: err}
	}
	return text, err
}

func (c *timeoutClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	text, err := c.Client.GenerateJSON(ctx, prompt, tier)
	if err != nil && ctx.Err() != nil {
		return "", &Error{Kind: KindTimeout, Message: fmt.Sprintf("no response within %s", c.timeout), Cause: err}
	}
	return text, err
}
