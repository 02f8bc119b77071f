package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API with an API key through the genai SDK.
type GeminiClient struct {
	client     *genai.Client
	httpClient *http.Client
	model      string
	config     *genai.GenerateContentConfig
}

// GeminiOptions configures a GeminiClient.
type GeminiOptions struct {
	APIKey       string
	Model        string
	BaseURL      string // empty uses the SDK default endpoint
	SystemPrompt string
	Params       GenerationParams
	// Timeout bounds each call. Zero leaves it to the transport.
	Timeout time.Duration
}

func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	httpClient := &http.Client{Timeout: max(opts.Timeout, 0)}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	return &GeminiClient{
		client:     client,
		httpClient: httpClient,
		model:      opts.Model,
		config:     contentConfig(opts.SystemPrompt, opts.Params),
	}, nil
}

func contentConfig(systemPrompt string, p GenerationParams) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(p.Temperature),
		TopP:             genai.Ptr(p.TopP),
		TopK:             genai.Ptr(float32(p.TopK)),
		MaxOutputTokens:  p.MaxOutputTokens,
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	return cfg
}

// Generate sends pageText as the user turn and decodes the JSON array reply.
func (c *GeminiClient) Generate(ctx context.Context, pageText string) (Batch, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(pageText), c.config)
	if err != nil {
		return Batch{}, classifyGeminiError(err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return Batch{}, fmt.Errorf("gemini blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return Batch{}, ErrEmptyResponse
	}
	return DecodeBatch(resp.Text())
}

// classifyGeminiError marks rate limiting and server errors as retryable.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return &RetryableError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return fmt.Errorf("gemini api status %d: %s", apiErr.Code, truncate(apiErr.Message, 500))
	}
	return fmt.Errorf("gemini api: %w", err)
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string { return c.model }

// Close releases idle connections.
func (c *GeminiClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
