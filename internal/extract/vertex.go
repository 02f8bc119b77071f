package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// VertexClient calls Gemini through Vertex AI using application default
// credentials.
type VertexClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// VertexOptions configures a VertexClient.
type VertexOptions struct {
	ProjectID    string
	Region       string
	Model        string
	SystemPrompt string
	Params       GenerationParams
}

func NewVertexClient(ctx context.Context, opts VertexOptions) (*VertexClient, error) {
	if opts.ProjectID == "" || opts.Region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	client, err := genai.NewClient(ctx, opts.ProjectID, opts.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := client.GenerativeModel(opts.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(opts.SystemPrompt)},
	}
	model.SetTemperature(opts.Params.Temperature)
	model.SetTopP(opts.Params.TopP)
	model.SetTopK(opts.Params.TopK)
	model.SetMaxOutputTokens(opts.Params.MaxOutputTokens)
	model.ResponseMIMEType = "application/json"

	return &VertexClient{client: client, model: model, name: opts.Model}, nil
}

// Generate sends pageText as the user turn and decodes the JSON array reply.
func (c *VertexClient) Generate(ctx context.Context, pageText string) (Batch, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(pageText))
	if err != nil {
		return Batch{}, classifyVertexError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Batch{}, ErrEmptyResponse
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return DecodeBatch(text.String())
}

// classifyVertexError marks quota and availability failures as retryable.
func classifyVertexError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	switch status.Code(err) {
	case codes.ResourceExhausted:
		return &RetryableError{StatusCode: 429, Message: err.Error()}
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal:
		return &RetryableError{StatusCode: 503, Message: err.Error()}
	}
	return fmt.Errorf("vertex generate: %w", err)
}

// Model returns the configured model name.
func (c *VertexClient) Model() string { return c.name }

func (c *VertexClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
