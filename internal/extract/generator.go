package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Batch is the untrusted list of record-shaped values returned by one model
// call. Elements are whatever JSON decoded to; see Validator.
type Batch []any

// Generator produces candidate records for one page of text.
//
// Generate makes exactly one model call and does not retry. On failure it
// returns an empty batch and the reason; callers decide whether to retry,
// log, or move on.
type Generator interface {
	Generate(ctx context.Context, pageText string) (Batch, error)
	Model() string
	Close() error
}

// GenerationParams are the sampling settings sent with every call.
// JSON output is always requested.
type GenerationParams struct {
	Temperature     float32
	TopP            float32
	TopK            int32
	MaxOutputTokens int32
}

// DefaultGenerationParams returns the settings used to build the dataset.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature:     1,
		TopP:            0.95,
		TopK:            64,
		MaxOutputTokens: 8192,
	}
}

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("empty response from model")

// DecodeBatch parses model output as a JSON array. A surrounding markdown
// code fence is tolerated, and a lone object is taken as a batch of one.
func DecodeBatch(text string) (Batch, error) {
	text = stripCodeBlock(text)
	if text == "" {
		return Batch{}, ErrEmptyResponse
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return Batch{}, fmt.Errorf("parse batch json: %w (raw: %s)", err, truncate(text, 200))
	}
	switch v := v.(type) {
	case []any:
		return Batch(v), nil
	case map[string]any:
		return Batch{v}, nil
	case nil:
		return Batch{}, nil
	default:
		return Batch{}, fmt.Errorf("parse batch json: want array, got %T (raw: %s)", v, truncate(text, 200))
	}
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}
