package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"
)

type Config struct {
	// Input and output
	DocsDir      string
	DocsPatterns []string
	OutputPath   string
	SyncWrites   bool
	MinPageChars int

	// Model
	Backend         string
	GeminiAPIKey    string
	GeminiBaseURL   string
	Model           string
	VertexProject   string
	VertexRegion    string
	PromptLang      string
	Instruction     string
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
	ModelTimeout    time.Duration

	// Pacing and retries
	PacingInterval time.Duration
	MaxRetries     int

	// Resume
	CheckpointPath string

	// Observability
	LogLevel     string
	LogFormat    string
	Progress     bool
	StatusAddr   string
	StatusAPIKey string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		DocsDir:      envOr("DOCS_DIR", "docs"),
		DocsPatterns: envList("DOCS_PATTERNS", []string{"*.pdf"}),
		OutputPath:   envOr("OUTPUT_PATH", "dataset_finetuning.jsonl"),
		SyncWrites:   envBool("SYNC_WRITES", true),
		MinPageChars: envInt("MIN_PAGE_CHARS", 50),

		Backend:         strings.ToLower(envOr("MODEL_BACKEND", BackendGemini)),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:   os.Getenv("GEMINI_BASE_URL"),
		Model:           envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		VertexProject:   os.Getenv("VERTEX_PROJECT"),
		VertexRegion:    envOr("VERTEX_REGION", "us-central1"),
		PromptLang:      strings.ToLower(envOr("PROMPT_LANG", "es")),
		Instruction:     os.Getenv("RECORD_INSTRUCTION"),
		Temperature:     envFloat("MODEL_TEMPERATURE", 1),
		TopP:            envFloat("MODEL_TOP_P", 0.95),
		TopK:            envInt("MODEL_TOP_K", 64),
		MaxOutputTokens: envInt("MODEL_MAX_OUTPUT_TOKENS", 8192),
		ModelTimeout:    envDuration("MODEL_TIMEOUT", 0),

		PacingInterval: envDuration("PACING_INTERVAL", 1*time.Second),
		MaxRetries:     envInt("MODEL_MAX_RETRIES", 3),

		CheckpointPath: os.Getenv("CHECKPOINT_PATH"),

		LogLevel:     envOr("LOG_LEVEL", "info"),
		LogFormat:    envOr("LOG_FORMAT", "text"),
		Progress:     envBool("PROGRESS", true),
		StatusAddr:   os.Getenv("STATUS_ADDR"),
		StatusAPIKey: os.Getenv("STATUS_API_KEY"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MinPageChars <= 0 {
		cfg.MinPageChars = 50
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = 1
	}
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		cfg.TopP = 0.95
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 64
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 8192
	}
	// Zero leaves the model call to the transport's own limits.
	if cfg.ModelTimeout < 0 {
		cfg.ModelTimeout = 0
	}
	// Zero pacing is allowed; negative is not.
	if cfg.PacingInterval < 0 {
		cfg.PacingInterval = 1 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return cfg
}

// Validate checks that the selected model backend has its credentials.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required (set it in the environment or a .env file)")
		}
	case BackendVertex:
		if c.VertexProject == "" {
			return fmt.Errorf("VERTEX_PROJECT is required for the vertex backend")
		}
	default:
		return fmt.Errorf("unknown MODEL_BACKEND %q (want %q or %q)", c.Backend, BackendGemini, BackendVertex)
	}
	if c.PromptLang != "es" && c.PromptLang != "en" {
		return fmt.Errorf("unknown PROMPT_LANG %q (want \"es\" or \"en\")", c.PromptLang)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("OUTPUT_PATH must not be empty")
	}
	if len(c.DocsPatterns) == 0 {
		return fmt.Errorf("DOCS_PATTERNS must list at least one pattern")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
