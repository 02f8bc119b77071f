package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dgallion1/datasetgen/internal/api"
	"github.com/dgallion1/datasetgen/internal/checkpoint"
	"github.com/dgallion1/datasetgen/internal/config"
	"github.com/dgallion1/datasetgen/internal/dataset"
	"github.com/dgallion1/datasetgen/internal/extract"
	"github.com/dgallion1/datasetgen/internal/parser"
	"github.com/dgallion1/datasetgen/internal/pipeline"
	"github.com/dgallion1/datasetgen/internal/progress"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/viant/afs"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	log := newLogger(cfg, os.Stderr)

	if err := cfg.Validate(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		log.Error("invalid configuration", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	log = log.With("run_id", runID)

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		log.Error("model client setup failed", "error", err)
		return 1
	}
	defer gen.Close()

	sink, err := dataset.OpenSink(cfg.OutputPath, dataset.Options{Sync: cfg.SyncWrites})
	if err != nil {
		log.Error("dataset open failed", "path", cfg.OutputPath, "error", err)
		return 1
	}
	if sink.Resumed() {
		log.Info("appending to existing dataset", "path", sink.Path(), "existing_records", sink.Existing())
	} else {
		log.Info("creating dataset", "path", sink.Path())
	}

	fs := afs.New()
	state := pipeline.NewRunState(runID)
	stats := extract.NewLLMStats(time.Hour)

	deps := pipeline.Deps{
		FS:        fs,
		Extractor: parser.NewExtractor(fs, cfg.MinPageChars, cfg.PDFFallbackPdftotext),
		Generator: gen,
		Validator: extract.NewValidator(),
		Sink:      sink,
		Progress:  progress.Nop{},
		Stats:     stats,
		State:     state,
		Log:       log,
	}
	if cfg.Progress {
		deps.Progress = progress.NewBar(os.Stderr)
	}

	if cfg.CheckpointPath != "" {
		ledger, err := checkpoint.Open(ctx, cfg.CheckpointPath)
		if err != nil {
			log.Error("checkpoint open failed", "path", cfg.CheckpointPath, "error", err)
			return 1
		}
		defer ledger.Close()
		if n, err := ledger.Count(ctx); err == nil {
			log.Info("checkpoint loaded", "path", cfg.CheckpointPath, "processed_pages", n)
		}
		deps.Ledger = ledger
	}

	if cfg.StatusAddr != "" {
		srv := &http.Server{
			Addr:         cfg.StatusAddr,
			Handler:      api.NewServer(state, stats, gen.Model(), cfg.StatusAPIKey, log),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info("status server listening", "addr", cfg.StatusAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("status server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	driver := pipeline.NewDriver(pipeline.Config{
		DocsDir:    cfg.DocsDir,
		Patterns:   cfg.DocsPatterns,
		Pacing:     cfg.PacingInterval,
		MaxRetries: cfg.MaxRetries,
	}, deps)

	summary, err := driver.Run(ctx)
	if errors.Is(err, parser.ErrDirNotFound) {
		fmt.Fprintf(os.Stderr, "Documents directory not found: %s\n", cfg.DocsDir)
		return 1
	}

	printSummary(os.Stdout, summary)
	if err != nil {
		log.Warn("run stopped early", "error", err)
		if errors.Is(err, context.Canceled) {
			return 130
		}
		return 1
	}
	return 0
}

func newGenerator(ctx context.Context, cfg config.Config) (extract.Generator, error) {
	params := extract.GenerationParams{
		Temperature:     float32(cfg.Temperature),
		TopP:            float32(cfg.TopP),
		TopK:            int32(cfg.TopK),
		MaxOutputTokens: int32(cfg.MaxOutputTokens),
	}
	lang, err := extract.ParseLanguage(cfg.PromptLang)
	if err != nil {
		return nil, err
	}
	prompt := extract.SystemPrompt(lang, cfg.Instruction)

	switch cfg.Backend {
	case config.BackendVertex:
		return extract.NewVertexClient(ctx, extract.VertexOptions{
			ProjectID:    cfg.VertexProject,
			Region:       cfg.VertexRegion,
			Model:        cfg.Model,
			SystemPrompt: prompt,
			Params:       params,
		})
	default:
		return extract.NewGeminiClient(ctx, extract.GeminiOptions{
			APIKey:       cfg.GeminiAPIKey,
			Model:        cfg.Model,
			BaseURL:      cfg.GeminiBaseURL,
			SystemPrompt: prompt,
			Params:       params,
			Timeout:      cfg.ModelTimeout,
		})
	}
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func printSummary(w io.Writer, s pipeline.Summary) {
	fmt.Fprintln(w)
	color.New(color.FgGreen, color.Bold).Fprintln(w, "[RUN COMPLETE]")
	fmt.Fprintf(w, "Documents found:     %d (%d failed)\n", s.Documents, s.DocumentsFailed)
	fmt.Fprintf(w, "Pages sent to model: %d (%d failed, %d skipped as short, %d already done)\n",
		s.Pages, s.ModelFailures, s.PagesSkipped, s.PagesCheckpointed)
	fmt.Fprintf(w, "Pairs generated:     %d (%d rejected)\n", s.Records, s.Rejected)
	fmt.Fprintf(w, "Dataset saved to:    %s\n", s.Output)
	fmt.Fprintf(w, "Elapsed:             %s\n", s.Duration.Round(time.Second))
}
