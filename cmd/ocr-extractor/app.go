package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/export"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm/gemini"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm/ollama"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/pipeline"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/raster"
	repo "github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/repository"
)

// app holds the wired pipeline shared by the process and serve commands.
type app struct {
	cfg     *common.Config
	logger  *slog.Logger
	gateway *llm.Gateway
	db      *repo.DB
	docs    repo.DocumentRepository
	service *pipeline.DocumentService
	writer  *export.Writer
}

func loadConfig(path string) (*common.Config, error) {
	cfg := common.LoadConfig()
	if path != "" {
		if err := common.LoadConfigFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newBackend(ctx context.Context, cfg common.ModelConfig, logger *slog.Logger) (llm.Backend, error) {
	switch cfg.Backend {
	case "gemini":
		return gemini.NewClient(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL}, logger)
	case "ollama":
		return ollama.NewClient(ollama.Config{BaseURL: cfg.BaseURL, Model: cfg.Name, Timeout: cfg.Timeout}, logger), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
	}
}

// newApp wires config, logger, model gateway, ledger and pipeline. withLedger=false skips
// the database entirely.
func newApp(ctx context.Context, configPath string, withLedger bool) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	if err := cfg.Storage.EnsureDirs(); err != nil {
		return nil, err
	}

	backend, err := newBackend(ctx, cfg.Model, logger)
	if err != nil {
		return nil, err
	}
	gw := llm.NewGateway(backend, llm.PromptsFromConfig(cfg.Prompts), cfg.Model.Timeout, logger)

	a := &app{cfg: cfg, logger: logger, gateway: gw, writer: export.NewWriter(logger)}

	var ledger pipeline.Ledger
	if withLedger {
		db, err := repo.Open(ctx, repo.ConfigFromCommon(cfg.Database), logger)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.docs = repo.NewDocumentRepository(db, logger)
		ledger = a.docs
	}

	rast := raster.NewRasterizer(raster.ConfigFromCommon(cfg.Raster), logger)
	agg := pipeline.NewAggregator(rast, gw, a.writer, pipeline.Dirs{
		Screenshots: cfg.Storage.ScreenshotDir(),
		Outputs:     cfg.Storage.OutputDir(),
	}, cfg.Pipeline.PageWorkers, logger)
	a.service = pipeline.NewDocumentService(agg, ledger, cfg.Pipeline.DocumentTimeout, logger)
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close(a.logger)
	}
}
