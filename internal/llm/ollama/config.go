package ollama

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config for the Ollama client.
type Config struct {
	BaseURL string        // default http://localhost:11434/api
	Model   string        // e.g., "gemma3:4b"
	Timeout time.Duration // http client timeout; per-call deadlines come from the context
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434/api"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gemma3:4b"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
