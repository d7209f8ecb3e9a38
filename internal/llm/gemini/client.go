package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm"
)

// Config for the Gemini backend.
type Config struct {
	APIKey  string
	Model   string // e.g., "gemini-2.0-flash"
	BaseURL string // optional endpoint override, e.g. a proxy
}

// Client implements llm.Backend on top of the genai SDK.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "gemini api key is required", common.ErrInvalidInput)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: c, model: cfg.Model, logger: logger}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	mt := req.ImageMIME
	if mt == "" {
		mt = "image/png"
	}
	parts := []*genai.Part{{Text: req.Prompt}}
	for _, img := range req.Images {
		b, err := base64.StdEncoding.DecodeString(img)
		if err != nil {
			return "", fmt.Errorf("decode image: %w", err)
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mt, Data: b}})
	}

	start := time.Now()
	res, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{{Role: genai.RoleUser, Parts: parts}}, nil)
	if err != nil {
		c.logger.Error("llm.gemini.generate_error", "model", c.model, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: gemini: %v", common.ErrBackend, err)
	}
	c.logger.Debug("llm.gemini.generate_ok", "model", c.model, "elapsed_ms", time.Since(start).Milliseconds())
	return res.Text(), nil
}

// Health looks up the configured model, which exercises auth and connectivity.
func (c *Client) Health(ctx context.Context) llm.HealthStatus {
	st := llm.HealthStatus{Backend: c.Name(), Model: c.model}
	m, err := c.client.Models.Get(ctx, c.model, nil)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	if m == nil {
		st.Error = "model not found"
		return st
	}
	st.Version = m.Version
	st.Healthy = true
	return st
}
