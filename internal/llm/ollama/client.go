package ollama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm"
)

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Images []string `json:"images,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (c *Client) Name() string { return "ollama" }

// Generate implements llm.Backend with a single non-streaming /generate call.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	body := generateRequest{
		Model:  c.cfg.Model,
		Prompt: req.Prompt,
		Stream: false,
		Images: req.Images,
	}
	raw, status, err := llm.SendJSON(ctx, c.http, c.cfg.BaseURL+"/generate", body, nil, c.logger)
	if err != nil {
		var gr generateResponse
		if status != 0 && json.Unmarshal(raw, &gr) == nil && gr.Error != "" {
			return "", fmt.Errorf("ollama status %d: %s: %w", status, gr.Error, common.ErrBackend)
		}
		return "", err
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.logger.Error("llm.ollama.decode_error", "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("%w: decode ollama response: %v", common.ErrBackend, err)
	}
	if gr.Error != "" {
		return "", fmt.Errorf("%w: ollama: %s", common.ErrBackend, gr.Error)
	}
	return gr.Response, nil
}

// Health calls /version, which needs no model to be loaded.
func (c *Client) Health(ctx context.Context) llm.HealthStatus {
	st := llm.HealthStatus{Backend: c.Name(), Model: c.cfg.Model, BaseURL: c.cfg.BaseURL}
	var v struct {
		Version string `json:"version"`
	}
	if _, err := llm.GetJSON(ctx, c.http, c.cfg.BaseURL+"/version", &v, c.logger); err != nil {
		c.logger.Warn("llm.ollama.health_failed", "base_url", c.cfg.BaseURL, "error", err)
		st.Error = err.Error()
		return st
	}
	st.Version = v.Version
	st.Healthy = true
	return st
}
