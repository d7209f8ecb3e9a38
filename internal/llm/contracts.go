package llm

import (
	"context"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// TaskKind selects the instruction sent with a page image.
type TaskKind string

const (
	TaskClassify     TaskKind = "classify"
	TaskExtractText  TaskKind = "extract_text"
	TaskExtractTable TaskKind = "extract_table"
)

// GenerateRequest is one non-streaming generation with attached images (base64, no data: prefix).
type GenerateRequest struct {
	Prompt    string
	Images    []string
	ImageMIME string
}

// HealthStatus describes the reachability of a backend.
type HealthStatus struct {
	Backend string `json:"backend"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	Version string `json:"version,omitempty"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Backend is a vision-capable text generator.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Health(ctx context.Context) HealthStatus
}

// Invoker is the gateway behavior the page protocol depends on.
type Invoker interface {
	Invoke(ctx context.Context, page entity.PageImage, task TaskKind) entity.ModelResponse
}
