package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// Gateway sends one page image with one task instruction to the backend and
// turns the free-form answer into an entity.ModelResponse. It never retries.
type Gateway struct {
	backend Backend
	prompts Prompts
	timeout time.Duration
	logger  *slog.Logger
}

func NewGateway(backend Backend, prompts Prompts, timeout time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{backend: backend, prompts: prompts, timeout: timeout, logger: logger}
}

// Invoke never returns an error: transport failures become Success=false responses,
// unparseable answers become Success=true with a degraded text payload.
func (g *Gateway) Invoke(ctx context.Context, page entity.PageImage, task TaskKind) entity.ModelResponse {
	start := time.Now()
	log := g.logger.With("page", page.Index, "task", string(task), "backend", g.backend.Name())

	prompt, err := g.prompts.For(task)
	if err != nil {
		log.Error("llm.invoke.bad_task", "error", err)
		return entity.FailedResponse(err.Error())
	}

	b64, mt, err := readImageBase64(page.Path)
	if err != nil {
		log.Error("llm.invoke.read_image_error", "path", page.Path, "error", err)
		return entity.FailedResponse("read page image: " + err.Error())
	}

	callCtx, cancel := common.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.backend.Generate(callCtx, GenerateRequest{Prompt: prompt, Images: []string{b64}, ImageMIME: mt})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			log.Warn("llm.invoke.timeout", "timeout", g.timeout, "elapsed_ms", time.Since(start).Milliseconds())
		} else {
			log.Error("llm.invoke.backend_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		}
		return entity.FailedResponse(err.Error())
	}

	payload := ExtractPayload(raw)
	log.Info("llm.invoke.ok",
		"payload_kind", string(payload.Kind),
		"raw_bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if payload.Kind == entity.PayloadText {
		log.Debug("llm.invoke.degraded_payload", "raw", truncate(raw, 512))
	}
	return entity.SucceededResponse(raw, payload)
}

// Health reports backend reachability.
func (g *Gateway) Health(ctx context.Context) HealthStatus {
	return g.backend.Health(ctx)
}
