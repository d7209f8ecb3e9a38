package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm"
)

// analyzePages fans pages out to at most workers goroutines. Results are written by index,
// so the returned slice is in page order whatever order the pages finish in.
func analyzePages(ctx context.Context, inv llm.Invoker, pages []entity.PageImage, workers int, logger *slog.Logger) []entity.PageAnalysis {
	if workers <= 0 {
		workers = 1
	}
	out := make([]entity.PageAnalysis, len(pages))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, page := range pages {
		g.Go(func() error {
			start := time.Now()
			a := AnalyzePage(ctx, inv, page)
			out[i] = a
			logger.Info("pipeline.page.done",
				"page", page.Index,
				"table_detected", a.TableDetected,
				"text_success", a.Text.Success,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil
		})
	}
	_ = g.Wait() // page failures are carried in the analyses, never returned
	return out
}
