package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm"
)

// Rasterizer produces ordered page images; cleanup is never nil.
type Rasterizer interface {
	Rasterize(ctx context.Context, path, outDir string) ([]entity.PageImage, func(), error)
}

// Materializer persists the folded artifacts.
type Materializer interface {
	WriteText(path string, text entity.TextArtifact) error
	WriteTables(path string, tables entity.TableArtifact) error
}

// Dirs are the roots the aggregator writes beneath.
type Dirs struct {
	Screenshots string // per-document page folders
	Outputs     string // <stem>.json and <stem>.xlsx
}

// Aggregator drives one document through rasterize, per-page analysis, fold and materialize.
type Aggregator struct {
	rasterizer Rasterizer
	invoker    llm.Invoker
	out        Materializer
	dirs       Dirs
	workers    int
	logger     *slog.Logger
}

func NewAggregator(r Rasterizer, inv llm.Invoker, out Materializer, dirs Dirs, workers int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Aggregator{rasterizer: r, invoker: inv, out: out, dirs: dirs, workers: workers, logger: logger}
}

// Aggregate never returns an error: unsupported input and rasterization failure come back
// as Success=false results, everything later degrades inside a successful result.
func (a *Aggregator) Aggregate(ctx context.Context, path string) entity.DocumentResult {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	kind, ok := constants.MapExtToKind(ext)
	if !ok {
		a.logger.Warn("pipeline.unsupported", "path", path, "extension", ext)
		return entity.FailureResult("Unsupported file type: " + ext)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	log := a.logger.With("doc", stem, "kind", string(kind))

	var shotDir string
	if kind != constants.IMAGE {
		shotDir = filepath.Join(a.dirs.Screenshots, stem)
	}
	pages, cleanup, err := a.rasterizer.Rasterize(ctx, path, shotDir)
	defer cleanup()
	if err != nil || len(pages) == 0 {
		log.Error("pipeline.raster.failed", "error", err)
		return entity.FailureResult(fmt.Sprintf("Failed to convert %s to images", kindLabel(kind)))
	}

	analyses := analyzePages(ctx, a.invoker, pages, a.workers, log)
	text, tables := Fold(analyses)

	res := entity.DocumentResult{
		Success:          true,
		DocumentType:     kind,
		PagesProcessed:   len(pages),
		ScreenshotFolder: shotDir,
		Results:          analyses,
	}

	if err := os.MkdirAll(a.dirs.Outputs, 0o755); err != nil {
		log.Error("pipeline.output.mkdir_failed", "dir", a.dirs.Outputs, "error", err)
	}
	base := filepath.Join(a.dirs.Outputs, stem)
	textPath := base + constants.TextOutputExt
	if err := a.out.WriteText(textPath, text); err != nil {
		log.Error("pipeline.output.text_failed", "path", textPath, "error", err)
	} else {
		res.TextOutputPath = textPath
	}
	if len(tables) > 0 {
		tablePath := base + constants.TableOutputExt
		if err := a.out.WriteTables(tablePath, tables); err != nil {
			log.Error("pipeline.output.table_failed", "path", tablePath, "error", err)
		} else {
			res.TableOutputPath = tablePath
		}
	}

	log.Info("pipeline.document.ok",
		"pages", len(pages),
		"headers", len(text.Headers),
		"content", len(text.Content),
		"tables", len(tables),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

func kindLabel(k constants.DocumentKind) string {
	if k == constants.IMAGE {
		return "image"
	}
	return strings.ToUpper(string(k))
}
