package raster

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI, default 300
	MaxPages int    // 0 = no limit

	MaxImageWidth  int  // preprocessing bound, default 1200
	MaxImageHeight int  // preprocessing bound, default 1200
	Preprocess     bool // resize/RGB-normalize single images before analysis

	DocxParagraphsPerPage int // default 10
	DocxPageWidth         int // default 800
	DocxPageHeight        int // default 1000
}

// ConfigFromCommon maps the application config onto a rasterizer config.
func ConfigFromCommon(c common.RasterConfig) Config {
	return Config{
		Pdftoppm:              c.Pdftoppm,
		DPI:                   c.DPI,
		MaxPages:              c.MaxPages,
		MaxImageWidth:         c.MaxImageWidth,
		MaxImageHeight:        c.MaxImageHeight,
		Preprocess:            c.PreprocessImages,
		DocxParagraphsPerPage: c.DocxParagraphsPerPage,
	}
}

// Rasterizer turns a PDF, DOCX or image into an ordered list of page images.
type Rasterizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewRasterizer(cfg Config, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxImageWidth <= 0 {
		cfg.MaxImageWidth = 1200
	}
	if cfg.MaxImageHeight <= 0 {
		cfg.MaxImageHeight = 1200
	}
	if cfg.DocxParagraphsPerPage <= 0 {
		cfg.DocxParagraphsPerPage = 10
	}
	if cfg.DocxPageWidth <= 0 {
		cfg.DocxPageWidth = 800
	}
	if cfg.DocxPageHeight <= 0 {
		cfg.DocxPageHeight = 1000
	}
	return &Rasterizer{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Rasterize picks a strategy based on file extension. PDF and DOCX pages are written to
// outDir as page_001.png, page_002.png, ...; images need no folder and outDir is ignored.
// The returned cleanup is never nil and releases temporary files; call it once the pages
// are no longer needed. A nil error always comes with at least one page.
func (r *Rasterizer) Rasterize(ctx context.Context, path, outDir string) ([]entity.PageImage, func(), error) {
	start := time.Now()
	noop := func() {}
	ext := constants.NormalizeExt(filepath.Ext(path))
	kind, ok := constants.MapExtToKind(ext)
	if !ok {
		r.logger.Error("unsupported raster extension", "extension", ext)
		return nil, noop, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, ext)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, noop, fmt.Errorf("%w: %v", common.ErrRasterize, err)
	}

	var (
		pages   []entity.PageImage
		cleanup = noop
		err     error
	)
	switch kind {
	case constants.PDF:
		pages, err = r.pdfToImages(ctx, path, outDir)
	case constants.DOCX:
		pages, err = r.docxToImages(ctx, path, outDir)
	case constants.IMAGE:
		pages, cleanup, err = r.imageToPage(ctx, path)
	}
	if err == nil && len(pages) == 0 {
		err = fmt.Errorf("no pages produced")
	}
	if err != nil {
		cleanup()
		r.logger.Error("raster.failed", "path", path, "kind", string(kind), "error", err)
		return nil, noop, fmt.Errorf("%w: %v", common.ErrRasterize, err)
	}

	r.logger.Info("raster.ok",
		"path", path,
		"kind", string(kind),
		"pages", len(pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return pages, cleanup, nil
}

// clearPages removes page images left by an earlier run so re-processing never mixes page sets.
func clearPages(outDir string) error {
	old, err := filepath.Glob(filepath.Join(outDir, "page_*.png"))
	if err != nil {
		return err
	}
	for _, p := range old {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func pagePath(outDir string, index int) string {
	return filepath.Join(outDir, fmt.Sprintf(constants.PageImagePattern, index))
}
