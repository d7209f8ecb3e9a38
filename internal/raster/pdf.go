package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

func (r *Rasterizer) pdfToImages(ctx context.Context, path, outDir string) ([]entity.PageImage, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	if err := clearPages(outDir); err != nil {
		return nil, fmt.Errorf("clear previous pages: %w", err)
	}

	tmpDir, err := os.MkdirTemp(outDir, ".render-*")
	if err != nil {
		return nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			r.logger.Warn("failed to remove temp dir", "path", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png [-l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(r.cfg.DPI), "-png"}
	if r.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(r.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(strings.TrimSpace(string(errb)), 512))
	}

	// pdftoppm zero-pads to the width of the page count (page-1.png or page-01.png)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sortByPageNumber(matches)
	if r.cfg.MaxPages > 0 && len(matches) > r.cfg.MaxPages {
		matches = matches[:r.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}

	if n, err := PageCount(path); err == nil && r.cfg.MaxPages == 0 && n != len(matches) {
		r.logger.Warn("raster.pdf.page_count_mismatch", "path", path, "declared", n, "rendered", len(matches))
	}

	pages := make([]entity.PageImage, 0, len(matches))
	for i, m := range matches {
		dst := pagePath(outDir, i+1)
		if err := os.Rename(m, dst); err != nil {
			return nil, fmt.Errorf("move rendered page: %w", err)
		}
		pages = append(pages, entity.PageImage{Index: i + 1, Path: dst})
	}
	return pages, nil
}

func sortByPageNumber(paths []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		i := strings.LastIndexByte(base, '-')
		n, err := strconv.Atoi(base[i+1:])
		if err != nil {
			return 0
		}
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool { return num(paths[i]) < num(paths[j]) })
}
