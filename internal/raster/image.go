package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// imageToPage treats a single image as a one-page document. With preprocessing on, the
// page points at a resized temporary PNG which cleanup removes; decode failures fall back
// to the original file.
func (r *Rasterizer) imageToPage(_ context.Context, path string) ([]entity.PageImage, func(), error) {
	noop := func() {}
	if !r.cfg.Preprocess {
		return []entity.PageImage{{Index: 1, Path: path}}, noop, nil
	}
	out, cleanup, err := preprocessImage(path, r.cfg.MaxImageWidth, r.cfg.MaxImageHeight)
	if err != nil {
		r.logger.Warn("raster.image.preprocess_failed", "path", path, "error", err)
		return []entity.PageImage{{Index: 1, Path: path}}, noop, nil
	}
	return []entity.PageImage{{Index: 1, Path: out}}, cleanup, nil
}

// preprocessImage flattens the image onto white RGB and shrinks it to fit maxW x maxH,
// keeping the aspect ratio. Images already inside the bounds keep their size.
func preprocessImage(path string, maxW, maxH int) (string, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	src, _, err := image.Decode(f)
	_ = f.Close()
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), maxW, maxH)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	}

	tmp, err := os.CreateTemp("", "ocr-page-*.png")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	if err := png.Encode(tmp, dst); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}

// fitWithin scales (w, h) down to fit (maxW, maxH); it never enlarges.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || (w <= maxW && h <= maxH) {
		return w, h
	}
	rw := float64(maxW) / float64(w)
	rh := float64(maxH) / float64(h)
	r := rw
	if rh < r {
		r = rh
	}
	nw, nh := int(float64(w)*r), int(float64(h)*r)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
