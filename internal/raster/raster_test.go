package raster

import (
	"archive/zip"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
)

type fakeRunner struct {
	pages int
	err   error
	args  []string
}

// Run mimics pdftoppm by writing <prefix>-N.png for each page.
func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	f.args = args
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	prefix := args[len(args)-1]
	for i := 1; i <= f.pages; i++ {
		name := prefix + "-" + itoa(i) + ".png"
		if err := os.WriteFile(name, []byte("png"), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return itoa(i/10) + string(rune('0'+i%10))
}

func newTestRasterizer(cfg Config, run Runner) *Rasterizer {
	r := NewRasterizer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if run != nil {
		r.runner = run
	}
	return r
}

func TestRasterizeUnsupportedExtension(t *testing.T) {
	r := newTestRasterizer(Config{}, nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	pages, cleanup, err := r.Rasterize(context.Background(), path, filepath.Join(dir, "out"))
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
	if cleanup == nil || pages != nil {
		t.Fatalf("want nil pages and non-nil cleanup")
	}
	if _, err := os.Stat(filepath.Join(dir, "out")); !os.IsNotExist(err) {
		t.Fatalf("output dir should not be created")
	}
}

func TestRasterizePDFOrdersAndRenamesPages(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "shots")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	// stale page from an earlier run must disappear
	if err := os.WriteFile(filepath.Join(out, "page_009.png"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	run := &fakeRunner{pages: 12}
	r := newTestRasterizer(Config{DPI: 150}, run)
	pages, cleanup, err := r.Rasterize(context.Background(), pdf, out)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	defer cleanup()

	if len(pages) != 12 {
		t.Fatalf("want 12 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.Index != i+1 {
			t.Errorf("page %d has index %d", i, p.Index)
		}
		if want := pagePath(out, i+1); p.Path != want {
			t.Errorf("page %d path = %s, want %s", i, p.Path, want)
		}
		if _, err := os.Stat(p.Path); err != nil {
			t.Errorf("page %d missing: %v", i, err)
		}
	}
	if run.args[0] != "-r" || run.args[1] != "150" {
		t.Errorf("unexpected args %v", run.args)
	}
	leftovers, _ := filepath.Glob(filepath.Join(out, ".render-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp render dir not removed: %v", leftovers)
	}
}

func TestRasterizePDFRunnerFailure(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newTestRasterizer(Config{}, &fakeRunner{err: errors.New("exit 1")})
	_, _, err := r.Rasterize(context.Background(), pdf, filepath.Join(dir, "out"))
	if !errors.Is(err, common.ErrRasterize) {
		t.Fatalf("want ErrRasterize, got %v", err)
	}
}

func TestRasterizePDFMaxPages(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	run := &fakeRunner{pages: 5}
	r := newTestRasterizer(Config{MaxPages: 2}, run)
	pages, _, err := r.Rasterize(context.Background(), pdf, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("want 2 pages, got %d", len(pages))
	}
	if !strings.Contains(strings.Join(run.args, " "), "-l 2") {
		t.Errorf("missing -l flag: %v", run.args)
	}
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, A: 128})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestRasterizeImagePreprocess(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scan.png")
	writeTestPNG(t, src, 400, 100)

	r := newTestRasterizer(Config{Preprocess: true, MaxImageWidth: 200, MaxImageHeight: 200}, nil)
	pages, cleanup, err := r.Rasterize(context.Background(), src, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].Index != 1 {
		t.Fatalf("unexpected pages %+v", pages)
	}
	if pages[0].Path == src {
		t.Fatalf("expected a preprocessed copy")
	}
	f, err := os.Open(pages[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 200 || cfg.Height != 50 {
		t.Errorf("resized to %dx%d, want 200x50", cfg.Width, cfg.Height)
	}

	cleanup()
	if _, err := os.Stat(pages[0].Path); !os.IsNotExist(err) {
		t.Errorf("cleanup did not remove %s", pages[0].Path)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source must survive cleanup: %v", err)
	}
}

func TestRasterizeImageWithoutPreprocess(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scan.png")
	writeTestPNG(t, src, 10, 10)

	r := newTestRasterizer(Config{}, nil)
	pages, cleanup, err := r.Rasterize(context.Background(), src, "")
	if err != nil {
		t.Fatal(err)
	}
	cleanup()
	if len(pages) != 1 || pages[0].Path != src {
		t.Fatalf("want original path, got %+v", pages)
	}
}

func TestRasterizeCorruptImageFallsBack(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(src, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newTestRasterizer(Config{Preprocess: true}, nil)
	pages, cleanup, err := r.Rasterize(context.Background(), src, "")
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if pages[0].Path != src {
		t.Fatalf("want fallback to original, got %s", pages[0].Path)
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{100, 100, 1200, 1200, 100, 100},
		{2400, 1200, 1200, 1200, 1200, 600},
		{1000, 3000, 1200, 1200, 400, 1200},
		{1200, 1200, 1200, 1200, 1200, 1200},
	}
	for _, tt := range tests {
		gw, gh := fitWithin(tt.w, tt.h, tt.maxW, tt.maxH)
		if gw != tt.wantW || gh != tt.wantH {
			t.Errorf("fitWithin(%d,%d,%d,%d) = %d,%d want %d,%d", tt.w, tt.h, tt.maxW, tt.maxH, gw, gh, tt.wantW, tt.wantH)
		}
	}
}

func writeTestDocx(t *testing.T, path, body string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := io.WriteString(w, doc); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func TestParseParagraphsSkipsTables(t *testing.T) {
	body := para("Title") +
		`<w:tbl><w:tr><w:tc>` + para("cell") + `</w:tc></w:tr></w:tbl>` +
		`<w:p/>` + para("After")
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`
	got, err := parseParagraphs(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Title", "", "After"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("para %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseParagraphsRunBreaks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "tab stop definitions are not text",
			body: `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/><w:tab w:val="right" w:pos="9000"/></w:tabs></w:pPr><w:r><w:t>Total</w:t></w:r></w:p>`,
			want: "Total",
		},
		{
			name: "run tab",
			body: `<w:p><w:r><w:t>Qty</w:t><w:tab/><w:t>2</w:t></w:r></w:p>`,
			want: "Qty\t2",
		},
		{
			name: "run break inside hyperlink",
			body: `<w:p><w:hyperlink><w:r><w:t>a</w:t><w:br/><w:t>b</w:t></w:r></w:hyperlink></w:p>`,
			want: "a b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + tt.body + `</w:body></w:document>`
			got, err := parseParagraphs(strings.NewReader(doc))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("got %q, want [%q]", got, tt.want)
			}
		})
	}
}

func TestRasterizeDocxPaginates(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.docx")
	var body strings.Builder
	for i := 0; i < 23; i++ {
		body.WriteString(para("Paragraph " + itoa(i+1)))
	}
	writeTestDocx(t, src, body.String())

	out := filepath.Join(dir, "shots")
	r := newTestRasterizer(Config{}, nil)
	pages, cleanup, err := r.Rasterize(context.Background(), src, out)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if len(pages) != 3 {
		t.Fatalf("want 3 pages for 23 paragraphs, got %d", len(pages))
	}
	f, err := os.Open(pages[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 800 || cfg.Height != 1000 {
		t.Errorf("page size %dx%d, want 800x1000", cfg.Width, cfg.Height)
	}
}

func TestRasterizeEmptyDocxFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.docx")
	writeTestDocx(t, src, "")
	r := newTestRasterizer(Config{}, nil)
	_, _, err := r.Rasterize(context.Background(), src, filepath.Join(dir, "out"))
	if !errors.Is(err, common.ErrRasterize) {
		t.Fatalf("want ErrRasterize, got %v", err)
	}
}
