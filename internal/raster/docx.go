package raster

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// docxToImages paginates body paragraphs into fixed-size chunks and renders each chunk
// as a plain white page. Layout is not reproduced.
func (r *Rasterizer) docxToImages(ctx context.Context, path, outDir string) ([]entity.PageImage, error) {
	paras, err := docxParagraphs(path)
	if err != nil {
		return nil, err
	}
	if len(paras) == 0 {
		return nil, fmt.Errorf("docx has no paragraphs")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	if err := clearPages(outDir); err != nil {
		return nil, fmt.Errorf("clear previous pages: %w", err)
	}

	per := r.cfg.DocxParagraphsPerPage
	var pages []entity.PageImage
	for i := 0; i < len(paras); i += per {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := i + per
		if end > len(paras) {
			end = len(paras)
		}
		idx := len(pages) + 1
		dst := pagePath(outDir, idx)
		img := renderTextPage(paras[i:end], r.cfg.DocxPageWidth, r.cfg.DocxPageHeight)
		if err := writePNG(dst, img); err != nil {
			return nil, err
		}
		pages = append(pages, entity.PageImage{Index: idx, Path: dst})
	}
	r.logger.Debug("raster.docx.rendered", "path", path, "paragraphs", len(paras), "pages", len(pages))
	return pages, nil
}

// docxParagraphs returns the text of every body-level paragraph in document order,
// empty paragraphs included. Paragraphs inside tables are skipped.
func docxParagraphs(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening DOCX: %w", err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("word/document.xml not found in DOCX")
	}
	rc, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("opening document.xml: %w", err)
	}
	defer rc.Close()

	return parseParagraphs(rc)
}

func parseParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paras    []string
		cur      strings.Builder
		inPara   bool
		inText   bool
		runDepth int
		tblDepth int
	)
	isWord := func(n xml.Name) bool { return n.Space == wordNS || n.Space == "" }

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !isWord(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "p":
				if tblDepth == 0 {
					inPara = true
					cur.Reset()
				}
			case "r":
				runDepth++
			case "t":
				inText = inPara && runDepth > 0
			case "tab":
				// w:tab also defines tab stops under w:pPr; only a run's tab is text.
				if inPara && runDepth > 0 {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inPara && runDepth > 0 {
					cur.WriteByte(' ')
				}
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		case xml.EndElement:
			if !isWord(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tblDepth--
			case "r":
				runDepth--
			case "t":
				inText = false
			case "p":
				if inPara && tblDepth == 0 {
					paras = append(paras, cur.String())
					inPara = false
				}
			}
		}
	}
	return paras, nil
}

// renderTextPage draws the paragraphs word-wrapped in a fixed-width face on a white page.
func renderTextPage(paras []string, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	const margin = 40
	lineHeight := face.Metrics().Height.Ceil() + 3
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: face}

	y := margin + face.Metrics().Ascent.Ceil()
	for _, p := range paras {
		for _, line := range wrapText(d, p, w-2*margin) {
			if y > h-margin {
				return img
			}
			d.Dot = fixed.P(margin, y)
			d.DrawString(line)
			y += lineHeight
		}
		y += lineHeight / 2
	}
	return img
}

func wrapText(d *font.Drawer, text string, maxWidth int) []string {
	words := strings.Fields(strings.ReplaceAll(text, "\t", " "))
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if d.MeasureString(candidate).Ceil() > maxWidth {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	return append(lines, line)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
