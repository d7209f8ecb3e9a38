package raster

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// PageCount returns the number of pages declared by the PDF at path.
func PageCount(path string) (n int, err error) {
	defer func() {
		// the reader panics on some malformed cross-reference tables
		if rec := recover(); rec != nil {
			n, err = 0, fmt.Errorf("read pdf: %v", rec)
		}
	}()
	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()
	return reader.NumPage(), nil
}

// PDFInfo reads the page count and document information dictionary.
func PDFInfo(path string) (info entity.PDFInfo) {
	defer func() {
		if rec := recover(); rec != nil {
			info = entity.PDFInfo{Success: false, Error: fmt.Sprintf("read pdf: %v", rec)}
		}
	}()
	f, reader, err := pdf.Open(path)
	if err != nil {
		return entity.PDFInfo{Success: false, Error: err.Error()}
	}
	defer f.Close()

	meta := reader.Trailer().Key("Info")
	field := func(key string) string {
		v := meta.Key(key)
		if v.IsNull() {
			return ""
		}
		return strings.TrimSpace(v.Text())
	}
	return entity.PDFInfo{
		Success:  true,
		NumPages: reader.NumPage(),
		Author:   field("Author"),
		Creator:  field("Creator"),
		Producer: field("Producer"),
		Title:    field("Title"),
		Subject:  field("Subject"),
	}
}
