package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// SheetName is the sheet a table from the given 1-based page lands on.
func SheetName(page int) string {
	return "Page " + strconv.Itoa(page)
}

// WriteTables writes one "Page N" sheet per table entry, in artifact order.
// Entries that cannot be tabulated get an error-marker sheet instead of being dropped.
func (w *Writer) WriteTables(path string, tables entity.TableArtifact) error {
	start := time.Now()
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	var markers int
	for i, entry := range tables {
		sheet := SheetName(entry.Page)
		if err := addSheet(f, i, sheet); err != nil {
			return fmt.Errorf("add sheet %q: %w", sheet, err)
		}
		t := NormalizeTable(entry.Data)
		if t.IsError() {
			markers++
			w.logger.Warn("export.xlsx.unparseable_table", "page", entry.Page, "payload_kind", string(entry.Data.Kind))
		}
		if err := writeTable(f, sheet, t); err != nil {
			return fmt.Errorf("write sheet %q: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)

	if err := saveWorkbook(f, path); err != nil {
		w.logger.Error("export.xlsx.failed", "path", path, "error", err)
		return err
	}
	w.logger.Info("export.xlsx.ok",
		"path", path,
		"sheets", len(tables),
		"error_sheets", markers,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// addSheet renames the default sheet for the first table and appends the rest.
func addSheet(f *excelize.File, i int, name string) error {
	if i == 0 {
		return f.SetSheetName(f.GetSheetName(0), name)
	}
	if idx, _ := f.GetSheetIndex(name); idx != -1 {
		return fmt.Errorf("duplicate sheet")
	}
	_, err := f.NewSheet(name)
	return err
}

// writeTable writes the header row then the rows, and sizes each column to its longest cell + 2.
func writeTable(f *excelize.File, sheet string, t Table) error {
	widths := make([]int, len(t.Columns))
	for c, name := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
		widths[c] = utf8.RuneCountInString(name)
	}
	for r, row := range t.Rows {
		for c, v := range row {
			if c >= len(widths) {
				break
			}
			val := cellValue(v)
			if val == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
			if n := utf8.RuneCountInString(fmt.Sprint(val)); n > widths[c] {
				widths[c] = n
			}
		}
	}
	for c, wdt := range widths {
		col, _ := excelize.ColumnNumberToName(c + 1)
		width := float64(wdt + 2)
		if width > 255 {
			width = 255
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

// cellValue keeps JSON scalars and encodes nested values as JSON text. null stays empty.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool, float64, int, int64:
		return t
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func saveWorkbook(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}
