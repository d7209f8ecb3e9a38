package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// ConvertJSONToExcel turns a JSON file into a workbook. A text artifact ({headers, content})
// becomes a Headers sheet and a Content sheet; a list becomes one table; any other object
// becomes Key/Value rows. excelPath defaults to jsonPath with an .xlsx extension.
func (w *Writer) ConvertJSONToExcel(jsonPath, excelPath string) (string, error) {
	start := time.Now()
	if excelPath == "" {
		excelPath = strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + ".xlsx"
	}
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", common.NewAppError("NOT_FOUND", "json file not found", common.ErrNotFound)
		}
		return "", err
	}
	data, order, err := entity.DecodeOrdered(b)
	if err != nil {
		return "", common.NewAppError("INVALID_INPUT", "file is not valid JSON", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}

	f := excelize.NewFile()
	defer f.Close()

	switch v := data.(type) {
	case []any:
		p := entity.ListPayload(v)
		p.Order = order
		if err := writeSingleSheet(f, "Sheet1", NormalizeTable(p)); err != nil {
			return "", err
		}
	case map[string]any:
		headers, hasH := v["headers"]
		content, hasC := v["content"]
		if hasH && hasC {
			if err := writeSingleSheet(f, "Headers", columnTable("Headers", headers)); err != nil {
				return "", err
			}
			if _, err := f.NewSheet("Content"); err != nil {
				return "", err
			}
			if err := writeTable(f, "Content", columnTable("Content", content)); err != nil {
				return "", err
			}
		} else {
			t := Table{Columns: []string{"Key", "Value"}}
			for _, k := range order.Keys("", v) {
				t.Rows = append(t.Rows, []any{k, v[k]})
			}
			if err := writeSingleSheet(f, "Sheet1", t); err != nil {
				return "", err
			}
		}
	default:
		return "", common.NewAppError("INVALID_INPUT", fmt.Sprintf("unexpected JSON data format: %T", data), common.ErrInvalidInput)
	}

	if err := saveWorkbook(f, excelPath); err != nil {
		w.logger.Error("export.convert.failed", "path", excelPath, "error", err)
		return "", err
	}
	w.logger.Info("export.convert.ok",
		"json_path", jsonPath,
		"excel_path", excelPath,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return excelPath, nil
}

// writeSingleSheet renames the workbook's default sheet and fills it.
func writeSingleSheet(f *excelize.File, name string, t Table) error {
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return err
	}
	return writeTable(f, name, t)
}

func columnTable(name string, v any) Table {
	t := Table{Columns: []string{name}}
	items, ok := v.([]any)
	if !ok {
		if v != nil {
			t.Rows = append(t.Rows, []any{v})
		}
		return t
	}
	for _, it := range items {
		t.Rows = append(t.Rows, []any{it})
	}
	return t
}
