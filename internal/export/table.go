package export

import (
	"strconv"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// Error markers written as a one-cell sheet when a payload cannot be tabulated.
const (
	ErrorColumn          = "Error"
	MarkerUnparseable    = "Could not parse table data"
	MarkerUnexpectedType = "Unexpected table data format"
)

// Table is a rectangular sheet body: Columns name the cells of every row.
type Table struct {
	Columns []string
	Rows    [][]any
}

func errorTable(marker string) Table {
	return Table{Columns: []string{ErrorColumn}, Rows: [][]any{{marker}}}
}

// IsError reports whether t is an error-marker table.
func (t Table) IsError() bool {
	return len(t.Columns) == 1 && t.Columns[0] == ErrorColumn && len(t.Rows) == 1 && len(t.Rows[0]) == 1
}

// NormalizeTable turns a model table payload into a Table. First match wins:
//
//	a. a list of rows
//	b. an object with "rows"
//	c. an object with "data"
//	d. an object with both "headers" and "values"
//	e. any other object, read column-wise or as key/value pairs
//	f. an error marker
//
// Columns follow the order keys first appear in the payload.
// It never fails; the worst case is an error-marker table.
func NormalizeTable(p entity.Payload) Table {
	tb := tabulator{order: p.Order}
	switch p.Kind {
	case entity.PayloadList:
		if t, ok := tb.fromRecords(p.List, nil, ""); ok {
			return t
		}
		return errorTable(MarkerUnparseable)
	case entity.PayloadObject:
		return tb.fromObject(p.Object, "")
	default:
		return errorTable(MarkerUnexpectedType)
	}
}

// tabulator walks a decoded payload; paths are JSON Pointers into it.
type tabulator struct {
	order entity.KeyOrder
}

func (tb tabulator) fromObject(m map[string]any, path string) Table {
	names := stringList(m["headers"])
	if names == nil {
		names = stringList(m["columns"])
	}
	for _, key := range []string{"rows", "data"} {
		v, ok := m[key]
		if !ok {
			continue
		}
		items, isList := v.([]any)
		if !isList {
			if inner, isMap := v.(map[string]any); isMap {
				return tb.fromObject(inner, entity.Pointer(path, key))
			}
			return errorTable(MarkerUnparseable)
		}
		if t, ok := tb.fromRecords(items, names, entity.Pointer(path, key)); ok {
			return t
		}
		return errorTable(MarkerUnparseable)
	}
	if _, hasH := m["headers"]; hasH {
		if values, hasV := m["values"]; hasV {
			if t, ok := fromHeadersValues(names, values); ok {
				return t
			}
			return errorTable(MarkerUnparseable)
		}
	}
	if t, ok := tb.fromMapping(m, path); ok {
		return t
	}
	return errorTable(MarkerUnparseable)
}

// fromRecords handles a list of row objects (columns = union of keys in first-seen order)
// or a list of positional rows (columns named by names when given, else 0, 1, ...).
func (tb tabulator) fromRecords(items []any, names []string, path string) (Table, bool) {
	if len(items) == 0 {
		return Table{Columns: names}, true
	}
	switch items[0].(type) {
	case map[string]any:
		var cols []string
		seen := map[string]bool{}
		for i, it := range items {
			row, ok := it.(map[string]any)
			if !ok {
				return Table{}, false
			}
			for _, k := range tb.order.Keys(entity.Index(path, i), row) {
				if !seen[k] {
					seen[k] = true
					cols = append(cols, k)
				}
			}
		}
		t := Table{Columns: cols}
		for _, it := range items {
			row := it.(map[string]any)
			cells := make([]any, len(cols))
			for i, c := range cols {
				cells[i] = row[c]
			}
			t.Rows = append(t.Rows, cells)
		}
		return t, true
	default:
		width := 0
		rows := make([][]any, 0, len(items))
		for _, it := range items {
			var cells []any
			switch r := it.(type) {
			case []any:
				cells = r
			case map[string]any:
				return Table{}, false
			default:
				cells = []any{r}
			}
			if len(cells) > width {
				width = len(cells)
			}
			rows = append(rows, cells)
		}
		cols := names
		if len(cols) != width {
			cols = positionalColumns(width)
		}
		for i, r := range rows {
			rows[i] = pad(r, width)
		}
		return Table{Columns: cols, Rows: rows}, true
	}
}

// fromHeadersValues lays values out under headers; rows may be positional or keyed by header.
func fromHeadersValues(headers []string, values any) (Table, bool) {
	items, ok := values.([]any)
	if !ok || headers == nil {
		return Table{}, false
	}
	t := Table{Columns: headers}
	for _, it := range items {
		switch r := it.(type) {
		case []any:
			if len(r) > len(headers) {
				return Table{}, false
			}
			t.Rows = append(t.Rows, pad(r, len(headers)))
		case map[string]any:
			cells := make([]any, len(headers))
			for i, h := range headers {
				cells[i] = r[h]
			}
			t.Rows = append(t.Rows, cells)
		default:
			return Table{}, false
		}
	}
	return t, true
}

// fromMapping reads {col: [v...]} column-wise, {col: {row: v}} as a row index,
// and all-scalar objects as Key/Value pairs.
func (tb tabulator) fromMapping(m map[string]any, path string) (Table, bool) {
	if len(m) == 0 {
		return Table{}, true
	}
	keys := tb.order.Keys(path, m)
	var lists, maps, scalars int
	for _, k := range keys {
		switch m[k].(type) {
		case []any:
			lists++
		case map[string]any:
			maps++
		default:
			scalars++
		}
	}
	switch {
	case lists == len(keys):
		n := len(m[keys[0]].([]any))
		for _, k := range keys {
			if len(m[k].([]any)) != n {
				return Table{}, false
			}
		}
		t := Table{Columns: keys}
		for i := 0; i < n; i++ {
			row := make([]any, len(keys))
			for j, k := range keys {
				row[j] = m[k].([]any)[i]
			}
			t.Rows = append(t.Rows, row)
		}
		return t, true
	case maps == len(keys):
		var index []string
		seen := map[string]bool{}
		for _, k := range keys {
			for _, rk := range tb.order.Keys(entity.Pointer(path, k), m[k].(map[string]any)) {
				if !seen[rk] {
					seen[rk] = true
					index = append(index, rk)
				}
			}
		}
		t := Table{Columns: keys}
		for _, rk := range index {
			row := make([]any, len(keys))
			for j, k := range keys {
				row[j] = m[k].(map[string]any)[rk]
			}
			t.Rows = append(t.Rows, row)
		}
		return t, true
	case scalars == len(keys):
		t := Table{Columns: []string{"Key", "Value"}}
		for _, k := range keys {
			t.Rows = append(t.Rows, []any{k, m[k]})
		}
		return t, true
	default:
		return Table{}, false
	}
}

// stringList returns v as strings when it is a JSON array of strings.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil
		}
		out = append(out, s)
	}
	return out
}

func positionalColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = strconv.Itoa(i)
	}
	return cols
}

func pad(row []any, width int) []any {
	if len(row) >= width {
		return row
	}
	out := make([]any, width)
	copy(out, row)
	return out
}
