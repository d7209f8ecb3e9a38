package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// Fold merges page analyses, in the order given, into the document text and table artifacts.
//
// For each successful text extraction: "headers" are appended; "content" is appended when
// present, otherwise a lone "text" field becomes one content item. Degraded payloads
// therefore contribute their raw text. List payloads carry no named fields and add nothing.
// Each successful table extraction on a page with a detected table adds one entry.
func Fold(analyses []entity.PageAnalysis) (entity.TextArtifact, entity.TableArtifact) {
	text := entity.NewTextArtifact()
	var tables entity.TableArtifact

	for _, a := range analyses {
		if a.Text.Success && a.Text.Data != nil {
			foldText(&text, *a.Text.Data)
		}
		if a.TableDetected && a.Table != nil && a.Table.Success && a.Table.Data != nil {
			tables = append(tables, entity.TableEntry{Page: a.Page, Data: *a.Table.Data})
		}
	}
	return text, tables
}

func foldText(t *entity.TextArtifact, p entity.Payload) {
	if h, ok := p.Field("headers"); ok {
		for _, v := range asList(h) {
			t.Headers = append(t.Headers, headerString(v))
		}
	}
	if c, ok := p.Field("content"); ok {
		t.Content = append(t.Content, asList(c)...)
	} else if s, ok := p.Field("text"); ok {
		t.Content = append(t.Content, s)
	}
}

// asList treats a JSON array as its items and any other value as a single item.
// null contributes nothing.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

// headerString keeps strings as-is and JSON-encodes anything else.
func headerString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
