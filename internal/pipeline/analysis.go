package pipeline

import (
	"context"
	"strings"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm"
)

// tableIndicator triggers table extraction when found anywhere in the classification text.
// It also matches phrases such as "table of contents".
const tableIndicator = "table"

// TableIndicated reports whether a classification answer mentions a table.
func TableIndicated(classification string) bool {
	return strings.Contains(strings.ToLower(classification), tableIndicator)
}

// AnalyzePage runs classify then extract_text on one page and, if the classification
// mentions a table, extract_table. The sub-calls do not depend on each other's success;
// a failed classification has empty raw text and so never triggers the table call.
func AnalyzePage(ctx context.Context, inv llm.Invoker, page entity.PageImage) entity.PageAnalysis {
	classification := inv.Invoke(ctx, page, llm.TaskClassify)
	text := inv.Invoke(ctx, page, llm.TaskExtractText)

	a := entity.PageAnalysis{
		Page:           page.Index,
		Classification: classification,
		Text:           text,
		TableDetected:  TableIndicated(classification.RawText),
	}
	if a.TableDetected {
		table := inv.Invoke(ctx, page, llm.TaskExtractTable)
		a.Table = &table
	}
	return a
}
