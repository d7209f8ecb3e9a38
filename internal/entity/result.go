package entity

import (
	"encoding/json"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
)

// TextArtifact is the document-level text: headers and content in page order.
type TextArtifact struct {
	Headers []string `json:"headers"`
	Content []any    `json:"content"`
}

func NewTextArtifact() TextArtifact {
	return TextArtifact{Headers: []string{}, Content: []any{}}
}

// MarshalJSON never emits null for either sequence.
func (t TextArtifact) MarshalJSON() ([]byte, error) {
	type alias TextArtifact
	a := alias(t)
	if a.Headers == nil {
		a.Headers = []string{}
	}
	if a.Content == nil {
		a.Content = []any{}
	}
	return json.Marshal(a)
}

// TableEntry is one detected table, tagged with the 1-based page it came from.
type TableEntry struct {
	Page int     `json:"page"`
	Data Payload `json:"data"`
}

// TableArtifact holds tables in page order.
type TableArtifact []TableEntry

// DocumentResult is what the pipeline hands back to its caller.
type DocumentResult struct {
	Success          bool
	Error            string
	DocumentID       string
	DocumentType     constants.DocumentKind
	PagesProcessed   int
	TextOutputPath   string
	TableOutputPath  string
	ScreenshotFolder string
	Results          []PageAnalysis
}

// FailureResult builds a result that carries only the error message.
func FailureResult(msg string) DocumentResult {
	return DocumentResult{Success: false, Error: msg}
}

type successReport struct {
	Success          bool                   `json:"success"`
	DocumentID       string                 `json:"document_id,omitempty"`
	DocumentType     constants.DocumentKind `json:"document_type"`
	PagesProcessed   int                    `json:"pages_processed"`
	TextOutputPath   *string                `json:"text_output_path"`
	TableOutputPath  *string                `json:"table_output_path"`
	ScreenshotFolder string                 `json:"screenshot_folder,omitempty"`
	Results          []PageAnalysis         `json:"results"`
}

type failureReport struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"document_id,omitempty"`
	Error      string `json:"error"`
}

// MarshalJSON emits the failure shape {success,error} or the full success shape
// with null for output paths that were not written.
func (r DocumentResult) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(failureReport{Success: false, DocumentID: r.DocumentID, Error: r.Error})
	}
	results := r.Results
	if results == nil {
		results = []PageAnalysis{}
	}
	return json.Marshal(successReport{
		Success:          true,
		DocumentID:       r.DocumentID,
		DocumentType:     r.DocumentType,
		PagesProcessed:   r.PagesProcessed,
		TextOutputPath:   nullable(r.TextOutputPath),
		TableOutputPath:  nullable(r.TableOutputPath),
		ScreenshotFolder: r.ScreenshotFolder,
		Results:          results,
	})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PDFInfo summarizes a PDF without rendering it.
type PDFInfo struct {
	Success  bool   `json:"success"`
	NumPages int    `json:"num_pages,omitempty"`
	Author   string `json:"author,omitempty"`
	Creator  string `json:"creator,omitempty"`
	Producer string `json:"producer,omitempty"`
	Title    string `json:"title,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Error    string `json:"error,omitempty"`
}
