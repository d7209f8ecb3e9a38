package entity

import (
	"encoding/json"
	"sort"
	"strings"
)

// PageImage is one rasterized page. Index is 1-based and contiguous within a document.
type PageImage struct {
	Index int    `json:"page"`
	Path  string `json:"path"`
}

// ModelResponse is the outcome of one gateway call. Data is set iff Success.
// RawText is kept verbatim even when the payload could not be parsed.
type ModelResponse struct {
	Success bool     `json:"success"`
	Data    *Payload `json:"data,omitempty"`
	RawText string   `json:"raw_response"`
	Error   string   `json:"error,omitempty"`
}

// SucceededResponse records a backend answer and its (possibly degraded) payload.
func SucceededResponse(raw string, p Payload) ModelResponse {
	return ModelResponse{Success: true, Data: &p, RawText: raw}
}

// FailedResponse records a transport or backend failure.
func FailedResponse(msg string) ModelResponse {
	return ModelResponse{Success: false, Error: msg}
}

// PageAnalysis is the per-page outcome of classify, extract text and the optional table extraction.
type PageAnalysis struct {
	Page           int
	Classification ModelResponse
	Text           ModelResponse
	Table          *ModelResponse
	TableDetected  bool
}

// Errors returns sub-call failures keyed by task name.
func (a PageAnalysis) Errors() map[string]string {
	errs := map[string]string{}
	if !a.Classification.Success && a.Classification.Error != "" {
		errs["classify"] = a.Classification.Error
	}
	if !a.Text.Success && a.Text.Error != "" {
		errs["extract_text"] = a.Text.Error
	}
	if a.Table != nil && !a.Table.Success && a.Table.Error != "" {
		errs["extract_table"] = a.Table.Error
	}
	return errs
}

type pageReport struct {
	Page           int      `json:"page"`
	Classification string   `json:"classification"`
	Analysis       *Payload `json:"analysis"`
	TextSuccess    bool     `json:"text_success"`
	TextData       *Payload `json:"text_data"`
	TableDetected  bool     `json:"table_detected"`
	TableData      *Payload `json:"table_data,omitempty"`
	Error          string   `json:"error,omitempty"`
}

func (a PageAnalysis) MarshalJSON() ([]byte, error) {
	r := pageReport{
		Page:           a.Page,
		Classification: a.Classification.RawText,
		Analysis:       a.Classification.Data,
		TextSuccess:    a.Text.Success,
		TextData:       a.Text.Data,
		TableDetected:  a.TableDetected,
	}
	if a.Table != nil {
		r.TableData = a.Table.Data
	}
	if errs := a.Errors(); len(errs) > 0 {
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+errs[k])
		}
		r.Error = strings.Join(parts, "; ")
	}
	return json.Marshal(r)
}
