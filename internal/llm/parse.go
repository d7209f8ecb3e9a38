package llm

import (
	"strings"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// ExtractPayload pulls the JSON object spanning the first '{' to the last '}' out of raw.
// Anything that does not decode to an object degrades to a text payload holding raw verbatim.
func ExtractPayload(raw string) entity.Payload {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return entity.TextPayload(raw)
	}
	p, err := entity.PayloadFromJSON([]byte(raw[start : end+1]))
	if err != nil || p.Kind != entity.PayloadObject {
		return entity.TextPayload(raw)
	}
	return p
}
