package llm

import (
	"encoding/base64"
	"os"
	"path/filepath"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
)

// readImageBase64 returns the page image as standard base64 (no data: prefix) and its MIME type.
// Rasterized pages are PNG; an unprocessed upload keeps its own type.
func readImageBase64(path string) (string, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(b), constants.MIMEType(filepath.Ext(path)), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
