package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// Writer materializes text and table artifacts on disk.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// EncodeText renders the text artifact as indented UTF-8 JSON with headers before content.
// Non-ASCII and HTML characters are written as-is.
func EncodeText(text entity.TextArtifact) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	doc := struct {
		Headers []string `json:"headers"`
		Content []any    `json:"content"`
	}{Headers: text.Headers, Content: text.Content}
	if doc.Headers == nil {
		doc.Headers = []string{}
	}
	if doc.Content == nil {
		doc.Content = []any{}
	}
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteText validates and writes the text artifact. The file is replaced atomically.
func (w *Writer) WriteText(path string, text entity.TextArtifact) error {
	start := time.Now()
	b, err := EncodeText(text)
	if err != nil {
		return fmt.Errorf("encode text artifact: %w", err)
	}
	if err := ValidateJSONAgainstSchema(textArtifactSchema, b); err != nil {
		return fmt.Errorf("text artifact: %w", err)
	}
	if err := writeFileAtomic(path, b); err != nil {
		w.logger.Error("export.json.failed", "path", path, "error", err)
		return err
	}
	w.logger.Info("export.json.ok",
		"path", path,
		"headers", len(text.Headers),
		"content", len(text.Content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
