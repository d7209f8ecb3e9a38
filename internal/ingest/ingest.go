package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/async"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath  string    `json:"source_path"`
	DocumentID  string    `json:"document_id,omitempty"`
	FileExt     string    `json:"file_ext"`
	SubmittedAt time.Time `json:"submitted_at"`
	Err         string    `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32 `json:"scanned"`
	Matched   uint32 `json:"matched"`
	Succeeded uint32 `json:"succeeded"`
	Failed    uint32 `json:"failed"`
}

// Submitter registers a document before it is queued.
type Submitter interface {
	Submit(ctx context.Context, path string) (*entity.DocumentRecord, error)
}

// Ingestor registers files and hands them to the background queue.
type Ingestor struct {
	submitter Submitter
	queue     async.Queue
	logger    *slog.Logger
}

func NewIngestor(s Submitter, q async.Queue, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{submitter: s, queue: q, logger: logger}
}

// IngestPath submits and enqueues a single file.
func (i *Ingestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path, SubmittedAt: time.Now().UTC()}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, err
	}
	out.SourcePath = abs
	out.FileExt = constants.NormalizeExt(filepath.Ext(abs))
	if out.FileExt == "" || !AllowedExt(out.FileExt) {
		i.logger.Warn("ingest.unsupported", "path", abs, "extension", out.FileExt)
		return out, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, out.FileExt)
	}

	rec, err := i.submitter.Submit(ctx, abs)
	if err != nil {
		i.logger.Error("ingest.submit_failed", "path", abs, "error", err)
		return out, err
	}
	out.DocumentID = rec.ID.String()

	job := async.Job{
		DocumentID:  rec.ID,
		Path:        abs,
		SubmittedAt: out.SubmittedAt,
		TraceID:     common.RequestIDFromContext(ctx),
	}
	if err := i.queue.Enqueue(ctx, job); err != nil {
		i.logger.Error("ingest.enqueue_failed", "path", abs, "document_id", rec.ID, "error", err)
		return out, err
	}
	i.logger.Info("ingest.queued", "path", abs, "document_id", rec.ID)
	return out, nil
}
