package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/repository"
)

// Ledger is the slice of the document repository the service writes to.
type Ledger interface {
	Create(ctx context.Context, filename, sourcePath, kind string) (*entity.DocumentRecord, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	Finish(ctx context.Context, id uuid.UUID, out repository.Outcome) error
}

// DocumentService records each document in the ledger around an Aggregate call.
type DocumentService struct {
	agg     *Aggregator
	ledger  Ledger
	timeout time.Duration
	logger  *slog.Logger
}

// NewDocumentService wires the aggregator to the ledger. ledger may be nil, in which case
// documents are processed without being recorded. timeout bounds a whole document (0 = none).
func NewDocumentService(agg *Aggregator, ledger Ledger, timeout time.Duration, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{agg: agg, ledger: ledger, timeout: timeout, logger: logger}
}

// Submit registers a document as QUEUED. Unsupported extensions are rejected before any row is written.
func (s *DocumentService) Submit(ctx context.Context, path string) (*entity.DocumentRecord, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	kind, ok := constants.MapExtToKind(ext)
	if !ok {
		return nil, common.NewAppError("UNSUPPORTED", "Unsupported file type: "+ext, common.ErrUnsupportedFormat)
	}
	if s.ledger == nil {
		return &entity.DocumentRecord{
			ID:         uuid.New(),
			Filename:   filepath.Base(path),
			SourcePath: path,
			Kind:       string(kind),
			Status:     constants.JobStatusQueued,
			CreatedAt:  time.Now().UTC(),
		}, nil
	}
	return s.ledger.Create(ctx, filepath.Base(path), path, string(kind))
}

// Run processes a submitted document and records the outcome. Ledger write failures are
// logged; they never change the returned result.
func (s *DocumentService) Run(ctx context.Context, id uuid.UUID, path string) entity.DocumentResult {
	ctx = common.WithDocumentID(ctx, id.String())
	log := s.logger.With("document_id", id)

	if s.ledger != nil {
		if err := s.ledger.MarkRunning(ctx, id); err != nil {
			log.Error("pipeline.ledger.mark_running_failed", "error", err)
		}
	}

	runCtx, cancel := common.WithTimeout(ctx, s.timeout)
	res := s.agg.Aggregate(runCtx, path)
	cancel()
	res.DocumentID = id.String()

	if s.ledger != nil {
		out := repository.Outcome{
			Success:         res.Success,
			Pages:           res.PagesProcessed,
			TextOutputPath:  res.TextOutputPath,
			TableOutputPath: res.TableOutputPath,
			ErrorMessage:    res.Error,
		}
		// the document deadline may have passed; the ledger row must still be closed
		if err := s.ledger.Finish(context.WithoutCancel(ctx), id, out); err != nil {
			log.Error("pipeline.ledger.finish_failed", "error", err)
		}
	}
	return res
}

// Process runs a document synchronously: submit, then run.
func (s *DocumentService) Process(ctx context.Context, path string) entity.DocumentResult {
	rec, err := s.Submit(ctx, path)
	if err != nil {
		var ae *common.AppError
		if errors.As(err, &ae) && ae.Code == "UNSUPPORTED" {
			return entity.FailureResult(ae.Message)
		}
		s.logger.Error("pipeline.submit.failed", "path", path, "error", err)
		return s.agg.Aggregate(ctx, path)
	}
	return s.Run(ctx, rec.ID, path)
}
