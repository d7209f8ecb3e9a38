package async

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// Job is one document waiting for the pipeline.
type Job struct {
	DocumentID  uuid.UUID
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

// Processor runs one submitted document to completion.
type Processor interface {
	Run(ctx context.Context, id uuid.UUID, path string) entity.DocumentResult
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
