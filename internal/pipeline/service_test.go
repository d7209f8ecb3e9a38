package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/repository"
)

type fakeLedger struct {
	mu       sync.Mutex
	created  []string
	running  []uuid.UUID
	finished map[uuid.UUID]repository.Outcome
	finishCx []error
	failMark bool
}

func (l *fakeLedger) Create(_ context.Context, filename, sourcePath, kind string) (*entity.DocumentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.created = append(l.created, filename)
	return &entity.DocumentRecord{ID: uuid.New(), Filename: filename, SourcePath: sourcePath, Kind: kind, Status: constants.JobStatusQueued}, nil
}

func (l *fakeLedger) MarkRunning(_ context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = append(l.running, id)
	if l.failMark {
		return common.ErrDatabase
	}
	return nil
}

func (l *fakeLedger) Finish(ctx context.Context, id uuid.UUID, out repository.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finished == nil {
		l.finished = map[uuid.UUID]repository.Outcome{}
	}
	l.finished[id] = out
	l.finishCx = append(l.finishCx, ctx.Err())
	return nil
}

func TestProcessRecordsLedger(t *testing.T) {
	ledger := &fakeLedger{}
	agg := newAggregator(&fakeRasterizer{pages: 2}, &fakeInvoker{}, &recordingMaterializer{}, t.TempDir(), 2)
	svc := NewDocumentService(agg, ledger, 0, discardLogger())

	res := svc.Process(context.Background(), "/in/scan.pdf")
	if !res.Success || res.PagesProcessed != 2 || res.DocumentID == "" {
		t.Fatalf("result = %+v", res)
	}
	if len(ledger.created) != 1 || ledger.created[0] != "scan.pdf" {
		t.Fatalf("created = %v", ledger.created)
	}
	id := uuid.MustParse(res.DocumentID)
	if len(ledger.running) != 1 || ledger.running[0] != id {
		t.Fatalf("running = %v", ledger.running)
	}
	out, ok := ledger.finished[id]
	if !ok || !out.Success || out.Pages != 2 || out.TextOutputPath == "" {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestProcessUnsupportedWritesNoRow(t *testing.T) {
	ledger := &fakeLedger{}
	agg := newAggregator(&fakeRasterizer{pages: 1}, &fakeInvoker{}, &recordingMaterializer{}, t.TempDir(), 1)
	res := NewDocumentService(agg, ledger, 0, discardLogger()).Process(context.Background(), "/in/a.txt")
	if res.Success || res.Error != "Unsupported file type: txt" {
		t.Fatalf("result = %+v", res)
	}
	if len(ledger.created) != 0 {
		t.Fatalf("unexpected ledger rows: %v", ledger.created)
	}

	_, err := NewDocumentService(agg, ledger, 0, discardLogger()).Submit(context.Background(), "/in/a.txt")
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("Submit err = %v", err)
	}
}

func TestRunRecordsFailureAfterDeadline(t *testing.T) {
	ledger := &fakeLedger{failMark: true}
	r := &fakeRasterizer{err: errors.New("boom")}
	agg := newAggregator(r, &fakeInvoker{}, &recordingMaterializer{}, t.TempDir(), 1)
	svc := NewDocumentService(agg, ledger, time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	id := uuid.New()
	res := svc.Run(ctx, id, "/in/x.docx")
	if res.Success || res.Error != "Failed to convert DOCX to images" || res.DocumentID != id.String() {
		t.Fatalf("result = %+v", res)
	}
	out := ledger.finished[id]
	if out.Success || out.ErrorMessage != res.Error {
		t.Fatalf("outcome = %+v", out)
	}
	if ledger.finishCx[0] != nil {
		t.Fatalf("Finish must run on a live context, got %v", ledger.finishCx[0])
	}
}

func TestSubmitWithoutLedger(t *testing.T) {
	agg := newAggregator(&fakeRasterizer{pages: 1}, &fakeInvoker{}, &recordingMaterializer{}, t.TempDir(), 1)
	rec, err := NewDocumentService(agg, nil, 0, discardLogger()).Submit(context.Background(), "/in/photo.JPG")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Kind != string(constants.IMAGE) || rec.Status != constants.JobStatusQueued || rec.ID == uuid.Nil {
		t.Fatalf("record = %+v", rec)
	}
}
