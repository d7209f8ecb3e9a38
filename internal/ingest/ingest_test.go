package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/async"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

type fakeSubmitter struct{}

func (fakeSubmitter) Submit(_ context.Context, path string) (*entity.DocumentRecord, error) {
	return &entity.DocumentRecord{ID: uuid.New(), SourcePath: path}, nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []async.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Shutdown(context.Context) {}

func (q *fakeQueue) paths() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []string
	for _, j := range q.jobs {
		out = append(out, filepath.Base(j.Path))
	}
	sort.Strings(out)
	return out
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIngestPathRejectsUnsupported(t *testing.T) {
	q := &fakeQueue{}
	ing := NewIngestor(fakeSubmitter{}, q, quiet())
	_, err := ing.IngestPath(context.Background(), filepath.Join(t.TempDir(), "notes.txt"))
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
	if len(q.jobs) != 0 {
		t.Error("nothing should be queued")
	}
}

func TestIngestPathReportsQueueClosed(t *testing.T) {
	q := &fakeQueue{err: common.ErrQueueClosed}
	ing := NewIngestor(fakeSubmitter{}, q, quiet())
	res, err := ing.IngestPath(context.Background(), filepath.Join(t.TempDir(), "a.pdf"))
	if !errors.Is(err, common.ErrQueueClosed) {
		t.Fatalf("want ErrQueueClosed, got %v", err)
	}
	if res.DocumentID == "" {
		t.Error("document should be registered before enqueue")
	}
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))
	touch(t, filepath.Join(root, "b.PNG"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".hidden.pdf"))
	touch(t, filepath.Join(root, ".cache", "c.pdf"))
	touch(t, filepath.Join(root, "sub", "d.docx"))

	q := &fakeQueue{}
	ing := NewIngestor(fakeSubmitter{}, q, quiet())
	results, stats, err := ing.IngestDirectory(context.Background(), root, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Matched != 3 || stats.Succeeded != 3 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(results) != 3 {
		t.Errorf("results = %d", len(results))
	}
	want := []string{"a.pdf", "b.PNG", "d.docx"}
	if got := q.paths(); len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("queued %v, want %v", got, want)
	}
}

func TestIngestDirectoryRequiresRoot(t *testing.T) {
	ing := NewIngestor(fakeSubmitter{}, &fakeQueue{}, quiet())
	if _, _, err := ing.IngestDirectory(context.Background(), "  ", false); err == nil {
		t.Fatal("expected error")
	}
}

func TestStartWatcherEmitsNewFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "existing.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 10 * time.Millisecond}, quiet())
	if err != nil {
		t.Fatal(err)
	}

	expect := func(name string) {
		t.Helper()
		select {
		case p := <-events:
			if filepath.Base(p) != name {
				t.Fatalf("got event %s, want %s", p, name)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", name)
		}
	}
	expect("existing.pdf")

	touch(t, filepath.Join(root, "ignored.txt"))
	touch(t, filepath.Join(root, "new.jpg"))
	expect("new.jpg")

	cancel()
	for range events {
	}
}

func TestStartWatcherRequiresRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}, quiet()); err == nil {
		t.Fatal("expected error")
	}
}
