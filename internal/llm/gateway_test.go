package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

type fakeBackend struct {
	answer string
	err    error
	delay  time.Duration
	last   GenerateRequest
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	f.last = req
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.answer, f.err
}

func (f *fakeBackend) Health(context.Context) HealthStatus {
	return HealthStatus{Backend: "fake", Healthy: f.err == nil}
}

func commonPromptConfig(classify string) common.PromptConfig {
	return common.PromptConfig{Classify: classify}
}

func writePage(t *testing.T) entity.PageImage {
	t.Helper()
	p := filepath.Join(t.TempDir(), "page_001.png")
	if err := os.WriteFile(p, []byte("\x89PNG fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	return entity.PageImage{Index: 1, Path: p}
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestGatewayInvoke(t *testing.T) {
	page := writePage(t)

	t.Run("object answer", func(t *testing.T) {
		be := &fakeBackend{answer: "Sure! {\"document_type\": \"invoice\", \"has_table\": true}"}
		gw := NewGateway(be, DefaultPrompts(), time.Second, quietLogger())
		resp := gw.Invoke(context.Background(), page, TaskClassify)
		if !resp.Success || resp.Data == nil || resp.Data.Kind != entity.PayloadObject {
			t.Fatalf("resp = %+v", resp)
		}
		if resp.RawText != be.answer {
			t.Fatalf("raw text not kept verbatim: %q", resp.RawText)
		}
		if be.last.Prompt != DefaultPrompts().Classify || len(be.last.Images) != 1 || be.last.ImageMIME != "image/png" {
			t.Fatalf("request = %+v", be.last)
		}
	})

	t.Run("degraded answer still succeeds", func(t *testing.T) {
		be := &fakeBackend{answer: "no json here"}
		resp := NewGateway(be, DefaultPrompts(), 0, quietLogger()).Invoke(context.Background(), page, TaskExtractText)
		if !resp.Success || resp.Data.Kind != entity.PayloadText || resp.Data.Text != "no json here" {
			t.Fatalf("resp = %+v", resp)
		}
	})

	t.Run("backend error", func(t *testing.T) {
		be := &fakeBackend{err: errors.New("connection refused")}
		resp := NewGateway(be, DefaultPrompts(), 0, quietLogger()).Invoke(context.Background(), page, TaskExtractTable)
		if resp.Success || resp.Data != nil || resp.Error != "connection refused" {
			t.Fatalf("resp = %+v", resp)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		be := &fakeBackend{answer: "{}", delay: time.Second}
		resp := NewGateway(be, DefaultPrompts(), 20*time.Millisecond, quietLogger()).Invoke(context.Background(), page, TaskClassify)
		if resp.Success {
			t.Fatalf("expected timeout failure, got %+v", resp)
		}
	})

	t.Run("missing image", func(t *testing.T) {
		be := &fakeBackend{answer: "{}"}
		resp := NewGateway(be, DefaultPrompts(), 0, quietLogger()).Invoke(context.Background(), entity.PageImage{Index: 2, Path: "/nope.png"}, TaskClassify)
		if resp.Success {
			t.Fatalf("expected failure for unreadable page, got %+v", resp)
		}
	})

	t.Run("unknown task", func(t *testing.T) {
		resp := NewGateway(&fakeBackend{}, DefaultPrompts(), 0, quietLogger()).Invoke(context.Background(), page, TaskKind("x"))
		if resp.Success {
			t.Fatal("expected failure for unknown task")
		}
	})
}
