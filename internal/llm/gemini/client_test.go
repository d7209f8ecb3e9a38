package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm"
)

type generateBody struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MIMEType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := NewClient(context.Background(), Config{APIKey: "test-key", Model: "gemini-test", BaseURL: ts.URL + "/"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeAPIError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":%q,"status":"UNAVAILABLE"}}`, code, msg)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Model: "gemini-test"}, nil)
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestGenerate(t *testing.T) {
	var (
		got    generateBody
		path   string
		apiKey string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path, apiKey = r.URL.Path, r.Header.Get("x-goog-api-key")
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"type\":\"invoice\"}"}]}}]}`))
	})

	out, err := c.Generate(context.Background(), llm.GenerateRequest{Prompt: "classify", Images: []string{"aGVsbG8="}, ImageMIME: "image/jpeg"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"type":"invoice"}` {
		t.Errorf("out = %q", out)
	}
	if path != "/v1beta/models/gemini-test:generateContent" {
		t.Errorf("path = %q", path)
	}
	if apiKey != "test-key" {
		t.Errorf("api key header = %q", apiKey)
	}
	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 2 {
		t.Fatalf("request = %+v", got)
	}
	parts := got.Contents[0].Parts
	if got.Contents[0].Role != "user" || parts[0].Text != "classify" {
		t.Errorf("prompt part = %+v", parts[0])
	}
	if img := parts[1].InlineData; img == nil || img.MIMEType != "image/jpeg" || img.Data != "aGVsbG8=" {
		t.Errorf("image part = %+v", parts[1].InlineData)
	}
}

func TestGenerateErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeAPIError(w, http.StatusInternalServerError, "overloaded")
	})

	if _, err := c.Generate(context.Background(), llm.GenerateRequest{Prompt: "p", Images: []string{"not base64!"}}); err == nil {
		t.Fatal("expected error for an undecodable image")
	}
	if calls != 0 {
		t.Fatalf("bad image reached the API (%d calls)", calls)
	}

	_, err := c.Generate(context.Background(), llm.GenerateRequest{Prompt: "p"})
	if !errors.Is(err, common.ErrBackend) {
		t.Fatalf("err = %v, want ErrBackend", err)
	}
	if !strings.Contains(err.Error(), "overloaded") {
		t.Errorf("err = %v, want the API message", err)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		h       http.HandlerFunc
		healthy bool
		version string
	}{
		{
			name: "model found",
			h: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/v1beta/models/gemini-test" {
					http.NotFound(w, r)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"name":"models/gemini-test","version":"001","displayName":"Gemini Test"}`))
			},
			healthy: true,
			version: "001",
		},
		{
			name: "api error",
			h: func(w http.ResponseWriter, _ *http.Request) {
				writeAPIError(w, http.StatusNotFound, "model not found")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestClient(t, tt.h).Health(context.Background())
			if st.Healthy != tt.healthy {
				t.Fatalf("healthy = %v (%+v)", st.Healthy, st)
			}
			if st.Backend != "gemini" || st.Model != "gemini-test" {
				t.Errorf("status = %+v", st)
			}
			if st.Version != tt.version {
				t.Errorf("version = %q, want %q", st.Version, tt.version)
			}
			if !tt.healthy && st.Error == "" {
				t.Error("unhealthy status should carry an error")
			}
		})
	}
}
