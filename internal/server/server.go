package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/async"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm"
)

// DocumentProcessor is the pipeline entry point the HTTP layer drives.
type DocumentProcessor interface {
	Submit(ctx context.Context, path string) (*entity.DocumentRecord, error)
	Process(ctx context.Context, path string) entity.DocumentResult
}

// JobStore reads the document ledger.
type JobStore interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, error)
	List(ctx context.Context, limit int) ([]entity.DocumentRecord, error)
}

// HealthChecker reports model backend reachability.
type HealthChecker interface {
	Health(ctx context.Context) llm.HealthStatus
}

// Deps are the collaborators behind the HTTP surface. Queue and Jobs may be nil:
// async uploads then answer 503 and the job routes are not mounted.
type Deps struct {
	Processor      DocumentProcessor
	Queue          async.Queue
	Jobs           JobStore
	Health         HealthChecker
	Storage        common.StorageConfig
	MaxUploadBytes int64
}

type Server struct {
	deps   Deps
	logger *slog.Logger
}

func New(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{deps: deps, logger: logger}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/upload", s.handleUpload)
	r.Get("/output/{filename}", s.handleOutput)
	r.Get("/screenshot/{doc}/{image}", s.handleScreenshot)
	r.Get("/status", s.handleStatus)

	r.Route("/files", func(r chi.Router) {
		r.Get("/", s.handleListFiles)
		r.Get("/{filename}", s.handleFileInfo)
		r.Delete("/{filename}", s.handleDeleteFile)
	})

	if s.deps.Jobs != nil {
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
	}
	return r
}

// requestLogger tags the context with the chi request id and logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		if reqID == "" {
			reqID = common.NewRequestID()
		}
		ctx := common.WithRequestID(r.Context(), reqID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.logger.Info("http.request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeAppError answers with the status mapped from err's sentinel.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	code := common.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("http.error", "req_id", common.RequestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	msg := err.Error()
	var ae *common.AppError
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	writeError(w, code, msg)
}
