package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm"
)

type statusResponse struct {
	Status           string            `json:"status"`
	Model            *llm.HealthStatus `json:"model,omitempty"`
	UploadFolder     string            `json:"upload_folder"`
	OutputFolder     string            `json:"output_folder"`
	ScreenshotFolder string            `json:"screenshot_folder"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:           "running",
		UploadFolder:     s.deps.Storage.UploadDir(),
		OutputFolder:     s.deps.Storage.OutputDir(),
		ScreenshotFolder: s.deps.Storage.ScreenshotDir(),
	}
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		h := s.deps.Health.Health(ctx)
		cancel()
		resp.Model = &h
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	jobs, err := s.deps.Jobs.List(r.Context(), limit)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]entity.DocumentRecord{"jobs": jobs})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := common.NewValidator().Field("id", id, common.Required, common.UUID).Err(); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	rec, err := s.deps.Jobs.Get(r.Context(), uuid.MustParse(id))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
