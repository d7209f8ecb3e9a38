package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/async"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
)

type uploadAccepted struct {
	DocumentID string              `json:"document_id"`
	Filename   string              `json:"filename"`
	Status     constants.JobStatus `json:"status"`
	StatusURL  string              `json:"status_url"`
}

// handleUpload stores the multipart "file" part under uploads/ and either processes it
// inline (the response is the document result) or, with ?async=true, queues it and
// answers 202 with the document id.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.deps.MaxUploadBytes
	if limit <= 0 {
		limit = constants.MaxUploadBytesDefault
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d byte upload limit", limit))
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			writeError(w, http.StatusBadRequest, "Malformed multipart request")
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part in the request")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	name := secureFilename(header.Filename)
	v := common.NewValidator().Field("filename", name, common.Required, common.AllowedExtension)
	if v.HasErrors() {
		writeError(w, http.StatusBadRequest, "File type not allowed. Allowed types: "+allowedTypes())
		return
	}

	dst := filepath.Join(s.deps.Storage.UploadDir(), name)
	if err := saveUpload(dst, file); err != nil {
		s.writeAppError(w, r, common.NewAppError("INTERNAL", "could not store upload", fmt.Errorf("%w: %v", common.ErrInternal, err)))
		return
	}
	s.logger.Info("http.upload.saved", "req_id", common.RequestIDFromContext(r.Context()), "path", dst, "bytes", header.Size)

	background, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	if !background {
		writeJSON(w, http.StatusOK, s.deps.Processor.Process(r.Context(), dst))
		return
	}
	s.enqueueUpload(w, r, name, dst)
}

func (s *Server) enqueueUpload(w http.ResponseWriter, r *http.Request, name, path string) {
	if s.deps.Queue == nil {
		s.writeAppError(w, r, common.NewAppError("UNAVAILABLE", "background processing is not enabled", common.ErrQueueClosed))
		return
	}
	rec, err := s.deps.Processor.Submit(r.Context(), path)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	job := async.Job{DocumentID: rec.ID, Path: path, TraceID: common.RequestIDFromContext(r.Context())}
	if err := s.deps.Queue.Enqueue(r.Context(), job); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, uploadAccepted{
		DocumentID: rec.ID.String(),
		Filename:   name,
		Status:     constants.JobStatusQueued,
		StatusURL:  "/jobs/" + rec.ID.String(),
	})
}

func saveUpload(dst string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return err
	}
	return f.Close()
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// secureFilename reduces a client-supplied name to a safe base name: path parts dropped,
// whitespace runs become "_", other unsafe characters are removed, and leading dots or
// underscores are trimmed.
func secureFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.TrimLeft(name, "._")
}

func allowedTypes() string {
	exts := make([]string, 0, len(constants.AllowedExtensions))
	for ext := range constants.AllowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
