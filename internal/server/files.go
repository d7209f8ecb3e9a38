package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
)

type fileEntry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

type fileInfo struct {
	Filename    string             `json:"filename"`
	Type        string             `json:"type"`
	Size        int64              `json:"size"`
	Outputs     map[string]*string `json:"outputs"`
	Screenshots []string           `json:"screenshots"`
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if err := common.NewValidator().Field("filename", name, common.Required, common.BaseName).Err(); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.serveFile(w, r, filepath.Join(s.deps.Storage.OutputDir(), name))
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	doc, image := chi.URLParam(r, "doc"), chi.URLParam(r, "image")
	err := common.NewValidator().
		Field("doc", doc, common.Required, common.BaseName).
		Field("image", image, common.Required, common.BaseName).
		Err()
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.serveFile(w, r, filepath.Join(s.deps.Storage.ScreenshotDir(), doc, image))
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		s.writeAppError(w, r, err)
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil || st.IsDir() {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	http.ServeContent(w, r, st.Name(), st.ModTime(), f)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	uploads, err := listDir(s.deps.Storage.UploadDir())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	outputs, err := listDir(s.deps.Storage.OutputDir())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]fileEntry{"uploads": uploads, "outputs": outputs})
}

// handleFileInfo describes an uploaded file and the artifacts derived from it.
func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if err := common.NewValidator().Field("filename", name, common.Required, common.BaseName).Err(); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	st, err := os.Stat(filepath.Join(s.deps.Storage.UploadDir(), name))
	if err != nil || st.IsDir() {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	base := filepath.Join(s.deps.Storage.OutputDir(), stem)

	info := fileInfo{
		Filename: name,
		Type:     constants.NormalizeExt(filepath.Ext(name)),
		Size:     st.Size(),
		Outputs: map[string]*string{
			"json":  existing(base + constants.TextOutputExt),
			"excel": existing(base + constants.TableOutputExt),
		},
		Screenshots: []string{},
	}
	shots, _ := listDir(filepath.Join(s.deps.Storage.ScreenshotDir(), stem))
	for _, e := range shots {
		info.Screenshots = append(info.Screenshots, e.Name)
	}
	writeJSON(w, http.StatusOK, info)
}

// handleDeleteFile removes an upload together with its outputs and page folder.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if err := common.NewValidator().Field("filename", name, common.Required, common.BaseName).Err(); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	targets := []string{
		filepath.Join(s.deps.Storage.UploadDir(), name),
		filepath.Join(s.deps.Storage.OutputDir(), name),
		filepath.Join(s.deps.Storage.OutputDir(), stem+constants.TextOutputExt),
		filepath.Join(s.deps.Storage.OutputDir(), stem+constants.TableOutputExt),
		filepath.Join(s.deps.Storage.ScreenshotDir(), stem),
	}

	deleted := []string{}
	seen := map[string]bool{}
	for _, p := range targets {
		if seen[p] {
			continue
		}
		seen[p] = true
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		deleted = append(deleted, p)
	}
	if len(deleted) == 0 {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	s.logger.Info("http.files.deleted", "req_id", common.RequestIDFromContext(r.Context()), "name", name, "removed", len(deleted))
	writeJSON(w, http.StatusOK, map[string][]string{"deleted": deleted})
}

// listDir returns regular, non-hidden files sorted by name. A missing directory is empty.
func listDir(dir string) ([]fileEntry, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []fileEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []fileEntry{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, fileEntry{Name: e.Name(), Size: info.Size(), Modified: info.ModTime().UTC()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func existing(path string) *string {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return &path
}
