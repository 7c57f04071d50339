package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

const uploadLimit = 50 << 20 // 50 MB

// Uploads are limited to the file types the viewer can do something with:
// images for embeds and track files for maps.
var allowedUploadExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".gpx": true, ".kml": true,
}

// AttachmentHandler serves and accepts files under the vault's attachments
// directory.
type AttachmentHandler struct {
	dir string
}

// NewAttachmentHandler creates a handler rooted at the vault directory.
func NewAttachmentHandler(vaultRoot string) *AttachmentHandler {
	return &AttachmentHandler{dir: filepath.Join(vaultRoot, "attachments")}
}

// resolve validates that name is a bare file name and maps it into the
// attachments directory. Separators and traversal are rejected before the
// path is ever joined.
func (h *AttachmentHandler) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.dir, cleaned)
	if !strings.HasPrefix(abs, h.dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes attachments directory")
	}
	return abs, nil
}

// ServeFile handles GET /attachments/{filename}.
func (h *AttachmentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.resolve(chi.URLParam(r, "filename"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(abs); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/attachments (multipart/form-data, field "file").
// The file lands via a temp file and rename so a failed upload never leaves
// a partial attachment behind.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, uploadLimit)

	if err := r.ParseMultipartForm(uploadLimit); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid multipart")
		return
	}
	src, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'file' field in multipart form")
		return
	}
	defer src.Close()

	abs, err := h.resolve(header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !allowedUploadExts[strings.ToLower(filepath.Ext(abs))] {
		writeError(w, http.StatusBadRequest, "unsupported attachment type")
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create attachments dir")
		return
	}

	tmp, err := os.CreateTemp(h.dir, ".varden-upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create file")
		return
	}
	size, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		writeError(w, http.StatusInternalServerError, "failed to write file")
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		writeError(w, http.StatusInternalServerError, "failed to write file")
		return
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		os.Remove(tmp.Name())
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"filename": filepath.Base(abs),
		"size":     size,
		"url":      "/attachments/" + filepath.Base(abs),
	})
}
