package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

var imageExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".svg": {}, ".avif": {},
}

// ImageHandler serves the images posts reference, from a flat directory.
type ImageHandler struct {
	root string
}

// NewImageHandler creates a handler serving files from root.
func NewImageHandler(root string) *ImageHandler {
	return &ImageHandler{root: filepath.Clean(root)}
}

// safeName checks that name is a plain image file name and returns its
// absolute path under root.
func (h *ImageHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", errors.New("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	if _, ok := imageExts[strings.ToLower(filepath.Ext(cleaned))]; !ok {
		return "", fmt.Errorf("unsupported image type: %s", name)
	}
	abs := filepath.Join(h.root, cleaned)
	if !strings.HasPrefix(abs, h.root+string(os.PathSeparator)) {
		return "", errors.New("path escapes image directory")
	}
	return abs, nil
}

// ServeFile handles GET /images/{filename}.
func (h *ImageHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.safeName(chi.URLParam(r, "filename"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, abs)
}
