package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"squad-backend/internal/blob"
)

const maxUpload = 50 << 20

type upload struct {
	info   blob.Info
	header *multipart.FileHeader
}

// storeUpload saves the multipart "file" field under prefix. It writes the
// error response itself and returns ok=false on failure.
func (h *Handler) storeUpload(w http.ResponseWriter, r *http.Request, prefix string) (upload, bool) {
	if h.blob == nil {
		writeError(w, http.StatusServiceUnavailable, "file storage is not configured")
		return upload{}, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return upload{}, false
		}
		writeError(w, http.StatusBadRequest, "expected multipart form")
		return upload{}, false
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return upload{}, false
	}
	defer f.Close()

	ct := hdr.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(hdr.Filename)); byExt != "" {
			ct = byExt
		}
	}
	info, err := h.blob.Put(r.Context(), blob.Key(prefix, hdr.Filename), f, blob.PutOptions{
		ContentType: ct,
		Metadata:    map[string]string{"filename": hdr.Filename},
	})
	if err != nil {
		h.fail(w, r, err)
		return upload{}, false
	}
	if info.ContentType == "" {
		info.ContentType = ct
	}
	return upload{info: info, header: hdr}, true
}

// discard removes a stored upload whose record could not be saved, or a
// file whose record was deleted. Files outside the store are left alone.
func (h *Handler) discard(r *http.Request, url string) {
	if h.blob == nil || url == "" {
		return
	}
	key, ok := blob.KeyFromURL(h.blob.URL(""), url)
	if !ok {
		return
	}
	if _, err := h.blob.Delete(r.Context(), key); err != nil {
		h.logger.Warn("delete stored file", "key", key, "err", err)
	}
}
