package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/logging"
	"github.com/kevinaaaquil/readify/middleware"
	"github.com/kevinaaaquil/readify/models"
)

const contentTypePDF = "application/pdf"

// BlobStore is the object storage used for PDFs and narration audio.
type BlobStore interface {
	Upload(ctx context.Context, prefix, filename string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	ObjectURL(key string) string
	KeyFromURL(url string) (string, bool)
	GetObject(ctx context.Context, key string) (io.ReadCloser, string, error)
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration, responseFilename string) (string, error)
}

type UploadHandler struct {
	Blobs    BlobStore
	MaxBytes int64
	Log      logging.Logger
}

type UploadResponse struct {
	URL         string `json:"url"`
	Pathname    string `json:"pathname"`
	ContentType string `json:"contentType"`
}

// Upload stores a PDF sent as the raw request body. The original file name
// comes in the x-vercel-filename header.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, h.Log, apperr.ErrAuth)
		return
	}
	if h.Blobs == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "upload not configured (missing S3)")
		return
	}
	filename, err := url.PathUnescape(strings.TrimSpace(r.Header.Get("x-vercel-filename")))
	if err != nil || filename == "" {
		writeErrorMsg(w, http.StatusBadRequest, "missing x-vercel-filename header")
		return
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".pdf" && !strings.HasPrefix(r.Header.Get("Content-Type"), contentTypePDF) {
		writeErrorMsg(w, http.StatusBadRequest, "only pdf files are allowed")
		return
	}

	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorMsg(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeErrorMsg(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		writeErrorMsg(w, http.StatusBadRequest, "file is not a pdf")
		return
	}

	key, err := h.Blobs.Upload(r.Context(), models.PDFPrefix(sess.UserID), filename, bytes.NewReader(body), contentTypePDF)
	if err != nil {
		writeError(w, r, h.Log, apperr.Storage("upload", models.PDFPrefix(sess.UserID), err))
		return
	}
	h.Log.Info(r.Context(), "pdf uploaded", "user", sess.UserID, "key", key, "bytes", len(body))
	writeJSON(w, http.StatusOK, UploadResponse{
		URL:         h.Blobs.ObjectURL(key),
		Pathname:    key,
		ContentType: contentTypePDF,
	})
}
