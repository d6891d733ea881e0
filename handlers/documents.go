package handlers

import (
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/logging"
	"github.com/kevinaaaquil/readify/middleware"
	"github.com/kevinaaaquil/readify/models"
	"github.com/kevinaaaquil/readify/narration"
	"github.com/kevinaaaquil/readify/store"
)

const downloadURLExpiry = 15 * time.Minute

type DocumentsHandler struct {
	DB       *store.DB
	Blobs    BlobStore
	Narrator *narration.Narrator
	Log      logging.Logger
}

// SaveDocumentRequest creates a document when ID is empty. For an update
// only the fields present in the body change.
type SaveDocumentRequest struct {
	ID              string               `json:"id"`
	Name            *string              `json:"name"`
	FileURL         *string              `json:"fileUrl"`
	AudioURL        *string              `json:"audioUrl"`
	TimingMarks     *[]models.TimingMark `json:"timingMarks"`
	Voice           *string              `json:"voice"`
	Zoom            *float64             `json:"zoom"`
	Text            *string              `json:"text"`
	ReadingPosition *int                 `json:"readingPosition"`
}

func (req *SaveDocumentRequest) applyTo(doc *models.Document) {
	if req.Name != nil {
		doc.Name = strings.TrimSpace(*req.Name)
	}
	if req.FileURL != nil {
		doc.FileURL = strings.TrimSpace(*req.FileURL)
	}
	if req.AudioURL != nil {
		doc.AudioURL = *req.AudioURL
	}
	if req.TimingMarks != nil {
		doc.TimingMarks = *req.TimingMarks
	}
	if req.Voice != nil {
		doc.Voice = *req.Voice
	}
	if req.Zoom != nil {
		doc.Zoom = *req.Zoom
	}
	if req.Text != nil {
		doc.Text = *req.Text
	}
	if req.ReadingPosition != nil {
		doc.ReadingPosition = *req.ReadingPosition
	}
}

// checkBlobURLs rejects fileUrl and audioUrl values that point into the blob
// store outside the user's own uploads and narrations. URLs outside the blob
// store are kept as given.
func (req *SaveDocumentRequest) checkBlobURLs(blobs BlobStore, userID string) error {
	if blobs == nil {
		return nil
	}
	owner := &models.Document{UserID: userID}
	if req.FileURL != nil {
		if key, ok := blobs.KeyFromURL(strings.TrimSpace(*req.FileURL)); ok && !owner.OwnsPDF(key) {
			return apperr.Validation("fileUrl must be one of your uploads")
		}
	}
	if req.AudioURL != nil {
		if key, ok := blobs.KeyFromURL(*req.AudioURL); ok && !owner.OwnsAudio(key) {
			return apperr.Validation("audioUrl must be one of your narrations")
		}
	}
	return nil
}

func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	docs, err := h.DB.ListDocuments(r.Context(), sess)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	doc, err := h.DB.GetDocument(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentsHandler) Save(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	var req SaveDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := req.checkBlobURLs(h.Blobs, sess.UserID); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	doc := &models.Document{}
	status := http.StatusCreated
	if req.ID != "" {
		existing, err := h.DB.GetDocument(r.Context(), sess, req.ID)
		if err != nil {
			writeError(w, r, h.Log, err)
			return
		}
		doc = existing
		status = http.StatusOK
	}
	req.applyTo(doc)
	saved, err := h.DB.SaveDocument(r.Context(), sess, doc)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, status, saved)
}

// Delete removes the document and, best effort, the PDF and audio blobs its
// owner stored.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	doc, err := h.DB.DeleteDocument(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	deleteDocumentBlobs(r, h.Blobs, h.Log, *doc)
	w.WriteHeader(http.StatusNoContent)
}

func deleteDocumentBlobs(r *http.Request, blobs BlobStore, log logging.Logger, doc models.Document) {
	if blobs == nil {
		return
	}
	var keys []string
	if key, ok := blobs.KeyFromURL(doc.FileURL); ok && doc.OwnsPDF(key) {
		keys = append(keys, key)
	}
	if key, ok := blobs.KeyFromURL(doc.AudioURL); ok && doc.OwnsAudio(key) {
		keys = append(keys, key)
	}
	for _, key := range keys {
		if err := blobs.Delete(r.Context(), key); err != nil {
			log.Warn(r.Context(), "failed to delete blob", "doc", doc.ID, "key", key, "err", err)
		}
	}
}

type DownloadResponse struct {
	URL string `json:"url"`
}

// Download returns a short-lived URL for the document's PDF.
func (h *DocumentsHandler) Download(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	doc, err := h.DB.GetDocument(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if h.Blobs == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "download not configured (missing S3)")
		return
	}
	key, ok := h.Blobs.KeyFromURL(doc.FileURL)
	if !ok {
		writeJSON(w, http.StatusOK, DownloadResponse{URL: doc.FileURL})
		return
	}
	if !doc.OwnsPDF(key) {
		writeError(w, r, h.Log, apperr.ErrAccessDenied)
		return
	}
	filename := doc.Name
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		filename += path.Ext(key)
	}
	u, err := h.Blobs.PresignedGetURL(r.Context(), key, downloadURLExpiry, filename)
	if err != nil {
		writeError(w, r, h.Log, apperr.Storage("presign", key, err))
		return
	}
	writeJSON(w, http.StatusOK, DownloadResponse{URL: u})
}

// Audio streams the document's narration from the blob store.
func (h *DocumentsHandler) Audio(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	doc, err := h.DB.GetDocument(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if h.Blobs == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "audio not configured (missing S3)")
		return
	}
	key, ok := h.Blobs.KeyFromURL(doc.AudioURL)
	if !ok {
		writeError(w, r, h.Log, apperr.NotFound("audio for document", doc.ID))
		return
	}
	if !doc.OwnsAudio(key) {
		writeError(w, r, h.Log, apperr.ErrAccessDenied)
		return
	}
	body, contentType, err := h.Blobs.GetObject(r.Context(), key)
	if err != nil {
		writeError(w, r, h.Log, apperr.Storage("get", key, err))
		return
	}
	defer body.Close()
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	w.Header().Set("Content-Type", contentType)
	io.Copy(w, body)
}

func (h *DocumentsHandler) Narrate(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	var req narration.NarrateRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	doc, err := h.Narrator.Narrate(r.Context(), sess, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type HighlightResponse struct {
	Active bool            `json:"active"`
	Span   *narration.Span `json:"span,omitempty"`
}

// Highlight maps ?t=<ms> onto the span of the document's text being spoken.
func (h *DocumentsHandler) Highlight(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	t, err := strconv.ParseInt(r.URL.Query().Get("t"), 10, 64)
	if err != nil || t < 0 {
		writeErrorMsg(w, http.StatusBadRequest, "t must be a non-negative number of milliseconds")
		return
	}
	doc, err := h.DB.GetDocument(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	span, ok := narration.ActiveSpan(doc.TimingMarks, t)
	if !ok {
		writeJSON(w, http.StatusOK, HighlightResponse{})
		return
	}
	writeJSON(w, http.StatusOK, HighlightResponse{Active: true, Span: &span})
}
