package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/readify/logging"
	"github.com/kevinaaaquil/readify/middleware"
	"github.com/kevinaaaquil/readify/store"
)

type UsersHandler struct {
	DB    *store.DB
	Blobs BlobStore
	Log   logging.Logger
}

type UsernameRequest struct {
	Username string `json:"username"`
}

type VoiceRequest struct {
	Voice string `json:"voice"`
}

// SetUsername claims a username for the signed-in user. It can be set once.
func (h *UsersHandler) SetUsername(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	var req UsernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	user, err := h.DB.SetUsername(r.Context(), sess, req.Username)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SetVoice stores the voice used when a narration request names none.
func (h *UsersHandler) SetVoice(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	var req VoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	user, err := h.DB.SetPreferredVoice(r.Context(), sess, req.Voice)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListUsers returns all users (admin only). Password is omitted via json:"-".
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	users, err := h.DB.ListUsers(r.Context(), sess)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// DeleteUser deletes a user and all of their documents (admin only).
// Deleting yourself is refused.
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")
	docs, err := h.DB.DeleteUser(r.Context(), sess, id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	for _, doc := range docs {
		deleteDocumentBlobs(r, h.Blobs, h.Log, doc)
	}
	h.Log.Info(r.Context(), "user deleted", "user", id, "by", sess.UserID, "documents", len(docs))
	w.WriteHeader(http.StatusNoContent)
}
