package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/logging"
	"github.com/kevinaaaquil/readify/store"
)

const timeFormat = time.RFC3339

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps err onto a status code. Storage and unexpected errors are
// logged and reported without their cause.
func writeError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	var pe *apperr.ProviderError
	var se *apperr.StorageError
	switch {
	case errors.Is(err, errBodyTooLarge):
		writeErrorMsg(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, store.ErrEmailTaken), errors.Is(err, store.ErrUsernameTaken):
		writeErrorMsg(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrValidation):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrAuth):
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, apperr.ErrAccessDenied):
		writeErrorMsg(w, http.StatusForbidden, "access denied")
	case errors.Is(err, apperr.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.As(err, &pe):
		log.Warn(r.Context(), "provider failed", "path", r.URL.Path, "err", err)
		writeErrorMsg(w, http.StatusBadGateway, pe.Error())
	case errors.As(err, &se):
		log.Error(r.Context(), "storage failed", "path", r.URL.Path, "err", err)
		writeErrorMsg(w, http.StatusInternalServerError, "storage error")
	default:
		log.Error(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}

// maxJSONBytes bounds JSON request bodies, which may carry a document's
// whole text.
const maxJSONBytes = 8 << 20

var errBodyTooLarge = errors.New("request body too large")

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return decodeBody(w, r, v, false)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return decodeBody(w, r, v, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(v)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case optional && errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &tooLarge):
		return errBodyTooLarge
	default:
		return apperr.Validation("invalid json")
	}
}
