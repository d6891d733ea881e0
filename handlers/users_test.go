package handlers

import (
	"net/http"
	"testing"

	"github.com/kevinaaaquil/readify/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers_UsernameAndVoice(t *testing.T) {
	h := newHarness(t)
	_, token := h.user("reader@example.com", false)
	_, other := h.user("other@example.com", false)

	rec := h.do(http.MethodPut, "/api/users/me/username", token, UsernameRequest{Username: "reader_1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var u models.User
	decode(t, rec, &u)
	assert.Equal(t, "reader_1", u.Username)

	rec = h.do(http.MethodPut, "/api/users/me/username", token, UsernameRequest{Username: "renamed"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPut, "/api/users/me/username", other, UsernameRequest{Username: "Reader_1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPut, "/api/users/me/voice", token, VoiceRequest{Voice: "Matthew"})
	require.Equal(t, http.StatusOK, rec.Code)

	doc := h.createDocument(token, "Hello world")
	rec = h.do(http.MethodPost, "/api/documents/"+doc.ID+"/narration", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &doc)
	assert.Equal(t, "Matthew", doc.Voice)
}

func TestAdmin_ListAndDeleteUsers(t *testing.T) {
	h := newHarness(t)
	admin, adminToken := h.user(adminEmail, true)
	reader, readerToken := h.user("reader@example.com", false)
	up := uploadPDF(t, h, readerToken)
	rec := h.do(http.MethodPost, "/api/documents", readerToken, map[string]any{"fileUrl": up.URL})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodGet, "/api/admin/users", readerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.User
	decode(t, rec, &users)
	assert.Len(t, users, 2)
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = h.do(http.MethodDelete, "/api/admin/users/"+admin.ID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodDelete, "/api/admin/users/"+reader.ID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, h.blobs.has(up.Pathname))

	rec = h.do(http.MethodDelete, "/api/admin/users/"+reader.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/api/documents", readerToken, nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
