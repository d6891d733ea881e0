package store

import (
	"context"
	"testing"
	"time"

	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(userID string) *models.Session {
	return &models.Session{UserID: userID, Email: userID + "@example.com", ExpiresAt: time.Now().Add(time.Hour)}
}

func TestSaveDocument_CreateAssignsFreshIDs(t *testing.T) {
	ctx := context.Background()
	db := NewDB(NewMemory())
	sess := session("u1")

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		doc, err := db.SaveDocument(ctx, sess, &models.Document{FileURL: "https://blob/books/a.pdf"})
		require.NoError(t, err)
		assert.NotEmpty(t, doc.ID)
		assert.False(t, seen[doc.ID], "duplicate id %s", doc.ID)
		seen[doc.ID] = true

		assert.Equal(t, "u1", doc.UserID)
		assert.Equal(t, "a.pdf", doc.Name)
		assert.Equal(t, 1.0, doc.Zoom)
		assert.Equal(t, 1, doc.ReadingPosition)
		assert.False(t, doc.CreatedAt.IsZero())
	}

	docs, err := db.ListDocuments(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, docs, 20)
}

func TestSaveDocument_CreateRequiresFileURL(t *testing.T) {
	db := NewDB(NewMemory())
	_, err := db.SaveDocument(context.Background(), session("u1"), &models.Document{Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSaveDocument_Update(t *testing.T) {
	ctx := context.Background()
	db := NewDB(NewMemory())
	sess := session("u1")

	doc, err := db.SaveDocument(ctx, sess, &models.Document{FileURL: "https://blob/a.pdf", Name: "A"})
	require.NoError(t, err)

	change := *doc
	change.Zoom = 1.5
	change.UserID = "someone-else"
	change.CreatedAt = time.Time{}
	updated, err := db.SaveDocument(ctx, sess, &change)
	require.NoError(t, err)
	assert.Equal(t, 1.5, updated.Zoom)
	assert.Equal(t, "u1", updated.UserID)
	assert.Equal(t, doc.CreatedAt.UnixMilli(), updated.CreatedAt.UnixMilli())

	got, err := db.GetDocument(ctx, sess, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.Zoom)
}

func TestSaveDocument_UpdateUnknownID(t *testing.T) {
	db := NewDB(NewMemory())
	_, err := db.SaveDocument(context.Background(), session("u1"), &models.Document{ID: "nope", FileURL: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSaveDocument_OtherOwnerDenied(t *testing.T) {
	ctx := context.Background()
	db := NewDB(NewMemory())
	owner := session("owner")

	doc, err := db.SaveDocument(ctx, owner, &models.Document{FileURL: "https://blob/a.pdf", Name: "Mine"})
	require.NoError(t, err)

	hijack := *doc
	hijack.Name = "Stolen"
	_, err = db.SaveDocument(ctx, session("intruder"), &hijack)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)

	got, err := db.GetDocument(ctx, owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Name)
	assert.Equal(t, doc.UpdatedAt.Unix(), got.UpdatedAt.Unix())
}

func TestSaveDocument_RequiresSession(t *testing.T) {
	db := NewDB(NewMemory())
	_, err := db.SaveDocument(context.Background(), nil, &models.Document{FileURL: "x"})
	assert.ErrorIs(t, err, apperr.ErrAuth)

	expired := session("u1")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	_, err = db.SaveDocument(context.Background(), expired, &models.Document{FileURL: "x"})
	assert.ErrorIs(t, err, apperr.ErrAuth)
}

func TestListDocuments_WithoutSessionIsEmpty(t *testing.T) {
	db := NewDB(NewMemory())
	docs, err := db.ListDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestListDocuments_OnlyOwn(t *testing.T) {
	ctx := context.Background()
	db := NewDB(NewMemory())
	a, b := session("a"), session("b")

	_, err := db.SaveDocument(ctx, a, &models.Document{FileURL: "https://blob/1.pdf"})
	require.NoError(t, err)
	second, err := db.SaveDocument(ctx, a, &models.Document{FileURL: "https://blob/2.pdf"})
	require.NoError(t, err)
	_, err = db.SaveDocument(ctx, b, &models.Document{FileURL: "https://blob/3.pdf"})
	require.NoError(t, err)

	docs, err := db.ListDocuments(ctx, a)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, second.ID, docs[0].ID, "newest first")
}

func TestGetDocument_AccessRules(t *testing.T) {
	ctx := context.Background()
	db := NewDB(NewMemory())
	doc, err := db.SaveDocument(ctx, session("a"), &models.Document{FileURL: "https://blob/1.pdf"})
	require.NoError(t, err)

	_, err = db.GetDocument(ctx, session("b"), doc.ID)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)

	admin := session("admin")
	admin.IsAdmin = true
	got, err := db.GetDocument(ctx, admin, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	_, err = db.GetDocument(ctx, nil, doc.ID)
	assert.ErrorIs(t, err, apperr.ErrAuth)
}

func TestDeleteDocument_RemovesFromIndex(t *testing.T) {
	ctx := context.Background()
	db := NewDB(NewMemory())
	sess := session("a")
	doc, err := db.SaveDocument(ctx, sess, &models.Document{FileURL: "https://blob/1.pdf"})
	require.NoError(t, err)

	_, err = db.DeleteDocument(ctx, session("b"), doc.ID)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)

	deleted, err := db.DeleteDocument(ctx, sess, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.FileURL, deleted.FileURL)

	docs, err := db.ListDocuments(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = db.GetDocument(ctx, sess, doc.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
