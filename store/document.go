package store

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/models"
)

// SaveDocument creates doc when it has no ID and updates it otherwise.
//
// Updates overwrite the whole record (last writer wins); only the owner and
// the creation time are kept from the stored version. Updating a document
// owned by someone else fails with ErrAccessDenied and leaves it unchanged.
func (db *DB) SaveDocument(ctx context.Context, sess *models.Session, doc *models.Document) (*models.Document, error) {
	if !sess.Valid(db.now()) {
		return nil, apperr.ErrAuth
	}
	if doc.ID == "" {
		return db.createDocument(ctx, sess, doc)
	}
	existing, err := db.documentByID(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != sess.UserID {
		return nil, apperr.ErrAccessDenied
	}
	updated := *doc
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = db.now()
	normalizeDocument(&updated)
	if err := db.kv.Set(ctx, docKey(updated.ID), &updated); err != nil {
		return nil, apperr.Storage("set", docKey(updated.ID), err)
	}
	return &updated, nil
}

func (db *DB) createDocument(ctx context.Context, sess *models.Session, doc *models.Document) (*models.Document, error) {
	if strings.TrimSpace(doc.FileURL) == "" {
		return nil, apperr.Validation("fileUrl is required")
	}
	created := *doc
	created.ID = uuid.NewString()
	created.UserID = sess.UserID
	created.CreatedAt = db.now()
	created.UpdatedAt = created.CreatedAt
	if created.Name == "" {
		created.Name = path.Base(created.FileURL)
	}
	normalizeDocument(&created)
	key := docKey(created.ID)
	ok, err := db.kv.SetNX(ctx, key, &created)
	if err != nil {
		return nil, apperr.Storage("setnx", key, err)
	}
	if !ok {
		return nil, apperr.Storage("setnx", key, errIDCollision)
	}
	if err := db.kv.LPush(ctx, userDocsKey(sess.UserID), created.ID); err != nil {
		return nil, apperr.Storage("lpush", userDocsKey(sess.UserID), err)
	}
	return &created, nil
}

func normalizeDocument(doc *models.Document) {
	if doc.Zoom <= 0 {
		doc.Zoom = 1
	}
	if doc.ReadingPosition < 1 {
		doc.ReadingPosition = 1
	}
}

func (db *DB) documentByID(ctx context.Context, id string) (*models.Document, error) {
	key := docKey(id)
	var doc models.Document
	ok, err := db.kv.Get(ctx, key, &doc)
	if err != nil {
		return nil, apperr.Storage("get", key, err)
	}
	if !ok {
		return nil, apperr.NotFound("document", id)
	}
	return &doc, nil
}

// GetDocument returns a document visible to the session: its owner's, or any
// document for an administrator.
func (db *DB) GetDocument(ctx context.Context, sess *models.Session, id string) (*models.Document, error) {
	if !sess.Valid(db.now()) {
		return nil, apperr.ErrAuth
	}
	doc, err := db.documentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.UserID != sess.UserID && !sess.IsAdmin {
		return nil, apperr.ErrAccessDenied
	}
	return doc, nil
}

// ListDocuments returns the session user's documents, newest first. Without a
// valid session the list is empty.
func (db *DB) ListDocuments(ctx context.Context, sess *models.Session) ([]models.Document, error) {
	if !sess.Valid(db.now()) {
		return []models.Document{}, nil
	}
	return db.userDocuments(ctx, sess.UserID)
}

func (db *DB) userDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	key := userDocsKey(userID)
	ids, err := db.kv.LRange(ctx, key)
	if err != nil {
		return nil, apperr.Storage("lrange", key, err)
	}
	docs := make([]models.Document, 0, len(ids))
	for _, id := range ids {
		var doc models.Document
		ok, err := db.kv.Get(ctx, docKey(id), &doc)
		if err != nil {
			return nil, apperr.Storage("get", docKey(id), err)
		}
		if ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// DeleteDocument removes a document and drops it from its owner's index. The
// owner or an administrator may delete. The deleted record is returned so the
// caller can remove its blobs.
func (db *DB) DeleteDocument(ctx context.Context, sess *models.Session, id string) (*models.Document, error) {
	doc, err := db.GetDocument(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := db.kv.Del(ctx, docKey(id)); err != nil {
		return nil, apperr.Storage("del", docKey(id), err)
	}
	if err := db.kv.LRem(ctx, userDocsKey(doc.UserID), id); err != nil {
		return nil, apperr.Storage("lrem", userDocsKey(doc.UserID), err)
	}
	return doc, nil
}
