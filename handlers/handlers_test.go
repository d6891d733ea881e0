package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/readify/ai"
	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/logging"
	"github.com/kevinaaaquil/readify/middleware"
	"github.com/kevinaaaquil/readify/models"
	"github.com/kevinaaaquil/readify/narration"
	"github.com/kevinaaaquil/readify/store"
	"github.com/kevinaaaquil/readify/tts"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const blobBase = "https://blobs.test/"

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	n       int
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *memBlobs) Upload(_ context.Context, prefix, filename string, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
	key := fmt.Sprintf("%s%d-%s", prefix, b.n, filename)
	b.objects[key] = data
	b.types[key] = contentType
	return key, nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) ObjectURL(key string) string { return blobBase + key }

func (b *memBlobs) KeyFromURL(u string) (string, bool) {
	key, ok := strings.CutPrefix(u, blobBase)
	return key, ok && key != ""
}

func (b *memBlobs) GetObject(_ context.Context, key string) (io.ReadCloser, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, "", errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), b.types[key], nil
}

func (b *memBlobs) PresignedGetURL(_ context.Context, key string, expiry time.Duration, filename string) (string, error) {
	return fmt.Sprintf("%s%s?expires=%d&name=%s", blobBase, key, int(expiry.Seconds()), filename), nil
}

func (b *memBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

type echoProvider struct {
	err error
}

func (p *echoProvider) Name() string         { return "echo" }
func (p *echoProvider) DefaultVoice() string { return "echo-voice" }

func (p *echoProvider) SupportsVoice(string) bool { return true }

func (p *echoProvider) Synthesize(_ context.Context, req tts.Request) (*tts.Result, error) {
	if p.err != nil {
		return nil, p.err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperr.Validation("text is empty")
	}
	return &tts.Result{Fragments: []tts.Fragment{{
		Audio:  []byte("ID3|" + req.Voice + "|" + req.Text),
		Format: "mp3",
		Marks: []models.TimingMark{
			{Type: models.MarkWord, Start: 0, End: 5, Time: 0, Value: "Hello"},
			{Type: models.MarkWord, Start: 6, End: 11, Time: 600, Value: "world"},
		},
	}}}, nil
}

type stubAssistant struct {
	lastText string
}

func (a *stubAssistant) Summarize(_ context.Context, text string) (string, error) {
	a.lastText = text
	if strings.TrimSpace(text) == "" {
		return "", apperr.Validation("document text is empty")
	}
	return "summary of " + text, nil
}

func (a *stubAssistant) Glossary(_ context.Context, text string) ([]ai.GlossaryEntry, error) {
	a.lastText = text
	return []ai.GlossaryEntry{{Term: "term", Definition: "definition"}}, nil
}

func (a *stubAssistant) Quiz(_ context.Context, text string, n int) ([]ai.QuizQuestion, error) {
	a.lastText = text
	return []ai.QuizQuestion{{Question: fmt.Sprintf("q%d", n), Options: []string{"a", "b"}, Answer: "a"}}, nil
}

func (a *stubAssistant) Chat(_ context.Context, text string, history []ai.Message, question string) (string, error) {
	a.lastText = text
	return fmt.Sprintf("%d:%s", len(history), question), nil
}

type harness struct {
	t         *testing.T
	db        *store.DB
	blobs     *memBlobs
	provider  *echoProvider
	assistant *stubAssistant
	sessions  *middleware.Sessions
	router    http.Handler
}

const adminEmail = "admin@example.com"

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		db:        store.NewDB(store.NewMemory()),
		blobs:     newMemBlobs(),
		provider:  &echoProvider{},
		assistant: &stubAssistant{},
		sessions:  middleware.NewSessions("test-secret", 24*time.Hour, true),
	}
	log := logging.Discard()
	narrator := &narration.Narrator{
		Providers: map[string]tts.Provider{"echo": h.provider},
		Default:   "echo",
		Blobs:     h.blobs,
		DB:        h.db,
		Log:       log,
	}
	h.router = NewRouter(Deps{
		DB:         h.db,
		Sessions:   h.sessions,
		Blobs:      h.blobs,
		Narrator:   narrator,
		Assistant:  h.assistant,
		Log:        log,
		AdminEmail: adminEmail,
		MaxUpload:  1024,
	})
	return h
}

// user creates an account directly in the store and returns a bearer token.
func (h *harness) user(email string, admin bool) (*models.User, string) {
	h.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(h.t, err)
	u := &models.User{Email: email, Password: string(hash), IsAdmin: admin}
	require.NoError(h.t, h.db.CreateUser(context.Background(), u))
	token, _, err := h.sessions.Issue(u)
	require.NoError(h.t, err)
	return u, token
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(h.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) createDocument(token string, text string) models.Document {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/documents", token, map[string]any{
		"fileUrl": "https://cdn.example.com/book.pdf",
		"text":    text,
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc models.Document
	decode(h.t, rec, &doc)
	return doc
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
