package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/readify/ai"
	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/logging"
	"github.com/kevinaaaquil/readify/middleware"
	"github.com/kevinaaaquil/readify/store"
)

// Assistant is the document assistant behind the /api/ai routes.
type Assistant interface {
	Summarize(ctx context.Context, text string) (string, error)
	Glossary(ctx context.Context, text string) ([]ai.GlossaryEntry, error)
	Quiz(ctx context.Context, text string, n int) ([]ai.QuizQuestion, error)
	Chat(ctx context.Context, text string, history []ai.Message, question string) (string, error)
}

type AIHandler struct {
	DB        *store.DB
	Assistant Assistant
	Log       logging.Logger
}

// AIRequest names a document or carries the text directly. Text wins when
// both are set.
type AIRequest struct {
	DocumentID string       `json:"documentId"`
	Text       string       `json:"text"`
	Count      int          `json:"count"`
	History    []ai.Message `json:"history"`
	Question   string       `json:"question"`
}

func (h *AIHandler) text(w http.ResponseWriter, r *http.Request) (*AIRequest, string, bool) {
	if h.Assistant == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "ai not configured (missing OPENAI_API_KEY)")
		return nil, "", false
	}
	var req AIRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return nil, "", false
	}
	if strings.TrimSpace(req.Text) != "" {
		return &req, req.Text, true
	}
	if req.DocumentID == "" {
		writeError(w, r, h.Log, apperr.Validation("documentId or text required"))
		return nil, "", false
	}
	sess, _ := middleware.SessionFromContext(r.Context())
	doc, err := h.DB.GetDocument(r.Context(), sess, req.DocumentID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return nil, "", false
	}
	return &req, doc.Text, true
}

func (h *AIHandler) Summary(w http.ResponseWriter, r *http.Request) {
	_, text, ok := h.text(w, r)
	if !ok {
		return
	}
	summary, err := h.Assistant.Summarize(r.Context(), text)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (h *AIHandler) Glossary(w http.ResponseWriter, r *http.Request) {
	_, text, ok := h.text(w, r)
	if !ok {
		return
	}
	terms, err := h.Assistant.Glossary(r.Context(), text)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"terms": terms})
}

func (h *AIHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	req, text, ok := h.text(w, r)
	if !ok {
		return
	}
	questions, err := h.Assistant.Quiz(r.Context(), text, req.Count)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req, text, ok := h.text(w, r)
	if !ok {
		return
	}
	answer, err := h.Assistant.Chat(r.Context(), text, req.History, req.Question)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
