// Package ai answers questions about a document's text with an OpenAI chat
// model: summaries, glossaries, quizzes and free-form chat.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kevinaaaquil/readify/apperr"
	openai "github.com/sashabaranov/go-openai"
)

const providerName = "openai"

// Completer is the chat completion call of the OpenAI client.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Assistant struct {
	client   Completer
	model    string
	maxChars int
}

func New(client Completer, model string, maxChars int) *Assistant {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Assistant{client: client, model: model, maxChars: maxChars}
}

// NewOpenAI builds an Assistant on the OpenAI API. baseURL may be empty.
func NewOpenAI(apiKey, baseURL, model string, maxChars int) *Assistant {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return New(openai.NewClientWithConfig(cfg), model, maxChars)
}

type GlossaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Message is one turn of a chat about the document.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

func (a *Assistant) Summarize(ctx context.Context, text string) (string, error) {
	text, err := a.prepare(text)
	if err != nil {
		return "", err
	}
	return a.complete(ctx, false,
		"You summarize documents for a reader. Write a concise summary in plain prose.",
		text)
}

func (a *Assistant) Glossary(ctx context.Context, text string) ([]GlossaryEntry, error) {
	text, err := a.prepare(text)
	if err != nil {
		return nil, err
	}
	out, err := a.complete(ctx, true,
		`List the key terms of the document with short definitions. Respond with JSON: {"terms":[{"term":"...","definition":"..."}]}`,
		text)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Terms []GlossaryEntry `json:"terms"`
	}
	if err := decode(out, &resp); err != nil {
		return nil, err
	}
	if resp.Terms == nil {
		resp.Terms = []GlossaryEntry{}
	}
	return resp.Terms, nil
}

// Quiz writes n multiple choice questions; n outside 1..20 means 5.
func (a *Assistant) Quiz(ctx context.Context, text string, n int) ([]QuizQuestion, error) {
	text, err := a.prepare(text)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > 20 {
		n = 5
	}
	out, err := a.complete(ctx, true,
		fmt.Sprintf(`Write %d multiple choice questions about the document. The answer must be one of the options. Respond with JSON: {"questions":[{"question":"...","options":["..."],"answer":"..."}]}`, n),
		text)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Questions []QuizQuestion `json:"questions"`
	}
	if err := decode(out, &resp); err != nil {
		return nil, err
	}
	qs := make([]QuizQuestion, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		if q.Question == "" || len(q.Options) < 2 {
			continue
		}
		qs = append(qs, q)
	}
	if len(qs) == 0 {
		return nil, apperr.Provider(providerName, errors.New("model returned no usable questions"))
	}
	return qs, nil
}

// Chat answers question about the document, continuing history.
func (a *Assistant) Chat(ctx context.Context, text string, history []Message, question string) (string, error) {
	text, err := a.prepare(text)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(question) == "" {
		return "", apperr.Validation("question is empty")
	}
	msgs := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: "Answer questions about the following document. Say so when the document does not contain the answer.\n\n" + text,
	}}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})
	return a.send(ctx, openai.ChatCompletionRequest{Model: a.model, Messages: msgs})
}

// prepare rejects blank text and cuts it to the configured limit.
func (a *Assistant) prepare(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Validation("document text is empty")
	}
	if a.maxChars > 0 {
		if r := []rune(text); len(r) > a.maxChars {
			text = string(r[:a.maxChars])
		}
	}
	return text, nil
}

func (a *Assistant) complete(ctx context.Context, jsonMode bool, system, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return a.send(ctx, req)
}

func (a *Assistant) send(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Provider(providerName, errors.New("no choices returned"))
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", apperr.Provider(providerName, errors.New("empty completion"))
	}
	return out, nil
}

func decode(out string, v any) error {
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	if err := json.Unmarshal([]byte(out), v); err != nil {
		return apperr.Provider(providerName, fmt.Errorf("malformed model output: %w", err))
	}
	return nil
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &apperr.ProviderError{Provider: providerName, Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &apperr.ProviderError{Provider: providerName, Status: reqErr.HTTPStatusCode, Err: reqErr.Err}
	}
	return apperr.Provider(providerName, err)
}
