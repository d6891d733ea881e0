// Package narration turns provider output into stored narrations: it joins
// audio fragments, keeps timing marks aligned with the text and maps a
// playback position back to the text being spoken.
package narration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/logging"
	"github.com/kevinaaaquil/readify/models"
	"github.com/kevinaaaquil/readify/store"
	"github.com/kevinaaaquil/readify/tts"
)

// BlobStore holds narration audio.
type BlobStore interface {
	Upload(ctx context.Context, prefix, filename string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	ObjectURL(key string) string
	KeyFromURL(url string) (string, bool)
}

type NarrateRequest struct {
	Provider string  `json:"provider"`
	Voice    string  `json:"voice"`
	Rate     float64 `json:"speakingRate"`
	// Text overrides the document's stored text.
	Text string `json:"text"`
}

type Narrator struct {
	Providers map[string]tts.Provider
	Default   string
	Blobs     BlobStore
	DB        *store.DB
	Log       logging.Logger
}

// Provider returns the named provider, or the default one for "".
func (n *Narrator) Provider(name string) (tts.Provider, error) {
	if name == "" {
		name = n.Default
	}
	p, ok := n.Providers[name]
	if !ok {
		return nil, apperr.Validation("unknown tts provider %q", name)
	}
	return p, nil
}

// Narrate synthesizes the document text, stores the audio and records the
// audio URL, marks and voice on the document. The document is only written
// once the audio is stored, so a failure at any step leaves it as it was.
func (n *Narrator) Narrate(ctx context.Context, sess *models.Session, docID string, req NarrateRequest) (*models.Document, error) {
	doc, err := n.DB.GetDocument(ctx, sess, docID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != sess.UserID {
		return nil, apperr.ErrAccessDenied
	}
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = doc.Text
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("document %s has no text to narrate", docID)
	}
	if n.Blobs == nil {
		return nil, apperr.Storage("upload", "", fmt.Errorf("blob store not configured"))
	}
	p, err := n.Provider(req.Provider)
	if err != nil {
		return nil, err
	}
	user, err := n.DB.UserByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	var preferred string
	if user != nil {
		preferred = user.PreferredVoice
	}
	voice := tts.ResolveVoice(p, req.Voice, preferred)

	audio, err := n.synthesize(ctx, p, tts.Request{Text: text, Voice: voice, Rate: req.Rate})
	if err != nil {
		return nil, err
	}
	key, err := n.Blobs.Upload(ctx, models.AudioPrefix(sess.UserID), doc.ID+"."+audio.Format, bytes.NewReader(audio.Audio), audioContentType(audio.Format))
	if err != nil {
		return nil, apperr.Storage("upload", models.AudioPrefix(sess.UserID), err)
	}

	oldAudio := doc.AudioURL
	doc.AudioURL = n.Blobs.ObjectURL(key)
	doc.TimingMarks = audio.Marks
	doc.Voice = voice
	if req.Text != "" {
		doc.Text = req.Text
	}
	saved, err := n.DB.SaveDocument(ctx, sess, doc)
	if err != nil {
		n.deleteBlob(ctx, key)
		return nil, err
	}
	if oldAudio != "" {
		if oldKey, ok := n.Blobs.KeyFromURL(oldAudio); ok && oldKey != key && doc.OwnsAudio(oldKey) {
			n.deleteBlob(ctx, oldKey)
		}
	}
	n.Log.Info(ctx, "narration stored", "doc", doc.ID, "provider", p.Name(), "voice", voice,
		"marks", len(audio.Marks), "duration_ms", audio.DurationMs)
	return saved, nil
}

// Speech synthesizes req without storing anything and returns the audio as a
// data URI.
func (n *Narrator) Speech(ctx context.Context, provider string, req tts.Request) (string, error) {
	p, err := n.Provider(provider)
	if err != nil {
		return "", err
	}
	req.Voice = tts.ResolveVoice(p, req.Voice, "")
	audio, err := n.synthesize(ctx, p, req)
	if err != nil {
		return "", err
	}
	return tts.EncodeDataURI(audio.Format, audio.Audio), nil
}

func (n *Narrator) synthesize(ctx context.Context, p tts.Provider, req tts.Request) (*Assembled, error) {
	res, err := p.Synthesize(ctx, req)
	if err != nil {
		n.Log.Warn(ctx, "synthesis failed", "provider", p.Name(), "err", err)
		return nil, err
	}
	audio, err := Assemble(res.Fragments)
	if err != nil {
		return nil, err
	}
	if len(audio.Audio) == 0 {
		return nil, apperr.Provider(p.Name(), fmt.Errorf("no audio returned"))
	}
	return audio, nil
}

func (n *Narrator) deleteBlob(ctx context.Context, key string) {
	if err := n.Blobs.Delete(ctx, key); err != nil {
		n.Log.Warn(ctx, "failed to delete audio blob", "key", key, "err", err)
	}
}

func audioContentType(format string) string {
	if format == "wav" {
		return "audio/wav"
	}
	return "audio/mpeg"
}
