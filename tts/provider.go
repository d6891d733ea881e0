// Package tts adapts text-to-speech providers to a common contract: a
// request of text, voice and speaking rate becomes an ordered list of audio
// fragments, each with optional timing marks.
package tts

import (
	"context"
	"strings"

	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/models"
)

type Request struct {
	Text  string
	Voice string
	Rate  float64 // 1.0 is normal speed
}

// Fragment is the audio for one chunk of the request text.
type Fragment struct {
	Audio  []byte
	Format string // "mp3"
	// TextOffset is the code point offset of the chunk in the request text.
	TextOffset int
	// Marks are relative to the fragment: Time from the start of Audio,
	// Start/End from TextOffset.
	Marks []models.TimingMark
	// DurationMs is the provider-reported duration, 0 when unknown.
	DurationMs int64
}

type Result struct {
	Fragments []Fragment
}

// Provider synthesizes speech. Implementations make no retries.
type Provider interface {
	Name() string
	DefaultVoice() string
	// SupportsVoice reports whether voice names one of the provider's voices.
	SupportsVoice(voice string) bool
	Synthesize(ctx context.Context, req Request) (*Result, error)
}

func validate(req *Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return apperr.Validation("text is empty")
	}
	if req.Rate <= 0 {
		req.Rate = 1
	}
	return nil
}

// ResolveVoice picks the voice for one request: the requested voice, else the
// user's preferred voice when p supports it, else the provider default.
func ResolveVoice(p Provider, requested, preferred string) string {
	if v := strings.TrimSpace(requested); v != "" {
		return v
	}
	if v := strings.TrimSpace(preferred); v != "" && p.SupportsVoice(v) {
		return v
	}
	return p.DefaultVoice()
}
