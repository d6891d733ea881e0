package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kevinaaaquil/readify/apperr"
)

// googleMaxChars is the translate-TTS limit per media URL.
const googleMaxChars = 200

// Google synthesizes with the Google Translate voice. Each text chunk gets a
// media URL which is fetched separately; no timing marks are available.
type Google struct {
	BaseURL string
	Client  *http.Client
}

func NewGoogle(baseURL string) *Google {
	return &Google{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Google) Name() string         { return "google" }
func (g *Google) DefaultVoice() string { return "en-US" }

// SupportsVoice accepts language tags such as "fr" or "en-GB".
func (g *Google) SupportsVoice(voice string) bool {
	return languageTag.MatchString(voice)
}

var languageTag = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)

func (g *Google) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	lang := strings.ToLower(strings.SplitN(req.Voice, "-", 2)[0])
	if lang == "" {
		lang = "en"
	}
	res := &Result{}
	for _, c := range splitText(req.Text, googleMaxChars) {
		u, err := g.mediaURL(c.Text, lang, req.Rate)
		if err != nil {
			return nil, apperr.Provider(g.Name(), err)
		}
		audio, err := g.fetch(ctx, u)
		if err != nil {
			return nil, err
		}
		res.Fragments = append(res.Fragments, Fragment{Audio: audio, Format: "mp3", TextOffset: c.Offset})
	}
	return res, nil
}

func (g *Google) mediaURL(text, lang string, rate float64) (string, error) {
	u, err := url.Parse(g.BaseURL)
	if err != nil {
		return "", fmt.Errorf("bad media base url: %w", err)
	}
	text = strings.TrimSpace(text)
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", text)
	q.Set("tl", lang)
	q.Set("total", "1")
	q.Set("idx", "0")
	q.Set("textlen", strconv.Itoa(len([]rune(text))))
	q.Set("client", "tw-ob")
	q.Set("prev", "input")
	q.Set("ttsspeed", strconv.FormatFloat(rate, 'f', -1, 64))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (g *Google) fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, apperr.Provider(g.Name(), err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, apperr.Provider(g.Name(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperr.ProviderStatus(g.Name(), resp.StatusCode, strings.TrimSpace(string(b)))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Provider(g.Name(), err)
	}
	if len(audio) == 0 {
		return nil, apperr.Provider(g.Name(), errors.New("empty media response"))
	}
	return audio, nil
}
