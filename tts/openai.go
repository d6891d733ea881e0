package tts

import (
	"context"
	"errors"
	"io"

	"github.com/kevinaaaquil/readify/apperr"
	openai "github.com/sashabaranov/go-openai"
)

// openAIMaxChars stays under the 4096 character input limit of /audio/speech.
const openAIMaxChars = 4000

// OpenAI synthesizes with the OpenAI speech endpoint. It returns one mp3
// fragment per text chunk and no timing marks.
type OpenAI struct {
	client *openai.Client
	model  openai.SpeechModel
}

func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: openai.TTSModel1}
}

func (o *OpenAI) Name() string         { return "openai" }
func (o *OpenAI) DefaultVoice() string { return string(openai.VoiceAlloy) }

var openAIVoices = map[string]bool{
	string(openai.VoiceAlloy):   true,
	"ash":                       true,
	"coral":                     true,
	string(openai.VoiceEcho):    true,
	string(openai.VoiceFable):   true,
	string(openai.VoiceOnyx):    true,
	string(openai.VoiceNova):    true,
	"sage":                      true,
	string(openai.VoiceShimmer): true,
}

func (o *OpenAI) SupportsVoice(voice string) bool { return openAIVoices[voice] }

func (o *OpenAI) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	speed := req.Rate
	if speed < 0.25 {
		speed = 0.25
	} else if speed > 4 {
		speed = 4
	}
	res := &Result{}
	for _, c := range splitText(req.Text, openAIMaxChars) {
		resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
			Model:          o.model,
			Input:          c.Text,
			Voice:          openai.SpeechVoice(req.Voice),
			ResponseFormat: openai.SpeechResponseFormatMp3,
			Speed:          speed,
		})
		if err != nil {
			return nil, openAIError(o.Name(), err)
		}
		audio, err := io.ReadAll(resp)
		resp.Close()
		if err != nil {
			return nil, apperr.Provider(o.Name(), err)
		}
		if len(audio) == 0 {
			return nil, apperr.Provider(o.Name(), errors.New("empty audio response"))
		}
		res.Fragments = append(res.Fragments, Fragment{Audio: audio, Format: "mp3", TextOffset: c.Offset})
	}
	return res, nil
}

func openAIError(provider string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &apperr.ProviderError{Provider: provider, Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &apperr.ProviderError{Provider: provider, Status: reqErr.HTTPStatusCode, Err: reqErr.Err}
	}
	return apperr.Provider(provider, err)
}
