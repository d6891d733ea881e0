package tts

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/models"
)

// pollyMaxChars keeps each request under Polly's 3000 billed character limit.
const pollyMaxChars = 2500

// PollyAPI is the part of the Polly client the adapter uses.
type PollyAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// endMark names the SSML mark placed after the chunk text. Its speech mark
// time is the spoken length of the chunk.
const endMark = "readify-end"

// Polly synthesizes with Amazon Polly. Every chunk is requested twice: once
// as mp3 audio and once as word, sentence and ssml speech marks.
type Polly struct {
	client PollyAPI
}

func NewPolly(ctx context.Context, region, accessKeyID, secretAccessKey string) (*Polly, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return NewPollyWithClient(polly.NewFromConfig(cfg)), nil
}

func NewPollyWithClient(client PollyAPI) *Polly {
	return &Polly{client: client}
}

func (p *Polly) Name() string         { return "polly" }
func (p *Polly) DefaultVoice() string { return string(types.VoiceIdJoanna) }

func (p *Polly) SupportsVoice(voice string) bool {
	return slices.Contains(types.VoiceId("").Values(), types.VoiceId(voice))
}

func (p *Polly) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	res := &Result{}
	for _, c := range splitText(req.Text, pollyMaxChars) {
		ssml, offsets := buildSSML(c.Text, req.Rate)
		audio, err := p.audio(ctx, ssml, req.Voice)
		if err != nil {
			return nil, err
		}
		marks, duration, err := p.marks(ctx, ssml, req.Voice, offsets)
		if err != nil {
			return nil, err
		}
		res.Fragments = append(res.Fragments, Fragment{
			Audio:      audio,
			Format:     "mp3",
			TextOffset: c.Offset,
			Marks:      marks,
			DurationMs: duration,
		})
	}
	return res, nil
}

func (p *Polly) audio(ctx context.Context, ssml, voice string) ([]byte, error) {
	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		OutputFormat: types.OutputFormatMp3,
		Text:         aws.String(ssml),
		TextType:     types.TextTypeSsml,
		VoiceId:      types.VoiceId(voice),
	})
	if err != nil {
		return nil, pollyError(err)
	}
	if out.AudioStream == nil {
		return nil, apperr.Provider(p.Name(), errors.New("no audio stream"))
	}
	defer out.AudioStream.Close()
	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, apperr.Provider(p.Name(), err)
	}
	if len(audio) == 0 {
		return nil, apperr.Provider(p.Name(), errors.New("empty audio stream"))
	}
	return audio, nil
}

// pollyMark is one line of Polly's speech mark output.
type pollyMark struct {
	Time  int64  `json:"time"`
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Value string `json:"value"`
}

// marks returns the chunk's word and sentence marks and its spoken length,
// 0 when Polly did not report the end mark.
func (p *Polly) marks(ctx context.Context, ssml, voice string, offsets []int) ([]models.TimingMark, int64, error) {
	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		OutputFormat: types.OutputFormatJson,
		SpeechMarkTypes: []types.SpeechMarkType{
			types.SpeechMarkTypeWord,
			types.SpeechMarkTypeSentence,
			types.SpeechMarkTypeSsml,
		},
		Text:     aws.String(ssml),
		TextType: types.TextTypeSsml,
		VoiceId:  types.VoiceId(voice),
	})
	if err != nil {
		return nil, 0, pollyError(err)
	}
	if out.AudioStream == nil {
		return nil, 0, apperr.Provider(p.Name(), errors.New("no speech mark stream"))
	}
	defer out.AudioStream.Close()
	b, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, 0, apperr.Provider(p.Name(), err)
	}
	marks, duration, err := parseSpeechMarks(b, offsets)
	if err != nil {
		return nil, 0, apperr.Provider(p.Name(), err)
	}
	return marks, duration, nil
}

// parseSpeechMarks decodes newline-delimited speech marks and maps their
// byte offsets in the SSML back to code point offsets in the chunk text.
// The time of the end mark is returned separately.
func parseSpeechMarks(b []byte, offsets []int) ([]models.TimingMark, int64, error) {
	var marks []models.TimingMark
	var duration int64
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var m pollyMark
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, 0, fmt.Errorf("speech mark %q: %w", line, err)
		}
		var typ models.MarkType
		switch m.Type {
		case "word":
			typ = models.MarkWord
		case "sentence":
			typ = models.MarkSentence
		case "ssml":
			if m.Value == endMark {
				duration = m.Time
			}
			continue
		default:
			continue
		}
		marks = append(marks, models.TimingMark{
			Type:  typ,
			Start: offsetAt(offsets, m.Start),
			End:   offsetAt(offsets, m.End),
			Time:  m.Time,
			Value: m.Value,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, 0, err
	}
	return marks, duration, nil
}

func offsetAt(offsets []int, b int) int {
	if b < 0 {
		return offsets[0]
	}
	if b >= len(offsets) {
		return offsets[len(offsets)-1]
	}
	return offsets[b]
}

// buildSSML wraps text in a prosody element for the rate and ends it with the
// end mark. offsets[i] is the
// code point offset in text for byte i of the SSML; the slice has one extra
// entry for the end of the document.
func buildSSML(text string, rate float64) (string, []int) {
	pct := int(rate*100 + 0.5)
	if pct < 20 {
		pct = 20
	} else if pct > 200 {
		pct = 200
	}
	prefix := fmt.Sprintf(`<speak><prosody rate="%d%%">`, pct)
	const suffix = `<mark name="` + endMark + `"/></prosody></speak>`

	var sb strings.Builder
	offsets := make([]int, 0, len(prefix)+len(text)+len(suffix)+1)
	sb.WriteString(prefix)
	for i := 0; i < len(prefix); i++ {
		offsets = append(offsets, 0)
	}
	k := 0
	for _, r := range text {
		esc := escapeSSML(r)
		sb.WriteString(esc)
		for i := 0; i < len(esc); i++ {
			offsets = append(offsets, k)
		}
		k++
	}
	sb.WriteString(suffix)
	for i := 0; i < len(suffix)+1; i++ {
		offsets = append(offsets, k)
	}
	return sb.String(), offsets
}

func escapeSSML(r rune) string {
	switch r {
	case '&':
		return "&amp;"
	case '<':
		return "&lt;"
	case '>':
		return "&gt;"
	case '"':
		return "&quot;"
	case '\'':
		return "&apos;"
	}
	return string(r)
}

func pollyError(err error) error {
	pe := &apperr.ProviderError{Provider: "polly"}
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		pe.Status = re.HTTPStatusCode()
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		pe.Body = apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
	} else {
		pe.Err = err
	}
	return pe
}
