package tts

import (
	"encoding/base64"
	"strings"

	"github.com/kevinaaaquil/readify/apperr"
)

// EncodeDataURI returns data:audio/<format>;base64,<payload>.
func EncodeDataURI(format string, audio []byte) string {
	return "data:audio/" + format + ";base64," + base64.StdEncoding.EncodeToString(audio)
}

// DecodeDataURI parses a URI produced by EncodeDataURI. Only mp3 and wav are
// accepted.
func DecodeDataURI(uri string) (format string, audio []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:audio/")
	if !ok {
		return "", nil, apperr.Validation("not an audio data uri")
	}
	format, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, apperr.Validation("audio data uri is not base64")
	}
	if format != "mp3" && format != "wav" {
		return "", nil, apperr.Validation("unsupported audio format %q", format)
	}
	audio, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, apperr.Validation("bad base64 payload: %v", err)
	}
	return format, audio, nil
}
