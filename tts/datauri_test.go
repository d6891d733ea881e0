package tts

import (
	"testing"

	"github.com/kevinaaaquil/readify/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURI_RoundTrip(t *testing.T) {
	uri := EncodeDataURI("mp3", []byte{0x49, 0x44, 0x33, 0x00})
	assert.Equal(t, "data:audio/mp3;base64,SUQzAA==", uri)

	format, audio, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "mp3", format)
	assert.Equal(t, []byte{0x49, 0x44, 0x33, 0x00}, audio)
}

func TestDecodeDataURI_Rejects(t *testing.T) {
	cases := map[string]string{
		"not data":    "https://example.com/a.mp3",
		"not base64":  "data:audio/mp3,abc",
		"bad format":  "data:audio/ogg;base64,AAAA",
		"bad payload": "data:audio/wav;base64,***",
		"image":       "data:image/png;base64,AAAA",
	}
	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeDataURI(uri)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}
