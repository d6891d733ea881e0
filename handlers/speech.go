package handlers

import (
	"net/http"
	"unicode/utf8"

	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/logging"
	"github.com/kevinaaaquil/readify/narration"
	"github.com/kevinaaaquil/readify/tts"
)

// maxSpeechChars bounds inline synthesis; whole documents go through
// narration.
const maxSpeechChars = 5000

type SpeechHandler struct {
	Narrator *narration.Narrator
	Log      logging.Logger
}

type SpeechRequest struct {
	Text         string  `json:"text"`
	Voice        string  `json:"voice"`
	SpeakingRate float64 `json:"speakingRate"`
	Provider     string  `json:"provider"`
}

type SpeechResponse struct {
	AudioDataURI string `json:"audioDataUri"`
}

// GenerateSpeech synthesizes text and returns it inline as a data URI.
// Nothing is stored.
func (h *SpeechHandler) GenerateSpeech(w http.ResponseWriter, r *http.Request) {
	var req SpeechRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if utf8.RuneCountInString(req.Text) > maxSpeechChars {
		writeError(w, r, h.Log, apperr.Validation("text exceeds %d characters", maxSpeechChars))
		return
	}
	uri, err := h.Narrator.Speech(r.Context(), req.Provider, tts.Request{
		Text:  req.Text,
		Voice: req.Voice,
		Rate:  req.SpeakingRate,
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, SpeechResponse{AudioDataURI: uri})
}
