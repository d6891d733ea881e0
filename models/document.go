package models

import (
	"strings"
	"time"
)

type Document struct {
	ID              string       `bson:"id" json:"id"`
	UserID          string       `bson:"userId" json:"userId"`
	Name            string       `bson:"name" json:"name"`
	FileURL         string       `bson:"fileUrl" json:"fileUrl"`
	AudioURL        string       `bson:"audioUrl,omitempty" json:"audioUrl,omitempty"`
	TimingMarks     []TimingMark `bson:"timingMarks,omitempty" json:"timingMarks,omitempty"`
	Voice           string       `bson:"voice,omitempty" json:"voice,omitempty"`
	Zoom            float64      `bson:"zoom" json:"zoom"`
	Text            string       `bson:"text,omitempty" json:"text,omitempty"` // extracted by the client
	ReadingPosition int          `bson:"readingPosition" json:"readingPosition"`
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time    `bson:"updatedAt" json:"updatedAt"`
}

type MarkType string

const (
	MarkWord     MarkType = "word"
	MarkSentence MarkType = "sentence"
)

// TimingMark locates a word or sentence of the source text in the narration
// audio. Start and End are code point offsets into the text, Time is the
// offset into the audio in milliseconds.
type TimingMark struct {
	Type     MarkType `bson:"type" json:"type"`
	Start    int      `bson:"start" json:"start"`
	End      int      `bson:"end" json:"end"`
	Time     int64    `bson:"time" json:"time"`
	Value    string   `bson:"value,omitempty" json:"value,omitempty"`
	Duration int64    `bson:"duration,omitempty" json:"duration,omitempty"` // ms, when the provider reports it
}

// PDFPrefix and AudioPrefix are the blob key prefixes of a user's uploads
// and narrations.
func PDFPrefix(userID string) string   { return "pdf/" + userID + "/" }
func AudioPrefix(userID string) string { return "audio/" + userID + "/" }

// OwnsPDF reports whether key is a PDF uploaded by the document's owner.
func (d *Document) OwnsPDF(key string) bool {
	return d.UserID != "" && ownedKey(key, PDFPrefix(d.UserID))
}

// OwnsAudio reports whether key is a narration of the document's owner.
func (d *Document) OwnsAudio(key string) bool {
	return d.UserID != "" && ownedKey(key, AudioPrefix(d.UserID))
}

func ownedKey(key, prefix string) bool {
	return strings.HasPrefix(key, prefix) && !strings.Contains(key, "..")
}
