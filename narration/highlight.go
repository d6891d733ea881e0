package narration

import "github.com/kevinaaaquil/readify/models"

// MsPerChar is the estimated narration time per character when a provider
// does not report how long a word or sentence takes to speak.
const MsPerChar = 80

// EstimateDuration guesses the spoken length of a mark from its text span.
func EstimateDuration(m models.TimingMark) int64 {
	n := m.End - m.Start
	if n < 1 {
		n = 1
	}
	return int64(n) * MsPerChar
}

// MarkDuration is the reported duration of m, or its estimate.
func MarkDuration(m models.TimingMark) int64 {
	if m.Duration > 0 {
		return m.Duration
	}
	return EstimateDuration(m)
}

// Span is the text range to highlight.
type Span struct {
	Type  models.MarkType `json:"type"`
	Start int             `json:"start"`
	End   int             `json:"end"`
}

// ActiveSpan returns the span being spoken at t milliseconds. A word mark
// covering t wins over a sentence mark; among marks of the same type the
// first in the list wins. ok is false when no mark covers t.
func ActiveSpan(marks []models.TimingMark, t int64) (span Span, ok bool) {
	var sentence *models.TimingMark
	for i := range marks {
		m := &marks[i]
		if t < m.Time || t >= m.Time+MarkDuration(*m) {
			continue
		}
		switch m.Type {
		case models.MarkWord:
			return Span{Type: m.Type, Start: m.Start, End: m.End}, true
		case models.MarkSentence:
			if sentence == nil {
				sentence = m
			}
		}
	}
	if sentence == nil {
		return Span{}, false
	}
	return Span{Type: sentence.Type, Start: sentence.Start, End: sentence.End}, true
}
