package tts

import (
	"strings"
	"unicode"
)

type chunk struct {
	Text   string
	Offset int // code points from the start of the source text
}

// splitText cuts text into chunks of at most max code points, breaking after
// sentence punctuation when possible, then at whitespace, then anywhere.
// Whitespace-only chunks are dropped; offsets always refer to the source.
func splitText(text string, max int) []chunk {
	runes := []rune(text)
	var chunks []chunk
	start := 0
	for start < len(runes) {
		end := start + max
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = breakPoint(runes, start, end)
		}
		if s := string(runes[start:end]); strings.TrimSpace(s) != "" {
			chunks = append(chunks, chunk{Text: s, Offset: start})
		}
		start = end
	}
	return chunks
}

// breakPoint returns the best cut in runes[start:end]. Sentence breaks in the
// first half of the window are ignored so chunks stay reasonably full.
func breakPoint(runes []rune, start, end int) int {
	space := -1
	half := start + (end-start)/2
	for i := end - 1; i > start; i-- {
		r := runes[i-1]
		if i >= half && (r == '.' || r == '!' || r == '?' || r == ';') && unicode.IsSpace(runes[i]) {
			return i
		}
		if space < 0 && unicode.IsSpace(runes[i]) {
			space = i
		}
	}
	if space > start {
		return space
	}
	return end
}
