package tts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_ShortTextIsOneChunk(t *testing.T) {
	chunks := splitText("Hello world.", 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, chunk{Text: "Hello world.", Offset: 0}, chunks[0])
}

func TestSplitText_PrefersSentenceBreaks(t *testing.T) {
	text := "The first sentence is here. Second one follows"
	chunks := splitText(text, 30)
	require.Len(t, chunks, 2)
	assert.Equal(t, "The first sentence is here.", chunks[0].Text)
	assert.Equal(t, 27, chunks[1].Offset)
}

func TestSplitText_FallsBackToSpaces(t *testing.T) {
	text := "alpha beta gamma delta epsilon"
	chunks := splitText(text, 12)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), 12)
		assert.Equal(t, c.Text, string([]rune(text)[c.Offset:c.Offset+len([]rune(c.Text))]))
	}
	var joined strings.Builder
	for _, c := range chunks {
		joined.WriteString(c.Text)
	}
	assert.Equal(t, strings.ReplaceAll(text, " ", ""), strings.ReplaceAll(joined.String(), " ", ""))
}

func TestSplitText_HardCutAndRuneOffsets(t *testing.T) {
	text := strings.Repeat("é", 25)
	chunks := splitText(text, 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].Offset)
	assert.Equal(t, 10, chunks[1].Offset)
	assert.Equal(t, 20, chunks[2].Offset)
	assert.Equal(t, strings.Repeat("é", 5), chunks[2].Text)
}

func TestSplitText_DropsBlankChunks(t *testing.T) {
	assert.Empty(t, splitText("   \n\t  ", 3))
}
