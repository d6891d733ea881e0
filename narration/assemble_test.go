package narration

import (
	"testing"

	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/models"
	"github.com/kevinaaaquil/readify/tts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fragments() []tts.Fragment {
	return []tts.Fragment{
		{
			Audio: []byte("aaa"), Format: "mp3", TextOffset: 0,
			Marks: []models.TimingMark{
				{Type: models.MarkSentence, Start: 0, End: 12, Time: 0},
				{Type: models.MarkWord, Start: 0, End: 5, Time: 0},
				{Type: models.MarkWord, Start: 6, End: 12, Time: 400},
			},
		},
		{
			Audio: []byte("bb"), Format: "mp3", TextOffset: 13, DurationMs: 1000,
			Marks: []models.TimingMark{
				{Type: models.MarkWord, Start: 0, End: 4, Time: 100},
			},
		},
		{Audio: []byte("c"), Format: "mp3", TextOffset: 18, DurationMs: 700},
	}
}

func TestAssemble_OffsetsMarks(t *testing.T) {
	a, err := Assemble(fragments())
	require.NoError(t, err)

	assert.Equal(t, []byte("aaabbc"), a.Audio)
	assert.Equal(t, "mp3", a.Format)
	// First fragment has no reported duration: its last word ends at 400+6*80.
	first := int64(400 + 6*MsPerChar)
	assert.Equal(t, first+1000+700, a.DurationMs)

	require.Len(t, a.Marks, 4)
	last := a.Marks[3]
	assert.Equal(t, first+100, last.Time)
	assert.Equal(t, 13, last.Start)
	assert.Equal(t, 17, last.End)

	for i := 1; i < len(a.Marks); i++ {
		assert.LessOrEqual(t, a.Marks[i-1].Time, a.Marks[i].Time)
	}
	// Stable: the sentence mark stays ahead of the word at the same time.
	assert.Equal(t, models.MarkSentence, a.Marks[0].Type)
}

func TestAssemble_IsAssociative(t *testing.T) {
	frags := fragments()
	whole, err := Assemble(frags)
	require.NoError(t, err)

	left, err := Assemble(frags[:1])
	require.NoError(t, err)
	right, err := Assemble(frags[1:])
	require.NoError(t, err)
	require.NoError(t, left.Join(right))

	assert.Equal(t, whole, left)
}

func TestAssemble_RejectsMixedFormats(t *testing.T) {
	_, err := Assemble([]tts.Fragment{
		{Audio: []byte("a"), Format: "mp3"},
		{Audio: []byte("b"), Format: "wav"},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAssemble_Empty(t *testing.T) {
	a, err := Assemble(nil)
	require.NoError(t, err)
	assert.Empty(t, a.Audio)
	assert.Zero(t, a.DurationMs)
}

func TestFragmentDuration_IgnoresSentenceEstimateWhenWordsExist(t *testing.T) {
	long := tts.Fragment{
		Audio: []byte("a"), Format: "mp3",
		Marks: []models.TimingMark{
			{Type: models.MarkSentence, Start: 0, End: 100, Time: 0},
			{Type: models.MarkWord, Start: 0, End: 4, Time: 0},
			{Type: models.MarkWord, Start: 95, End: 100, Time: 5000},
		},
	}
	assert.Equal(t, int64(5000+5*MsPerChar), FragmentDuration(long))

	next := tts.Fragment{
		Audio: []byte("b"), Format: "mp3", TextOffset: 101,
		Marks: []models.TimingMark{{Type: models.MarkWord, Start: 0, End: 3, Time: 0}},
	}
	a, err := Assemble([]tts.Fragment{long, next})
	require.NoError(t, err)
	assert.Equal(t, int64(5400), a.Marks[len(a.Marks)-1].Time)

	sentences := tts.Fragment{Marks: []models.TimingMark{{Type: models.MarkSentence, Start: 0, End: 10, Time: 200}}}
	assert.Equal(t, int64(200+10*MsPerChar), FragmentDuration(sentences))
}

func TestAssemble_UsesReportedChunkDurations(t *testing.T) {
	// Two Polly chunks at a slow rate: the reported length wins over any mark.
	a, err := Assemble([]tts.Fragment{
		{
			Audio: []byte("a"), Format: "mp3", DurationMs: 9000,
			Marks: []models.TimingMark{
				{Type: models.MarkSentence, Start: 0, End: 100, Time: 0},
				{Type: models.MarkWord, Start: 95, End: 100, Time: 8500},
			},
		},
		{
			Audio: []byte("b"), Format: "mp3", TextOffset: 101, DurationMs: 2000,
			Marks: []models.TimingMark{{Type: models.MarkWord, Start: 0, End: 3, Time: 50}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11000), a.DurationMs)
	last := a.Marks[len(a.Marks)-1]
	assert.Equal(t, int64(9050), last.Time)
	assert.Equal(t, 101, last.Start)
}
