package narration

import (
	"sort"

	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/models"
	"github.com/kevinaaaquil/readify/tts"
)

// Assembled is a complete narration: one audio stream and the marks for the
// whole text, sorted by time.
type Assembled struct {
	Audio      []byte
	Format     string
	Marks      []models.TimingMark
	DurationMs int64
}

// Assemble concatenates fragments in order. Each fragment's marks are moved
// by the duration of the audio before it and by its offset in the text.
func Assemble(frags []tts.Fragment) (*Assembled, error) {
	a := &Assembled{}
	for _, f := range frags {
		if err := a.Append(f); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Append adds f to the end of a. Appending a fragment to an empty Assembled
// adopts its format.
func (a *Assembled) Append(f tts.Fragment) error {
	if a.Format == "" {
		a.Format = f.Format
	} else if f.Format != "" && f.Format != a.Format {
		return apperr.Validation("cannot join %s audio onto %s audio", f.Format, a.Format)
	}
	a.Audio = append(a.Audio, f.Audio...)
	for _, m := range f.Marks {
		m.Time += a.DurationMs
		m.Start += f.TextOffset
		m.End += f.TextOffset
		a.Marks = append(a.Marks, m)
	}
	sort.SliceStable(a.Marks, func(i, j int) bool { return a.Marks[i].Time < a.Marks[j].Time })
	a.DurationMs += FragmentDuration(f)
	return nil
}

// Join appends all of b onto a. Joining is associative with Append, so
// building a narration piecewise gives the same result as one Assemble.
func (a *Assembled) Join(b *Assembled) error {
	return a.Append(tts.Fragment{Audio: b.Audio, Format: b.Format, Marks: b.Marks, DurationMs: b.DurationMs})
}

// FragmentDuration is the reported duration of f. Without one it is the end
// of the last word mark; sentence marks only count when f has no words, as
// their ends are estimates over the whole sentence.
func FragmentDuration(f tts.Fragment) int64 {
	if f.DurationMs > 0 {
		return f.DurationMs
	}
	var end, wordEnd int64
	for _, m := range f.Marks {
		e := m.Time + MarkDuration(m)
		if m.Type == models.MarkWord && e > wordEnd {
			wordEnd = e
		}
		if e > end {
			end = e
		}
	}
	if wordEnd > 0 {
		return wordEnd
	}
	return end
}
