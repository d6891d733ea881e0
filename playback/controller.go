// Package playback drives narration playback for one open document: it
// tracks the player state, the position in the audio and the highlight that
// goes with it. A Controller is owned by one event loop and is not safe for
// concurrent use.
package playback

import (
	"errors"
	"fmt"

	"github.com/kevinaaaquil/readify/models"
	"github.com/kevinaaaquil/readify/narration"
)

type State string

const (
	Idle       State = "idle"
	Generating State = "generating"
	Playing    State = "playing"
	Paused     State = "paused"
	Error      State = "error"
)

const (
	MinRate = 0.5
	MaxRate = 2.0
	// SkipMs is how far FastForward and Rewind move.
	SkipMs = 10_000
)

var (
	// ErrBusy is returned for a narration request while one is generating.
	ErrBusy = errors.New("narration is already being generated")
	// ErrInvalidState is returned for an event the current state does not accept.
	ErrInvalidState = errors.New("invalid playback state")
)

type Controller struct {
	state    State
	position int64
	duration int64
	rate     float64
	marks    []models.TimingMark
	err      error
}

func New() *Controller {
	return &Controller{state: Idle, rate: 1}
}

func (c *Controller) State() State    { return c.state }
func (c *Controller) Position() int64 { return c.position }
func (c *Controller) Duration() int64 { return c.duration }
func (c *Controller) Rate() float64   { return c.rate }
func (c *Controller) Err() error      { return c.err }

func (c *Controller) invalid(event string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidState, event, c.state)
}

// Request starts generating a narration. Existing audio is dropped.
func (c *Controller) Request() error {
	switch c.state {
	case Generating:
		return ErrBusy
	case Playing, Paused:
		return c.invalid("request")
	}
	c.state = Generating
	c.err = nil
	c.position, c.duration, c.marks = 0, 0, nil
	return nil
}

// Ready starts playing a generated narration from the beginning.
func (c *Controller) Ready(durationMs int64, marks []models.TimingMark) error {
	if c.state != Generating {
		return c.invalid("ready")
	}
	if durationMs < 0 {
		durationMs = 0
	}
	c.state = Playing
	c.duration = durationMs
	c.marks = marks
	c.position = 0
	return nil
}

// Fail records a failed generation. The error is kept for display; nothing
// is retried.
func (c *Controller) Fail(err error) error {
	if c.state != Generating {
		return c.invalid("fail")
	}
	c.state = Error
	c.err = err
	return nil
}

func (c *Controller) Toggle() error {
	switch c.state {
	case Playing:
		c.state = Paused
	case Paused:
		c.state = Playing
	default:
		return c.invalid("toggle")
	}
	return nil
}

// Ended handles the natural end of the audio.
func (c *Controller) Ended() error {
	if c.state != Playing {
		return c.invalid("ended")
	}
	c.state = Idle
	c.position = 0
	return nil
}

// Seek moves to ms, clamped to [0, duration].
func (c *Controller) Seek(ms int64) error {
	if c.state != Playing && c.state != Paused {
		return c.invalid("seek")
	}
	c.position = c.clamp(ms)
	return nil
}

func (c *Controller) FastForward() error { return c.Seek(c.position + SkipMs) }
func (c *Controller) Rewind() error      { return c.Seek(c.position - SkipMs) }

// SetRate sets the playback rate, clamped to [MinRate, MaxRate], and returns
// the rate in effect.
func (c *Controller) SetRate(r float64) float64 {
	switch {
	case r < MinRate:
		r = MinRate
	case r > MaxRate:
		r = MaxRate
	}
	c.rate = r
	return c.rate
}

// Tick records a time update from the player and returns the span to
// highlight. Ticks outside playing or paused are ignored.
func (c *Controller) Tick(ms int64) (narration.Span, bool) {
	if c.state != Playing && c.state != Paused {
		return narration.Span{}, false
	}
	c.position = c.clamp(ms)
	return narration.ActiveSpan(c.marks, c.position)
}

func (c *Controller) clamp(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	if ms > c.duration {
		return c.duration
	}
	return ms
}
