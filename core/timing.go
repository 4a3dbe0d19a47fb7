package core

import (
	"errors"
	"time"
)

// Speed limits accepted by NewTiming
const (
	MinWPM = 1
	MaxWPM = 100

	// PARIS standard: one dot lasts 1200/wpm milliseconds
	dotMillisPerWPM = 1200
)

// ErrInvalidSpeed is returned for a words-per-minute value outside MinWPM..MaxWPM
var ErrInvalidSpeed = errors.New("invalid speed")

// Timing holds the element durations derived from a words-per-minute speed
type Timing struct {
	WPM       int
	Dot       time.Duration
	Dash      time.Duration // 3 dots
	SymbolGap time.Duration // 1 dot, after every dot or dash
	LetterGap time.Duration // 3 dots
	WordGap   time.Duration // 7 dots
}

// NewTiming derives a Timing from wpm.
// The dot length uses integer milliseconds so every other duration is an
// exact multiple of it.
func NewTiming(wpm int) (Timing, error) {
	if wpm < MinWPM || wpm > MaxWPM {
		return Timing{}, ErrInvalidSpeed
	}
	dot := time.Duration(dotMillisPerWPM/wpm) * time.Millisecond
	return Timing{
		WPM:       wpm,
		Dot:       dot,
		Dash:      3 * dot,
		SymbolGap: dot,
		LetterGap: 3 * dot,
		WordGap:   7 * dot,
	}, nil
}

// MustTiming is NewTiming for constant speeds
func MustTiming(wpm int) Timing {
	t, err := NewTiming(wpm)
	if err != nil {
		panic("invalid wpm: " + itoa(wpm))
	}
	return t
}

// Duration returns how long playing morse takes with this timing
func (t Timing) Duration(morse string) time.Duration {
	var total time.Duration
	seq := NewSequencer(morse, t)
	for {
		step, ok := seq.Next()
		if !ok {
			return total
		}
		total += step.Duration
	}
}

// TicksFromDuration converts a duration to timer ticks
func TicksFromDuration(d time.Duration) uint32 {
	return TimerFromUS(uint32(d / time.Microsecond))
}
