package core

import "time"

// Step is one timed key state produced by a Sequencer
type Step struct {
	Token    byte // Morse token that produced the step
	On       bool // Outputs active during the step
	Duration time.Duration
}

// Sequencer walks a Morse string and yields the key steps for it.
// It is the playback state machine shared by Player and Beacon.
type Sequencer struct {
	morse      string
	pos        int
	timing     Timing
	gapPending bool // a dot or dash still owes its symbol gap
}

// NewSequencer creates a sequencer positioned at the start of morse
func NewSequencer(morse string, timing Timing) *Sequencer {
	s := &Sequencer{}
	s.Load(morse, timing)
	return s
}

// Load restarts the sequencer on a new Morse string
func (s *Sequencer) Load(morse string, timing Timing) {
	s.morse = morse
	s.timing = timing
	s.pos = 0
	s.gapPending = false
}

// Next returns the following step, or false once the string is exhausted
func (s *Sequencer) Next() (Step, bool) {
	if s.gapPending {
		s.gapPending = false
		return Step{Token: s.morse[s.pos-1], On: false, Duration: s.timing.SymbolGap}, true
	}

	for s.pos < len(s.morse) {
		c := s.morse[s.pos]
		s.pos++
		switch c {
		case '.':
			s.gapPending = true
			return Step{Token: c, On: true, Duration: s.timing.Dot}, true
		case '-':
			s.gapPending = true
			return Step{Token: c, On: true, Duration: s.timing.Dash}, true
		case ' ':
			return Step{Token: c, On: false, Duration: s.timing.LetterGap}, true
		case '/':
			return Step{Token: c, On: false, Duration: s.timing.WordGap}, true
		}
	}
	return Step{}, false
}

// Done reports whether every step has been produced
func (s *Sequencer) Done() bool {
	if s.gapPending {
		return false
	}
	for i := s.pos; i < len(s.morse); i++ {
		switch s.morse[i] {
		case '.', '-', ' ', '/':
			return false
		}
	}
	return true
}
