// Live key capture
// Turns sampled key levels into a Morse string by duration thresholding
package core

import "time"

// Segmentation thresholds, in dots
const (
	dashThreshold      = 2  // marks at least this long are dashes
	letterThreshold    = 2  // spaces at least this long end a letter
	wordThreshold      = 5  // spaces at least this long end a word
	messageIdleTimeout = 10 // key up this long after a mark ends the message

	// DefaultDebounce filters contact bounce on mechanical keys
	DefaultDebounce = 10 * time.Millisecond
)

// Capture segments a key signal into Morse tokens.
// Feed it samples with Sample; timestamps are system clock ticks.
type Capture struct {
	dot      uint32 // dot length in ticks
	debounce uint32 // minimum stable time in ticks

	level        bool   // accepted key level, true = down
	since        uint32 // tick at which level was accepted
	pending      bool   // most recent raw level
	pendingSince uint32 // tick at which the raw level last changed
	marked       bool   // at least one mark recorded since the last flush

	morse []byte
}

// NewCapture creates a capture for the expected sending speed
func NewCapture(timing Timing) *Capture {
	c := &Capture{}
	c.SetTiming(timing)
	return c
}

// SetTiming changes the expected speed; debounce is capped at half a dot
func (c *Capture) SetTiming(timing Timing) {
	c.dot = TicksFromDuration(timing.Dot)
	c.debounce = TicksFromDuration(DefaultDebounce)
	if c.debounce > c.dot/2 {
		c.debounce = c.dot / 2
	}
}

// Sample records the key level observed at now
func (c *Capture) Sample(down bool, now uint32) {
	if down != c.pending {
		c.pending = down
		c.pendingSince = now
	}
	if c.pending != c.level && now-c.pendingSince >= c.debounce {
		c.edge(c.pending, c.pendingSince)
	}
}

// edge accepts a level change at tick at and classifies the level it ends
func (c *Capture) edge(down bool, at uint32) {
	length := at - c.since

	if c.level {
		if length >= dashThreshold*c.dot {
			c.morse = append(c.morse, '-')
		} else {
			c.morse = append(c.morse, '.')
		}
		c.marked = true
	} else if c.marked {
		switch {
		case length >= wordThreshold*c.dot:
			c.morse = append(c.morse, " / "...)
		case length >= letterThreshold*c.dot:
			c.morse = append(c.morse, ' ')
		}
	}

	c.level = down
	c.since = at
}

// Idle reports whether the key has been up long enough after a mark
// for the current message to be complete
func (c *Capture) Idle(now uint32) bool {
	return c.marked && !c.level && c.pending == c.level &&
		now-c.since >= messageIdleTimeout*c.dot
}

// Morse returns the tokens captured so far
func (c *Capture) Morse() string {
	return string(c.morse)
}

// Text decodes the tokens captured so far
func (c *Capture) Text() string {
	return MorseToText(string(c.morse))
}

// Flush returns the captured Morse string and starts a new message
func (c *Capture) Flush() string {
	morse := string(c.morse)
	c.morse = c.morse[:0]
	c.marked = false
	return morse
}
