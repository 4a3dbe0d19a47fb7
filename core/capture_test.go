package core

import (
	"testing"
	"time"
)

// keySignal feeds c one sample per millisecond from the steps of morse
func keySignal(c *Capture, morse string, timing Timing, now uint32) uint32 {
	seq := NewSequencer(morse, timing)
	for {
		step, ok := seq.Next()
		if !ok {
			return now
		}
		for i := time.Duration(0); i < step.Duration; i += time.Millisecond {
			c.Sample(step.On, now)
			now += TimerFromUS(1000)
		}
	}
}

// holdKey feeds a constant level for ms milliseconds
func holdKey(c *Capture, down bool, ms int, now uint32) uint32 {
	for i := 0; i < ms; i++ {
		c.Sample(down, now)
		now += TimerFromUS(1000)
	}
	return now
}

func TestCaptureRoundTrip(t *testing.T) {
	tests := []struct {
		text string
		wpm  int
	}{
		{"E", 20},
		{"SOS", 20},
		{"CQ DE K1ABC", 15},
		{"PARIS PARIS", 30},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			timing := MustTiming(tt.wpm)
			c := NewCapture(timing)

			morse, err := TextToMorse(tt.text)
			if err != nil {
				t.Fatal(err)
			}

			now := keySignal(c, morse, timing, 5000000)
			if c.Idle(now) {
				t.Fatal("idle right after the last element")
			}
			idle := int(messageIdleTimeout*timing.Dot/time.Millisecond) + 20
			now = holdKey(c, false, idle, now)
			if !c.Idle(now) {
				t.Fatal("not idle after the message timeout")
			}

			if got := c.Text(); got != tt.text {
				t.Errorf("Text() = %q, want %q", got, tt.text)
			}
			if got := c.Flush(); got != morse {
				t.Errorf("Flush() = %q, want %q", got, morse)
			}
			if c.Idle(now) || c.Morse() != "" {
				t.Error("Flush did not start a new message")
			}
		})
	}
}

func TestCaptureDebounce(t *testing.T) {
	timing := MustTiming(20)
	c := NewCapture(timing)

	now := uint32(1000000)
	// Dash with two short contact bounces
	now = holdKey(c, true, 50, now)
	now = holdKey(c, false, 3, now)
	now = holdKey(c, true, 80, now)
	now = holdKey(c, false, 2, now)
	now = holdKey(c, true, 45, now)
	now = holdKey(c, false, 800, now)

	if got := c.Morse(); got != "-" {
		t.Errorf("Morse() = %q, want \"-\"", got)
	}
	if !c.Idle(now) {
		t.Error("not idle")
	}
}

func TestCaptureIgnoresLeadingSpace(t *testing.T) {
	c := NewCapture(MustTiming(20))
	now := holdKey(c, false, 2000, 1)
	now = holdKey(c, true, 60, now)
	holdKey(c, false, 100, now)

	if got := c.Morse(); got != "." {
		t.Errorf("Morse() = %q, want \".\"", got)
	}
}

func TestCaptureDebounceCap(t *testing.T) {
	c := NewCapture(MustTiming(MaxWPM))
	if c.debounce != c.dot/2 {
		t.Errorf("debounce = %d ticks, want %d", c.debounce, c.dot/2)
	}
	c.SetTiming(MustTiming(10))
	if c.debounce != TicksFromDuration(DefaultDebounce) {
		t.Errorf("debounce = %d ticks", c.debounce)
	}
}
