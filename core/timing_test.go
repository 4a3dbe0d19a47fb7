package core

import (
	"errors"
	"testing"
	"time"
)

func TestNewTiming(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		wpm                         int
		dot, dash, letterGap, wordG time.Duration
	}{
		{5, 240 * ms, 720 * ms, 720 * ms, 1680 * ms},
		{12, 100 * ms, 300 * ms, 300 * ms, 700 * ms},
		{20, 60 * ms, 180 * ms, 180 * ms, 420 * ms},
		{40, 30 * ms, 90 * ms, 90 * ms, 210 * ms},
		// 1200/7 truncates to 171ms; multiples stay exact
		{7, 171 * ms, 513 * ms, 513 * ms, 1197 * ms},
	}

	for _, tt := range tests {
		timing, err := NewTiming(tt.wpm)
		if err != nil {
			t.Fatalf("NewTiming(%d): %v", tt.wpm, err)
		}
		if timing.Dot != tt.dot || timing.Dash != tt.dash || timing.SymbolGap != tt.dot ||
			timing.LetterGap != tt.letterGap || timing.WordGap != tt.wordG {
			t.Errorf("NewTiming(%d) = %+v", tt.wpm, timing)
		}
	}
}

func TestNewTimingRange(t *testing.T) {
	for _, wpm := range []int{0, -3, MaxWPM + 1} {
		if _, err := NewTiming(wpm); !errors.Is(err, ErrInvalidSpeed) {
			t.Errorf("NewTiming(%d) error = %v, want ErrInvalidSpeed", wpm, err)
		}
	}
	for _, wpm := range []int{MinWPM, MaxWPM} {
		if _, err := NewTiming(wpm); err != nil {
			t.Errorf("NewTiming(%d): %v", wpm, err)
		}
	}
}

func TestTimingDuration(t *testing.T) {
	timing := MustTiming(20)
	tests := []struct {
		morse string
		dots  int
	}{
		{"", 0},
		{".", 2},
		{"-", 4},
		{"... --- ...", 30},
		{". / .", 2 + 3 + 7 + 3 + 2},
	}

	for _, tt := range tests {
		want := time.Duration(tt.dots) * timing.Dot
		if got := timing.Duration(tt.morse); got != want {
			t.Errorf("Duration(%q) = %v, want %v", tt.morse, got, want)
		}
	}
}

func TestTicksFromDuration(t *testing.T) {
	if got := TicksFromDuration(60 * time.Millisecond); got != 60000 {
		t.Errorf("TicksFromDuration(60ms) = %d, want 60000", got)
	}
	if got := TimerToUS(TimerFromUS(1234)); got != 1234 {
		t.Errorf("TimerToUS(TimerFromUS(1234)) = %d", got)
	}
}

func TestMustTimingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustTiming(0) did not panic")
		}
	}()
	MustTiming(0)
}
