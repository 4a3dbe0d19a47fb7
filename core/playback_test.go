package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// virtualClock is a Sleeper that advances the system clock instead of waiting
type virtualClock struct {
	slept time.Duration
	calls int
}

func (v *virtualClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.slept += d
	v.calls++
	SetTime(GetTime() + TicksFromDuration(d))
	return nil
}

func newTestPlayer(t *testing.T, wpm int, audio bool) (*Player, *mockGPIO, *mockTone, *virtualClock) {
	t.Helper()
	SetTime(1)
	gpio := newMockGPIO()
	tone := newMockTone()
	outs := Outputs{Light: 25}
	if audio {
		outs.Audio = &ToneOutput{Pin: 15}
	}
	k, err := NewKeyer(gpio, tone, outs)
	if err != nil {
		t.Fatal(err)
	}
	clock := &virtualClock{}
	p := NewPlayer(k, MustTiming(wpm))
	p.SetSleeper(clock.sleep)
	return p, gpio, tone, clock
}

func TestPlayerSOS(t *testing.T) {
	p, gpio, tone, clock := newTestPlayer(t, 20, true)

	var tokens []byte
	p.OnStep = func(s Step) {
		if s.On {
			tokens = append(tokens, s.Token)
		}
	}

	if err := p.Play(context.Background(), "... --- ..."); err != nil {
		t.Fatalf("Play: %v", err)
	}

	if want := p.Timing().Duration("... --- ..."); clock.slept != want {
		t.Errorf("slept %v, want %v", clock.slept, want)
	}
	if string(tokens) != "...---..." {
		t.Errorf("keyed tokens = %q", tokens)
	}

	on := onDurations(gpio.events)
	want := []uint32{60000, 60000, 60000, 180000, 180000, 180000, 60000, 60000, 60000}
	if len(on) != len(want) {
		t.Fatalf("on periods = %v", on)
	}
	for i := range want {
		if on[i] != want[i] {
			t.Errorf("on period %d = %d ticks, want %d", i, on[i], want[i])
		}
	}

	if tone.starts != 9 || len(tone.playing) != 0 {
		t.Errorf("tone starts=%d playing=%v", tone.starts, tone.playing)
	}
	if gpio.levels[25] {
		t.Error("light left on")
	}
}

func TestPlayerDefaultFrequency(t *testing.T) {
	p, _, tone, _ := newTestPlayer(t, 20, true)
	p.OnStep = func(s Step) {
		if s.On && tone.playing[15] != DefaultToneFrequency {
			t.Errorf("tone = %d Hz, want %d", tone.playing[15], DefaultToneFrequency)
		}
	}
	if err := p.Play(context.Background(), "."); err != nil {
		t.Fatal(err)
	}
}

func TestPlayerCancel(t *testing.T) {
	p, gpio, _, _ := newTestPlayer(t, 20, false)

	ctx, cancel := context.WithCancel(context.Background())
	steps := 0
	p.OnStep = func(s Step) {
		steps++
		if steps == 3 {
			cancel()
		}
	}

	err := p.Play(ctx, "... --- ...")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Play error = %v, want context.Canceled", err)
	}
	if steps != 3 {
		t.Errorf("ran %d steps after cancel", steps)
	}
	if gpio.levels[25] {
		t.Error("light left on after cancel")
	}
}

func TestPlayerRealSleepCancel(t *testing.T) {
	SetTime(1)
	k, _ := NewKeyer(newMockGPIO(), nil, Outputs{Light: 2})
	p := NewPlayer(k, MustTiming(MinWPM))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Play(ctx, "-")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Play error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancel took %v", elapsed)
	}
}

func TestPlayerKeyError(t *testing.T) {
	p, gpio, _, _ := newTestPlayer(t, 20, false)
	p.OnStep = func(Step) { gpio.failSet = true }

	if err := p.Play(context.Background(), ".."); err == nil {
		t.Error("expected key error")
	}
}

func TestNewKeyerErrors(t *testing.T) {
	if _, err := NewKeyer(nil, nil, Outputs{}); err == nil {
		t.Error("expected error without GPIO driver")
	}
	_, err := NewKeyer(newMockGPIO(), nil, Outputs{Audio: &ToneOutput{Pin: 1}})
	if !errors.Is(err, ErrNoToneDriver) {
		t.Errorf("got %v, want ErrNoToneDriver", err)
	}
}

func TestPlayMorse(t *testing.T) {
	SetTime(1)
	gpio := newMockGPIO()
	SetGPIODriver(gpio)
	defer SetGPIODriver(nil)

	if err := PlayMorse(context.Background(), "", Outputs{Light: 3}, 20); err != nil {
		t.Fatalf("PlayMorse: %v", err)
	}
	if !gpio.outputs[3] {
		t.Error("light pin not configured")
	}

	if err := PlayMorse(context.Background(), ".", Outputs{Light: 3}, 0); !errors.Is(err, ErrInvalidSpeed) {
		t.Errorf("PlayMorse at 0 wpm = %v", err)
	}
	SetToneDriver(nil)
	audio := Outputs{Light: 3, Audio: &ToneOutput{Pin: 4}}
	if err := PlayMorse(context.Background(), ".", audio, 20); !errors.Is(err, ErrNoToneDriver) {
		t.Errorf("PlayMorse without tone driver = %v, want ErrNoToneDriver", err)
	}

	SetGPIODriver(nil)
	if err := PlayMorse(context.Background(), ".", Outputs{Light: 3}, 20); err == nil {
		t.Error("PlayMorse without GPIO driver should fail")
	}
}
