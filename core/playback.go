package core

import (
	"context"
	"time"
)

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Player keys a Morse string in real time on the calling goroutine.
// Cancellation is checked at every step boundary and while waiting.
type Player struct {
	keyer  *Keyer
	timing Timing
	sleep  Sleeper

	// OnStep, when set, is called as each step begins
	OnStep func(Step)
}

// NewPlayer creates a player for a keyer at the given speed
func NewPlayer(keyer *Keyer, timing Timing) *Player {
	return &Player{
		keyer:  keyer,
		timing: timing,
		sleep:  SleepContext,
	}
}

// SetSleeper replaces the wait function (tests use a virtual clock)
func (p *Player) SetSleeper(s Sleeper) {
	p.sleep = s
}

// Timing returns the speed profile used by the player
func (p *Player) Timing() Timing {
	return p.timing
}

// Play configures the outputs and keys morse. Outputs are always left
// inactive on return; a cancelled context returns ctx.Err().
func (p *Player) Play(ctx context.Context, morse string) (err error) {
	if err := p.keyer.Configure(); err != nil {
		return err
	}
	defer func() {
		if kerr := p.keyer.Key(false); err == nil {
			err = kerr
		}
	}()

	seq := NewSequencer(morse, p.timing)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		step, ok := seq.Next()
		if !ok {
			return nil
		}
		if err := p.keyer.Key(step.On); err != nil {
			return err
		}
		if p.OnStep != nil {
			p.OnStep(step)
		}
		if err := p.sleep(ctx, step.Duration); err != nil {
			return err
		}
	}
}

// PlayMorse keys morse on outs at wpm using the registered drivers.
// The tone driver is only required when outs.Audio is set.
func PlayMorse(ctx context.Context, morse string, outs Outputs, wpm int) error {
	timing, err := NewTiming(wpm)
	if err != nil {
		return err
	}
	keyer, err := NewKeyer(GPIO(), Tone(), outs)
	if err != nil {
		return err
	}
	return NewPlayer(keyer, timing).Play(ctx, morse)
}
