// Timer-driven Morse transmission
// Each key step is one timer callback, so the main loop never blocks
package core

import "errors"

// ErrBusy is returned when a transmission is already running
var ErrBusy = errors.New("transmission in progress")

// Beacon transmits a Morse string from the timer list
type Beacon struct {
	Timer Timer

	keyer  *Keyer
	seq    Sequencer
	active bool
	steps  uint32 // steps executed in the current transmission

	// OnDone, when set, is called once a transmission ends or is aborted
	OnDone func(aborted bool)
}

// NewBeacon creates an idle beacon driving keyer
func NewBeacon(keyer *Keyer) *Beacon {
	b := &Beacon{keyer: keyer}
	b.Timer.Handler = b.stepEvent
	return b
}

// Active reports whether a transmission is running
func (b *Beacon) Active() bool {
	return b.active
}

// Start schedules morse for transmission beginning at clock
func (b *Beacon) Start(morse string, timing Timing, clock uint32) error {
	if b.active {
		return ErrBusy
	}
	if err := b.keyer.Configure(); err != nil {
		return err
	}
	b.seq.Load(morse, timing)
	b.active = true
	b.steps = 0

	b.Timer.Next = nil
	b.Timer.WakeTime = clock
	b.Timer.Handler = b.stepEvent
	ScheduleTimer(&b.Timer)
	return nil
}

// Abort stops a running transmission and releases the outputs
func (b *Beacon) Abort() {
	if !b.active {
		return
	}
	CancelTimer(&b.Timer)
	b.finish(true)
}

// stepEvent keys the next step and reschedules itself at the step's end.
// WakeTime advances from the previous wake time, not from now, so late
// dispatches do not accumulate drift.
func (b *Beacon) stepEvent(t *Timer) uint8 {
	if !b.active {
		_ = b.keyer.Key(false)
		return SF_DONE
	}

	step, ok := b.seq.Next()
	if !ok {
		b.finish(false)
		return SF_DONE
	}

	if err := b.keyer.Key(step.On); err != nil {
		DebugPrintln("[BEACON] key error: " + err.Error())
		b.finish(true)
		return SF_DONE
	}
	b.steps++
	RecordKeyEvent(step.Token, step.On, t.WakeTime)

	t.WakeTime += TicksFromDuration(step.Duration)
	return SF_RESCHEDULE
}

func (b *Beacon) finish(aborted bool) {
	_ = b.keyer.Key(false)
	b.active = false
	if aborted {
		DebugPrintln("[BEACON] aborted after " + utoa(b.steps) + " steps")
	}
	if b.OnDone != nil {
		b.OnDone(aborted)
	}
}
