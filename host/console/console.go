// Package console shows keyed output in a terminal for hosts without
// wired outputs.
package console

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"gomorse/core"
)

// Lamp implements core.GPIODriver and core.ToneDriver by drawing the key
// state on a writer and logging every transition at debug level.
type Lamp struct {
	mu     sync.Mutex
	w      io.Writer
	log    *slog.Logger
	now    func() time.Time
	levels map[core.GPIOPin]bool
	since  time.Time
}

// NewLamp draws on w; logger may be nil
func NewLamp(w io.Writer, logger *slog.Logger) *Lamp {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lamp{
		w:      w,
		log:    logger,
		now:    time.Now,
		levels: make(map[core.GPIOPin]bool),
	}
}

// ConfigureOutput implements core.GPIODriver
func (l *Lamp) ConfigureOutput(pin core.GPIOPin) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.levels[pin] = false
	l.since = l.now()
	return nil
}

// ConfigureInput implements core.GPIODriver; a lamp has no inputs
func (l *Lamp) ConfigureInput(pin core.GPIOPin, pull core.Pull) error {
	return nil
}

// SetPin draws '#' while the key is down and ' ' while it is up
func (l *Lamp) SetPin(pin core.GPIOPin, value bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.levels[pin] == value {
		return nil
	}
	now := l.now()
	l.log.Debug("key", "pin", pin, "on", value, "after", now.Sub(l.since))
	l.levels[pin] = value
	l.since = now

	mark := "\r "
	if value {
		mark = "\r#"
	}
	_, err := io.WriteString(l.w, mark)
	return err
}

// GetPin implements core.GPIODriver
func (l *Lamp) GetPin(pin core.GPIOPin) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.levels[pin], nil
}

// ConfigureTone implements core.ToneDriver
func (l *Lamp) ConfigureTone(pin core.TonePin) error {
	return nil
}

// StartTone logs the tone; the lamp already shows the key state
func (l *Lamp) StartTone(pin core.TonePin, hz uint32) error {
	l.log.Debug("tone", "pin", pin, "hz", hz)
	return nil
}

// StopTone implements core.ToneDriver
func (l *Lamp) StopTone(pin core.TonePin) error {
	return nil
}
