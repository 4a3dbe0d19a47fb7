// Package rpi keys Morse on Raspberry Pi header pins and listens to a key
// wired to one, using periph.io.
package rpi

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"gomorse/core"
)

// Init loads the periph host drivers. It is safe to call more than once.
func Init() error {
	_, err := host.Init()
	return err
}

// PinByNumber returns the BCM numbered pin GPIOn
func PinByNumber(n uint32) (gpio.PinIO, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, fmt.Errorf("no pin GPIO%d on this host", n)
	}
	return p, nil
}

// Driver implements core.GPIODriver and core.ToneDriver on header pins.
// Tones use hardware or software PWM at half duty.
type Driver struct {
	mu     sync.Mutex
	lookup func(n uint32) (gpio.PinIO, error)
	pins   map[uint32]gpio.PinIO
}

// NewDriver initializes periph and returns a driver with no pins claimed
func NewDriver() (*Driver, error) {
	if err := Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	return newDriver(PinByNumber), nil
}

func newDriver(lookup func(n uint32) (gpio.PinIO, error)) *Driver {
	return &Driver{lookup: lookup, pins: make(map[uint32]gpio.PinIO)}
}

func (d *Driver) pin(n uint32) (gpio.PinIO, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pins[n]; ok {
		return p, nil
	}
	p, err := d.lookup(n)
	if err != nil {
		return nil, err
	}
	d.pins[n] = p
	return p, nil
}

// ConfigureOutput drives the pin low
func (d *Driver) ConfigureOutput(pin core.GPIOPin) error {
	p, err := d.pin(uint32(pin))
	if err != nil {
		return err
	}
	return p.Out(gpio.Low)
}

// ConfigureInput enables the pin as an input with edge detection
func (d *Driver) ConfigureInput(pin core.GPIOPin, pull core.Pull) error {
	p, err := d.pin(uint32(pin))
	if err != nil {
		return err
	}
	return p.In(periphPull(pull), gpio.BothEdges)
}

func periphPull(pull core.Pull) gpio.Pull {
	switch pull {
	case core.PullUp:
		return gpio.PullUp
	case core.PullDown:
		return gpio.PullDown
	}
	return gpio.Float
}

// SetPin drives an output
func (d *Driver) SetPin(pin core.GPIOPin, value bool) error {
	p, err := d.pin(uint32(pin))
	if err != nil {
		return err
	}
	return p.Out(gpio.Level(value))
}

// GetPin reads the pin level
func (d *Driver) GetPin(pin core.GPIOPin) (bool, error) {
	p, err := d.pin(uint32(pin))
	if err != nil {
		return false, err
	}
	return p.Read() == gpio.High, nil
}

// Input returns the pin for use with Listen
func (d *Driver) Input(pin core.GPIOPin) (gpio.PinIn, error) {
	return d.pin(uint32(pin))
}

// ConfigureTone leaves the pin low until a tone starts
func (d *Driver) ConfigureTone(pin core.TonePin) error {
	return d.ConfigureOutput(core.GPIOPin(pin))
}

// StartTone outputs a square wave of hz
func (d *Driver) StartTone(pin core.TonePin, hz uint32) error {
	p, err := d.pin(uint32(pin))
	if err != nil {
		return err
	}
	if hz == 0 {
		return p.Out(gpio.Low)
	}
	return p.PWM(gpio.DutyHalf, physic.Frequency(hz)*physic.Hertz)
}

// StopTone silences the pin
func (d *Driver) StopTone(pin core.TonePin) error {
	p, err := d.pin(uint32(pin))
	if err != nil {
		return err
	}
	return p.Out(gpio.Low)
}
