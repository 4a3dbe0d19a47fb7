//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/tone"

	"gomorse/core"
)

// pwmSlices are the PWM blocks shared by GPIO0-GPIO29; pin n uses slice (n/2)%8
var pwmSlices = [8]tone.PWM{
	machine.PWM0, machine.PWM1, machine.PWM2, machine.PWM3,
	machine.PWM4, machine.PWM5, machine.PWM6, machine.PWM7,
}

var errTonePin = errors.New("tone pin has no PWM slice")

// RPToneDriver implements core.ToneDriver with a PWM square wave per pin
type RPToneDriver struct {
	speakers map[core.TonePin]tone.Speaker
}

// NewRPToneDriver creates a driver with no speakers configured
func NewRPToneDriver() *RPToneDriver {
	return &RPToneDriver{speakers: make(map[core.TonePin]tone.Speaker)}
}

// ConfigureTone attaches a speaker to the pin's PWM slice, silent
func (d *RPToneDriver) ConfigureTone(pin core.TonePin) error {
	if _, ok := d.speakers[pin]; ok {
		return nil
	}
	if pin >= 30 {
		return errTonePin
	}
	speaker, err := tone.New(pwmSlices[(pin>>1)&7], machine.Pin(pin))
	if err != nil {
		return err
	}
	speaker.Stop()
	d.speakers[pin] = speaker
	return nil
}

// StartTone sets the PWM period to one cycle of hz
func (d *RPToneDriver) StartTone(pin core.TonePin, hz uint32) error {
	if hz == 0 {
		return d.StopTone(pin)
	}
	speaker, ok := d.speakers[pin]
	if !ok {
		if err := d.ConfigureTone(pin); err != nil {
			return err
		}
		speaker = d.speakers[pin]
	}
	speaker.SetPeriod(1e9 / uint64(hz))
	return nil
}

// StopTone silences the pin
func (d *RPToneDriver) StopTone(pin core.TonePin) error {
	if speaker, ok := d.speakers[pin]; ok {
		speaker.Stop()
	}
	return nil
}
