//go:build rp2040 || rp2350

package main

import (
	"machine"

	"gomorse/core"
)

// ModeConfig selects how the board runs
type ModeConfig struct {
	// Standalone repeats a built-in beacon message and takes console text
	// over USB. Otherwise the board speaks the binary protocol to a host.
	Standalone bool

	// Pins used by standalone mode; a host sends its own with config_keyer
	LightPin  machine.Pin
	AudioPin  machine.Pin
	Frequency uint32 // 0 disables the buzzer
}

// GetMode returns the compiled-in mode.
// Holding modePin low at boot selects standalone mode.
func GetMode() ModeConfig {
	modePin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return ModeConfig{
		Standalone: !modePin.Get(),
		LightPin:   machine.LED,
		AudioPin:   machine.GPIO15,
		Frequency:  core.DefaultToneFrequency,
	}
}

const modePin = machine.GPIO22

// outputs converts the mode pins to keyer outputs
func (m ModeConfig) outputs() core.Outputs {
	outs := core.Outputs{Light: core.GPIOPin(m.LightPin)}
	if m.Frequency != 0 {
		outs.Audio = &core.ToneOutput{Pin: core.TonePin(m.AudioPin), Frequency: m.Frequency}
	}
	return outs
}
