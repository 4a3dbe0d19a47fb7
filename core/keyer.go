package core

import "errors"

// DefaultToneFrequency is the sidetone pitch used when none is configured
const DefaultToneFrequency = 700

// ErrNoToneDriver is returned when an audio output is requested without a tone driver
var ErrNoToneDriver = errors.New("audio output requires a tone driver")

// ToneOutput is an audio pin and its pitch
type ToneOutput struct {
	Pin       TonePin
	Frequency uint32 // Hz
}

// Outputs names the pins a transmission drives
type Outputs struct {
	Light GPIOPin
	Audio *ToneOutput // nil when no buzzer is attached
}

// Keyer switches the light and tone outputs together
type Keyer struct {
	gpio GPIODriver
	tone ToneDriver
	outs Outputs
	down bool
}

// NewKeyer binds outputs to drivers. tone may be nil when outs.Audio is nil.
func NewKeyer(gpio GPIODriver, tone ToneDriver, outs Outputs) (*Keyer, error) {
	if gpio == nil {
		return nil, errors.New("keyer requires a GPIO driver")
	}
	if outs.Audio != nil && tone == nil {
		return nil, ErrNoToneDriver
	}
	if outs.Audio != nil && outs.Audio.Frequency == 0 {
		audio := *outs.Audio
		audio.Frequency = DefaultToneFrequency
		outs.Audio = &audio
	}
	return &Keyer{gpio: gpio, tone: tone, outs: outs}, nil
}

// Outputs returns the pins driven by the keyer
func (k *Keyer) Outputs() Outputs {
	return k.outs
}

// Configure sets pin modes and leaves every output inactive
func (k *Keyer) Configure() error {
	if err := k.gpio.ConfigureOutput(k.outs.Light); err != nil {
		return err
	}
	if k.outs.Audio != nil {
		if err := k.tone.ConfigureTone(k.outs.Audio.Pin); err != nil {
			return err
		}
	}
	k.down = true
	return k.Key(false)
}

// Key activates (true) or releases (false) every output
func (k *Keyer) Key(on bool) error {
	if on == k.down {
		return nil
	}
	if k.outs.Audio != nil {
		var err error
		if on {
			err = k.tone.StartTone(k.outs.Audio.Pin, k.outs.Audio.Frequency)
		} else {
			err = k.tone.StopTone(k.outs.Audio.Pin)
		}
		if err != nil {
			return err
		}
	}
	if err := k.gpio.SetPin(k.outs.Light, on); err != nil {
		return err
	}
	k.down = on
	return nil
}

// Down reports whether the outputs are currently active
func (k *Keyer) Down() bool {
	return k.down
}
