package core

// TonePin identifies a pin able to produce an audio tone (PWM or speaker)
type TonePin uint32

// ToneDriver is the abstract audio interface used by the keyer.
// A tone is a square or sine wave at a fixed frequency, started and
// stopped in step with the light output.
type ToneDriver interface {
	// ConfigureTone prepares a pin for tone output, initially silent
	ConfigureTone(pin TonePin) error

	// StartTone starts a continuous tone of frequency hz on the pin
	StartTone(pin TonePin, hz uint32) error

	// StopTone silences the pin
	StopTone(pin TonePin) error
}

var toneDriver ToneDriver

// SetToneDriver is called by target-specific code to register its driver.
func SetToneDriver(d ToneDriver) {
	toneDriver = d
}

// Tone returns the configured driver, nil when none is registered
func Tone() ToneDriver {
	return toneDriver
}

// MustTone returns the configured driver or panics if missing.
func MustTone() ToneDriver {
	if toneDriver == nil {
		panic("tone driver not configured")
	}
	return toneDriver
}
