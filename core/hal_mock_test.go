package core

import "fmt"

// pinEvent is one call seen by the mock drivers
type pinEvent struct {
	Pin   uint32
	Value bool
	Clock uint32
}

type mockGPIO struct {
	levels  map[GPIOPin]bool
	outputs map[GPIOPin]bool
	inputs  map[GPIOPin]Pull
	events  []pinEvent
	failSet bool
}

func newMockGPIO() *mockGPIO {
	return &mockGPIO{
		levels:  make(map[GPIOPin]bool),
		outputs: make(map[GPIOPin]bool),
		inputs:  make(map[GPIOPin]Pull),
	}
}

func (m *mockGPIO) ConfigureOutput(pin GPIOPin) error {
	m.outputs[pin] = true
	m.levels[pin] = false
	return nil
}

func (m *mockGPIO) ConfigureInput(pin GPIOPin, pull Pull) error {
	m.inputs[pin] = pull
	m.levels[pin] = pull == PullUp
	return nil
}

func (m *mockGPIO) SetPin(pin GPIOPin, value bool) error {
	if m.failSet {
		return fmt.Errorf("pin %d stuck", pin)
	}
	if !m.outputs[pin] {
		return fmt.Errorf("pin %d not an output", pin)
	}
	m.levels[pin] = value
	m.events = append(m.events, pinEvent{Pin: uint32(pin), Value: value, Clock: GetTime()})
	return nil
}

func (m *mockGPIO) GetPin(pin GPIOPin) (bool, error) {
	return m.levels[pin], nil
}

type mockTone struct {
	configured map[TonePin]bool
	playing    map[TonePin]uint32
	starts     int
}

func newMockTone() *mockTone {
	return &mockTone{
		configured: make(map[TonePin]bool),
		playing:    make(map[TonePin]uint32),
	}
}

func (m *mockTone) ConfigureTone(pin TonePin) error {
	m.configured[pin] = true
	return nil
}

func (m *mockTone) StartTone(pin TonePin, hz uint32) error {
	if !m.configured[pin] {
		return fmt.Errorf("tone pin %d not configured", pin)
	}
	m.playing[pin] = hz
	m.starts++
	return nil
}

func (m *mockTone) StopTone(pin TonePin) error {
	delete(m.playing, pin)
	return nil
}

// onDurations returns the length of every on period in ticks
func onDurations(events []pinEvent) []uint32 {
	var out []uint32
	var start uint32
	on := false
	for _, e := range events {
		switch {
		case e.Value && !on:
			start, on = e.Clock, true
		case !e.Value && on:
			out = append(out, e.Clock-start)
			on = false
		}
	}
	return out
}
