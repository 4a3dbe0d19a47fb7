// Package audio sounds the keyer tone on the host's speakers.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"gomorse/core"
)

// DefaultSampleRate is used when Open is given zero
const DefaultSampleRate beep.SampleRate = 44100

// rampTime shapes each key edge so it does not click
const rampTime = 5 * time.Millisecond

// Sidetone is a beep.Streamer producing a keyed sine wave.
// It implements core.ToneDriver; every tone pin maps to the one stream.
type Sidetone struct {
	sampleRate beep.SampleRate
	volume     float64
	ramp       float64

	mu    sync.Mutex
	freq  float64
	on    bool
	gain  float64
	phase float64
}

// NewSidetone creates a silent stream; volume is clamped to 0..1
func NewSidetone(sampleRate beep.SampleRate, volume float64) *Sidetone {
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	volume = math.Max(0, math.Min(1, volume))
	rampSamples := sampleRate.N(rampTime)
	if rampSamples < 1 {
		rampSamples = 1
	}
	return &Sidetone{
		sampleRate: sampleRate,
		volume:     volume,
		ramp:       1 / float64(rampSamples),
		freq:       core.DefaultToneFrequency,
	}
}

// Open starts the speaker and plays a new sidetone on it until Close
func Open(sampleRate beep.SampleRate, volume float64) (*Sidetone, error) {
	s := NewSidetone(sampleRate, volume)
	if err := speaker.Init(s.sampleRate, s.sampleRate.N(time.Second/50)); err != nil {
		return nil, err
	}
	speaker.Play(s)
	return s, nil
}

// Close stops everything playing on the speaker
func (s *Sidetone) Close() {
	speaker.Clear()
}

// Stream fills samples with the tone; it never ends
func (s *Sidetone) Stream(samples [][2]float64) (n int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := 2 * math.Pi * s.freq / float64(s.sampleRate)
	for i := range samples {
		if s.on {
			s.gain = math.Min(1, s.gain+s.ramp)
		} else {
			s.gain = math.Max(0, s.gain-s.ramp)
		}

		v := 0.0
		if s.gain > 0 {
			v = math.Sin(s.phase) * s.gain * s.volume
			s.phase += step
			if s.phase >= 2*math.Pi {
				s.phase -= 2 * math.Pi
			}
		} else {
			s.phase = 0
		}
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (s *Sidetone) Err() error {
	return nil
}

// ConfigureTone implements core.ToneDriver
func (s *Sidetone) ConfigureTone(pin core.TonePin) error {
	return s.StopTone(pin)
}

// StartTone implements core.ToneDriver
func (s *Sidetone) StartTone(pin core.TonePin, hz uint32) error {
	if hz == 0 {
		return s.StopTone(pin)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freq = float64(hz)
	s.on = true
	return nil
}

// StopTone implements core.ToneDriver
func (s *Sidetone) StopTone(pin core.TonePin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.on = false
	return nil
}
