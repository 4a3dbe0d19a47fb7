package rpi

import (
	"context"
	"time"

	"periph.io/x/conn/v3/gpio"

	"gomorse/core"
)

// sampleInterval bounds how long Listen waits for an edge before sampling
const sampleInterval = time.Millisecond

// KeyInput is the part of gpio.PinIn that Listen uses
type KeyInput interface {
	WaitForEdge(timeout time.Duration) bool
	Read() gpio.Level
}

// Listen decodes a key on in until ctx ends, calling onMessage with each
// completed message. The key pulls the input low when closed.
func Listen(ctx context.Context, in KeyInput, timing core.Timing, onMessage func(morse, text string)) error {
	return listen(ctx, in, timing, time.Now, onMessage)
}

func listen(ctx context.Context, in KeyInput, timing core.Timing, now func() time.Time, onMessage func(morse, text string)) error {
	capture := core.NewCapture(timing)
	start := now()
	for {
		if err := ctx.Err(); err != nil {
			if morse := capture.Flush(); morse != "" {
				onMessage(morse, core.MorseToText(morse))
			}
			return err
		}
		in.WaitForEdge(sampleInterval)

		// Microsecond ticks since start; Capture tolerates the 32-bit wrap
		ticks := uint32(now().Sub(start) / time.Microsecond)
		capture.Sample(in.Read() == gpio.Low, ticks)
		if capture.Idle(ticks) {
			morse := capture.Flush()
			onMessage(morse, core.MorseToText(morse))
		}
	}
}
