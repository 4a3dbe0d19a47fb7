//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"gomorse/core"
	"gomorse/standalone"
)

// RunStandaloneMode runs the beacon console; it never returns
func RunStandaloneMode(mode ModeConfig, gpio core.GPIODriver, tone core.ToneDriver) {
	manager, err := standalone.NewManager(standalone.DefaultConfig(mode.outputs()))
	if err == nil {
		err = manager.Initialize(gpio, tone)
	}
	if err == nil {
		err = manager.Start()
	}
	if err != nil {
		core.DebugPrintln("[STANDALONE] " + err.Error())
		blinkForever(mode.LightPin)
	}

	for {
		for USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				break
			}
			if err := manager.ProcessByte(data); err != nil {
				manager.SendResponse("error: " + err.Error() + "\n")
			}
		}

		if output := manager.GetOutput(); len(output) > 0 {
			_, _ = USBWriteBytes(output)
		}

		UpdateSystemTime()
		core.ProcessTimers()

		time.Sleep(10 * time.Microsecond)
	}
}

// blinkForever flashes pin rapidly to report a fatal setup error
func blinkForever(pin machine.Pin) {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		pin.High()
		time.Sleep(100 * time.Millisecond)
		pin.Low()
		time.Sleep(100 * time.Millisecond)
	}
}
