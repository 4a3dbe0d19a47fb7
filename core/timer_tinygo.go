//go:build tinygo

package core

import "sync/atomic"

// Written by the main loop from the hardware timer, read from timer callbacks
var systemTicks atomic.Uint32

func getSystemTicks() uint32 {
	return systemTicks.Load()
}

func setSystemTicks(ticks uint32) {
	systemTicks.Store(ticks)
}
