//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"gomorse/core"
)

// RP2040/RP2350 timer peripheral
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // raw high word
	timerTIMERAWL = timerBase + 0x0C // raw low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// InitClock seeds the core clock from the 1MHz hardware timer
func InitClock() {
	core.SetTime(GetHardwareTime())
}

// GetHardwareTime returns the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime reads the full 64-bit counter
func GetHardwareUptime() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
		// Low word wrapped between the reads
	}
}

// UpdateSystemTime copies the hardware counter into the core clock
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
