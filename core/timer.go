package core

// TimerFreq is the tick rate of the system clock.
// RP2040/RP2350 expose a 1MHz hardware timer, so one tick is one microsecond.
const TimerFreq = 1000000

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (hardware clock update or tests)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// timeReached reports whether wake is at or before now, across 32-bit wrap
func timeReached(wake, now uint32) bool {
	return int32(now-wake) >= 0
}

// ProcessTimers runs every timer that is due at the current system time
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}
