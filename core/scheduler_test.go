package core

import "testing"

func TestTimerDispatchOrder(t *testing.T) {
	resetTimers()
	SetTime(0)
	ProcessTimers()

	var fired []int
	mk := func(id int, wake uint32) *Timer {
		return &Timer{WakeTime: wake, Handler: func(*Timer) uint8 {
			fired = append(fired, id)
			return SF_DONE
		}}
	}
	ScheduleTimer(mk(3, 300))
	ScheduleTimer(mk(1, 100))
	ScheduleTimer(mk(2, 200))

	SetTime(150)
	ProcessTimers()
	if len(fired) != 1 || fired[0] != 1 {
		t.Fatalf("at 150 fired %v", fired)
	}

	SetTime(1000)
	ProcessTimers()
	if len(fired) != 3 || fired[1] != 2 || fired[2] != 3 {
		t.Errorf("fired %v, want [1 2 3]", fired)
	}
}

func TestTimerReschedule(t *testing.T) {
	resetTimers()
	SetTime(0)
	ProcessTimers()

	count := 0
	timer := &Timer{WakeTime: 10, Handler: func(tm *Timer) uint8 {
		count++
		tm.WakeTime += 10
		if count == 3 {
			return SF_DONE
		}
		return SF_RESCHEDULE
	}}
	ScheduleTimer(timer)

	for now := uint32(0); now <= 100; now += 5 {
		SetTime(now)
		ProcessTimers()
	}
	if count != 3 {
		t.Errorf("handler ran %d times, want 3", count)
	}
	if timerList != nil {
		t.Error("timer list not empty")
	}
}

func TestCancelTimer(t *testing.T) {
	resetTimers()
	SetTime(0)
	ProcessTimers()

	var fired []int
	timers := make([]*Timer, 3)
	for i := range timers {
		id := i
		timers[i] = &Timer{WakeTime: uint32(10 * (i + 1)), Handler: func(*Timer) uint8 {
			fired = append(fired, id)
			return SF_DONE
		}}
		ScheduleTimer(timers[i])
	}

	CancelTimer(timers[1])
	CancelTimer(timers[0])
	// Cancelling an unscheduled timer is harmless
	CancelTimer(&Timer{})

	SetTime(100)
	ProcessTimers()
	if len(fired) != 1 || fired[0] != 2 {
		t.Errorf("fired %v, want [2]", fired)
	}
}

func TestTimerClockWrap(t *testing.T) {
	resetTimers()
	SetTime(0xFFFFFF00)
	ProcessTimers()

	var fired []string
	after := &Timer{WakeTime: 0x00000010, Handler: func(*Timer) uint8 {
		fired = append(fired, "after")
		return SF_DONE
	}}
	before := &Timer{WakeTime: 0xFFFFFF80, Handler: func(*Timer) uint8 {
		fired = append(fired, "before")
		return SF_DONE
	}}
	ScheduleTimer(after)
	ScheduleTimer(before)

	SetTime(0xFFFFFFF0)
	ProcessTimers()
	if len(fired) != 1 || fired[0] != "before" {
		t.Fatalf("before wrap fired %v", fired)
	}

	SetTime(0x20)
	ProcessTimers()
	if len(fired) != 2 || fired[1] != "after" {
		t.Errorf("after wrap fired %v", fired)
	}
}

func TestTimeReached(t *testing.T) {
	tests := []struct {
		wake, now uint32
		want      bool
	}{
		{100, 100, true},
		{100, 99, false},
		{0xFFFFFFF0, 0x10, true},
		{0x10, 0xFFFFFFF0, false},
	}
	for _, tt := range tests {
		if got := timeReached(tt.wake, tt.now); got != tt.want {
			t.Errorf("timeReached(%#x, %#x) = %v", tt.wake, tt.now, got)
		}
	}
}
