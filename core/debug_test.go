package core

import (
	"strings"
	"testing"
)

func TestKeyEventRing(t *testing.T) {
	ClearKeyEvents()
	for i := uint32(0); i < KeyRingSize+5; i++ {
		RecordKeyEvent('.', i%2 == 0, i)
	}

	events := KeyEvents()
	if len(events) != KeyRingSize {
		t.Fatalf("got %d events, want %d", len(events), KeyRingSize)
	}
	if events[0].Clock != 5 || events[len(events)-1].Clock != KeyRingSize+4 {
		t.Errorf("ring order: first=%d last=%d", events[0].Clock, events[len(events)-1].Clock)
	}
}

func TestDumpKeyEvents(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	ClearKeyEvents()
	RecordKeyEvent('-', true, 42)
	DumpKeyEvents()

	if len(lines) != 3 || !strings.Contains(lines[1], "'-' on clock=42") {
		t.Errorf("dump = %q", lines)
	}
}

func TestDebugPrintlnDisabled(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")
	SetDebugEnabled(false)

	if len(lines) != 1 || lines[0] != "shown" {
		t.Errorf("lines = %q", lines)
	}
}

func TestItoa(t *testing.T) {
	tests := map[int]string{0: "0", 7: "7", -15: "-15", 1200: "1200"}
	for n, want := range tests {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
	if got := utoa(4294967295); got != "4294967295" {
		t.Errorf("utoa(max) = %q", got)
	}
}
