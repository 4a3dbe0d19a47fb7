package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// KeyEvent captures one key transition for post-mortem analysis
type KeyEvent struct {
	Token byte   // Morse token being keyed, 0 for an empty slot
	On    bool   // Output state entered
	Clock uint32 // System clock at the transition
}

const (
	KeyRingSize = 32 // Keep the last 32 transitions
)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled bool

	keyRing     [KeyRingSize]KeyEvent
	keyRingHead uint8

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, slog, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go func() {
		for msg := range debugChan {
			if debugPrintln != nil {
				debugPrintln(msg)
			}
		}
	}()
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message, dropping it if the queue is full
func DebugAsync(msg string) {
	if debugChan == nil || !debugEnabled {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordKeyEvent stores a key transition in the ring buffer
func RecordKeyEvent(token byte, on bool, clock uint32) {
	keyRing[keyRingHead] = KeyEvent{Token: token, On: on, Clock: clock}
	keyRingHead = (keyRingHead + 1) % KeyRingSize
}

// KeyEvents returns the recorded transitions, oldest first
func KeyEvents() []KeyEvent {
	events := make([]KeyEvent, 0, KeyRingSize)
	for i := uint8(0); i < KeyRingSize; i++ {
		evt := keyRing[(keyRingHead+i)%KeyRingSize]
		if evt.Token != 0 {
			events = append(events, evt)
		}
	}
	return events
}

// DumpKeyEvents writes the ring buffer through the debug writer
func DumpKeyEvents() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[KEY] === Key Ring Dump ===")
	for _, evt := range KeyEvents() {
		state := "off"
		if evt.On {
			state = "on"
		}
		debugPrintln("[KEY] '" + string(evt.Token) + "' " + state + " clock=" + utoa(evt.Clock))
	}
	debugPrintln("[KEY] === End Dump ===")
}

// ClearKeyEvents empties the ring buffer
func ClearKeyEvents() {
	for i := range keyRing {
		keyRing[i] = KeyEvent{}
	}
	keyRingHead = 0
}
