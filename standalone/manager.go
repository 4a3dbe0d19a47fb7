// Package standalone runs the board as a self-contained beacon when no host
// speaks the binary protocol. Text lines typed on the USB console replace
// the message; "$" lines change settings.
package standalone

import (
	"errors"
	"strconv"
	"time"

	"gomorse/core"
)

// Manager owns the keyer, the beacon and the repeat timer
type Manager struct {
	config Config
	timing core.Timing

	keyer  *core.Keyer
	beacon *core.Beacon
	repeat core.Timer
	morse  string

	// Serial interface
	inputBuffer  []byte
	outputBuffer []byte

	initialized bool
	running     bool
}

// NewManager validates cfg and creates an uninitialized manager
func NewManager(cfg Config) (*Manager, error) {
	timing, err := core.NewTiming(cfg.WPM)
	if err != nil {
		return nil, err
	}
	return &Manager{
		config:       cfg,
		timing:       timing,
		inputBuffer:  make([]byte, 0, 256),
		outputBuffer: make([]byte, 0, 256),
	}, nil
}

// Initialize binds the outputs to drivers; tone may be nil without audio
func (m *Manager) Initialize(gpio core.GPIODriver, tone core.ToneDriver) error {
	if m.initialized {
		return errors.New("already initialized")
	}
	keyer, err := core.NewKeyer(gpio, tone, m.config.Outputs)
	if err != nil {
		return err
	}
	if err := keyer.Configure(); err != nil {
		return err
	}
	m.keyer = keyer
	m.beacon = core.NewBeacon(keyer)
	m.beacon.OnDone = m.transmitDone
	m.repeat.Handler = m.repeatEvent
	m.initialized = true
	return nil
}

// Start announces the console and sends the configured message
func (m *Manager) Start() error {
	if !m.initialized {
		return errors.New("manager not initialized")
	}
	m.running = true
	m.SendResponse("gomorse standalone ready\n")
	if m.config.Message == "" {
		return nil
	}
	return m.SetMessage(m.config.Message)
}

// Stop aborts the transmission and cancels repeats
func (m *Manager) Stop() {
	m.running = false
	m.halt()
}

// IsRunning returns whether the manager is running
func (m *Manager) IsRunning() bool {
	return m.running
}

// Message returns the Morse string being repeated
func (m *Manager) Message() string {
	return m.morse
}

// SetMessage encodes text and restarts transmission with it
func (m *Manager) SetMessage(text string) error {
	morse, err := core.Encode(text, m.config.Mode)
	if err != nil {
		return err
	}
	if morse == "" {
		return errors.New("nothing to send")
	}
	m.config.Message = text
	m.morse = morse
	m.halt()
	return m.transmit()
}

func (m *Manager) halt() {
	core.CancelTimer(&m.repeat)
	if m.beacon != nil {
		m.beacon.Abort()
	}
}

func (m *Manager) transmit() error {
	if err := m.beacon.Start(m.morse, m.timing, core.GetTime()); err != nil {
		return err
	}
	m.SendResponse("tx " + m.morse + "\n")
	return nil
}

// transmitDone arms the repeat timer after a complete transmission
func (m *Manager) transmitDone(aborted bool) {
	if aborted || !m.running || m.config.Repeat <= 0 {
		return
	}
	m.repeat.WakeTime = core.GetTime() + core.TicksFromDuration(m.config.Repeat)
	core.ScheduleTimer(&m.repeat)
}

func (m *Manager) repeatEvent(t *core.Timer) uint8 {
	if m.running && !m.beacon.Active() {
		_ = m.transmit()
	}
	return core.SF_DONE
}

// ProcessLine applies one console line
func (m *Manager) ProcessLine(line string) error {
	if !m.initialized {
		return errors.New("manager not initialized")
	}

	l := ParseLine(line)
	switch l.Kind {
	case LineText:
		return m.SetMessage(l.Text)
	case LineSetting:
		return m.applySetting(l.Key, l.Value)
	}
	return nil
}

func (m *Manager) applySetting(key, value string) error {
	switch key {
	case "WPM":
		wpm, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		timing, err := core.NewTiming(wpm)
		if err != nil {
			return err
		}
		m.config.WPM = wpm
		m.timing = timing
	case "MODE":
		mode, err := core.ParseEncodeMode(value)
		if err != nil {
			return err
		}
		m.config.Mode = mode
	case "REPEAT":
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds < 0 {
			return errors.New("bad repeat interval: " + value)
		}
		m.config.Repeat = time.Duration(seconds) * time.Second
		if seconds == 0 {
			core.CancelTimer(&m.repeat)
		}
	case "STOP":
		m.halt()
	case "SEND":
		if m.morse == "" {
			return errors.New("no message")
		}
		m.halt()
		return m.transmit()
	case "?":
		m.SendResponse(m.status())
	default:
		return errors.New("unknown setting: $" + key)
	}
	return nil
}

func (m *Manager) status() string {
	active := "0"
	if m.beacon.Active() {
		active = "1"
	}
	return "wpm=" + strconv.Itoa(m.config.WPM) +
		" mode=" + m.config.Mode.String() +
		" repeat=" + strconv.Itoa(int(m.config.Repeat/time.Second)) +
		" active=" + active +
		" message=" + m.config.Message + "\n"
}

// ProcessByte processes a single byte of input (for serial streaming)
func (m *Manager) ProcessByte(b byte) error {
	if b != '\n' && b != '\r' {
		if len(m.inputBuffer) < cap(m.inputBuffer) {
			m.inputBuffer = append(m.inputBuffer, b)
		}
		return nil
	}

	line := string(m.inputBuffer)
	m.inputBuffer = m.inputBuffer[:0]
	if ParseLine(line).Kind == LineEmpty {
		return nil
	}
	if err := m.ProcessLine(line); err != nil {
		return err
	}
	m.SendResponse("ok\n")
	return nil
}

// SendResponse queues console output
func (m *Manager) SendResponse(response string) {
	m.outputBuffer = append(m.outputBuffer, response...)
}

// GetOutput returns any pending output and clears the buffer
func (m *Manager) GetOutput() []byte {
	if len(m.outputBuffer) == 0 {
		return nil
	}
	output := make([]byte, len(m.outputBuffer))
	copy(output, m.outputBuffer)
	m.outputBuffer = m.outputBuffer[:0]
	return output
}
