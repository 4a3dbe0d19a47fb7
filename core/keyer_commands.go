// Keyer command set
// Lets a host configure the outputs, queue text and receive captured messages
package core

import (
	"errors"

	"gomorse/protocol"
)

const (
	// PendingTextMax bounds the text queued by append_text
	PendingTextMax = 256

	// DictionaryChunk is the largest identify_response payload
	DictionaryChunk = 40

	// DecodedChunk is the largest decoded text payload
	DecodedChunk = 40

	// DefaultWPM is the speed used until set_speed is received
	DefaultWPM = 20

	// captureSampleUS is the input sampling period
	captureSampleUS = 1000
)

// Error codes carried by the "error" response
const (
	ErrCodeSpeed         = 1
	ErrCodeBufferFull    = 2
	ErrCodeNotConfigured = 3
	ErrCodeBusy          = 4
)

var (
	// ErrBufferFull is returned when append_text would exceed PendingTextMax
	ErrBufferFull = errors.New("pending text buffer full")
	// ErrNotConfigured is returned before config_keyer has been received
	ErrNotConfigured = errors.New("keyer not configured")
)

// keyerState holds the board-side transmission and capture state
type keyerState struct {
	configured bool
	outs       Outputs
	timing     Timing
	mode       EncodeMode
	pending    []byte
	beacon     *Beacon

	captureOn  bool
	capturePin GPIOPin
	capture    *Capture
	lastSample uint32
}

var keyer = newKeyerState()

func newKeyerState() *keyerState {
	return &keyerState{
		timing:  MustTiming(DefaultWPM),
		pending: make([]byte, 0, PendingTextMax),
	}
}

// InitKeyerCommands registers the keyer commands and responses.
// identify_response and identify must stay at IDs 0 and 1: the host
// needs them before it has the dictionary.
func InitKeyerCommands() {
	RegisterResponse("identify_response", "offset=%u data=%*s")
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)

	RegisterCommand("get_status", "", handleGetStatus)
	RegisterCommand("config_keyer", "light_pin=%u audio_pin=%u frequency=%u", handleConfigKeyer)
	RegisterCommand("config_capture", "pin=%u", handleConfigCapture)
	RegisterCommand("set_speed", "wpm=%u", handleSetSpeed)
	RegisterCommand("set_mode", "lenient=%c", handleSetMode)
	RegisterCommand("append_text", "text=%*s", handleAppendText)
	RegisterCommand("clear_text", "", handleClearText)
	RegisterCommand("transmit_text", "", handleTransmitText)
	RegisterCommand("transmit_morse", "morse=%*s", handleTransmitMorse)
	RegisterCommand("abort_transmit", "", handleAbortTransmit)

	RegisterResponse("status", "wpm=%u lenient=%c active=%c pending=%u")
	RegisterResponse("transmit_start", "length=%u duration=%u")
	RegisterResponse("transmit_end", "aborted=%c")
	RegisterResponse("encode_error", "pos=%u")
	RegisterResponse("decoded", "text=%*s final=%c")
	RegisterResponse("error", "code=%c")

	RegisterConstant("CLOCK_FREQ", TimerFreq)
	RegisterConstant("MIN_WPM", MinWPM)
	RegisterConstant("MAX_WPM", MaxWPM)
	RegisterConstant("DEFAULT_WPM", DefaultWPM)
	RegisterConstant("PENDING_TEXT_MAX", PendingTextMax)
	RegisterConstant("SYMBOL_COUNT", SymbolCount)
}

// ResetKeyerState aborts any transmission and drops queued text.
// Output and capture configuration survive a host reset.
func ResetKeyerState() {
	if keyer.beacon != nil {
		keyer.beacon.Abort()
	}
	keyer.pending = keyer.pending[:0]
	if keyer.capture != nil {
		keyer.capture.Flush()
	}
}

// KeyerTask samples the capture input and reports completed messages.
// Call it from the main loop after ProcessTimers.
func KeyerTask() {
	k := keyer
	if !k.captureOn {
		return
	}
	now := GetTime()
	if now-k.lastSample < TimerFromUS(captureSampleUS) {
		return
	}
	k.lastSample = now

	level, err := MustGPIO().GetPin(k.capturePin)
	if err != nil {
		return
	}
	// Input has a pull-up: a closed key reads low
	k.capture.Sample(!level, now)

	if k.capture.Idle(now) {
		sendDecoded(MorseToText(k.capture.Flush()))
	}
}

func sendDecoded(text string) {
	for {
		chunk := text
		final := true
		if len(chunk) > DecodedChunk {
			chunk = chunk[:DecodedChunk]
			final = false
		}
		_ = SendResponse("decoded", func(output protocol.OutputBuffer) {
			protocol.EncodeVLQString(output, chunk)
			protocol.EncodeVLQBool(output, final)
		})
		if final {
			return
		}
		text = text[DecodedChunk:]
	}
}

func sendError(code uint32) {
	_ = SendResponse("error", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, code)
	})
}

// handleIdentify returns a chunk of the dictionary
// Format: identify offset=%u count=%c
func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if count > DictionaryChunk {
		count = DictionaryChunk
	}

	chunk := globalDictionary.GetChunk(offset, count)

	return SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
}

// handleGetStatus reports speed, mode and queue state
func handleGetStatus(data *[]byte) error {
	k := keyer
	active := k.beacon != nil && k.beacon.Active()
	return SendResponse("status", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(k.timing.WPM))
		protocol.EncodeVLQBool(output, k.mode == EncodeLenient)
		protocol.EncodeVLQBool(output, active)
		protocol.EncodeVLQUint(output, uint32(len(k.pending)))
	})
}

// handleConfigKeyer binds the light and audio outputs
// Format: config_keyer light_pin=%u audio_pin=%u frequency=%u
// A frequency of 0 disables audio.
func handleConfigKeyer(data *[]byte) error {
	lightPin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	audioPin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	frequency, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	k := keyer
	if k.beacon != nil && k.beacon.Active() {
		sendError(ErrCodeBusy)
		return ErrBusy
	}

	outs := Outputs{Light: GPIOPin(lightPin)}
	if frequency != 0 {
		outs.Audio = &ToneOutput{Pin: TonePin(audioPin), Frequency: frequency}
	}
	kr, err := NewKeyer(GPIO(), Tone(), outs)
	if err != nil {
		sendError(ErrCodeNotConfigured)
		return err
	}
	if err := kr.Configure(); err != nil {
		return err
	}

	k.outs = outs
	k.beacon = NewBeacon(kr)
	k.beacon.OnDone = func(aborted bool) {
		_ = SendResponse("transmit_end", func(output protocol.OutputBuffer) {
			protocol.EncodeVLQBool(output, aborted)
		})
	}
	k.configured = true
	return nil
}

// handleConfigCapture enables live decoding on an input pin
// Format: config_capture pin=%u
func handleConfigCapture(data *[]byte) error {
	pin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if err := MustGPIO().ConfigureInput(GPIOPin(pin), PullUp); err != nil {
		return err
	}

	k := keyer
	k.capturePin = GPIOPin(pin)
	k.capture = NewCapture(k.timing)
	k.lastSample = GetTime()
	k.captureOn = true
	return nil
}

// handleSetSpeed changes the words-per-minute speed for later transmissions
// Format: set_speed wpm=%u
func handleSetSpeed(data *[]byte) error {
	wpm, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	timing, err := NewTiming(int(wpm))
	if err != nil {
		sendError(ErrCodeSpeed)
		return err
	}
	keyer.timing = timing
	if keyer.capture != nil {
		keyer.capture.SetTiming(timing)
	}
	return nil
}

// handleSetMode selects strict or lenient encoding
// Format: set_mode lenient=%c
func handleSetMode(data *[]byte) error {
	lenient, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if lenient != 0 {
		keyer.mode = EncodeLenient
	} else {
		keyer.mode = EncodeStrict
	}
	return nil
}

// handleAppendText queues text for the next transmit_text
// Format: append_text text=%*s
func handleAppendText(data *[]byte) error {
	text, err := protocol.DecodeVLQBytes(data)
	if err != nil {
		return err
	}
	k := keyer
	if len(k.pending)+len(text) > PendingTextMax {
		sendError(ErrCodeBufferFull)
		return ErrBufferFull
	}
	k.pending = append(k.pending, text...)
	return nil
}

// handleClearText drops queued text
func handleClearText(data *[]byte) error {
	keyer.pending = keyer.pending[:0]
	return nil
}

// handleTransmitText encodes the queued text and starts transmitting it.
// Text that cannot be encoded is dropped; a busy or unconfigured keyer keeps it.
func handleTransmitText(data *[]byte) error {
	k := keyer
	text := string(k.pending)

	morse, err := Encode(text, k.mode)
	if err != nil {
		k.pending = k.pending[:0]
		pos := uint32(0)
		var inErr *InputError
		if errors.As(err, &inErr) && inErr.Pos >= 0 {
			pos = uint32(inErr.Pos)
		}
		_ = SendResponse("encode_error", func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, pos)
		})
		return err
	}
	if err := startTransmit(morse); err != nil {
		return err
	}
	k.pending = k.pending[:0]
	return nil
}

// handleTransmitMorse transmits a Morse string as given
// Format: transmit_morse morse=%*s
func handleTransmitMorse(data *[]byte) error {
	morse, err := protocol.DecodeVLQString(data)
	if err != nil {
		return err
	}
	return startTransmit(morse)
}

// handleAbortTransmit stops the running transmission
func handleAbortTransmit(data *[]byte) error {
	if keyer.beacon != nil {
		keyer.beacon.Abort()
	}
	return nil
}

func startTransmit(morse string) error {
	k := keyer
	if !k.configured {
		sendError(ErrCodeNotConfigured)
		return ErrNotConfigured
	}
	if err := k.beacon.Start(morse, k.timing, GetTime()); err != nil {
		sendError(ErrCodeBusy)
		return err
	}
	duration := k.timing.Duration(morse)
	return SendResponse("transmit_start", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(len(morse)))
		protocol.EncodeVLQUint(output, uint32(duration.Milliseconds()))
	})
}
