package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gomorse/core"
	"gomorse/protocol"
)

// Transmission describes a transmission the board has started
type Transmission struct {
	Length   int           // Morse characters
	Duration time.Duration // time the board will key it
}

// Status is the board's reply to get_status
type Status struct {
	WPM     int
	Mode    core.EncodeMode
	Active  bool
	Pending int
}

// errorCodes maps "error" response codes to the board's errors
var errorCodes = map[uint32]error{
	core.ErrCodeSpeed:         core.ErrInvalidSpeed,
	core.ErrCodeBufferFull:    core.ErrBufferFull,
	core.ErrCodeNotConfigured: core.ErrNotConfigured,
	core.ErrCodeBusy:          core.ErrBusy,
}

func boardError(r Response) error {
	code := r.Values.Uint("code")
	if err, ok := errorCodes[code]; ok {
		return err
	}
	return fmt.Errorf("board error code %d", code)
}

// Configure binds the light and optional audio outputs
func (b *Board) Configure(ctx context.Context, outs core.Outputs) error {
	var audioPin, frequency uint32
	if outs.Audio != nil {
		audioPin = uint32(outs.Audio.Pin)
		frequency = outs.Audio.Frequency
		if frequency == 0 {
			frequency = core.DefaultToneFrequency
		}
	}
	return b.SendCommand(ctx, "config_keyer", uint32(outs.Light), audioPin, frequency)
}

// ConfigureCapture starts live decoding of a key on pin
func (b *Board) ConfigureCapture(ctx context.Context, pin core.GPIOPin) error {
	return b.SendCommand(ctx, "config_capture", uint32(pin))
}

// SetSpeed sets the words-per-minute speed; it is checked locally first
func (b *Board) SetSpeed(ctx context.Context, wpm int) error {
	if _, err := core.NewTiming(wpm); err != nil {
		return err
	}
	return b.SendCommand(ctx, "set_speed", wpm)
}

// SetMode selects strict or lenient encoding on the board
func (b *Board) SetMode(ctx context.Context, mode core.EncodeMode) error {
	return b.SendCommand(ctx, "set_mode", mode == core.EncodeLenient)
}

// SendText queues text on the board, has it encoded and starts it.
// A strict-mode rejection comes back as a *core.InputError.
func (b *Board) SendText(ctx context.Context, text string) (Transmission, error) {
	dict := b.Dictionary()
	if dict == nil {
		return Transmission{}, ErrNoDictionary
	}
	if limit, ok := dict.ConfigUint("PENDING_TEXT_MAX"); ok && len(text) > int(limit) {
		return Transmission{}, fmt.Errorf("%w: %d bytes, board holds %d", ErrTextTooLong, len(text), limit)
	}

	if err := b.SendCommand(ctx, "clear_text"); err != nil {
		return Transmission{}, err
	}
	for rest := text; rest != ""; {
		chunk := rest
		if len(chunk) > textChunk {
			chunk = chunk[:textChunk]
		}
		if err := b.SendCommand(ctx, "append_text", chunk); err != nil {
			return Transmission{}, err
		}
		rest = rest[len(chunk):]
	}
	if err := b.SendCommand(ctx, "transmit_text"); err != nil {
		return Transmission{}, err
	}

	resp, err := b.WaitResponse(ctx, "transmit_start", "encode_error", "error")
	if err != nil {
		return Transmission{}, err
	}
	switch resp.Name {
	case "encode_error":
		return Transmission{}, inputError(text, int(resp.Values.Uint("pos")))
	case "error":
		return Transmission{}, boardError(resp)
	}
	return started(resp), nil
}

// SendMorse starts a Morse string exactly as given.
// Morse too long for one frame is decoded and sent as text, which the board
// encodes back to the same symbols. That fails with ErrMorseTooLong when the
// Morse holds codes the board has no character for.
func (b *Board) SendMorse(ctx context.Context, morse string) (Transmission, error) {
	err := b.SendCommand(ctx, "transmit_morse", morse)
	if errors.Is(err, protocol.ErrMessageTooLong) {
		text := strings.TrimSpace(core.MorseToText(morse))
		if text == "" || strings.ContainsRune(text, core.UnknownSymbol) {
			return Transmission{}, fmt.Errorf("%w: %d bytes", ErrMorseTooLong, len(morse))
		}
		b.log.Debug("morse exceeds one frame, sending as text", "morse", len(morse), "text", len(text))
		return b.SendText(ctx, text)
	}
	if err != nil {
		return Transmission{}, err
	}
	resp, err := b.WaitResponse(ctx, "transmit_start", "error")
	if err != nil {
		return Transmission{}, err
	}
	if resp.Name == "error" {
		return Transmission{}, boardError(resp)
	}
	return started(resp), nil
}

func started(r Response) Transmission {
	return Transmission{
		Length:   int(r.Values.Uint("length")),
		Duration: time.Duration(r.Values.Uint("duration")) * time.Millisecond,
	}
}

// inputError rebuilds the encoder error for the character at pos
func inputError(text string, pos int) error {
	if text == "" {
		return &core.InputError{Pos: -1}
	}
	var char rune
	if pos < len(text) {
		char = []rune(text[pos:])[0]
	}
	return &core.InputError{Char: char, Pos: pos}
}

// WaitTransmitEnd blocks until the running transmission finishes
func (b *Board) WaitTransmitEnd(ctx context.Context) (aborted bool, err error) {
	resp, err := b.WaitResponse(ctx, "transmit_end")
	if err != nil {
		return false, err
	}
	return resp.Values.Bool("aborted"), nil
}

// Abort stops the running transmission
func (b *Board) Abort(ctx context.Context) error {
	return b.SendCommand(ctx, "abort_transmit")
}

// Status queries speed, mode and queue state
func (b *Board) Status(ctx context.Context) (Status, error) {
	if err := b.SendCommand(ctx, "get_status"); err != nil {
		return Status{}, err
	}
	resp, err := b.WaitResponse(ctx, "status")
	if err != nil {
		return Status{}, err
	}
	mode := core.EncodeStrict
	if resp.Values.Bool("lenient") {
		mode = core.EncodeLenient
	}
	return Status{
		WPM:     int(resp.Values.Uint("wpm")),
		Mode:    mode,
		Active:  resp.Values.Bool("active"),
		Pending: int(resp.Values.Uint("pending")),
	}, nil
}

// ReadDecoded joins "decoded" chunks until the board marks one final
func (b *Board) ReadDecoded(ctx context.Context) (string, error) {
	var sb strings.Builder
	for {
		resp, err := b.WaitResponse(ctx, "decoded")
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(resp.Values.String("text"))
		if resp.Values.Bool("final") {
			return sb.String(), nil
		}
	}
}
