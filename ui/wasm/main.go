//go:build js && wasm
// +build js,wasm

// Command wasm exposes the Morse core and the board framing to a web page.
package main

import (
	"encoding/hex"
	"errors"
	"strconv"
	"syscall/js"

	"gomorse/core"
	"gomorse/protocol"
)

func main() {
	js.Global().Set("gomorseWasm", js.ValueOf(map[string]interface{}{
		"encode":        js.FuncOf(encodeWrapper),
		"decode":        js.FuncOf(decodeWrapper),
		"timing":        js.FuncOf(timingWrapper),
		"steps":         js.FuncOf(stepsWrapper),
		"crc16":         js.FuncOf(crc16Wrapper),
		"encodeCommand": js.FuncOf(encodeCommandWrapper),
		"decodeMessage": js.FuncOf(decodeMessageWrapper),
		"version":       protocol.Version,
	}))

	// Keep the program running
	select {}
}

// encodeWrapper converts text to Morse
// Args: text (string), lenient (bool, optional)
// Returns: {morse: string} or {error: string, pos: number}
func encodeWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("missing text argument")
	}
	mode := core.EncodeStrict
	if len(args) > 1 && args[1].Truthy() {
		mode = core.EncodeLenient
	}

	morse, err := core.Encode(args[0].String(), mode)
	if err != nil {
		result := map[string]interface{}{"error": err.Error()}
		var ie *core.InputError
		if errors.As(err, &ie) {
			result["pos"] = ie.Pos
		}
		return js.ValueOf(result)
	}
	return js.ValueOf(map[string]interface{}{"morse": morse})
}

// decodeWrapper converts Morse to text
// Args: morse (string)
// Returns: string
func decodeWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("")
	}
	return js.ValueOf(core.MorseToText(args[0].String()))
}

// timingWrapper reports element lengths in milliseconds
// Args: wpm (number), morse (string, optional)
// Returns: {dot, dash, symbolGap, letterGap, wordGap, duration} or {error}
func timingWrapper(this js.Value, args []js.Value) interface{} {
	timing, err := timingArg(args)
	if err != nil {
		return makeError(err.Error())
	}
	result := map[string]interface{}{
		"wpm":       timing.WPM,
		"dot":       timing.Dot.Milliseconds(),
		"dash":      timing.Dash.Milliseconds(),
		"symbolGap": timing.SymbolGap.Milliseconds(),
		"letterGap": timing.LetterGap.Milliseconds(),
		"wordGap":   timing.WordGap.Milliseconds(),
	}
	if len(args) > 1 {
		result["duration"] = timing.Duration(args[1].String()).Milliseconds()
	}
	return js.ValueOf(result)
}

// stepsWrapper lists the key states a page needs to animate a lamp
// Args: wpm (number), morse (string)
// Returns: [{on: bool, ms: number, token: string}] or {error}
func stepsWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("missing arguments")
	}
	timing, err := timingArg(args)
	if err != nil {
		return makeError(err.Error())
	}

	steps := []interface{}{}
	seq := core.NewSequencer(args[1].String(), timing)
	for {
		step, ok := seq.Next()
		if !ok {
			break
		}
		steps = append(steps, map[string]interface{}{
			"on":    step.On,
			"ms":    step.Duration.Milliseconds(),
			"token": string(step.Token),
		})
	}
	return js.ValueOf(steps)
}

func timingArg(args []js.Value) (core.Timing, error) {
	if len(args) < 1 {
		return core.Timing{}, errors.New("missing wpm argument")
	}
	return core.NewTiming(args[0].Int())
}

// crc16Wrapper calculates the frame checksum
// Args: hexString (string)
// Returns: number (uint16)
func crc16Wrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return js.ValueOf(0)
	}
	return js.ValueOf(int(protocol.CRC16(data)))
}

// encodeCommandWrapper frames one command for the board
// Args: cmdID (number), format (string, e.g. "wpm=%u"), values (array)
// Returns: hex string of the frame, or {error}
func encodeCommandWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("missing arguments")
	}
	cmdID := uint16(args[0].Int())
	params, err := protocol.ParseFormat(args[1].String())
	if err != nil {
		return makeError(err.Error())
	}

	var values []any
	if len(args) > 2 {
		for i := 0; i < args[2].Length(); i++ {
			v := args[2].Index(i)
			switch v.Type() {
			case js.TypeString:
				values = append(values, v.String())
			case js.TypeBoolean:
				values = append(values, v.Bool())
			default:
				values = append(values, v.Int())
			}
		}
	}

	encoded := protocol.NewScratchOutput()
	if err := protocol.EncodeArgs(encoded, params, values); err != nil {
		return makeError(err.Error())
	}
	argBytes := encoded.Result()
	if len(argBytes)+3 > protocol.MessagePayloadMax {
		return makeError(protocol.ErrMessageTooLong.Error())
	}

	frame := protocol.NewScratchOutput()
	protocol.NewTransport(frame, nil).SendCommand(cmdID, func(output protocol.OutputBuffer) {
		output.Output(argBytes)
	})
	return js.ValueOf(hex.EncodeToString(frame.Result()))
}

// decodeMessageWrapper decodes one frame received from the board
// Args: hexString (string), formats (object mapping message ID to format, optional)
// Returns: {length, sequence, crc, crcValid, messages: [{cmdID, params}], error}
func decodeMessageWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("missing hex string argument")
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return makeError("invalid hex string: " + err.Error())
	}
	if len(data) < protocol.MessageLengthMin {
		return makeError("message too short")
	}
	msgLen := int(data[protocol.MessagePositionLen])
	if msgLen < protocol.MessageLengthMin || msgLen > len(data) {
		return makeError("bad length byte")
	}
	if data[msgLen-protocol.MessageTrailerSync] != protocol.MessageValueSync {
		return makeError("missing sync byte")
	}

	frameCRC := uint16(data[msgLen-3])<<8 | uint16(data[msgLen-2])
	result := map[string]interface{}{
		"length":   msgLen,
		"sequence": int(data[protocol.MessagePositionSeq]),
		"crc":      int(frameCRC),
		"crcValid": frameCRC == protocol.CRC16(data[:msgLen-protocol.MessageTrailerCRC]),
	}

	var formats js.Value
	if len(args) > 1 {
		formats = args[1]
	}

	messages := []interface{}{}
	payload := data[protocol.MessageHeaderSize : msgLen-protocol.MessageTrailerCRC]
	for len(payload) > 0 {
		cmdID, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			result["error"] = "failed to decode message ID: " + err.Error()
			break
		}
		msg := map[string]interface{}{"cmdID": int(cmdID)}
		messages = append(messages, msg)

		// Without a format the rest of the payload can't be split
		if formats.Type() != js.TypeObject {
			msg["raw"] = hex.EncodeToString(payload)
			break
		}
		format := formats.Get(strconv.Itoa(int(cmdID)))
		if format.Type() != js.TypeString {
			msg["raw"] = hex.EncodeToString(payload)
			break
		}
		params, err := protocol.ParseFormat(format.String())
		if err != nil {
			result["error"] = err.Error()
			break
		}
		values, err := protocol.DecodeArgs(&payload, params)
		if err != nil {
			result["error"] = err.Error()
			break
		}
		jsValues := make(map[string]interface{}, len(values))
		for name, v := range values {
			if b, ok := v.([]byte); ok {
				jsValues[name] = string(b)
				continue
			}
			jsValues[name] = v
		}
		msg["params"] = jsValues
	}
	result["messages"] = messages
	return js.ValueOf(result)
}

func makeError(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}
