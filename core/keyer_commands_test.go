package core

import (
	"errors"
	"strings"
	"testing"

	"gomorse/protocol"
)

type sentResponse struct {
	name   string
	values protocol.Values
}

// fakeSender decodes every response with its registered format
type fakeSender struct {
	t   *testing.T
	got []sentResponse
}

func (f *fakeSender) SendCommand(cmdID uint16, args func(output protocol.OutputBuffer)) {
	cmd, ok := GetGlobalRegistry().GetCommand(cmdID)
	if !ok {
		f.t.Fatalf("response with unknown ID %d", cmdID)
	}
	params, err := protocol.ParseFormat(cmd.Format)
	if err != nil {
		f.t.Fatalf("bad format for %s: %v", cmd.Name, err)
	}
	out := protocol.NewScratchOutput()
	if args != nil {
		args(out)
	}
	data := out.Result()
	values, err := protocol.DecodeArgs(&data, params)
	if err != nil {
		f.t.Fatalf("decode %s: %v", cmd.Name, err)
	}
	f.got = append(f.got, sentResponse{name: cmd.Name, values: values})
}

func (f *fakeSender) take() []sentResponse {
	got := f.got
	f.got = nil
	return got
}

func (f *fakeSender) last(name string) (protocol.Values, bool) {
	for i := len(f.got) - 1; i >= 0; i-- {
		if f.got[i].name == name {
			return f.got[i].values, true
		}
	}
	return nil, false
}

func setupKeyer(t *testing.T) (*mockGPIO, *mockTone, *fakeSender) {
	t.Helper()
	InitKeyerCommands()
	resetTimers()
	ClearKeyEvents()
	keyer = newKeyerState()
	SetTime(1000)
	ProcessTimers()

	gpio := newMockGPIO()
	tone := newMockTone()
	SetGPIODriver(gpio)
	SetToneDriver(tone)
	sender := &fakeSender{t: t}
	SetResponseSender(sender)

	t.Cleanup(func() {
		resetTimers()
		SetResponseSender(nil)
		SetGPIODriver(nil)
		SetToneDriver(nil)
	})
	return gpio, tone, sender
}

// sendCommand encodes args with the registered format and dispatches them
func sendCommand(t *testing.T, name string, args ...any) error {
	t.Helper()
	reg := GetGlobalRegistry()
	id, ok := reg.Lookup(name)
	if !ok {
		t.Fatalf("command %s not registered", name)
	}
	cmd, _ := reg.GetCommand(id)
	params, err := protocol.ParseFormat(cmd.Format)
	if err != nil {
		t.Fatal(err)
	}
	out := protocol.NewScratchOutput()
	if err := protocol.EncodeArgs(out, params, args); err != nil {
		t.Fatal(err)
	}
	data := out.Result()
	return DispatchCommand(id, &data)
}

func runUntilIdle(limit int) {
	for i := 0; i < limit && keyer.beacon != nil && keyer.beacon.Active(); i++ {
		SetTime(GetTime() + 1000)
		ProcessTimers()
		KeyerTask()
	}
}

func TestIdentifyIDs(t *testing.T) {
	setupKeyer(t)
	reg := GetGlobalRegistry()
	if id, _ := reg.Lookup("identify_response"); id != 0 {
		t.Errorf("identify_response ID = %d", id)
	}
	if id, _ := reg.Lookup("identify"); id != 1 {
		t.Errorf("identify ID = %d", id)
	}
}

func TestIdentifyDictionary(t *testing.T) {
	_, _, sender := setupKeyer(t)

	var data []byte
	for offset := uint32(0); ; {
		if err := sendCommand(t, "identify", offset, DictionaryChunk); err != nil {
			t.Fatal(err)
		}
		resp, ok := sender.last("identify_response")
		if !ok || resp.Uint("offset") != offset {
			t.Fatalf("identify_response = %v", resp)
		}
		chunk := resp.String("data")
		data = append(data, chunk...)
		offset += uint32(len(chunk))
		if len(chunk) < DictionaryChunk {
			break
		}
	}

	dict := parseDictionary(t, data)
	if dict.Commands["transmit_text"] == 0 || dict.Commands["set_speed wpm=%u"] == 0 {
		t.Errorf("commands = %v", dict.Commands)
	}
	if _, ok := dict.Responses["decoded text=%*s final=%c"]; !ok {
		t.Errorf("responses = %v", dict.Responses)
	}
	if dict.Config["MAX_WPM"] != "100" || dict.Config["CLOCK_FREQ"] != "1000000" {
		t.Errorf("config = %v", dict.Config)
	}
}

func TestTransmitText(t *testing.T) {
	gpio, tone, sender := setupKeyer(t)

	if err := sendCommand(t, "config_keyer", 25, 15, 600); err != nil {
		t.Fatal(err)
	}
	if err := sendCommand(t, "append_text", "SO"); err != nil {
		t.Fatal(err)
	}
	if err := sendCommand(t, "append_text", "S"); err != nil {
		t.Fatal(err)
	}
	if err := sendCommand(t, "transmit_text"); err != nil {
		t.Fatal(err)
	}

	start, ok := sender.last("transmit_start")
	if !ok || start.Uint("length") != 11 || start.Uint("duration") != 1800 {
		t.Fatalf("transmit_start = %v", start)
	}

	ProcessTimers()
	if tone.playing[15] != 600 || !gpio.levels[25] {
		t.Errorf("outputs not keyed: tone=%v light=%v", tone.playing, gpio.levels[25])
	}

	_ = sendCommand(t, "get_status")
	status, _ := sender.last("status")
	if !status.Bool("active") || status.Uint("pending") != 0 || status.Uint("wpm") != DefaultWPM {
		t.Errorf("status = %v", status)
	}

	runUntilIdle(5000)
	end, ok := sender.last("transmit_end")
	if !ok || end.Bool("aborted") {
		t.Errorf("transmit_end = %v", end)
	}
	if got := len(onDurations(gpio.events)); got != 9 {
		t.Errorf("keyed %d elements, want 9", got)
	}
}

func TestTransmitMorseAndAbort(t *testing.T) {
	gpio, _, sender := setupKeyer(t)

	if err := sendCommand(t, "config_keyer", 25, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := sendCommand(t, "transmit_morse", "-- --"); err != nil {
		t.Fatal(err)
	}
	ProcessTimers()

	if err := sendCommand(t, "transmit_morse", "."); err == nil {
		t.Error("second transmission should be rejected")
	}
	if errResp, ok := sender.last("error"); !ok || errResp.Uint("code") != ErrCodeBusy {
		t.Errorf("error = %v", errResp)
	}

	if err := sendCommand(t, "abort_transmit"); err != nil {
		t.Fatal(err)
	}
	end, ok := sender.last("transmit_end")
	if !ok || !end.Bool("aborted") {
		t.Errorf("transmit_end = %v", end)
	}
	if gpio.levels[25] {
		t.Error("light left on after abort")
	}
}

func TestTransmitEncodeError(t *testing.T) {
	_, _, sender := setupKeyer(t)
	_ = sendCommand(t, "config_keyer", 25, 0, 0)

	_ = sendCommand(t, "append_text", "SOS!")
	err := sendCommand(t, "transmit_text")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("transmit_text error = %v", err)
	}
	encErr, ok := sender.last("encode_error")
	if !ok || encErr.Uint("pos") != 3 {
		t.Errorf("encode_error = %v", encErr)
	}

	// The same text goes out in lenient mode
	_ = sendCommand(t, "set_mode", true)
	_ = sendCommand(t, "append_text", "SOS!")
	if err := sendCommand(t, "transmit_text"); err != nil {
		t.Fatalf("lenient transmit: %v", err)
	}
	if start, _ := sender.last("transmit_start"); start.Uint("length") != 11 {
		t.Errorf("transmit_start = %v", start)
	}
}

func TestKeyerCommandErrors(t *testing.T) {
	_, _, sender := setupKeyer(t)

	tests := []struct {
		name string
		send func(t *testing.T) error
		want error
		code uint32
	}{
		{"not configured", func(t *testing.T) error { return sendCommand(t, "transmit_morse", ".") }, ErrNotConfigured, ErrCodeNotConfigured},
		{"bad speed", func(t *testing.T) error { return sendCommand(t, "set_speed", 0) }, ErrInvalidSpeed, ErrCodeSpeed},
		{"buffer full", func(t *testing.T) error {
			return sendCommand(t, "append_text", strings.Repeat("E", PendingTextMax+1))
		}, ErrBufferFull, ErrCodeBufferFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender.take()
			if err := tt.send(t); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			resp, ok := sender.last("error")
			if !ok || resp.Uint("code") != tt.code {
				t.Errorf("error response = %v, want code %d", resp, tt.code)
			}
		})
	}
}

func TestTransmitTextKeepsPendingWhenRejected(t *testing.T) {
	_, _, sender := setupKeyer(t)

	_ = sendCommand(t, "append_text", "CQ")
	if err := sendCommand(t, "transmit_text"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("transmit_text before config_keyer = %v", err)
	}
	_ = sendCommand(t, "get_status")
	if status, _ := sender.last("status"); status.Uint("pending") != 2 {
		t.Fatalf("pending after rejection = %d, want 2", status.Uint("pending"))
	}

	_ = sendCommand(t, "config_keyer", 25, 0, 0)
	_ = sendCommand(t, "transmit_morse", "-----")
	if err := sendCommand(t, "transmit_text"); !errors.Is(err, ErrBusy) {
		t.Fatalf("transmit_text while busy = %v", err)
	}
	_ = sendCommand(t, "get_status")
	if status, _ := sender.last("status"); status.Uint("pending") != 2 {
		t.Fatalf("pending after busy = %d, want 2", status.Uint("pending"))
	}

	runUntilIdle(5000)
	if err := sendCommand(t, "transmit_text"); err != nil {
		t.Fatal(err)
	}
	if start, _ := sender.last("transmit_start"); start.Uint("length") != 9 {
		t.Errorf("transmit_start = %v, want CQ", start)
	}
	_ = sendCommand(t, "get_status")
	if status, _ := sender.last("status"); status.Uint("pending") != 0 {
		t.Errorf("pending after transmit = %d", status.Uint("pending"))
	}
}

func TestConfigKeyerWithoutToneDriver(t *testing.T) {
	_, _, sender := setupKeyer(t)
	SetToneDriver(nil)

	err := sendCommand(t, "config_keyer", 25, 15, 600)
	if !errors.Is(err, ErrNoToneDriver) {
		t.Fatalf("config_keyer = %v, want ErrNoToneDriver", err)
	}
	if resp, ok := sender.last("error"); !ok || resp.Uint("code") != ErrCodeNotConfigured {
		t.Errorf("error response = %v", resp)
	}

	// Light only still works
	if err := sendCommand(t, "config_keyer", 25, 15, 0); err != nil {
		t.Fatal(err)
	}
}

func TestSetSpeedAndClearText(t *testing.T) {
	_, _, sender := setupKeyer(t)

	_ = sendCommand(t, "set_speed", 25)
	_ = sendCommand(t, "append_text", "CQ")
	_ = sendCommand(t, "get_status")
	status, _ := sender.last("status")
	if status.Uint("wpm") != 25 || status.Uint("pending") != 2 || status.Bool("active") {
		t.Errorf("status = %v", status)
	}

	_ = sendCommand(t, "clear_text")
	_ = sendCommand(t, "get_status")
	status, _ = sender.last("status")
	if status.Uint("pending") != 0 {
		t.Errorf("pending after clear_text = %d", status.Uint("pending"))
	}
}

func TestCaptureDecodedResponse(t *testing.T) {
	gpio, _, sender := setupKeyer(t)

	if err := sendCommand(t, "config_capture", 5); err != nil {
		t.Fatal(err)
	}
	if gpio.inputs[5] != PullUp {
		t.Fatalf("capture pin pull = %v", gpio.inputs[5])
	}

	hold := func(down bool, ms int) {
		for i := 0; i < ms; i++ {
			gpio.levels[5] = !down
			SetTime(GetTime() + 1000)
			KeyerTask()
		}
	}
	// "EE": two dots a letter gap apart
	hold(true, 60)
	hold(false, 240)
	hold(true, 60)
	hold(false, 800)

	var decoded []protocol.Values
	for _, r := range sender.take() {
		if r.name == "decoded" {
			decoded = append(decoded, r.values)
		}
	}
	if len(decoded) != 1 || decoded[0].String("text") != "EE" || !decoded[0].Bool("final") {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestSendDecodedChunks(t *testing.T) {
	_, _, sender := setupKeyer(t)

	text := strings.Repeat("A", DecodedChunk+5)
	sendDecoded(text)

	got := sender.take()
	if len(got) != 2 {
		t.Fatalf("got %d responses", len(got))
	}
	if got[0].values.Bool("final") || !got[1].values.Bool("final") {
		t.Errorf("final flags = %v, %v", got[0].values, got[1].values)
	}
	if got[0].values.String("text")+got[1].values.String("text") != text {
		t.Error("chunks do not reassemble")
	}
}

func TestResetKeyerState(t *testing.T) {
	gpio, _, sender := setupKeyer(t)
	_ = sendCommand(t, "config_keyer", 25, 0, 0)
	_ = sendCommand(t, "transmit_morse", "-----")
	ProcessTimers()
	_ = sendCommand(t, "append_text", "QRT")

	ResetKeyerState()

	if keyer.beacon.Active() || gpio.levels[25] || len(keyer.pending) != 0 {
		t.Error("reset left state behind")
	}
	if end, ok := sender.last("transmit_end"); !ok || !end.Bool("aborted") {
		t.Errorf("transmit_end = %v", end)
	}
}
