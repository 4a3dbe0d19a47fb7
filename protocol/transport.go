package protocol

import "sync/atomic"

// CommandHandler is a function type for handling decoded commands
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the board side of the link.
// It validates incoming frames, dispatches their messages in sequence
// order, ACKs every frame and frames outgoing responses.
type Transport struct {
	synchronized atomic.Bool
	nextSeq      atomic.Uint32 // next expected host sequence, 0x10-0x1F

	output        OutputBuffer
	handler       CommandHandler
	resetCallback func() // host restarted its sequence
	flushCallback func() // push an ACK out immediately
	errorCallback func(cmdID uint16, err error)
}

// NewTransport creates a synchronized transport writing to output
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{
		output:  output,
		handler: handler,
	}
	t.synchronized.Store(true)
	t.nextSeq.Store(MessageDest)
	return t
}

// Receive consumes every complete frame from input.
// A trailing partial frame is left in input for the next call.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.synchronized.Load() {
			// Drop bytes up to and including the next sync byte
			i := 0
			for i < len(data) && data[i] != MessageValueSync {
				i++
			}
			if i == len(data) {
				data = nil
				break
			}
			data = data[i+1:]
			t.synchronized.Store(true)
			t.encodeAck()
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		seq, payload, length, status := scanFrame(data)
		if status == frameNeedMore {
			break
		}
		if status == frameInvalid {
			t.synchronized.Store(false)
			continue
		}
		data = data[length:]

		expected := uint8(t.nextSeq.Load())
		if seq == MessageDest && expected != MessageDest {
			// Host restarted: accept its first sequence
			expected = MessageDest
			if t.resetCallback != nil {
				t.resetCallback()
			}
		}

		if seq == expected {
			t.nextSeq.Store(uint32(nextSequence(seq)))
			t.dispatch(payload)
		}
		// A mismatched sequence still gets an ACK; it acts as a NAK
		t.encodeAck()
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

// dispatch runs every message in a frame payload
func (t *Transport) dispatch(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.synchronized.Store(false)
		}
	}()

	for len(payload) > 0 {
		cmdID, err := DecodeVLQUint(&payload)
		if err != nil {
			t.synchronized.Store(false)
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(cmdID), &payload); err != nil {
			// Remaining arguments can't be trusted after a failed handler
			if t.errorCallback != nil {
				t.errorCallback(uint16(cmdID), err)
			}
			return
		}
	}
}

// encodeAck queues an empty frame carrying the next expected sequence
func (t *Transport) encodeAck() {
	appendFrame(t.output, uint8(t.nextSeq.Load()), nil)
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame queues one frame; responses reuse the current sequence
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	appendFrame(t.output, uint8(t.nextSeq.Load()), frameData)
}

// SendCommand queues a message with its arguments
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns the transport to its power-on state
func (t *Transport) Reset() {
	t.synchronized.Store(true)
	t.nextSeq.Store(MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback sets a callback to be called when host reset is detected
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback sets a callback that writes queued output immediately
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

// SetErrorCallback sets a callback for command handler failures
func (t *Transport) SetErrorCallback(callback func(cmdID uint16, err error)) {
	t.errorCallback = callback
}
