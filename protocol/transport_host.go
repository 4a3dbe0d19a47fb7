package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultAckTimeout bounds the wait for a board ACK
const DefaultAckTimeout = 2 * time.Second

// ErrTransportClosed is returned after Close
var ErrTransportClosed = errors.New("transport closed")

// Message is a validated frame received from the board
type Message struct {
	Sequence uint8
	Payload  []byte // frame payload without header/trailer
}

// HostTransport is the host side of the link.
// A background goroutine reads the port; SendCommand blocks until the
// board ACKs the frame.
type HostTransport struct {
	port io.ReadWriteCloser

	currentSeq   atomic.Uint32 // sequence of the next frame we send
	synchronized atomic.Bool

	inputBuffer *FifoBuffer

	ackChan      chan *Message
	responseChan chan *Message

	writeMutex sync.Mutex
	closeOnce  sync.Once
	stopChan   chan struct{}
	doneChan   chan struct{}

	ackTimeout time.Duration
}

// NewHostTransport starts reading port in the background
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		inputBuffer:  NewFifoBuffer(1024),
		ackChan:      make(chan *Message, 1),
		responseChan: make(chan *Message, 32),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
		ackTimeout:   DefaultAckTimeout,
	}
	t.currentSeq.Store(MessageDest)
	t.synchronized.Store(true)

	go t.readLoop()

	return t
}

// SetAckTimeout changes how long SendCommand waits for an ACK
func (t *HostTransport) SetAckTimeout(d time.Duration) {
	t.ackTimeout = d
}

// SendCommand frames one message, writes it and waits for the ACK
func (t *HostTransport) SendCommand(ctx context.Context, cmdID uint16, args func(output OutputBuffer)) error {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	seq := uint8(t.currentSeq.Load())
	msg, err := buildFrame(seq, cmdID, args)
	if err != nil {
		return err
	}

	// Drop a stale ACK from an earlier timed-out command
	select {
	case <-t.ackChan:
	default:
	}

	n, err := t.port.Write(msg)
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}

	return t.waitForAck(ctx, seq)
}

// buildFrame encodes one message into a standalone frame
func buildFrame(seq uint8, cmdID uint16, args func(output OutputBuffer)) ([]byte, error) {
	scratch := NewScratchOutput()
	appendFrame(scratch, seq, func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
	frame := scratch.Result()
	if len(frame) > MessageLengthMax {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLong, len(frame), MessageLengthMax)
	}
	out := make([]byte, len(frame))
	copy(out, frame)
	return out, nil
}

func (t *HostTransport) waitForAck(ctx context.Context, seq uint8) error {
	timer := time.NewTimer(t.ackTimeout)
	defer timer.Stop()

	select {
	case ack := <-t.ackChan:
		expected := nextSequence(seq)
		if ack.Sequence != expected {
			// NAK: the board expects a different sequence
			t.currentSeq.Store(uint32(ack.Sequence))
			return fmt.Errorf("sequence mismatch: board expects 0x%02x, sent 0x%02x", ack.Sequence, seq)
		}
		t.currentSeq.Store(uint32(expected))
		return nil

	case <-timer.C:
		return fmt.Errorf("ACK timeout after %v", t.ackTimeout)

	case <-ctx.Done():
		return ctx.Err()

	case <-t.stopChan:
		return ErrTransportClosed
	}
}

// Receive returns the next response frame
func (t *HostTransport) Receive(ctx context.Context) (*Message, error) {
	select {
	case resp := <-t.responseChan:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.stopChan:
		return nil, ErrTransportClosed
	}
}

// readLoop reads the port until Close
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)
	for {
		n, err := t.port.Read(buffer)
		if n > 0 {
			t.inputBuffer.Write(buffer[:n])
			t.processMessages()
		}
		if err != nil {
			select {
			case <-t.stopChan:
				return
			default:
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		select {
		case <-t.stopChan:
			return
		default:
		}
	}
}

// processMessages parses every complete frame in the input buffer
func (t *HostTransport) processMessages() {
	data := t.inputBuffer.Data()

	for len(data) > 0 {
		if !t.synchronized.Load() {
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

		msg := &Message{Sequence: seq, Payload: append([]byte(nil), payload...)}
		t.dispatchMessage(msg)
	}

	if consumed := t.inputBuffer.Available() - len(data); consumed > 0 {
		t.inputBuffer.Pop(consumed)
	}
}

// dispatchMessage routes ACKs and responses
func (t *HostTransport) dispatchMessage(msg *Message) {
	if len(msg.Payload) == 0 {
		select {
		case t.ackChan <- msg:
		default:
			// Keep only the newest ACK
			select {
			case <-t.ackChan:
			default:
			}
			t.ackChan <- msg
		}
		return
	}

	select {
	case t.responseChan <- msg:
	default:
		// Queue full: drop the oldest response
		select {
		case <-t.responseChan:
		default:
		}
		t.responseChan <- msg
	}
}

// Close stops the reader and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		err = t.port.Close()
		<-t.doneChan
	})
	return err
}

// Reset restarts the sequence and drops queued input
func (t *HostTransport) Reset() {
	t.synchronized.Store(true)
	t.currentSeq.Store(MessageDest)

	for len(t.ackChan) > 0 {
		<-t.ackChan
	}
	for len(t.responseChan) > 0 {
		<-t.responseChan
	}
}

// CurrentSequence returns the sequence of the next frame to send
func (t *HostTransport) CurrentSequence() uint8 {
	return uint8(t.currentSeq.Load())
}
