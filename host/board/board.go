// Package board drives a gomorse board from a host over its serial link.
package board

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gomorse/core"
	"gomorse/host/serial"
	"gomorse/protocol"
)

// Fixed IDs the board registers before everything else
const (
	identifyResponseID = 0
	identifyID         = 1

	identifyChunk = 40

	// textChunk keeps one append_text inside a single frame
	textChunk = 48

	// pendingLimit caps responses kept while waiting for another one
	pendingLimit = 64
)

var (
	// ErrNoDictionary is returned by commands sent before RetrieveDictionary
	ErrNoDictionary = errors.New("dictionary not loaded")
	// ErrTextTooLong is returned for text the board cannot queue
	ErrTextTooLong = errors.New("text exceeds board buffer")
	// ErrMorseTooLong is returned for long Morse that cannot be sent as text
	ErrMorseTooLong = errors.New("morse too long for one frame")
)

// Response is a decoded board message
type Response struct {
	Name   string
	Values protocol.Values
}

// Board is a connection to one gomorse board
type Board struct {
	transport *protocol.HostTransport
	log       *slog.Logger

	mu         sync.Mutex
	dictionary *Dictionary
	rawDict    []byte
	commands   map[string]*Message
	responses  map[uint16]*Message
	pending    []Response
}

// New wraps an open port; logger may be nil
func New(port io.ReadWriteCloser, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		transport: protocol.NewHostTransport(port),
		log:       logger,
	}
}

// Connect opens a serial device and fetches the dictionary
func Connect(ctx context.Context, cfg *serial.Config, logger *slog.Logger) (*Board, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	b := New(port, logger)

	// A board that just enumerated needs a moment before it reads
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		_ = b.Close()
		return nil, ctx.Err()
	}

	if err := b.RetrieveDictionary(ctx); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

// Close stops the transport and closes the port
func (b *Board) Close() error {
	return b.transport.Close()
}

// RetrieveDictionary reads the dictionary in identify chunks and indexes it
func (b *Board) RetrieveDictionary(ctx context.Context) error {
	var buf bytes.Buffer
	for offset := uint32(0); ; {
		chunk, err := b.identify(ctx, offset)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		buf.Write(chunk)
		offset += uint32(len(chunk))
		if len(chunk) < identifyChunk {
			break
		}
	}

	dict, err := ParseDictionary(buf.Bytes())
	if err != nil {
		return err
	}
	commands, err := messages(dict.Commands)
	if err != nil {
		return err
	}
	byName, err := messages(dict.Responses)
	if err != nil {
		return err
	}
	responses := make(map[uint16]*Message, len(byName))
	for _, m := range byName {
		responses[m.ID] = m
	}

	b.mu.Lock()
	b.dictionary = dict
	b.rawDict = buf.Bytes()
	b.commands = commands
	b.responses = responses
	b.mu.Unlock()

	b.log.Info("dictionary loaded",
		"version", dict.Version,
		"build", dict.BuildVersions,
		"bytes", buf.Len(),
		"commands", len(commands),
		"responses", len(responses))
	return nil
}

// identify requests one dictionary chunk; IDs are fixed so no dictionary is needed
func (b *Board) identify(ctx context.Context, offset uint32) ([]byte, error) {
	err := b.transport.SendCommand(ctx, identifyID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, identifyChunk)
	})
	if err != nil {
		return nil, err
	}

	for {
		msg, err := b.transport.Receive(ctx)
		if err != nil {
			return nil, err
		}
		payload := msg.Payload
		id, err := protocol.DecodeVLQUint(&payload)
		if err != nil || id != identifyResponseID {
			continue
		}
		respOffset, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, err
		}
		if respOffset != offset {
			return nil, fmt.Errorf("offset mismatch: expected %d, got %d", offset, respOffset)
		}
		return protocol.DecodeVLQBytes(&payload)
	}
}

// Dictionary returns the parsed dictionary, nil before RetrieveDictionary
func (b *Board) Dictionary() *Dictionary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dictionary
}

// RawDictionary returns the dictionary bytes as received
func (b *Board) RawDictionary() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rawDict
}

// SendCommand encodes args with the command's format and waits for the ACK
func (b *Board) SendCommand(ctx context.Context, name string, args ...any) error {
	b.mu.Lock()
	cmds := b.commands
	b.mu.Unlock()
	if cmds == nil {
		return ErrNoDictionary
	}
	cmd, ok := cmds[name]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownCommand, name)
	}

	encoded := protocol.NewScratchOutput()
	if err := protocol.EncodeArgs(encoded, cmd.Params, args); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	err := b.transport.SendCommand(ctx, cmd.ID, func(output protocol.OutputBuffer) {
		output.Output(encoded.Result())
	})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	b.log.Debug("command sent", "name", name)
	return nil
}

// decode turns a received frame into a Response
func (b *Board) decode(msg *protocol.Message) (Response, error) {
	payload := msg.Payload
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return Response{}, err
	}
	b.mu.Lock()
	m, ok := b.responses[uint16(id)]
	b.mu.Unlock()
	if !ok {
		return Response{}, fmt.Errorf("unknown response ID %d", id)
	}
	values, err := protocol.DecodeArgs(&payload, m.Params)
	if err != nil {
		return Response{}, fmt.Errorf("%s: %w", m.Name, err)
	}
	return Response{Name: m.Name, Values: values}, nil
}

// WaitResponse returns the next response named in names.
// Other responses are kept for later calls.
func (b *Board) WaitResponse(ctx context.Context, names ...string) (Response, error) {
	match := func(r Response) bool {
		for _, n := range names {
			if r.Name == n {
				return true
			}
		}
		return false
	}

	b.mu.Lock()
	for i, r := range b.pending {
		if match(r) {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			b.mu.Unlock()
			return r, nil
		}
	}
	b.mu.Unlock()

	for {
		msg, err := b.transport.Receive(ctx)
		if err != nil {
			return Response{}, err
		}
		resp, err := b.decode(msg)
		if err != nil {
			b.log.Warn("dropping response", "error", err)
			continue
		}
		if match(resp) {
			return resp, nil
		}
		b.mu.Lock()
		if len(b.pending) == pendingLimit {
			b.pending = b.pending[1:]
		}
		b.pending = append(b.pending, resp)
		b.mu.Unlock()
	}
}
