// Package protocol implements the framed serial link between a host and a
// gomorse board.
//
// A frame is: length, sequence, payload, CRC16 (big endian), sync byte 0x7E.
// The payload is a list of messages, each a VLQ message ID followed by its
// arguments. An empty payload is an ACK carrying the next expected sequence.
package protocol

import "errors"

// Version is the protocol revision reported by the board
const Version = "0.1.0"

// Frame layout
const (
	MessageHeaderSize  = 2 // length, sequence
	MessageTrailerSize = 3 // crc16 hi, crc16 lo, sync
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F

	// MessageMax is the size of a scratch output buffer (several frames)
	MessageMax = 512
)

// ErrMessageTooLong is returned when a payload does not fit in one frame
var ErrMessageTooLong = errors.New("message too long")

// nextSequence returns the sequence following seq, wrapping within 0x10-0x1F
func nextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}

// frameStatus is the outcome of scanning a buffer for one frame
type frameStatus uint8

const (
	frameOK       frameStatus = iota // complete, valid frame
	frameNeedMore                    // buffer holds a partial frame
	frameInvalid                     // framing or CRC error, resync needed
)

// scanFrame validates the frame at the start of data.
// data must not start with a sync byte.
func scanFrame(data []byte) (seq uint8, payload []byte, length int, status frameStatus) {
	if len(data) < MessageLengthMin {
		return 0, nil, 0, frameNeedMore
	}

	length = int(data[MessagePositionLen])
	if length < MessageLengthMin || length > MessageLengthMax {
		return 0, nil, 0, frameInvalid
	}

	seq = data[MessagePositionSeq]
	if seq&^MessageSeqMask != MessageDest {
		return 0, nil, 0, frameInvalid
	}

	if len(data) < length {
		return 0, nil, 0, frameNeedMore
	}

	if data[length-MessageTrailerSync] != MessageValueSync {
		return 0, nil, 0, frameInvalid
	}

	frameCRC := uint16(data[length-MessageTrailerCRC])<<8 | uint16(data[length-MessageTrailerCRC+1])
	if frameCRC != CRC16(data[:length-MessageTrailerSize]) {
		return 0, nil, 0, frameInvalid
	}

	return seq, data[MessageHeaderSize : length-MessageTrailerSize], length, frameOK
}

// appendFrame writes a complete frame carrying payload
func appendFrame(output OutputBuffer, seq uint8, payload func(output OutputBuffer)) {
	cursor := output.CurPosition()
	output.Output([]byte{0, seq})
	if payload != nil {
		payload(output)
	}

	output.Update(cursor, uint8(len(output.DataSince(cursor))+MessageTrailerSize))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
}
