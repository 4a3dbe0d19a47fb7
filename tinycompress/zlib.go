// Package tinycompress writes zlib streams made of stored DEFLATE blocks.
//
// Nothing is actually compressed: the firmware only needs output any zlib
// reader accepts, without pulling compress/flate and its tables into flash.
package tinycompress

import (
	"hash/adler32"
	"io"
)

const (
	// maxStoredBlock is the largest payload of one stored DEFLATE block
	maxStoredBlock = 0xFFFF

	zlibCMF = 0x78 // deflate, 32K window
	zlibFLG = 0x01 // no dictionary, fastest level; (CMF<<8|FLG) % 31 == 0
)

// Writer buffers everything written to it and emits the zlib stream on Close
type Writer struct {
	output io.Writer
	input  []byte
	closed bool
}

// NewWriter creates a Writer; size hints the expected input length
func NewWriter(w io.Writer, size int) *Writer {
	return &Writer{
		output: w,
		input:  make([]byte, 0, size),
	}
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	w.input = append(w.input, p...)
	return len(p), nil
}

// Close writes the header, the stored blocks and the Adler-32 trailer
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if _, err := w.output.Write([]byte{zlibCMF, zlibFLG}); err != nil {
		return err
	}

	data := w.input
	for {
		n := len(data)
		final := byte(1)
		if n > maxStoredBlock {
			n = maxStoredBlock
			final = 0
		}
		length := uint16(n)
		nlength := ^length
		header := []byte{final, byte(length), byte(length >> 8), byte(nlength), byte(nlength >> 8)}
		if _, err := w.output.Write(header); err != nil {
			return err
		}
		if _, err := w.output.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
		if final == 1 {
			break
		}
	}

	sum := adler32.Checksum(w.input)
	_, err := w.output.Write([]byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)})
	return err
}

// Compress returns data wrapped in a zlib stream
func Compress(data []byte) []byte {
	var out sliceWriter
	out.buf = make([]byte, 0, len(data)+len(data)/maxStoredBlock*5+11)
	w := NewWriter(&out, len(data))
	_, _ = w.Write(data)
	_ = w.Close()
	return out.buf
}

type sliceWriter struct {
	buf []byte
}

func (s *sliceWriter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}
