package core

import "errors"

// EncodeMode selects how the encoder treats characters outside the table
type EncodeMode uint8

const (
	// EncodeStrict rejects empty input and any unsupported character
	EncodeStrict EncodeMode = iota
	// EncodeLenient skips unsupported characters
	EncodeLenient
)

// ErrInvalidInput is matched by every encoder failure
var ErrInvalidInput = errors.New("invalid input")

// InputError reports the character that stopped a strict encode.
// Pos is the byte offset of the character, or -1 for empty input.
type InputError struct {
	Char rune
	Pos  int
}

func (e *InputError) Error() string {
	if e.Pos < 0 {
		return "invalid input: empty text"
	}
	return "invalid input: unsupported character '" + string(e.Char) + "' at offset " + itoa(e.Pos)
}

// Unwrap lets errors.Is match ErrInvalidInput
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// String returns the mode name used in configuration files
func (m EncodeMode) String() string {
	if m == EncodeLenient {
		return "lenient"
	}
	return "strict"
}

// ParseEncodeMode converts "strict" or "lenient" to an EncodeMode
func ParseEncodeMode(s string) (EncodeMode, error) {
	switch s {
	case "strict", "":
		return EncodeStrict, nil
	case "lenient":
		return EncodeLenient, nil
	}
	return EncodeStrict, errors.New("unknown encode mode: " + s)
}

// Encode converts text to a Morse string with tokens separated by single spaces
func Encode(text string, mode EncodeMode) (string, error) {
	if text == "" {
		if mode == EncodeLenient {
			return "", nil
		}
		return "", &InputError{Pos: -1}
	}

	out := make([]byte, 0, len(text)*5)
	for i, r := range text {
		code := CharToMorse(r)
		if code == "" {
			if mode == EncodeLenient {
				continue
			}
			return "", &InputError{Char: r, Pos: i}
		}
		if len(out) > 0 {
			out = append(out, ' ')
		}
		out = append(out, code...)
	}
	return string(out), nil
}

// TextToMorse is a strict Encode
func TextToMorse(text string) (string, error) {
	return Encode(text, EncodeStrict)
}
