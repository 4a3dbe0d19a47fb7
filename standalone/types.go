package standalone

import (
	"time"

	"gomorse/core"
)

// Config is the compiled-in setup used when no host is attached
type Config struct {
	Outputs core.Outputs
	WPM     int
	Mode    core.EncodeMode
	Message string        // transmitted at start
	Repeat  time.Duration // pause between repeats, 0 sends once
}

// DefaultConfig returns a beacon sending "VVV DE GOMORSE" every 30 seconds
func DefaultConfig(outs core.Outputs) Config {
	return Config{
		Outputs: outs,
		WPM:     core.DefaultWPM,
		Mode:    core.EncodeLenient,
		Message: "VVV DE GOMORSE",
		Repeat:  30 * time.Second,
	}
}

// LineKind classifies one console input line
type LineKind uint8

const (
	LineEmpty   LineKind = iota
	LineComment          // starts with ';'
	LineSetting          // $KEY or $KEY=VALUE
	LineText             // anything else: a new message
)

// Line is a parsed console input line
type Line struct {
	Kind  LineKind
	Key   string // upper case setting name
	Value string
	Text  string
}
