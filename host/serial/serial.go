// Package serial opens the USB CDC port a gomorse board enumerates as.
package serial

import "io"

// Port is an open serial connection; tests substitute an in-memory pipe
type Port interface {
	io.ReadWriteCloser

	// Flush discards buffered input and output
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; USB CDC ignores it but UART adapters do not
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud matches the board's debug UART and most USB-serial adapters
const DefaultBaud = 115200

// DefaultConfig returns the configuration used when only a device is given
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}
