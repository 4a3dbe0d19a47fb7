//go:build rp2040 || rp2350

package main

import "machine"

// InitUSB configures the USB CDC-ACM port TinyGo exposes as machine.Serial
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// USBAvailable returns the number of bytes waiting on USB
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte from USB
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes data to USB
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
