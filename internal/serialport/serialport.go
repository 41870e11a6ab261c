// Package serialport opens the bench's USB serial ports.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the sensor and actuator firmware.
const DefaultBaudRate = 115200

// Config describes one port.
type Config struct {
	Name        string
	BaudRate    int
	ReadTimeout time.Duration // 0 blocks until data arrives
}

// Opener opens a port. It is swapped out in tests.
type Opener func(cfg Config) (serial.Port, error)

// Open opens cfg.Name with 8N1 framing and applies the read timeout.
func Open(cfg Config) (serial.Port, error) {
	baud := cfg.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(cfg.Name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Name, err)
	}
	if cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("serialport: %s read timeout: %w", cfg.Name, err)
		}
	}
	return port, nil
}

// List returns the names of the serial ports present on the host.
func List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serialport: list: %w", err)
	}
	return ports, nil
}
