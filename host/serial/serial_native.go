//go:build !wasm

package serial

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// NativePort is an OS serial device opened through tarm/serial. A read
// that times out returns io.EOF. Flush drops buffered input, e.g. a half
// frame left from an earlier session.
type NativePort struct {
	*serial.Port
	device string
}

// Open opens the device named by cfg.
func Open(cfg *Config) (Port, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}
	return &NativePort{Port: port, device: cfg.Device}, nil
}

// Device returns the path the port was opened on.
func (p *NativePort) Device() string {
	return p.device
}
