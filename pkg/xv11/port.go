// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the byte stream the driver reads frames from. Read must honor
// the configured read timeout by returning zero bytes once it elapses
// (the behavior of go.bug.st/serial ports).
type Port interface {
	io.Reader
	io.Closer
	SetReadTimeout(t time.Duration) error
}

// Open opens and configures a serial port for the sensor: 8 data bits,
// no parity, one stop bit, no flow control. The sensor always transmits
// at 115200 baud; baud is a parameter only for bench setups with rate
// converters in between.
func Open(name string, baud int) (Port, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, &OpenError{Port: name, Err: err}
	}
	return port, nil
}
