// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import (
	"fmt"
	"time"
)

// ReadingErrorKind classifies the flag bits of a reading's distance field.
type ReadingErrorKind int

const (
	// ReadingInvalidData means bit 15 of the distance field was set. The
	// low byte of the raw value is the sensor's error code.
	ReadingInvalidData ReadingErrorKind = iota
	// ReadingSignalStrengthWarning means bit 14 was set. The distance is
	// usable but came back from a low-reflectivity surface.
	ReadingSignalStrengthWarning
)

// ReadingError describes a flag reported alongside a reading.
type ReadingError struct {
	Kind ReadingErrorKind
	Code uint8 // sensor error code, set only for ReadingInvalidData
}

func (e *ReadingError) Error() string {
	switch e.Kind {
	case ReadingInvalidData:
		return fmt.Sprintf("invalid data (code 0x%02X)", e.Code)
	case ReadingSignalStrengthWarning:
		return "signal strength warning"
	}
	return "unknown reading error"
}

// Reading is one angular distance measurement decoded from a frame.
// It is a value object: created once by the decoder, never mutated.
//
// For ReadingInvalidData readings, Distance retains the raw field bits
// (flags included); the error code is always the low byte. For signal
// strength warnings the flag bit has been cleared from Distance.
type Reading struct {
	Index    int           // absolute angular slot, 0-359
	Distance int           // millimeters
	Quality  int           // higher is more reliable, meaningless on error
	Error    *ReadingError // nil for a clean reading
}

// Valid reports whether the reading carries a usable distance.
func (r Reading) Valid() bool {
	return r.Error == nil || r.Error.Kind == ReadingSignalStrengthWarning
}

// Packet is one decoded 22-byte frame: four readings sharing a spin speed.
// Packets are produced atomically; a checksum failure yields no packet.
type Packet struct {
	frameIndex int
	speed      float64
	readings   [ReadingsPerFrame]Reading
	timestamp  time.Time
}

// FrameIndex returns the frame's position within the scan, 0-89.
func (p *Packet) FrameIndex() int {
	return p.frameIndex
}

// Speed returns the spin rate in RPM.
//
// The speed field is little-endian on the wire like every other multi-byte
// field. An early protocol note claimed big-endian; captures from real
// sensors bear out the little-endian interpretation.
func (p *Packet) Speed() float64 {
	return p.speed
}

// Readings returns the frame's four readings in angular order.
func (p *Packet) Readings() [ReadingsPerFrame]Reading {
	return p.readings
}

// Timestamp returns the packet's decode timestamp.
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}
