// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

// Package xv11 decodes the binary telemetry stream of the Neato XV-11
// spinning LIDAR.
//
// The sensor emits fixed 22-byte frames over a 115200 baud serial link:
// a start marker, a frame number, a spin speed, four distance/quality
// readings and a 15-bit checksum. This package provides the checksum,
// the frame decoder, and a driver that synchronizes to frame boundaries
// in a noisy stream and publishes decoded packets over a channel.
package xv11

import "time"

// Wire format framing
const (
	StartMarker    = 0xFA // first byte of every frame
	FrameSize      = 22   // total frame size in bytes
	ChecksumSize   = 2    // trailing checksum bytes
	PayloadSize    = FrameSize - ChecksumSize
	FrameNumberMin = 0xA0 // frame number of the first frame in a scan
	FrameNumberMax = 0xF9 // frame number of the last frame in a scan
)

// Scan geometry
const (
	ReadingsPerFrame = 4
	FramesPerScan    = 90
	ReadingsPerScan  = FramesPerScan * ReadingsPerFrame // 360, one per degree
)

// Distance field flag bits
const (
	DistanceInvalidFlag = 0x8000 // invalid data, low byte carries the error code
	DistanceWarningFlag = 0x4000 // signal strength warning
	DistanceMask        = 0x3FFF
	ErrorCodeMask       = 0x00FF
)

// Serial link configuration (fixed by the sensor)
const (
	DefaultBaudRate = 115200
)

// Driver timing defaults
const (
	DefaultReadTimeout      = 1 * time.Second
	DefaultPollInterval     = 1 * time.Millisecond
	DefaultSyncPollInterval = 100 * time.Microsecond
)

// validFrameNumber reports whether b is a legal frame number byte.
func validFrameNumber(b byte) bool {
	return b >= FrameNumberMin && b <= FrameNumberMax
}
