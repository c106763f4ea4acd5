// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import (
	"encoding/binary"
	"fmt"
	"time"
)

// DecodeFrame decodes one 22-byte frame into a Packet.
//
// The caller must have validated the frame header already: frame[0] is the
// start marker and frame[1] a frame number in [FrameNumberMin,
// FrameNumberMax]. DecodeFrame verifies the trailing checksum before
// extracting any readings; on mismatch it returns a *ChecksumError and no
// packet. It is a pure function of the frame bytes apart from the packet
// timestamp.
func DecodeFrame(frame []byte) (*Packet, error) {
	if len(frame) != FrameSize {
		return nil, fmt.Errorf("frame must be %d bytes, got %d", FrameSize, len(frame))
	}

	frameIndex := int(frame[1]) - FrameNumberMin
	speed := float64(binary.LittleEndian.Uint16(frame[2:4])) / 64.0

	expected := binary.LittleEndian.Uint16(frame[PayloadSize:])
	if actual := Checksum(frame[:PayloadSize]); actual != expected {
		return nil, &ChecksumError{FrameIndex: frameIndex}
	}

	var readings [ReadingsPerFrame]Reading
	for i := 1; i <= ReadingsPerFrame; i++ {
		base := 4 * i
		raw := binary.LittleEndian.Uint16(frame[base : base+2])
		quality := int(binary.LittleEndian.Uint16(frame[base+2 : base+4]))

		r := Reading{
			Index:   ReadingsPerFrame*frameIndex + i - 1,
			Quality: quality,
		}
		switch {
		case raw&DistanceInvalidFlag != 0:
			// Raw bits retained; the low byte is the error code.
			r.Distance = int(raw)
			r.Error = &ReadingError{Kind: ReadingInvalidData, Code: uint8(raw & ErrorCodeMask)}
		case raw&DistanceWarningFlag != 0:
			r.Distance = int(raw & DistanceMask)
			r.Error = &ReadingError{Kind: ReadingSignalStrengthWarning}
		default:
			r.Distance = int(raw)
		}
		readings[i-1] = r
	}

	return &Packet{
		frameIndex: frameIndex,
		speed:      speed,
		readings:   readings,
		timestamp:  time.Now(),
	}, nil
}
