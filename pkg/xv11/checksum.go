// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import "encoding/binary"

// Checksum computes the 15-bit rolling checksum over the first 20 bytes
// of a frame. The data slice must hold at least PayloadSize bytes.
//
// The sensor accumulates the payload as ten little-endian 16-bit words
// into a 32-bit accumulator, shifting left before each add, then folds
// the accumulator back into 15 bits.
func Checksum(data []byte) uint16 {
	var acc uint32
	for i := 0; i < PayloadSize/2; i++ {
		word := uint32(binary.LittleEndian.Uint16(data[2*i:]))
		acc = (acc << 1) + word
	}
	folded := (acc & 0x7FFF) + (acc >> 15)
	return uint16(folded & 0x7FFF)
}
