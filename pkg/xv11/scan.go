// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import "time"

// Scan is one full 360-degree revolution assembled from 90 packets.
type Scan struct {
	Readings  [ReadingsPerScan]Reading
	Speed     float64 // mean spin speed over the revolution, RPM
	Timestamp time.Time
}

// ScanAssembler collects packets into complete scans. It belongs to the
// consumer, not the driver: the driver emits immutable packets and keeps
// no aggregate state.
//
// A repeated frame index before the scan completes means frames were lost
// (a resync, a checksum failure); the partial scan is discarded and
// assembly restarts from the offending packet.
type ScanAssembler struct {
	readings [ReadingsPerScan]Reading
	seen     [FramesPerScan]bool
	frames   int
	speedSum float64
}

// NewScanAssembler creates an empty assembler.
func NewScanAssembler() *ScanAssembler {
	return &ScanAssembler{}
}

// Add merges one packet into the scan under assembly. It returns the
// completed scan once all 90 frames have arrived, nil otherwise.
func (a *ScanAssembler) Add(p *Packet) *Scan {
	fi := p.FrameIndex()
	if fi < 0 || fi >= FramesPerScan {
		return nil
	}

	if a.seen[fi] {
		a.Reset()
	}

	a.seen[fi] = true
	a.frames++
	a.speedSum += p.Speed()
	for _, r := range p.Readings() {
		a.readings[r.Index] = r
	}

	if a.frames < FramesPerScan {
		return nil
	}

	scan := &Scan{
		Readings:  a.readings,
		Speed:     a.speedSum / float64(a.frames),
		Timestamp: time.Now(),
	}
	a.Reset()
	return scan
}

// Progress returns how many of the 90 frames have arrived so far.
func (a *ScanAssembler) Progress() (frames, total int) {
	return a.frames, FramesPerScan
}

// Reset discards the scan under assembly.
func (a *ScanAssembler) Reset() {
	*a = ScanAssembler{}
}
