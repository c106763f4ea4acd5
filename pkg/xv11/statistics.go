// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames         uint64
	ValidPackets        uint64
	ChecksumErrors      uint64
	ResyncEvents        uint64
	TransportErrors     uint64
	InvalidDataReadings uint64
	SignalWarnings      uint64
	AnomalousPackets    uint64
	SpeedAnomalies      uint64
	QualityAnomalies    uint64
	RangeAnomalies      uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics from one driver message and the validation
// errors computed for its packet (nil for error messages).
func (s *Statistics) Update(msg Message, validationErrors []ValidationError) {
	switch m := msg.(type) {
	case ErrorMessage:
		var cerr *ChecksumError
		switch {
		case errors.As(m.Err, &cerr):
			// A checksum failure consumed one whole frame off the wire.
			s.TotalFrames++
			s.ChecksumErrors++
		case errors.Is(m.Err, ErrResyncRequired):
			s.TotalFrames++
			s.ResyncEvents++
		default:
			// Open, configure and read failures: fatal, not frames.
			s.TransportErrors++
		}
		return

	case PacketMessage:
		s.TotalFrames++
		for _, r := range m.Packet.Readings() {
			if r.Error == nil {
				continue
			}
			switch r.Error.Kind {
			case ReadingInvalidData:
				s.InvalidDataReadings++
			case ReadingSignalStrengthWarning:
				s.SignalWarnings++
			}
		}

		if len(validationErrors) > 0 {
			s.AnomalousPackets++
			for _, err := range validationErrors {
				switch err.Type {
				case AnomalySpeedRange:
					s.SpeedAnomalies++
				case AnomalyZeroQuality:
					s.QualityAnomalies++
				case AnomalyLongRange:
					s.RangeAnomalies++
				}
			}
		} else {
			s.ValidPackets++
		}

		s.LastUpdateTime = time.Now()
	}
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		errorCount := s.ChecksumErrors + s.ResyncEvents + s.TransportErrors + s.AnomalousPackets
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, checksumPercent, anomalousPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidPackets) * 100.0 / float64(s.TotalFrames)
		checksumPercent = float64(s.ChecksumErrors) * 100.0 / float64(s.TotalFrames)
		anomalousPercent = float64(s.AnomalousPackets) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Packets:   %8d (%.1f%%)\n", s.ValidPackets, validPercent)

	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%%)\n", s.ChecksumErrors, checksumPercent)
	}
	if s.ResyncEvents > 0 {
		result += fmt.Sprintf("Resync Events:   %8d\n", s.ResyncEvents)
	}
	if s.TransportErrors > 0 {
		result += fmt.Sprintf("Transport Errors:%8d\n", s.TransportErrors)
	}
	if s.InvalidDataReadings > 0 {
		result += fmt.Sprintf("Invalid Readings:%8d\n", s.InvalidDataReadings)
	}
	if s.SignalWarnings > 0 {
		result += fmt.Sprintf("Signal Warnings: %8d\n", s.SignalWarnings)
	}
	if s.AnomalousPackets > 0 {
		result += fmt.Sprintf("Anomalous Pkts:  %8d (%.1f%%)\n", s.AnomalousPackets, anomalousPercent)
		if s.SpeedAnomalies > 0 {
			result += fmt.Sprintf("  Speed Range:      %5d\n", s.SpeedAnomalies)
		}
		if s.QualityAnomalies > 0 {
			result += fmt.Sprintf("  Zero Quality:     %5d\n", s.QualityAnomalies)
		}
		if s.RangeAnomalies > 0 {
			result += fmt.Sprintf("  Long Range:       %5d\n", s.RangeAnomalies)
		}
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	*s = Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}
