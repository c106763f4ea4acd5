// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import (
	"fmt"
	"strings"
)

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p *Packet) string {
	timestamp := p.Timestamp().Format("15:04:05.000")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] FRAME %02d/%d speed=%.2f RPM\n",
		timestamp, p.FrameIndex(), FramesPerScan-1, p.Speed())
	for _, r := range p.Readings() {
		sb.WriteString("  ")
		sb.WriteString(FormatReading(r))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatReading formats a single reading as one line
func FormatReading(r Reading) string {
	if r.Error != nil {
		switch r.Error.Kind {
		case ReadingInvalidData:
			return fmt.Sprintf("%3d°  INVALID (code 0x%02X)", r.Index, r.Error.Code)
		case ReadingSignalStrengthWarning:
			return fmt.Sprintf("%3d°  %5d mm  q=%-5d  WEAK SIGNAL", r.Index, r.Distance, r.Quality)
		}
	}
	return fmt.Sprintf("%3d°  %5d mm  q=%d", r.Index, r.Distance, r.Quality)
}

// FormatMessage formats any driver message for log output
func FormatMessage(m Message) string {
	switch msg := m.(type) {
	case PacketMessage:
		return FormatPacket(msg.Packet)
	case ErrorMessage:
		return fmt.Sprintf("[ERROR] %v\n", msg.Err)
	case ShutdownMessage:
		return "[SHUTDOWN] driver exited\n"
	}
	return fmt.Sprintf("[UNKNOWN] %T\n", m)
}
