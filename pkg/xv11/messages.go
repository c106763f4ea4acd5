// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

// Command controls a running driver. Commands are drained at most one per
// loop iteration; the latest command wins.
type Command int

const (
	// CommandRun resumes reading after a pause.
	CommandRun Command = iota
	// CommandPause suspends all serial I/O without closing the port.
	CommandPause
	// CommandStop terminates the driver loop.
	CommandStop
)

func (c Command) String() string {
	switch c {
	case CommandRun:
		return "Run"
	case CommandPause:
		return "Pause"
	case CommandStop:
		return "Stop"
	}
	return "Unknown"
}

// Message is a driver-to-consumer message. Exactly one of PacketMessage,
// ErrorMessage or ShutdownMessage; ShutdownMessage is always the terminal
// message before the driver closes the channel.
type Message interface {
	isMessage()
}

// PacketMessage carries one successfully decoded frame.
type PacketMessage struct {
	Packet *Packet
}

// ErrorMessage carries a per-frame or transport error. Per-frame errors
// (*ChecksumError, ErrResyncRequired) are non-fatal; transport errors
// (*OpenError, *ConfigError, *ReadError) are the last message before
// shutdown.
type ErrorMessage struct {
	Err error
}

// ShutdownMessage announces that the driver loop has exited.
type ShutdownMessage struct{}

func (PacketMessage) isMessage()   {}
func (ErrorMessage) isMessage()    {}
func (ShutdownMessage) isMessage() {}
