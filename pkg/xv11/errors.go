// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import (
	"errors"
	"fmt"
)

// ErrResyncRequired is published when a frame read while synchronized does
// not start with the marker byte or carries an out-of-range frame number.
// The driver drops back to byte-level synchronization after reporting it.
var ErrResyncRequired = errors.New("corrupted frame header, resync required")

// ErrReadTimeout is returned when the port signals a read timeout before a
// full read completed. The driver treats it as a fatal transport failure.
var ErrReadTimeout = errors.New("serial read timed out")

// ChecksumError reports a frame whose transmitted checksum does not match
// the computed one. The frame's readings are discarded entirely.
type ChecksumError struct {
	FrameIndex int // index of the offending frame, 0-89
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch in frame %d", e.FrameIndex)
}

// OpenError reports a failure to open the serial port at startup.
type OpenError struct {
	Port string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open serial port %s: %v", e.Port, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// ConfigError reports a failure to configure the serial port at startup.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("failed to configure serial port: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ReadError reports a mid-stream transport failure. It terminates the
// driver loop.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("serial read failed: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
