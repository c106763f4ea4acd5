// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import "time"

// Config configures a Driver.
type Config struct {
	// PortName is the serial device to open, e.g. /dev/ttyUSB0. Only used
	// by Run; RunWithPort takes an already-open port.
	PortName string

	// BaudRate defaults to DefaultBaudRate (115200).
	BaudRate int

	// ReadTimeout bounds every blocking read. A timeout is treated as a
	// fatal transport failure. Defaults to DefaultReadTimeout.
	ReadTimeout time.Duration

	// StartPaused starts the loop suspended until a Run command arrives.
	// The default is to start reading immediately.
	StartPaused bool

	// PollInterval throttles the main loop. Defaults to
	// DefaultPollInterval.
	PollInterval time.Duration

	// SyncPollInterval throttles the byte-level marker hunt. Defaults to
	// DefaultSyncPollInterval.
	SyncPollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.SyncPollInterval == 0 {
		c.SyncPollInterval = DefaultSyncPollInterval
	}
	return c
}

// Driver owns the serial port and the frame-synchronization state machine.
// It runs on a single goroutine and communicates exclusively through the
// message and command channels handed to Run; no internal locking.
//
// The loop holds one of two states. Unsynchronized, it scans byte by byte
// for the start marker and validates the frame number before trusting the
// boundary. Synchronized, it reads whole 22-byte frames directly and falls
// back to scanning when a header check fails, costing exactly one resync
// cycle per corruption.
type Driver struct {
	cfg    Config
	port   Port
	buf    [FrameSize]byte
	synced bool
	paused bool
}

// NewDriver creates a driver with the given configuration. Zero-value
// timing fields are replaced with the package defaults.
func NewDriver(cfg Config) *Driver {
	return &Driver{cfg: cfg.withDefaults()}
}

// Run opens and configures the port named in the configuration, then
// decodes frames until stopped. Every outcome is published on msgs: decoded
// packets, per-frame errors, fatal transport errors, and a final
// ShutdownMessage after which msgs is closed.
//
// cmds may be nil when no pause/resume control is needed; a closed command
// channel is an implicit stop.
func (d *Driver) Run(msgs chan<- Message, cmds <-chan Command) {
	port, err := Open(d.cfg.PortName, d.cfg.BaudRate)
	if err != nil {
		msgs <- ErrorMessage{Err: err}
		msgs <- ShutdownMessage{}
		close(msgs)
		return
	}
	defer port.Close()
	d.RunWithPort(port, msgs, cmds)
}

// RunWithPort runs the decode loop over an already-open port. The caller
// retains ownership of the port and must close it after RunWithPort
// returns. The message channel is closed on exit, after the terminal
// ShutdownMessage.
func (d *Driver) RunWithPort(port Port, msgs chan<- Message, cmds <-chan Command) {
	d.port = port
	d.synced = false
	d.paused = d.cfg.StartPaused

	defer func() {
		msgs <- ShutdownMessage{}
		close(msgs)
	}()

	if err := port.SetReadTimeout(d.cfg.ReadTimeout); err != nil {
		msgs <- ErrorMessage{Err: &ConfigError{Err: err}}
		return
	}

	for {
		time.Sleep(d.cfg.PollInterval)

		if d.drainCommand(cmds) == ctlStop {
			return
		}
		if d.paused {
			continue
		}

		// Stale bytes from a failed frame must not leak into this one.
		for i := range d.buf {
			d.buf[i] = 0
		}

		if !d.synced {
			stopped, err := d.sync(cmds)
			if err != nil {
				msgs <- ErrorMessage{Err: &ReadError{Err: err}}
				return
			}
			if stopped {
				return
			}
			if d.paused {
				// Paused mid-hunt, no frame acquired.
				continue
			}
			d.synced = true
		} else {
			if err := d.readFull(d.buf[:]); err != nil {
				msgs <- ErrorMessage{Err: &ReadError{Err: err}}
				return
			}
			if d.buf[0] != StartMarker || !validFrameNumber(d.buf[1]) {
				msgs <- ErrorMessage{Err: ErrResyncRequired}
				d.synced = false
				continue
			}
		}

		pkt, err := DecodeFrame(d.buf[:])
		if err != nil {
			msgs <- ErrorMessage{Err: err}
			continue
		}
		msgs <- PacketMessage{Packet: pkt}
	}
}

// sync scans for a frame boundary: single-byte reads until the start
// marker, the remaining 21 bytes, then the frame number check. A false
// marker restarts the scan; the trailing bytes are not re-examined as
// marker candidates. Commands stay live during the hunt.
func (d *Driver) sync(cmds <-chan Command) (stopped bool, err error) {
	for {
		time.Sleep(d.cfg.SyncPollInterval)

		if d.drainCommand(cmds) == ctlStop {
			return true, nil
		}
		if d.paused {
			return false, nil
		}

		if err := d.readFull(d.buf[:1]); err != nil {
			return false, err
		}
		if d.buf[0] != StartMarker {
			continue
		}
		if err := d.readFull(d.buf[1:]); err != nil {
			return false, err
		}
		if !validFrameNumber(d.buf[1]) {
			continue
		}
		return false, nil
	}
}

type control int

const (
	ctlNone control = iota
	ctlStop
)

// drainCommand polls at most one pending command without blocking.
func (d *Driver) drainCommand(cmds <-chan Command) control {
	if cmds == nil {
		return ctlNone
	}
	select {
	case cmd, ok := <-cmds:
		if !ok {
			return ctlStop
		}
		switch cmd {
		case CommandRun:
			d.paused = false
		case CommandPause:
			d.paused = true
		case CommandStop:
			return ctlStop
		}
	default:
	}
	return ctlNone
}

// readFull fills p completely. go.bug.st/serial signals an expired read
// timeout as a zero-byte read with no error; that surfaces here as
// ErrReadTimeout so a stalled sensor cannot spin the loop.
func (d *Driver) readFull(p []byte) error {
	off := 0
	for off < len(p) {
		n, err := d.port.Read(p[off:])
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrReadTimeout
		}
		off += n
	}
	return nil
}
