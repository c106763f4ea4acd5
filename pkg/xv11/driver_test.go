// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import (
	"errors"
	"io"
	"testing"
	"time"
)

// scriptPort plays back a fixed byte stream, then fails reads with eof.
// When timeoutAtEnd is set it simulates a serial read timeout instead
// (zero bytes, no error), matching go.bug.st/serial semantics.
type scriptPort struct {
	data         []byte
	pos          int
	timeoutAtEnd bool
	closed       bool
}

func (p *scriptPort) Read(b []byte) (int, error) {
	if p.pos >= len(p.data) {
		if p.timeoutAtEnd {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(b, p.data[p.pos:])
	p.pos += n
	return n, nil
}

func (p *scriptPort) Close() error {
	p.closed = true
	return nil
}

func (p *scriptPort) SetReadTimeout(time.Duration) error { return nil }

// fastConfig keeps the loop delays negligible for tests.
func fastConfig() Config {
	return Config{
		PollInterval:     time.Microsecond,
		SyncPollInterval: time.Microsecond,
	}
}

// runDriver runs the driver over the scripted stream and collects every
// published message until the channel closes.
func runDriver(t *testing.T, port Port, cfg Config, cmds <-chan Command) []Message {
	t.Helper()

	msgs := make(chan Message, 16)
	done := make(chan []Message, 1)
	go func() {
		var got []Message
		for m := range msgs {
			got = append(got, m)
		}
		done <- got
	}()

	NewDriver(cfg).RunWithPort(port, msgs, cmds)

	select {
	case got := <-done:
		return got
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not shut down")
		return nil
	}
}

func packetsOf(msgs []Message) []*Packet {
	var pkts []*Packet
	for _, m := range msgs {
		if pm, ok := m.(PacketMessage); ok {
			pkts = append(pkts, pm.Packet)
		}
	}
	return pkts
}

func errorsOf(msgs []Message) []error {
	var errs []error
	for _, m := range msgs {
		if em, ok := m.(ErrorMessage); ok {
			errs = append(errs, em.Err)
		}
	}
	return errs
}

func assertShutdownLast(t *testing.T, msgs []Message) {
	t.Helper()
	if len(msgs) == 0 {
		t.Fatal("no messages published")
	}
	if _, ok := msgs[len(msgs)-1].(ShutdownMessage); !ok {
		t.Fatalf("last message should be ShutdownMessage, got %T", msgs[len(msgs)-1])
	}
	shutdowns := 0
	for _, m := range msgs {
		if _, ok := m.(ShutdownMessage); ok {
			shutdowns++
		}
	}
	if shutdowns != 1 {
		t.Fatalf("expected exactly one ShutdownMessage, got %d", shutdowns)
	}
}

func TestDriver_SyncsAndDecodesStream(t *testing.T) {
	frame1 := buildFrame(0xA0, 300*64, [4]uint16{100, 200, 300, 400}, [4]uint16{1, 2, 3, 4})
	frame2 := buildFrame(0xA1, 300*64, [4]uint16{110, 210, 310, 410}, [4]uint16{1, 2, 3, 4})

	var stream []byte
	stream = append(stream, 0x00, 0x13, 0x37, 0xFF) // leading garbage
	stream = append(stream, frame1...)
	stream = append(stream, frame2...)

	msgs := runDriver(t, &scriptPort{data: stream}, fastConfig(), nil)
	assertShutdownLast(t, msgs)

	pkts := packetsOf(msgs)
	if len(pkts) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(pkts))
	}
	if pkts[0].FrameIndex() != 0 || pkts[1].FrameIndex() != 1 {
		t.Errorf("frame indexes: expected 0,1 got %d,%d", pkts[0].FrameIndex(), pkts[1].FrameIndex())
	}

	// Consecutive in-sync frames advance the angular base by 4.
	if pkts[1].Readings()[0].Index != pkts[0].Readings()[0].Index+4 {
		t.Error("consecutive frames should advance reading indexes by 4")
	}

	// The stream ends with a transport failure; it must be reported.
	errs := errorsOf(msgs)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	var rerr *ReadError
	if !errors.As(errs[0], &rerr) {
		t.Errorf("expected *ReadError, got %T", errs[0])
	}
}

func TestDriver_ResyncOnCorruptHeader(t *testing.T) {
	frame1 := buildFrame(0xB0, 300*64, [4]uint16{100, 200, 300, 400}, [4]uint16{1, 2, 3, 4})
	frame2 := buildFrame(0xB1, 300*64, [4]uint16{110, 210, 310, 410}, [4]uint16{1, 2, 3, 4})

	var stream []byte
	stream = append(stream, frame1...)
	stream = append(stream, make([]byte, FrameSize)...) // corrupt frame, no marker
	stream = append(stream, frame2...)

	msgs := runDriver(t, &scriptPort{data: stream}, fastConfig(), nil)
	assertShutdownLast(t, msgs)

	pkts := packetsOf(msgs)
	if len(pkts) != 2 {
		t.Fatalf("expected 2 packets around the corruption, got %d", len(pkts))
	}

	foundResync := false
	for _, err := range errorsOf(msgs) {
		if errors.Is(err, ErrResyncRequired) {
			foundResync = true
		}
	}
	if !foundResync {
		t.Error("corrupt header should publish ErrResyncRequired")
	}
}

func TestDriver_FalseMarkerDoesNotDesync(t *testing.T) {
	frame1 := buildFrame(0xC0, 300*64, [4]uint16{100, 200, 300, 400}, [4]uint16{1, 2, 3, 4})
	frame2 := buildFrame(0xC1, 300*64, [4]uint16{110, 210, 310, 410}, [4]uint16{1, 2, 3, 4})

	var stream []byte
	// A marker byte at a non-boundary position followed by an invalid
	// frame number. The sync scan must discard it and find the real frame.
	stream = append(stream, StartMarker, 0x10)
	stream = append(stream, make([]byte, FrameSize-2)...)
	stream = append(stream, frame1...)
	stream = append(stream, frame2...)

	msgs := runDriver(t, &scriptPort{data: stream}, fastConfig(), nil)
	assertShutdownLast(t, msgs)

	pkts := packetsOf(msgs)
	if len(pkts) != 2 {
		t.Fatalf("expected recovery to both genuine frames, got %d packets", len(pkts))
	}
	if pkts[0].FrameIndex() != 0xC0-FrameNumberMin {
		t.Errorf("first packet frame index: expected %d, got %d", 0xC0-FrameNumberMin, pkts[0].FrameIndex())
	}
}

func TestDriver_ChecksumErrorIsPerFrame(t *testing.T) {
	good := buildFrame(0xB2, 300*64, [4]uint16{100, 200, 300, 400}, [4]uint16{1, 2, 3, 4})

	var stream []byte
	stream = append(stream, badChecksumFrame...) // valid header, bad checksum
	stream = append(stream, good...)

	msgs := runDriver(t, &scriptPort{data: stream}, fastConfig(), nil)
	assertShutdownLast(t, msgs)

	var cerr *ChecksumError
	foundChecksum := false
	for _, err := range errorsOf(msgs) {
		if errors.As(err, &cerr) {
			foundChecksum = true
			if cerr.FrameIndex != 0x11 {
				t.Errorf("checksum error frame index: expected 0x11, got %d", cerr.FrameIndex)
			}
		}
		if errors.Is(err, ErrResyncRequired) {
			t.Error("a checksum failure must not force a resync")
		}
	}
	if !foundChecksum {
		t.Fatal("expected a ChecksumError message")
	}

	// The frame after the bad one decodes without losing sync.
	pkts := packetsOf(msgs)
	if len(pkts) != 1 || pkts[0].FrameIndex() != 0xB2-FrameNumberMin {
		t.Fatalf("expected the following frame to decode, got %v", pkts)
	}
}

func TestDriver_ReadTimeoutIsFatal(t *testing.T) {
	frame := buildFrame(0xA0, 300*64, [4]uint16{100, 200, 300, 400}, [4]uint16{1, 2, 3, 4})
	port := &scriptPort{data: frame, timeoutAtEnd: true}

	msgs := runDriver(t, port, fastConfig(), nil)
	assertShutdownLast(t, msgs)

	errs := errorsOf(msgs)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !errors.Is(errs[0], ErrReadTimeout) {
		t.Errorf("expected ErrReadTimeout, got %v", errs[0])
	}
}

func TestDriver_PauseThenStopNeverDecodes(t *testing.T) {
	frame := buildFrame(0xA0, 300*64, [4]uint16{100, 200, 300, 400}, [4]uint16{1, 2, 3, 4})
	port := &scriptPort{data: frame}

	cmds := make(chan Command, 2)
	cmds <- CommandPause
	cmds <- CommandStop

	msgs := runDriver(t, port, fastConfig(), cmds)
	assertShutdownLast(t, msgs)

	if len(packetsOf(msgs)) != 0 {
		t.Error("no packets may be decoded between Pause and Stop")
	}
	if port.pos != 0 {
		t.Errorf("paused driver must not touch the port, read %d bytes", port.pos)
	}
	if len(msgs) != 1 {
		t.Errorf("expected only the shutdown message, got %d messages", len(msgs))
	}
}

func TestDriver_StartPausedUntilRunCommand(t *testing.T) {
	frame := buildFrame(0xA0, 300*64, [4]uint16{100, 200, 300, 400}, [4]uint16{1, 2, 3, 4})
	port := &scriptPort{data: frame}

	cfg := fastConfig()
	cfg.StartPaused = true
	cmds := make(chan Command, 1)

	msgs := make(chan Message, 16)
	done := make(chan struct{})
	var got []Message
	go func() {
		defer close(done)
		for m := range msgs {
			got = append(got, m)
		}
	}()

	go NewDriver(cfg).RunWithPort(port, msgs, cmds)

	// Give the paused loop time to misbehave if it is going to.
	time.Sleep(20 * time.Millisecond)
	if port.pos != 0 {
		t.Fatalf("driver read %d bytes while paused at start", port.pos)
	}

	cmds <- CommandRun
	<-time.After(20 * time.Millisecond)
	close(cmds) // implicit stop
	<-done

	if len(packetsOf(got)) != 1 {
		t.Fatalf("expected 1 packet after Run command, got %d", len(packetsOf(got)))
	}
}

func TestDriver_ClosedCommandChannelStops(t *testing.T) {
	frame := buildFrame(0xA0, 300*64, [4]uint16{100, 200, 300, 400}, [4]uint16{1, 2, 3, 4})
	cmds := make(chan Command)
	close(cmds)

	msgs := runDriver(t, &scriptPort{data: frame}, fastConfig(), cmds)

	if len(msgs) != 1 {
		t.Fatalf("expected only shutdown after closed command channel, got %d messages", len(msgs))
	}
	assertShutdownLast(t, msgs)
}

func TestDriver_RunOpenFailure(t *testing.T) {
	d := NewDriver(Config{PortName: "/dev/lidarscope-no-such-port"})

	// Buffered so the synchronous failure path cannot block on publish.
	msgs := make(chan Message, 4)
	d.Run(msgs, nil)

	var got []Message
	for m := range msgs {
		got = append(got, m)
	}
	assertShutdownLast(t, got)

	if len(got) != 2 {
		t.Fatalf("expected error then shutdown, got %d messages: %v", len(got), got)
	}
	em, ok := got[0].(ErrorMessage)
	if !ok {
		t.Fatalf("first message should be ErrorMessage, got %T", got[0])
	}
	var oerr *OpenError
	if !errors.As(em.Err, &oerr) {
		t.Fatalf("expected *OpenError, got %T: %v", em.Err, em.Err)
	}
	if oerr.Port != "/dev/lidarscope-no-such-port" {
		t.Errorf("open error names port %q", oerr.Port)
	}
}

// noisePort produces an endless stream of a single byte value.
type noisePort struct {
	b byte
}

func (p *noisePort) Read(buf []byte) (int, error) {
	for i := range buf {
		buf[i] = p.b
	}
	return len(buf), nil
}

func (p *noisePort) Close() error                       { return nil }
func (p *noisePort) SetReadTimeout(time.Duration) error { return nil }

func TestDriver_StopDuringSyncHunt(t *testing.T) {
	// Endless garbage with no marker; the hunt must still observe Stop.
	port := &noisePort{b: 0x55}

	cmds := make(chan Command, 1)
	done := make(chan []Message, 1)
	msgs := make(chan Message, 16)
	go func() {
		var got []Message
		for m := range msgs {
			got = append(got, m)
		}
		done <- got
	}()
	go NewDriver(fastConfig()).RunWithPort(port, msgs, cmds)

	time.Sleep(5 * time.Millisecond)
	cmds <- CommandStop

	select {
	case got := <-done:
		assertShutdownLast(t, got)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not terminate the sync hunt")
	}
}
