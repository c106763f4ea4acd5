// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import (
	"bytes"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

func TestScanLog_RoundTrip(t *testing.T) {
	clean, err := DecodeFrame(refFrame)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	flagged, err := DecodeFrame(buildFrame(0xA5, 280*64,
		[4]uint16{0x80FE, 0x4000 | 512, 900, 1000},
		[4]uint16{0, 3, 50, 60}))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	var buf bytes.Buffer
	lw := NewLogWriter(&buf)
	for _, p := range []*Packet{clean, flagged} {
		if err := lw.Write(p); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	lr := NewLogReader(&buf)
	for i, want := range []*Packet{clean, flagged} {
		got, err := lr.Next()
		if err != nil {
			t.Fatalf("record %d: read failed: %v", i, err)
		}
		if got.FrameIndex() != want.FrameIndex() {
			t.Errorf("record %d: frame index %d != %d", i, got.FrameIndex(), want.FrameIndex())
		}
		if got.Speed() != want.Speed() {
			t.Errorf("record %d: speed %.4f != %.4f", i, got.Speed(), want.Speed())
		}
		if !got.Timestamp().Equal(want.Timestamp()) {
			t.Errorf("record %d: timestamp drifted through the log", i)
		}
		gr, wr := got.Readings(), want.Readings()
		if !reflect.DeepEqual(gr, wr) {
			t.Errorf("record %d: readings %v != %v", i, gr, wr)
		}
	}

	if _, err := lr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF at end of capture, got %v", err)
	}
}

func TestScanLog_EmptyStream(t *testing.T) {
	lr := NewLogReader(bytes.NewReader(nil))
	if _, err := lr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF for empty capture, got %v", err)
	}
}

// wellFormedRecord builds a capture record that would pass validation.
func wellFormedRecord() packetRecord {
	rec := packetRecord{
		Time:       time.Now().UnixNano(),
		FrameIndex: 0,
		Speed:      300.0,
	}
	for i := 0; i < ReadingsPerFrame; i++ {
		rec.Readings = append(rec.Readings, readingRecord{
			Index:    i,
			Distance: 100 * (i + 1),
			Quality:  10,
		})
	}
	return rec
}

func TestScanLog_RejectsMalformedRecords(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*packetRecord)
	}{
		{"reading index beyond scan", func(r *packetRecord) { r.Readings[2].Index = 9999 }},
		{"negative reading index", func(r *packetRecord) { r.Readings[0].Index = -1 }},
		{"frame index beyond scan", func(r *packetRecord) { r.FrameIndex = FramesPerScan }},
		{"negative frame index", func(r *packetRecord) { r.FrameIndex = -1 }},
		{"wrong reading count", func(r *packetRecord) { r.Readings = r.Readings[:3] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := wellFormedRecord()
			tt.mutate(&rec)

			data, err := cbor.Marshal(rec)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}

			lr := NewLogReader(bytes.NewReader(data))
			pkt, err := lr.Next()
			if err == nil || err == io.EOF {
				t.Fatalf("malformed record must fail validation, got packet %v, err %v", pkt, err)
			}
			if pkt != nil {
				t.Error("no packet may be produced from a malformed record")
			}
		})
	}
}

// Every packet a capture yields must be safe to hand to the assembler; a
// crafted file must never be able to crash the consumer through it.
func TestScanLog_ReplayedPacketsAreSafeToAssemble(t *testing.T) {
	rec := wellFormedRecord()
	data, err := cbor.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	lr := NewLogReader(bytes.NewReader(data))
	a := NewScanAssembler()
	for {
		pkt, err := lr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		a.Add(pkt)
	}
	if frames, _ := a.Progress(); frames != 1 {
		t.Errorf("expected 1 assembled frame, got %d", frames)
	}
}
