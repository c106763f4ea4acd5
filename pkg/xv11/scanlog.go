// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Scan log format: a plain concatenation of CBOR-encoded packet records,
// one per decoded frame. Integer keys keep records compact; the format is
// append-only and self-delimiting, so a truncated capture loses at most
// the final record.

type readingRecord struct {
	Index    int   `cbor:"1,keyasint"`
	Distance int   `cbor:"2,keyasint"`
	Quality  int   `cbor:"3,keyasint"`
	ErrKind  int   `cbor:"4,keyasint,omitempty"` // 0 none, 1 invalid data, 2 signal warning
	ErrCode  uint8 `cbor:"5,keyasint,omitempty"`
}

type packetRecord struct {
	Time       int64           `cbor:"1,keyasint"` // unix nanoseconds
	FrameIndex int             `cbor:"2,keyasint"`
	Speed      float64         `cbor:"3,keyasint"`
	Readings   []readingRecord `cbor:"4,keyasint"`
}

// LogWriter appends decoded packets to a CBOR capture stream.
type LogWriter struct {
	enc *cbor.Encoder
}

// NewLogWriter creates a writer appending to w.
func NewLogWriter(w io.Writer) *LogWriter {
	return &LogWriter{enc: cbor.NewEncoder(w)}
}

// Write appends one packet to the capture.
func (lw *LogWriter) Write(p *Packet) error {
	rec := packetRecord{
		Time:       p.Timestamp().UnixNano(),
		FrameIndex: p.FrameIndex(),
		Speed:      p.Speed(),
		Readings:   make([]readingRecord, 0, ReadingsPerFrame),
	}
	for _, r := range p.Readings() {
		rr := readingRecord{
			Index:    r.Index,
			Distance: r.Distance,
			Quality:  r.Quality,
		}
		if r.Error != nil {
			switch r.Error.Kind {
			case ReadingInvalidData:
				rr.ErrKind = 1
				rr.ErrCode = r.Error.Code
			case ReadingSignalStrengthWarning:
				rr.ErrKind = 2
			}
		}
		rec.Readings = append(rec.Readings, rr)
	}
	return lw.enc.Encode(rec)
}

// LogReader replays packets from a CBOR capture stream.
type LogReader struct {
	dec *cbor.Decoder
}

// NewLogReader creates a reader consuming from r.
func NewLogReader(r io.Reader) *LogReader {
	return &LogReader{dec: cbor.NewDecoder(r)}
}

// Next decodes the next packet from the capture. It returns io.EOF once
// the stream is exhausted.
//
// Records are validated before a packet is built: capture files come from
// outside the process, so out-of-range indexes are an error, not a trusted
// invariant.
func (lr *LogReader) Next() (*Packet, error) {
	var rec packetRecord
	if err := lr.dec.Decode(&rec); err != nil {
		return nil, err
	}
	if len(rec.Readings) != ReadingsPerFrame {
		return nil, fmt.Errorf("capture record has %d readings, want %d", len(rec.Readings), ReadingsPerFrame)
	}
	if rec.FrameIndex < 0 || rec.FrameIndex >= FramesPerScan {
		return nil, fmt.Errorf("capture record frame index %d out of [0,%d)", rec.FrameIndex, FramesPerScan)
	}
	for _, rr := range rec.Readings {
		if rr.Index < 0 || rr.Index >= ReadingsPerScan {
			return nil, fmt.Errorf("capture record reading index %d out of [0,%d)", rr.Index, ReadingsPerScan)
		}
	}

	p := &Packet{
		frameIndex: rec.FrameIndex,
		speed:      rec.Speed,
		timestamp:  time.Unix(0, rec.Time),
	}
	for i, rr := range rec.Readings {
		r := Reading{
			Index:    rr.Index,
			Distance: rr.Distance,
			Quality:  rr.Quality,
		}
		switch rr.ErrKind {
		case 1:
			r.Error = &ReadingError{Kind: ReadingInvalidData, Code: rr.ErrCode}
		case 2:
			r.Error = &ReadingError{Kind: ReadingSignalStrengthWarning}
		}
		p.readings[i] = r
	}
	return p, nil
}
