// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package xv11

import "testing"

func decodeOrFatal(t *testing.T, frame []byte) *Packet {
	t.Helper()
	pkt, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return pkt
}

func TestValidatePacket_CleanPacket(t *testing.T) {
	pkt := decodeOrFatal(t, buildFrame(0xA0, 300*64,
		[4]uint16{100, 200, 300, 400}, [4]uint16{1, 2, 3, 4}))

	if errs := ValidatePacket(pkt); len(errs) != 0 {
		t.Errorf("expected no anomalies, got %v", errs)
	}
}

func TestValidatePacket_Anomalies(t *testing.T) {
	tests := []struct {
		name      string
		speedRaw  uint16
		distances [4]uint16
		qualities [4]uint16
		wantTypes []AnomalyType
	}{
		{
			name:      "spin too slow",
			speedRaw:  10 * 64,
			distances: [4]uint16{100, 200, 300, 400},
			qualities: [4]uint16{1, 2, 3, 4},
			wantTypes: []AnomalyType{AnomalySpeedRange},
		},
		{
			name:      "spin too fast",
			speedRaw:  700 * 64,
			distances: [4]uint16{100, 200, 300, 400},
			qualities: [4]uint16{1, 2, 3, 4},
			wantTypes: []AnomalyType{AnomalySpeedRange},
		},
		{
			name:      "zero quality without error flag",
			speedRaw:  300 * 64,
			distances: [4]uint16{100, 200, 300, 400},
			qualities: [4]uint16{0, 2, 3, 4},
			wantTypes: []AnomalyType{AnomalyZeroQuality},
		},
		{
			name:      "distance beyond sensor range",
			speedRaw:  300 * 64,
			distances: [4]uint16{MaxPlausibleRangeM + 1, 200, 300, 400},
			qualities: [4]uint16{1, 2, 3, 4},
			wantTypes: []AnomalyType{AnomalyLongRange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt := decodeOrFatal(t, buildFrame(0xA0, tt.speedRaw, tt.distances, tt.qualities))
			errs := ValidatePacket(pkt)
			if len(errs) != len(tt.wantTypes) {
				t.Fatalf("expected %d anomalies, got %d: %v", len(tt.wantTypes), len(errs), errs)
			}
			for i, want := range tt.wantTypes {
				if errs[i].Type != want {
					t.Errorf("anomaly %d: expected type %d, got %d (%s)", i, want, errs[i].Type, errs[i].Message)
				}
			}
		})
	}
}

func TestValidatePacket_FlaggedReadingsAreExempt(t *testing.T) {
	// Invalid-data readings carry zero quality by nature; the validator
	// must not double-report them.
	pkt := decodeOrFatal(t, buildFrame(0xA0, 300*64,
		[4]uint16{0x8002, 200, 300, 400}, [4]uint16{0, 2, 3, 4}))

	if errs := ValidatePacket(pkt); len(errs) != 0 {
		t.Errorf("flagged readings should not trip the validator, got %v", errs)
	}
}
