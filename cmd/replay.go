// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 lidarscope authors

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/neatokit/lidarscope/pkg/xv11"
)

var (
	replayInput string
	replayStats bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Inspect a CBOR capture file offline",
	Long: `Read a capture produced by the record command and print each frame
in the same format as the watch command. With --stats, the per-frame
output is suppressed and only a validation summary is printed, which is
useful for checking a long capture for anomalies.`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayInput, "input", "i", "", "Capture file to read (required)")
	replayCmd.Flags().BoolVar(&replayStats, "stats", false, "Print a summary instead of per-frame output")
	replayCmd.MarkFlagRequired("input")
}

func runReplay(cmd *cobra.Command, args []string) error {
	in, err := os.Open(replayInput)
	if err != nil {
		return fmt.Errorf("cannot open capture file: %v", err)
	}
	defer in.Close()

	reader := xv11.NewLogReader(in)
	stats := xv11.NewStatistics()
	assembler := xv11.NewScanAssembler()
	scans := 0

	for {
		packet, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Capture read failed after %d frames: %v\n", stats.TotalFrames, err)
			os.Exit(1)
		}

		validationErrors := xv11.ValidatePacket(packet)
		stats.Update(xv11.PacketMessage{Packet: packet}, validationErrors)
		if assembler.Add(packet) != nil {
			scans++
		}

		if !replayStats {
			fmt.Print(xv11.FormatPacket(packet))
			for _, verr := range validationErrors {
				fmt.Printf("  ANOMALY: %s\n", verr.Message)
			}
		}
	}

	fmt.Printf("Replayed %d frames (%d complete scans)\n", stats.TotalFrames, scans)
	if replayStats {
		fmt.Print(stats.String())
	}
	return nil
}
