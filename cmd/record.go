// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 lidarscope authors

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neatokit/lidarscope/pkg/xv11"
)

var (
	recordOutput string
	recordFrames int
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Capture decoded frames to a CBOR log file",
	Long: `Decode frames from a live connection and append them to a CBOR
capture file, one record per frame. Recording stops after --frames valid
frames (10 full scans by default) or on Ctrl+C.

Frames that fail their checksum are skipped and counted; only frames
that decoded cleanly are written. Captures can be inspected offline with
the replay command.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "Capture file to write (required)")
	recordCmd.Flags().IntVar(&recordFrames, "frames", 900, "Number of valid frames to capture (0 = until interrupted)")
	recordCmd.MarkFlagRequired("output")
}

func runRecord(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	out, err := os.Create(recordOutput)
	if err != nil {
		return fmt.Errorf("cannot create capture file: %v", err)
	}
	defer out.Close()

	fmt.Printf("Lidarscope - Frame Capture\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Output: %s\n", recordOutput)
	if recordFrames > 0 {
		fmt.Printf("Capturing %d frames...\n\n", recordFrames)
	} else {
		fmt.Printf("Capturing until Ctrl+C...\n\n")
	}

	driver := xv11.NewDriver(xv11.Config{})
	msgs := make(chan xv11.Message, 64)
	cmds := make(chan xv11.Command, 1)
	go driver.RunWithPort(conn, msgs, cmds)

	writer := xv11.NewLogWriter(out)
	captured := 0
	skipped := 0
	stopping := false

	for msg := range msgs {
		switch m := msg.(type) {
		case xv11.PacketMessage:
			if stopping {
				continue
			}
			if err := writer.Write(m.Packet); err != nil {
				return fmt.Errorf("capture write failed: %v", err)
			}
			captured++
			if captured%xv11.FramesPerScan == 0 {
				fmt.Printf("  %d frames captured\n", captured)
			}
			if recordFrames > 0 && captured >= recordFrames {
				stopping = true
				// Non-blocking: the driver polls commands once per cycle
				select {
				case cmds <- xv11.CommandStop:
				default:
				}
			}

		case xv11.ErrorMessage:
			skipped++

		case xv11.ShutdownMessage:
			// Channel close follows; the range loop exits there.
		}
	}

	fmt.Printf("\nCapture complete: %d frames written", captured)
	if skipped > 0 {
		fmt.Printf(", %d bad frames skipped", skipped)
	}
	fmt.Println()
	return nil
}
