// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 lidarscope authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/neatokit/lidarscope/pkg/xv11"
)

var (
	probeTimeout int
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test connection by waiting for a valid LIDAR frame",
	Long: `Wait for a valid XV-11 frame on the connection until timeout.

This command connects to a serial port or WebSocket, synchronizes to the
frame stream and waits for a frame that passes its checksum. Per-frame
errors are skipped and counted.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for checking wiring, baud rate and that the LIDAR motor is spinning.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runProbe(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Lidarscope - Probe\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)
	fmt.Printf("Waiting for valid XV-11 frame...\n\n")

	driver := xv11.NewDriver(xv11.Config{})
	msgs := make(chan xv11.Message, 64)
	go driver.RunWithPort(conn, msgs, nil)

	packetChan := make(chan *xv11.Packet, 1)
	errChan := make(chan error, 1)

	go func() {
		skipped := 0
		for msg := range msgs {
			switch m := msg.(type) {
			case xv11.PacketMessage:
				if skipped > 0 {
					fmt.Printf("(skipped %d bad frames before the first valid one)\n", skipped)
				}
				packetChan <- m.Packet
				return
			case xv11.ErrorMessage:
				var rerr *xv11.ReadError
				if errors.As(m.Err, &rerr) {
					errChan <- m.Err
					return
				}
				// Per-frame errors just delay the probe
				skipped++
			}
		}
	}()

	// Wait for frame or timeout
	select {
	case packet := <-packetChan:
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Frame index: %d\n", packet.FrameIndex())
		fmt.Printf("  Spin speed:  %.2f RPM\n", packet.Speed())
		for _, r := range packet.Readings() {
			fmt.Printf("  %s\n", xv11.FormatReading(r))
		}
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(probeTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", probeTimeout)
		os.Exit(1)
	}

	return nil
}
