// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neatokit/lidarscope/pkg/xv11"
)

var (
	showAll       bool
	statsInterval int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Detect and analyze stream errors with statistics",
	Long: `Track frame errors and anomalous values with periodic statistics.

This command validates each decoded frame and detects:
  - Checksum failures and resync events
  - Invalid-data readings and signal strength warnings
  - Anomalous values (implausible spin speed, zero-quality readings,
    distances beyond the sensor's range)
  - Statistics and trends (frame rate, error rate, scan completeness)

By default, only errors are displayed. Use --show-all to display valid
frames too. Statistics summaries print at a configurable interval.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Lidarscope - Error Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	driver := xv11.NewDriver(xv11.Config{})
	msgs := make(chan xv11.Message, 64)
	go driver.RunWithPort(conn, msgs, nil)

	stats := xv11.NewStatistics()
	assembler := xv11.NewScanAssembler()

	ticker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				fmt.Print(stats.String())
				return nil
			}

			switch m := msg.(type) {
			case xv11.PacketMessage:
				validationErrors := xv11.ValidatePacket(m.Packet)
				stats.Update(msg, validationErrors)

				if len(validationErrors) > 0 {
					printValidationErrors(m.Packet, validationErrors)
				} else if showAll {
					fmt.Print(xv11.FormatPacket(m.Packet))
				}

				if scan := assembler.Add(m.Packet); scan != nil && showAll {
					fmt.Printf("--- full scan complete, mean speed %.2f RPM ---\n\n", scan.Speed)
				}

			case xv11.ErrorMessage:
				stats.Update(msg, nil)
				printDriverError(m.Err)

			case xv11.ShutdownMessage:
				// Final summary arrives when the channel closes.
			}

		case <-ticker.C:
			frames, total := assembler.Progress()
			fmt.Print(stats.String())
			fmt.Printf("Scan progress: %d/%d frames\n\n", frames, total)
		}
	}
}

// printDriverError prints a driver error in highlighted format
func printDriverError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDRIVER ERROR:\033[0m %v\n\n", timestamp, err)
}

// printValidationErrors prints validation errors for a frame
func printValidationErrors(packet *xv11.Packet, errors []xv11.ValidationError) {
	timestamp := packet.Timestamp().Format("15:04:05.000")

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m frame %d\n", timestamp, packet.FrameIndex())
	fmt.Printf("  Checksum: \033[1;32mOK\033[0m\n")

	for i, err := range errors {
		fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)
	}
	fmt.Println()
}
